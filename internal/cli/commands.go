package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamedevCloudy/career-guide-agent/internal/api"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
)

// withRuntime runs fn with a ready runtime and closes it afterwards.
func withRuntime(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, rt *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := setup(ctx, flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close(context.Background())
	return fn(ctx, rt)
}

func newChatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app) error {
				id, _ := conversationFor(flags)
				return chatLoop(ctx, rt, id, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

// chatLoop reads one message per line until EOF, "exit" or "quit".
func chatLoop(ctx context.Context, rt *app, id string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Conversation %s. Type \"exit\" to quit.\n", id)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply, err := rt.orch.Step(ctx, line, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n\n", reply)
	}
}

func newAskCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app) error {
				id, fresh := conversationFor(flags)
				reply, err := rt.orch.Step(ctx, strings.Join(args, " "), id)
				if err != nil {
					return err
				}
				printReply(cmd.OutOrStdout(), id, fresh, reply)
				return nil
			})
		},
	}
}

func newAnalyzeCommand(flags *globalFlags) *cobra.Command {
	var profileURL, role string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a LinkedIn profile for a target role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !conversation.HasProfileURLPrefix(profileURL) {
				return fmt.Errorf("--profile must start with %s", conversation.ProfileURLPrefix)
			}
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app) error {
				id, fresh := conversationFor(flags)
				reply, err := rt.orch.Analyze(ctx, id, profileURL, role)
				if err != nil {
					return err
				}
				printReply(cmd.OutOrStdout(), id, fresh, reply)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&profileURL, "profile", "", "LinkedIn profile URL (required)")
	cmd.Flags().StringVar(&role, "role", "", "target job role (required)")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the transcript of a conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.conversationID == "" {
				return errors.New("--conversation is required")
			}
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app) error {
				state, err := rt.orch.Transcript(ctx, flags.conversationID)
				if err != nil {
					return err
				}
				printTranscript(cmd.OutOrStdout(), state)
				return nil
			})
		},
	}
}

func newListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app) error {
				list, err := rt.orch.Conversations(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range list {
					fmt.Fprintf(out, "%s\tturns=%d\tmessages=%d\tflags=%s\tupdated=%s\n",
						s.ID, s.Turn, s.Messages, s.Flags, s.UpdatedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func newForgetCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Delete a stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.conversationID == "" {
				return errors.New("--conversation is required")
			}
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app) error {
				return rt.orch.Forget(ctx, flags.conversationID)
			})
		},
	}
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app) error {
				if addr == "" {
					addr = rt.settings.Server.Addr
				}
				return serve(ctx, rt, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func serve(ctx context.Context, rt *app, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     api.NewRouter(api.NewHandler(rt.orch, rt.logger)),
		ReadTimeout: 30 * time.Second,
		// Analysis turns call several collaborators in sequence.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printReply(out io.Writer, id string, fresh bool, reply string) {
	if fresh {
		fmt.Fprintf(out, "conversation: %s\n\n", id)
	}
	fmt.Fprintln(out, reply)
}

func printTranscript(out io.Writer, s *conversation.State) {
	fmt.Fprintf(out, "conversation %s, %d turns, flags %s\n", s.ID, s.Turn, s.Completed.Fingerprint())
	for _, m := range s.Transcript {
		fmt.Fprintf(out, "\n[%s] %s (%s)\n%s\n", m.CreatedAt.Format(time.RFC3339), m.Speaker, m.Kind, m.Content)
	}
}
