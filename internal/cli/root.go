// Package cli implements the careerguide command line.
package cli

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath     string
	logLevel       string
	conversationID string
}

// NewRootCommand builds the careerguide command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "careerguide",
		Short: "Multi-agent LinkedIn profile and career guidance assistant",
		Long: `careerguide runs a supervisor-routed team of agents that analyzes a LinkedIn
profile, assesses its fit for a target role and writes career guidance.

Conversations are persisted, so a conversation id can be resumed later.

Example:
  careerguide analyze --profile https://www.linkedin.com/in/jane --role "Data Engineer"
  careerguide chat --conversation jane
  careerguide serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (YAML or JSON)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.conversationID, "conversation", "", "conversation id (default: a new id)")

	root.AddCommand(
		newChatCommand(flags),
		newAskCommand(flags),
		newAnalyzeCommand(flags),
		newHistoryCommand(flags),
		newListCommand(flags),
		newForgetCommand(flags),
		newServeCommand(flags),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
