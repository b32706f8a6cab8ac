package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/agent"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/config"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/llm"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/observability"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/store"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/tools"
)

// app is everything a command needs. close releases it in reverse
// order of acquisition.
type app struct {
	settings config.Settings
	logger   *slog.Logger
	orch     *agent.Orchestrator
	closers  []func(context.Context) error
}

func (r *app) close(ctx context.Context) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			r.logger.Error("shutdown failed", "error", err)
		}
	}
}

// loadSettings reads .env, the config file and the environment, then
// applies command line overrides.
func loadSettings(flags *globalFlags) (config.Settings, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	settings, err := config.LoadSettings(flags.configPath)
	if err != nil {
		return config.Settings{}, err
	}
	if flags.logLevel != "" {
		settings.Log.Level = flags.logLevel
		if err := settings.Validate(); err != nil {
			return config.Settings{}, err
		}
	}
	return settings, nil
}

func newLogger(settings config.Settings, w io.Writer) *slog.Logger {
	level, _ := settings.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(settings.Log.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newLLM returns nil for the "none" provider.
func newLLM(s config.LLMSettings) (llm.Client, error) {
	if strings.EqualFold(s.Provider, config.ProviderNone) {
		return nil, nil
	}
	return llm.New(s.Provider, llm.ProviderConfig{
		APIKey:     s.APIKey,
		Model:      s.Model,
		BaseURL:    s.BaseURL,
		BinaryPath: s.BinaryPath,
		Timeout:    s.Timeout,
	})
}

func newScraper(s config.ScraperSettings) tools.Scraper {
	return tools.NewApify(s.Token,
		tools.WithApifyActor(s.Actor),
		tools.WithApifyBaseURL(s.BaseURL))
}

func newSearcher(s config.SearchSettings) tools.Searcher {
	if !s.Enabled {
		return nil
	}
	return tools.NewDuckDuckGo(
		tools.WithSearchEndpoint(s.Endpoint),
		tools.WithMaxResults(s.MaxResults))
}

// setup wires settings, logging, telemetry, collaborators and the store
// into an orchestrator.
func setup(ctx context.Context, flags *globalFlags, logOut io.Writer) (*app, error) {
	settings, err := loadSettings(flags)
	if err != nil {
		return nil, err
	}
	logger := newLogger(settings, logOut)
	slog.SetDefault(logger)

	rt := &app{settings: settings, logger: logger}
	ok := false
	defer func() {
		if !ok {
			rt.close(ctx)
		}
	}()

	shutdownTelemetry, err := setupTelemetry(settings.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	rt.closers = append(rt.closers, shutdownTelemetry)

	client, err := newLLM(settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	if client == nil {
		logger.Warn("no language model configured, routing by stage priority")
	}

	st, err := store.Open(settings.Store.URI)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return st.Close() })

	var metrics observability.MetricsRecorder
	if settings.Telemetry.Metrics {
		metrics = observability.NewMetricsRecorder()
	}

	rt.orch, err = agent.NewOrchestrator(st, agent.Deps{
		LLM:     client,
		Search:  newSearcher(settings.Search),
		Scraper: newScraper(settings.Scraper),
		Metrics: metrics,
		Model:   settings.LLM.Model,
	},
		agent.WithRoutingMode(settings.Routing.Mode),
		agent.WithWindow(settings.Routing.Window),
		agent.WithTranscriptTail(settings.Routing.TranscriptTail),
		agent.WithMaxIterations(settings.Routing.MaxIterations),
		agent.WithLogger(logger),
		agent.WithTracing(settings.Telemetry.Tracing),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("runtime ready",
		"llm_provider", settings.LLM.Provider,
		"store", settings.Store.URI,
		"routing_mode", settings.Routing.Mode)
	ok = true
	return rt, nil
}

// conversationFor returns the --conversation flag or a fresh id.
func conversationFor(flags *globalFlags) (string, bool) {
	if id := strings.TrimSpace(flags.conversationID); id != "" {
		return id, false
	}
	return agent.NewConversationID(), true
}
