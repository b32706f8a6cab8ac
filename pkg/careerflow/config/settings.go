package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Routing modes.
const (
	RoutingModel    = "model"
	RoutingPriority = "priority"
)

// ProviderNone disables the LLM. Routing falls back to priority order and
// workers report the model as unavailable.
const ProviderNone = "none"

// Settings is the application configuration.
type Settings struct {
	LLM       LLMSettings
	Scraper   ScraperSettings
	Search    SearchSettings
	Store     StoreSettings
	Routing   RoutingSettings
	Server    ServerSettings
	Log       LogSettings
	Telemetry TelemetrySettings
}

// LLMSettings selects and configures the completion provider.
type LLMSettings struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	BinaryPath string
	Timeout    time.Duration
}

// ScraperSettings configures the profile scraper.
type ScraperSettings struct {
	Token   string
	Actor   string
	BaseURL string
}

// SearchSettings configures web search.
type SearchSettings struct {
	Enabled    bool
	Endpoint   string
	MaxResults int
}

// StoreSettings selects conversation persistence.
type StoreSettings struct {
	// URI is "memory" or a SQLite path.
	URI string
}

// RoutingSettings tunes the supervisor.
type RoutingSettings struct {
	Mode           string
	Window         int
	TranscriptTail int
	MaxIterations  int
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string
	Format string
}

// TelemetrySettings toggles OpenTelemetry instrumentation.
type TelemetrySettings struct {
	Metrics bool
	Tracing bool
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		LLM:     LLMSettings{Provider: "gemini", Model: "gemini-2.0-flash", Timeout: 2 * time.Minute},
		Scraper: ScraperSettings{Actor: "2SyF0bVxmgGr8IVCZ"},
		Search:  SearchSettings{Enabled: true, MaxResults: 5},
		Store:   StoreSettings{URI: "agent_checkpoint.sqlite"},
		Routing: RoutingSettings{Mode: RoutingModel, Window: 3, TranscriptTail: 8, MaxIterations: 25},
		Server:  ServerSettings{Addr: ":8080"},
		Log:     LogSettings{Level: "info", Format: "json"},
	}
}

// FromConfig overlays file values from c onto the defaults.
func FromConfig(c Config) Settings {
	s := Defaults()

	llm := c.Sub("llm")
	s.LLM.Provider = llm.String("provider", s.LLM.Provider)
	s.LLM.Model = llm.String("model", s.LLM.Model)
	s.LLM.APIKey = llm.String("api_key", s.LLM.APIKey)
	s.LLM.BaseURL = llm.String("base_url", s.LLM.BaseURL)
	s.LLM.BinaryPath = llm.String("binary_path", s.LLM.BinaryPath)
	s.LLM.Timeout = llm.Duration("timeout", s.LLM.Timeout)

	scraper := c.Sub("scraper")
	s.Scraper.Token = scraper.String("token", s.Scraper.Token)
	s.Scraper.Actor = scraper.String("actor", s.Scraper.Actor)
	s.Scraper.BaseURL = scraper.String("base_url", s.Scraper.BaseURL)

	search := c.Sub("search")
	s.Search.Enabled = search.Bool("enabled", s.Search.Enabled)
	s.Search.Endpoint = search.String("endpoint", s.Search.Endpoint)
	s.Search.MaxResults = search.Int("max_results", s.Search.MaxResults)

	s.Store.URI = c.Sub("store").String("uri", s.Store.URI)

	routing := c.Sub("routing")
	s.Routing.Mode = routing.String("mode", s.Routing.Mode)
	s.Routing.Window = routing.Int("window", s.Routing.Window)
	s.Routing.TranscriptTail = routing.Int("transcript_tail", s.Routing.TranscriptTail)
	s.Routing.MaxIterations = routing.Int("max_iterations", s.Routing.MaxIterations)

	s.Server.Addr = c.Sub("server").String("addr", s.Server.Addr)

	log := c.Sub("log")
	s.Log.Level = log.String("level", s.Log.Level)
	s.Log.Format = log.String("format", s.Log.Format)

	telemetry := c.Sub("telemetry")
	s.Telemetry.Metrics = telemetry.Bool("metrics", s.Telemetry.Metrics)
	s.Telemetry.Tracing = telemetry.Bool("tracing", s.Telemetry.Tracing)
	return s
}

// ApplyEnv overrides s from environment variables.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}

	str("CAREERFLOW_LLM_PROVIDER", &s.LLM.Provider)
	str("CAREERFLOW_LLM_MODEL", &s.LLM.Model)
	str("GEMINI_API_KEY", &s.LLM.APIKey)
	str("CAREERFLOW_LLM_API_KEY", &s.LLM.APIKey)
	str("APIFY_API_TOKEN", &s.Scraper.Token)
	str("DATABASE_URI", &s.Store.URI)
	str("CAREERFLOW_ROUTING_MODE", &s.Routing.Mode)
	num("CAREERFLOW_MAX_ITERATIONS", &s.Routing.MaxIterations)
	flag("CAREERFLOW_SEARCH_ENABLED", &s.Search.Enabled)
	str("CAREERFLOW_ADDR", &s.Server.Addr)
	str("CAREERFLOW_LOG_LEVEL", &s.Log.Level)
	flag("CAREERFLOW_METRICS", &s.Telemetry.Metrics)
	flag("CAREERFLOW_TRACING", &s.Telemetry.Tracing)
}

// Validate checks that the settings are usable.
func (s Settings) Validate() error {
	if s.LLM.Provider == "" {
		return fmt.Errorf("llm.provider cannot be empty")
	}
	if s.Routing.Mode != RoutingModel && s.Routing.Mode != RoutingPriority {
		return fmt.Errorf("routing.mode must be %q or %q, got %q", RoutingModel, RoutingPriority, s.Routing.Mode)
	}
	if s.Routing.Window < 1 {
		return fmt.Errorf("routing.window must be > 0")
	}
	if s.Routing.TranscriptTail < 1 {
		return fmt.Errorf("routing.transcript_tail must be > 0")
	}
	if s.Routing.MaxIterations < 1 {
		return fmt.Errorf("routing.max_iterations must be > 0")
	}
	if s.Store.URI == "" {
		return fmt.Errorf("store.uri cannot be empty")
	}
	if s.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be > 0")
	}
	if _, err := s.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (s Settings) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// LoadSettings reads path (optional), applies environment overrides and
// validates the result.
func LoadSettings(path string) (Settings, error) {
	c := New(nil)
	if path != "" {
		var err error
		if c, err = FromFile(path); err != nil {
			return Settings{}, err
		}
	}

	s := FromConfig(c)
	s.ApplyEnv(os.LookupEnv)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}
