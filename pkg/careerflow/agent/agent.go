// Package agent wires the career guidance roles onto the careerflow graph
// engine: the Supervisor router with its loop guard, the three stage
// workers, the Counsellor, and the Orchestrator that runs one turn per
// user message.
package agent

import (
	"log/slog"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/llm"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/observability"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/tools"
)

// Routing modes.
const (
	RoutingModel    = "model"
	RoutingPriority = "priority"
)

// Defaults.
const (
	DefaultWindow         = 3
	DefaultTranscriptTail = 8
	DefaultMaxTokens      = 2048
	maxProfileChars       = 12000
)

// Deps are the collaborators shared by every node.
//
// A nil LLM switches the supervisor to priority routing, and workers that
// need the model report it as unavailable. Search is optional. Scraper is
// required by the profile stage only.
type Deps struct {
	LLM     llm.Client
	Search  tools.Searcher
	Scraper tools.Scraper
	Metrics observability.MetricsRecorder
	Model   string
}

func (d Deps) metrics() observability.MetricsRecorder {
	if d.Metrics == nil {
		return observability.NoopMetrics{}
	}
	return d.Metrics
}

type options struct {
	routingMode    string
	window         int
	transcriptTail int
	maxIterations  int
	logger         *slog.Logger
	tracing        bool
}

func defaultOptions() options {
	return options{
		routingMode:    RoutingModel,
		window:         DefaultWindow,
		transcriptTail: DefaultTranscriptTail,
		logger:         slog.Default(),
	}
}

// Option configures the orchestrator and its nodes.
type Option func(*options)

// WithRoutingMode selects model or priority routing. Unknown modes are
// ignored.
func WithRoutingMode(mode string) Option {
	return func(o *options) {
		if mode == RoutingModel || mode == RoutingPriority {
			o.routingMode = mode
		}
	}
}

// WithWindow sets the loop guard window size.
func WithWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.window = n
		}
	}
}

// WithTranscriptTail sets how many recent messages the supervisor sees.
func WithTranscriptTail(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.transcriptTail = n
		}
	}
}

// WithMaxIterations bounds node executions per turn.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithLogger sets the base logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracing enables OpenTelemetry spans for each turn.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracing = enabled
	}
}
