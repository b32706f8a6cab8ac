package careerflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context is the execution context handed to nodes and routers. It extends
// context.Context with a run-scoped logger and identifiers.
//
// Collaborators (LLM clients, tools, stores) are not carried here; nodes
// receive them through their constructors.
type Context interface {
	context.Context

	// Logger returns the logger enriched with run_id and node_id.
	// Never nil.
	Logger() *slog.Logger

	// RunID identifies the current run. Auto-generated if not configured.
	RunID() string

	// NodeID returns the node being executed, "" outside node execution.
	NodeID() string
}

type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	nodeID string
}

func (c *executionContext) Logger() *slog.Logger { return c.logger }
func (c *executionContext) RunID() string        { return c.runID }
func (c *executionContext) NodeID() string       { return c.nodeID }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier used for logging and tracing.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		if id != "" {
			c.runID = id
		}
	}
}

// NewContext wraps ctx as a Context.
//
//	ctx := careerflow.NewContext(context.Background(),
//	    careerflow.WithLogger(logger),
//	    careerflow.WithContextRunID("conv-42/3"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// withNode derives a context for one node with an enriched logger.
func withNode(ctx Context, nodeID string) Context {
	return &executionContext{
		Context: ctx,
		logger:  ctx.Logger().With("run_id", ctx.RunID(), "node_id", nodeID),
		runID:   ctx.RunID(),
		nodeID:  nodeID,
	}
}

// withTracing swaps the embedded context.Context, keeping run metadata.
// Used to carry span context into node execution.
func withTracing(ctx Context, traced context.Context) Context {
	return &executionContext{
		Context: traced,
		logger:  ctx.Logger(),
		runID:   ctx.RunID(),
		nodeID:  ctx.NodeID(),
	}
}
