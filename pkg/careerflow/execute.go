package careerflow

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/observability"
	"go.opentelemetry.io/otel/trace"
)

// Run executes the graph from its entry point until END.
//
// On success it returns the state produced by the last node. On error it
// returns the state as it was when the failure happened, so callers can
// keep partial progress.
func (cg *CompiledGraph[S]) Run(ctx Context, state S, opts ...RunOption) (result S, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}

	start := time.Now()
	observability.LogTurnStart(cfg.logger, runID)

	var traced context.Context = ctx
	if cfg.tracingEnabled {
		var span trace.Span
		traced, span = cfg.spans.StartTurnSpan(ctx, cfg.graphName, runID)
		defer func() {
			cfg.spans.EndSpanWithError(span, runErr)
		}()
	}

	result, nodeCount, runErr := cg.runFrom(traced, ctx, state, cg.entryPoint, &cfg)

	duration := time.Since(start)
	cfg.metrics.RecordTurn(ctx, runErr == nil, duration)

	if runErr != nil {
		observability.LogTurnError(cfg.logger, runID, runErr, float64(duration.Milliseconds()), LastNode(runErr))
	} else {
		observability.LogTurnComplete(cfg.logger, runID, float64(duration.Milliseconds()), nodeCount)
	}
	return result, runErr
}

// runFrom is the execution loop. traced carries span context; fgCtx is the
// engine Context used for cancellation and logging.
func (cg *CompiledGraph[S]) runFrom(traced context.Context, fgCtx Context, state S, start string, cfg *runConfig) (S, int, error) {
	current := start
	nodeCount := 0

	for current != END {
		if nodeCount >= cfg.maxIterations {
			return state, nodeCount, &MaxIterationsError{Max: cfg.maxIterations, LastNodeID: current}
		}

		select {
		case <-fgCtx.Done():
			return state, nodeCount, &CancellationError{NodeID: current, Cause: fgCtx.Err()}
		default:
		}

		observability.LogNodeStart(cfg.logger, current)

		nodeTraced := traced
		var span trace.Span
		if cfg.tracingEnabled {
			nodeTraced, span = cfg.spans.StartNodeSpan(traced, current)
		}

		nodeStart := time.Now()
		var err error
		state, err = cg.executeNode(withTracing(fgCtx, nodeTraced), current, state)
		elapsed := time.Since(nodeStart)

		cfg.metrics.RecordNodeExecution(nodeTraced, current, elapsed, err)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(span, err)
		}
		if err != nil {
			observability.LogNodeError(cfg.logger, current, err)
			return state, nodeCount, err
		}
		observability.LogNodeComplete(cfg.logger, current, float64(elapsed.Milliseconds()))
		nodeCount++

		next, err := cg.nextNode(fgCtx, state, current)
		if err != nil {
			return state, nodeCount, err
		}
		current = next
	}

	return state, nodeCount, nil
}

// executeNode runs one node with panic recovery.
func (cg *CompiledGraph[S]) executeNode(ctx Context, nodeID string, state S) (result S, err error) {
	fn, ok := cg.nodes[nodeID]
	if !ok {
		return state, &NodeError{NodeID: nodeID, Op: "lookup", Err: fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)}
	}

	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{NodeID: nodeID, Value: r, Stack: string(debug.Stack())}
		}
	}()

	result, err = fn(withNode(ctx, nodeID), state)
	if err != nil {
		return result, &NodeError{NodeID: nodeID, Op: "execute", Err: err}
	}
	return result, nil
}

// nextNode resolves the edge out of current. Routers take precedence over
// simple edges.
func (cg *CompiledGraph[S]) nextNode(ctx Context, state S, current string) (string, error) {
	if router, ok := cg.routers[current]; ok {
		next := router(withNode(ctx, current), state)
		if next == "" {
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrInvalidRouterResult}
		}
		if next != END && !cg.HasNode(next) {
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrRouterTargetNotFound}
		}
		if declared, ok := cg.targets[current]; ok && !declared[next] {
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrRouterTargetNotFound}
		}
		return next, nil
	}

	if to, ok := cg.edges[current]; ok {
		return to, nil
	}
	return "", &NodeError{NodeID: current, Op: "routing", Err: ErrNoOutgoingEdge}
}
