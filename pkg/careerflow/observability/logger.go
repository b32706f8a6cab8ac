// Package observability provides structured logging, metrics and tracing
// helpers for career guidance turns.
//
// Logging goes through log/slog. Metrics and spans use OpenTelemetry with
// the global providers. Every helper has a no-op form so callers never
// branch on whether observability is enabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds conversation and turn fields to a logger.
// Returns nil when logger is nil.
func EnrichLogger(logger *slog.Logger, conversationID string, turn int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("conversation_id", conversationID),
		slog.Int("turn", turn),
	)
}

// LogTurnStart logs the start of a graph run for one turn.
func LogTurnStart(logger *slog.Logger, runID string) {
	if logger == nil {
		return
	}
	logger.Info("turn starting",
		slog.String("run_id", runID),
	)
}

// LogTurnComplete logs a turn that reached END.
func LogTurnComplete(logger *slog.Logger, runID string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("turn completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
	)
}

// LogTurnError logs a turn the engine could not finish.
func LogTurnError(logger *slog.Logger, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("turn failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
	)
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs a node execution error.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogRoutingDecision logs where the supervisor sent the turn and why.
func LogRoutingDecision(logger *slog.Logger, next, reason, flags string) {
	if logger == nil {
		return
	}
	logger.Info("routing decision",
		slog.String("next", next),
		slog.String("reason", reason),
		slog.String("flags", flags),
	)
}

// LogRoutingOverride logs a proposed route that was replaced.
func LogRoutingOverride(logger *slog.Logger, proposed, forced, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("routing override",
		slog.String("proposed", proposed),
		slog.String("forced", forced),
		slog.String("reason", reason),
	)
}

// LogCollaboratorFailure logs a failed external call that the turn absorbed.
func LogCollaboratorFailure(logger *slog.Logger, collaborator string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("collaborator failed",
		slog.String("collaborator", collaborator),
		slog.String("error", err.Error()),
	)
}
