package agent

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/llm"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/observability"
)

// Reason explains a routing decision.
type Reason string

// Routing reasons.
const (
	ReasonModel       Reason = "model"
	ReasonPolicy      Reason = "policy"
	ReasonIntake      Reason = "intake"
	ReasonAmbiguous   Reason = "ambiguous"
	ReasonUnavailable Reason = "unavailable"
	ReasonLoopGuard   Reason = "loop_guard"
	ReasonNoReply     Reason = "no_reply"
)

// RoutingDecision is the supervisor's choice for the next node. Proposed
// is what the model or policy picked before any override.
type RoutingDecision struct {
	Next     conversation.Node
	Proposed conversation.Node
	Reason   Reason
}

// Overridden reports whether the supervisor replaced the proposed node.
func (d RoutingDecision) Overridden() bool {
	return d.Proposed != "" && d.Next != d.Proposed
}

// Supervisor chooses which node acts next.
type Supervisor struct {
	deps  Deps
	mode  string
	tail  int
	guard loopGuard
}

// NewSupervisor builds a supervisor. Without an LLM it always routes by
// stage priority.
func NewSupervisor(deps Deps, opts ...Option) *Supervisor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	mode := o.routingMode
	if deps.LLM == nil {
		mode = RoutingPriority
	}
	return &Supervisor{
		deps:  deps,
		mode:  mode,
		tail:  o.transcriptTail,
		guard: loopGuard{window: o.window},
	}
}

// Route decides the next node for s without modifying it.
func (sv *Supervisor) Route(ctx careerflow.Context, s conversation.State) RoutingDecision {
	if !s.HasIntake() {
		return RoutingDecision{Next: conversation.NodeCounsellor, Reason: ReasonIntake}
	}

	var d RoutingDecision
	if sv.mode == RoutingPriority {
		d = RoutingDecision{Proposed: priorityNext(s), Reason: ReasonPolicy}
	} else {
		d = sv.ask(ctx, s)
	}
	d.Next = d.Proposed

	switch {
	case d.Proposed == conversation.NodeFinish && !s.CounselledThisTurn():
		d = sv.override(ctx, d, ReasonNoReply)
	case d.Proposed.IsWorker() && sv.guard.repeats(s.Routes, d.Proposed, s.Completed.Fingerprint()):
		d = sv.override(ctx, d, ReasonLoopGuard)
	}
	return d
}

// Execute is the Supervisor graph node. It records the decision in
// NextNode and, for workers, in the loop guard window.
func (sv *Supervisor) Execute(ctx careerflow.Context, s conversation.State) (conversation.State, error) {
	d := sv.Route(ctx, s)
	fingerprint := s.Completed.Fingerprint()

	s.NextNode = d.Next
	if d.Next.IsWorker() {
		s.Routes = sv.guard.record(s.Routes, conversation.RouteRecord{Node: d.Next, Flags: fingerprint})
	}

	observability.LogRoutingDecision(ctx.Logger(), string(d.Next), string(d.Reason), fingerprint)
	observability.AddSpanEvent(ctx, "routing.decision",
		attribute.String("next", string(d.Next)),
		attribute.String("reason", string(d.Reason)),
		attribute.String("flags", fingerprint))
	return s, nil
}

// Next is the conditional edge out of the Supervisor node.
func (sv *Supervisor) Next(_ careerflow.Context, s conversation.State) string {
	switch s.NextNode {
	case conversation.NodeFinish:
		return careerflow.END
	case "":
		return string(conversation.NodeCounsellor)
	}
	return string(s.NextNode)
}

func (sv *Supervisor) ask(ctx careerflow.Context, s conversation.State) RoutingDecision {
	expected := priorityNext(s)
	resp, err := sv.deps.LLM.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: supervisorSystemPrompt(&s, string(expected)),
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: "Conversation so far:\n" + renderTranscript(s.Tail(sv.tail)) + "\n\nWho should act next?",
		}},
		Model:     sv.deps.Model,
		MaxTokens: 64,
		Schema:    routingSchema(),
	})
	if err != nil {
		observability.LogCollaboratorFailure(ctx.Logger(), "llm", err)
		sv.deps.metrics().RecordCollaboratorFailure(ctx, "llm")
		return RoutingDecision{Proposed: conversation.NodeCounsellor, Reason: ReasonUnavailable}
	}

	var out struct {
		Next string `json:"next"`
	}
	if err := llm.DecodeJSON(resp.Content, &out); err != nil {
		ctx.Logger().Warn("unreadable routing output", "error", err)
		return RoutingDecision{Proposed: conversation.NodeCounsellor, Reason: ReasonAmbiguous}
	}
	node, ok := conversation.ParseNode(out.Next)
	if !ok {
		ctx.Logger().Warn("unknown routing label", "label", strings.TrimSpace(out.Next))
		return RoutingDecision{Proposed: conversation.NodeCounsellor, Reason: ReasonAmbiguous}
	}
	return RoutingDecision{Proposed: node, Reason: ReasonModel}
}

func (sv *Supervisor) override(ctx careerflow.Context, d RoutingDecision, reason Reason) RoutingDecision {
	observability.LogRoutingOverride(ctx.Logger(), string(d.Proposed), string(conversation.NodeCounsellor), string(reason))
	sv.deps.metrics().RecordRoutingOverride(ctx, string(reason))
	return RoutingDecision{Next: conversation.NodeCounsellor, Proposed: d.Proposed, Reason: reason}
}

// priorityNext is the worker for the first incomplete stage, or the
// Counsellor once every stage is done.
func priorityNext(s conversation.State) conversation.Node {
	if st, ok := s.Completed.FirstIncomplete(); ok {
		return conversation.WorkerFor(st)
	}
	return conversation.NodeCounsellor
}
