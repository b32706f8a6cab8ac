package agent

import (
	"fmt"
	"strings"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/llm"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/observability"
)

// CounsellorMode is the kind of reply the Counsellor writes.
type CounsellorMode string

// Counsellor modes.
const (
	ModeIntake    CounsellorMode = "intake"
	ModeSynthesis CounsellorMode = "synthesis"
	ModePartial   CounsellorMode = "partial"
)

const apology = "I'm sorry, I'm having trouble putting together a full answer right now. "

// Counsellor writes the user-facing reply that closes a turn.
type Counsellor struct {
	deps Deps
	tail int
}

// NewCounsellor builds the Counsellor node.
func NewCounsellor(deps Deps, opts ...Option) *Counsellor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Counsellor{deps: deps, tail: o.transcriptTail}
}

// ModeFor picks the reply mode from the intake fields and flags.
func ModeFor(s conversation.State) CounsellorMode {
	switch {
	case !s.HasIntake():
		return ModeIntake
	case s.Completed.AllDone():
		return ModeSynthesis
	default:
		return ModePartial
	}
}

// Execute appends exactly one Counsellor message.
func (c *Counsellor) Execute(ctx careerflow.Context, s conversation.State) (conversation.State, error) {
	mode := ModeFor(s)
	brief := c.brief(s, mode)
	fallback := c.fallback(s, mode)

	if c.deps.LLM == nil {
		s.Append(c.message(conversation.KindResult, fallback))
		return s, nil
	}

	resp, err := c.deps.LLM.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPromptFor(mode),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: brief}},
		Model:        c.deps.Model,
		MaxTokens:    DefaultMaxTokens,
	})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		observability.LogCollaboratorFailure(ctx.Logger(), "llm", err)
		c.deps.metrics().RecordCollaboratorFailure(ctx, "llm")
		s.Append(c.message(conversation.KindFailure, apology+fallback))
		return s, nil
	}

	s.Append(c.message(conversation.KindResult, strings.TrimSpace(resp.Content)))
	return s, nil
}

func (c *Counsellor) message(kind conversation.Kind, content string) conversation.Message {
	return conversation.AssistantMessage(string(conversation.NodeCounsellor), kind, content)
}

func systemPromptFor(mode CounsellorMode) string {
	switch mode {
	case ModeIntake:
		return counsellorIntakePrompt
	case ModeSynthesis:
		return counsellorSynthesisPrompt
	}
	return counsellorPartialPrompt
}

// brief is the context handed to the model for mode.
func (c *Counsellor) brief(s conversation.State, mode CounsellorMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation so far:\n%s\n\n", renderTranscript(s.Tail(c.tail)))

	switch mode {
	case ModeIntake:
		fmt.Fprintf(&b, "Missing inputs: %s\n", strings.Join(missingIntake(s), "; "))
	case ModeSynthesis:
		fmt.Fprintf(&b, "Target role: %s\n\n", s.TargetRole)
		for _, st := range conversation.Stages() {
			m, _ := s.StageResult(st)
			fmt.Fprintf(&b, "%s:\n%s\n\n", st.Title(), m.Content)
		}
	case ModePartial:
		fmt.Fprintf(&b, "Target role: %s\n\n", s.TargetRole)
		for _, st := range conversation.Stages() {
			fmt.Fprintf(&b, "%s: %s\n\n", st.Title(), stageStatus(s, st))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// fallback is the reply used when no model is available.
func (c *Counsellor) fallback(s conversation.State, mode CounsellorMode) string {
	switch mode {
	case ModeIntake:
		return "Hi, I'm Ria, your career counsellor. I can analyze your LinkedIn profile, " +
			"assess how well it fits the role you're aiming for and suggest next steps. " +
			"To get started, please share " + strings.Join(missingIntake(s), " and ") + "."
	case ModeSynthesis:
		var b strings.Builder
		b.WriteString("Here is a summary of your results.")
		for _, st := range conversation.Stages() {
			m, _ := s.StageResult(st)
			fmt.Fprintf(&b, "\n\n%s:\n%s", st.Title(), m.Content)
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString("Here is where things stand:")
	for _, st := range conversation.Stages() {
		fmt.Fprintf(&b, "\n- %s: %s", st.Title(), stageStatus(s, st))
	}
	b.WriteString("\n\nYou can share a valid LinkedIn profile URL, confirm your target role, or try again later.")
	return b.String()
}

func missingIntake(s conversation.State) []string {
	var missing []string
	if s.ProfileURL == "" {
		missing = append(missing, "your LinkedIn profile URL (it should start with "+conversation.ProfileURLPrefix+")")
	}
	if s.TargetRole == "" {
		missing = append(missing, "the target job role you are aiming for")
	}
	return missing
}

// stageStatus describes a stage for a partial reply: its result when
// done, otherwise the worker's latest note from this turn.
func stageStatus(s conversation.State, st conversation.Stage) string {
	if s.Done(st) {
		if m, ok := s.StageResult(st); ok {
			return "completed.\n" + m.Content
		}
		return "completed."
	}
	speaker := string(conversation.WorkerFor(st))
	for i := len(s.Transcript) - 1; i >= s.TurnStart && i >= 0; i-- {
		if m := s.Transcript[i]; m.Speaker == speaker {
			return "not completed. " + m.Content
		}
	}
	return "not completed."
}
