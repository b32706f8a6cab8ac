package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/llm"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/observability"
)

// errNoModel is reported when a worker runs without an LLM client.
var errNoModel = errors.New("no language model configured")

// prepareFunc builds the LLM context for a stage. It returns false after
// appending a precondition or failure message to s.
type prepareFunc func(w *Worker, ctx careerflow.Context, s *conversation.State) (string, bool)

// Worker executes one analysis stage.
type Worker struct {
	node    conversation.Node
	stage   conversation.Stage
	prompt  string
	deps    Deps
	prepare prepareFunc
}

// NewProfileAnalyzer returns the worker that scrapes and analyzes the
// user's LinkedIn profile.
func NewProfileAnalyzer(deps Deps) *Worker {
	return &Worker{
		node:    conversation.NodeProfileAnalyzer,
		stage:   conversation.StageProfileAnalysis,
		prompt:  profilePrompt,
		deps:    deps,
		prepare: prepareProfile,
	}
}

// NewJobFitAnalyzer returns the worker that compares the profile with the
// target role.
func NewJobFitAnalyzer(deps Deps) *Worker {
	return &Worker{
		node:    conversation.NodeJobFitAnalyzer,
		stage:   conversation.StageJobFit,
		prompt:  jobFitPrompt,
		deps:    deps,
		prepare: prepareJobFit,
	}
}

// NewCareerAdvisor returns the worker that turns the two prior results
// into career guidance.
func NewCareerAdvisor(deps Deps) *Worker {
	return &Worker{
		node:    conversation.NodeCareerAdvisor,
		stage:   conversation.StageCareerGuidance,
		prompt:  guidancePrompt,
		deps:    deps,
		prepare: prepareGuidance,
	}
}

// Node returns the graph node the worker is registered as.
func (w *Worker) Node() conversation.Node { return w.node }

// Execute runs the stage. It appends exactly one message and sets the
// stage flag only when that message is a result.
func (w *Worker) Execute(ctx careerflow.Context, s conversation.State) (conversation.State, error) {
	if s.Done(w.stage) {
		s.Append(w.message(conversation.KindNoop, w.stage.Title()+" already completed."))
		return s, nil
	}

	input, ok := w.prepare(w, ctx, &s)
	if !ok {
		return s, nil
	}

	if w.deps.LLM == nil {
		w.unavailable(ctx, &s, "llm", errNoModel)
		return s, nil
	}

	resp, err := w.deps.LLM.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: w.prompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: input}},
		Model:        w.deps.Model,
		MaxTokens:    DefaultMaxTokens,
	})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		w.unavailable(ctx, &s, "llm", err)
		return s, nil
	}

	s.Append(w.message(conversation.KindResult, strings.TrimSpace(resp.Content)))
	s.Complete(w.stage)
	return s, nil
}

func (w *Worker) message(kind conversation.Kind, content string) conversation.Message {
	return conversation.AssistantMessage(string(w.node), kind, content)
}

func (w *Worker) precondition(s *conversation.State, missing string) {
	s.Append(w.message(conversation.KindPrecondition,
		fmt.Sprintf("%s cannot proceed without %s.", w.node, missing)))
}

func (w *Worker) unavailable(ctx careerflow.Context, s *conversation.State, collaborator string, err error) {
	observability.LogCollaboratorFailure(ctx.Logger(), collaborator, err)
	w.deps.metrics().RecordCollaboratorFailure(ctx, collaborator)
	s.Append(w.message(conversation.KindFailure, fmt.Sprintf(
		"I'm sorry, I couldn't complete the %s right now because a required service is unavailable. Please try again later.",
		strings.ToLower(w.stage.Title()))))
}

// searchNotes runs an auxiliary web search. Failures are logged and
// reported inline so the stage can continue without them.
func (w *Worker) searchNotes(ctx careerflow.Context, query string) string {
	if w.deps.Search == nil {
		return "Web search is not available."
	}
	notes, err := w.deps.Search.Search(ctx, query)
	if err != nil {
		observability.LogCollaboratorFailure(ctx.Logger(), "search", err)
		w.deps.metrics().RecordCollaboratorFailure(ctx, "search")
		return "Web search failed: " + err.Error()
	}
	return notes
}

func prepareProfile(w *Worker, ctx careerflow.Context, s *conversation.State) (string, bool) {
	if s.ProfileURL == "" {
		w.precondition(s, "a valid LinkedIn profile URL")
		return "", false
	}

	if s.Profile == nil || s.Profile.URL != s.ProfileURL {
		s.Profile = nil
		if w.deps.Scraper == nil {
			w.unavailable(ctx, s, "scraper", errors.New("no profile scraper configured"))
			return "", false
		}
		out := w.deps.Scraper.Scrape(ctx, s.ProfileURL)
		if !out.OK() {
			reason := "no profile data was returned"
			if out.Failure != nil {
				reason = strings.TrimRight(out.Failure.Reason, ". ")
				ctx.Logger().Warn("profile scrape failed",
					"url", s.ProfileURL,
					"kind", string(out.Failure.Kind),
					"reason", out.Failure.Reason)
			}
			w.deps.metrics().RecordCollaboratorFailure(ctx, "scraper")
			s.Append(w.message(conversation.KindFailure, fmt.Sprintf(
				"I couldn't retrieve the LinkedIn profile at %s: %s. Please check that the URL is a public LinkedIn profile.",
				s.ProfileURL, reason)))
			return "", false
		}
		s.Profile = out.Profile
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Profile URL: %s\n\n", s.ProfileURL)
	fmt.Fprintf(&b, "Scraped profile data:\n%s\n\n", profileJSON(s.Profile))
	fmt.Fprintf(&b, "Search notes on profile best practices:\n%s",
		w.searchNotes(ctx, "LinkedIn profile optimization best practices for recruiters and search ranking"))
	return b.String(), true
}

func prepareJobFit(w *Worker, ctx careerflow.Context, s *conversation.State) (string, bool) {
	if s.Profile == nil {
		w.precondition(s, "profile data")
		return "", false
	}
	if s.TargetRole == "" {
		w.precondition(s, "a target role")
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Target role: %s\n\n", s.TargetRole)
	fmt.Fprintf(&b, "Profile data:\n%s\n\n", profileJSON(s.Profile))
	if m, ok := s.StageResult(conversation.StageProfileAnalysis); ok {
		fmt.Fprintf(&b, "Profile analysis:\n%s\n\n", m.Content)
	}
	fmt.Fprintf(&b, "Search notes on role requirements:\n%s",
		w.searchNotes(ctx, s.TargetRole+" job description required skills and experience"))
	return b.String(), true
}

func prepareGuidance(w *Worker, ctx careerflow.Context, s *conversation.State) (string, bool) {
	analysis, okA := s.StageResult(conversation.StageProfileAnalysis)
	fit, okF := s.StageResult(conversation.StageJobFit)
	switch {
	case !s.Done(conversation.StageProfileAnalysis) || !okA:
		w.precondition(s, "the profile analysis results")
		return "", false
	case !s.Done(conversation.StageJobFit) || !okF:
		w.precondition(s, "the job fit assessment results")
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Target role: %s\n\n", s.TargetRole)
	fmt.Fprintf(&b, "Profile analysis:\n%s\n\n", analysis.Content)
	fmt.Fprintf(&b, "Job fit assessment:\n%s\n\n", fit.Content)
	fmt.Fprintf(&b, "Search notes on career paths and learning resources:\n%s",
		w.searchNotes(ctx, s.TargetRole+" career path learning resources courses certifications"))
	return b.String(), true
}

func profileJSON(p *conversation.Profile) string {
	if p == nil {
		return "(none)"
	}
	data, err := json.MarshalIndent(p.Items, "", "  ")
	if err != nil {
		return "(unreadable profile data)"
	}
	return truncate(string(data), maxProfileChars)
}
