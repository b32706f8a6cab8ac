package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/llm"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/tools"
)

const (
	testProfileURL = "https://www.linkedin.com/in/test"
	testRole       = "Data Engineer"

	profileResult  = "Strong headline, thin skills section."
	jobFitResult   = "Good Match. Gaps: Spark, Airflow."
	guidanceResult = "Learn Spark, then target junior data engineering roles."
	synthesisReply = "Here is your plan: polish the profile, learn Spark and apply."
	partialReply   = "Some steps could not be completed."
	intakeReply    = "Hi, I'm Ria! Please share your LinkedIn URL and target role."
)

// scriptedLLM answers routing requests from a queue (the last label
// repeats) and every other request by its system prompt.
type scriptedLLM struct {
	*llm.MockClient
	mu     sync.Mutex
	routes []string
}

func newScriptedLLM(routes ...string) *scriptedLLM {
	s := &scriptedLLM{routes: routes}
	s.MockClient = llm.NewMockClient("").WithCompleteFunc(s.complete)
	return s
}

func (s *scriptedLLM) complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if req.Schema != nil {
		s.mu.Lock()
		label := "Counsellor"
		if len(s.routes) > 0 {
			label = s.routes[0]
			if len(s.routes) > 1 {
				s.routes = s.routes[1:]
			}
		}
		s.mu.Unlock()
		return &llm.CompletionResponse{Content: fmt.Sprintf(`{"next": %q}`, label)}, nil
	}

	var content string
	switch req.SystemPrompt {
	case profilePrompt:
		content = profileResult
	case jobFitPrompt:
		content = jobFitResult
	case guidancePrompt:
		content = guidanceResult
	case counsellorSynthesisPrompt:
		content = synthesisReply
	case counsellorPartialPrompt:
		content = partialReply
	case counsellorIntakePrompt:
		content = intakeReply
	default:
		return nil, fmt.Errorf("unexpected prompt %q", req.SystemPrompt)
	}
	return &llm.CompletionResponse{Content: content, Model: "mock"}, nil
}

// routingCalls counts requests that asked for a routing decision.
func (s *scriptedLLM) routingCalls() int {
	n := 0
	for _, c := range s.Calls() {
		if c.Schema != nil {
			n++
		}
	}
	return n
}

// promptCalls counts requests with the given system prompt.
func (s *scriptedLLM) promptCalls(prompt string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.SystemPrompt == prompt {
			n++
		}
	}
	return n
}

type stubScraper struct {
	mu      sync.Mutex
	calls   []string
	failure *tools.ScrapeFailure
}

func (s *stubScraper) Scrape(_ context.Context, url string) tools.ScrapeOutcome {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()

	if s.failure != nil {
		return tools.ScrapeOutcome{Failure: s.failure}
	}
	if f := tools.ValidateProfileURL(url); f != nil {
		return tools.ScrapeOutcome{Failure: f}
	}
	return tools.ScrapeOutcome{Profile: testProfile(url)}
}

func (s *stubScraper) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (s *stubSearcher) Search(_ context.Context, query string) (string, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return "1. Result for " + query, nil
}

// recordingMetrics captures override reasons and collaborator failures.
type recordingMetrics struct {
	mu        sync.Mutex
	overrides []string
	failures  []string
	turns     int
}

func (m *recordingMetrics) RecordNodeExecution(context.Context, string, time.Duration, error) {}

func (m *recordingMetrics) RecordTurn(context.Context, bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns++
}

func (m *recordingMetrics) RecordRoutingOverride(_ context.Context, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides = append(m.overrides, reason)
}

func (m *recordingMetrics) RecordCollaboratorFailure(_ context.Context, collaborator string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, collaborator)
}

func testProfile(url string) *conversation.Profile {
	return &conversation.Profile{
		URL:       url,
		Source:    tools.ProfileSource,
		Items:     []json.RawMessage{json.RawMessage(`{"fullName":"Test User","headline":"Data Analyst"}`)},
		FetchedAt: time.Now().UTC(),
	}
}

// intakeState is a state in the middle of a turn with both intake fields
// known.
func intakeState() conversation.State {
	s := conversation.New("conv-1")
	s.BeginTurn(AnalyzeRequest(testProfileURL, testRole))
	return *s
}

func nodeCtx() careerflow.Context {
	return careerflow.NewContext(context.Background())
}

func messagesFrom(s conversation.State, speaker string) []conversation.Message {
	var out []conversation.Message
	for _, m := range s.Transcript {
		if m.Speaker == speaker {
			out = append(out, m)
		}
	}
	return out
}

func containsMessage(msgs []conversation.Message, kind conversation.Kind, substr string) bool {
	for _, m := range msgs {
		if m.Kind == kind && strings.Contains(m.Content, substr) {
			return true
		}
	}
	return false
}
