package agent

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/llm"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/tools"
)

func TestWorker_Idempotent(t *testing.T) {
	model := newScriptedLLM()
	scraper := &stubScraper{}
	search := &stubSearcher{}
	deps := Deps{LLM: model, Scraper: scraper, Search: search}

	tests := []struct {
		worker *Worker
		stage  conversation.Stage
	}{
		{NewProfileAnalyzer(deps), conversation.StageProfileAnalysis},
		{NewJobFitAnalyzer(deps), conversation.StageJobFit},
		{NewCareerAdvisor(deps), conversation.StageCareerGuidance},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			s := intakeState()
			s.Complete(tt.stage)
			flags := s.Completed.Fingerprint()

			for i := 1; i <= 2; i++ {
				before := len(s.Transcript)

				out, err := tt.worker.Execute(nodeCtx(), s)

				require.NoError(t, err)
				require.Len(t, out.Transcript, before+1, "run %d", i)
				last := out.Transcript[len(out.Transcript)-1]
				assert.Equal(t, conversation.KindNoop, last.Kind)
				assert.Equal(t, tt.stage.Title()+" already completed.", last.Content)
				assert.Equal(t, flags, out.Completed.Fingerprint())
				assert.Nil(t, out.Profile)
				s = out
			}
		})
	}

	assert.Zero(t, model.CallCount())
	assert.Zero(t, scraper.callCount())
	assert.Empty(t, search.queries)
}

func TestWorker_MissingPrecondition(t *testing.T) {
	model := newScriptedLLM()
	deps := Deps{LLM: model, Scraper: &stubScraper{}}

	t.Run("profile without url", func(t *testing.T) {
		s := *conversation.New("c")
		s.BeginTurn("hello")

		out, err := NewProfileAnalyzer(deps).Execute(nodeCtx(), s)

		require.NoError(t, err)
		last := out.Transcript[len(out.Transcript)-1]
		assert.Equal(t, conversation.KindPrecondition, last.Kind)
		assert.Equal(t, "ProfileAnalyzer cannot proceed without a valid LinkedIn profile URL.", last.Content)
		assert.False(t, out.Done(conversation.StageProfileAnalysis))
	})

	t.Run("job fit without profile", func(t *testing.T) {
		out, err := NewJobFitAnalyzer(deps).Execute(nodeCtx(), intakeState())

		require.NoError(t, err)
		last := out.Transcript[len(out.Transcript)-1]
		assert.Equal(t, conversation.KindPrecondition, last.Kind)
		assert.Equal(t, "JobFitAnalyzer cannot proceed without profile data.", last.Content)
		assert.False(t, out.Done(conversation.StageJobFit))
	})

	t.Run("job fit without role", func(t *testing.T) {
		s := intakeState()
		s.TargetRole = ""
		s.Profile = testProfile(testProfileURL)

		out, err := NewJobFitAnalyzer(deps).Execute(nodeCtx(), s)

		require.NoError(t, err)
		last := out.Transcript[len(out.Transcript)-1]
		assert.Equal(t, "JobFitAnalyzer cannot proceed without a target role.", last.Content)
	})

	t.Run("guidance without prior results", func(t *testing.T) {
		s := intakeState()
		s.Complete(conversation.StageProfileAnalysis)

		out, err := NewCareerAdvisor(deps).Execute(nodeCtx(), s)

		require.NoError(t, err)
		last := out.Transcript[len(out.Transcript)-1]
		assert.Equal(t, conversation.KindPrecondition, last.Kind)
		assert.True(t, strings.HasPrefix(last.Content, "CareerAdvisor cannot proceed without"))
		assert.False(t, out.Done(conversation.StageCareerGuidance))
	})

	assert.Zero(t, model.CallCount())
}

func TestProfileAnalyzer_Success(t *testing.T) {
	model := newScriptedLLM()
	scraper := &stubScraper{}
	search := &stubSearcher{}

	out, err := NewProfileAnalyzer(Deps{LLM: model, Scraper: scraper, Search: search}).Execute(nodeCtx(), intakeState())

	require.NoError(t, err)
	assert.True(t, out.Done(conversation.StageProfileAnalysis))
	require.NotNil(t, out.Profile)
	assert.Equal(t, testProfileURL, out.Profile.URL)
	assert.Equal(t, []string{testProfileURL}, scraper.calls)
	require.Len(t, search.queries, 1)

	m, ok := out.StageResult(conversation.StageProfileAnalysis)
	require.True(t, ok)
	assert.Equal(t, profileResult, m.Content)

	call, ok := model.LastCall()
	require.True(t, ok)
	assert.Equal(t, profilePrompt, call.SystemPrompt)
	assert.Contains(t, call.Messages[0].Content, "Test User")
	assert.Contains(t, call.Messages[0].Content, testProfileURL)
}

func TestProfileAnalyzer_ReusesScrapedProfile(t *testing.T) {
	scraper := &stubScraper{}
	s := intakeState()
	s.Profile = testProfile(testProfileURL)

	out, err := NewProfileAnalyzer(Deps{LLM: newScriptedLLM(), Scraper: scraper}).Execute(nodeCtx(), s)

	require.NoError(t, err)
	assert.True(t, out.Done(conversation.StageProfileAnalysis))
	assert.Zero(t, scraper.callCount())
}

func TestProfileAnalyzer_ScrapeFailure(t *testing.T) {
	model := newScriptedLLM()
	metrics := &recordingMetrics{}
	scraper := &stubScraper{failure: &tools.ScrapeFailure{Kind: tools.FailureEmpty, Reason: "no profile data found"}}
	s := intakeState()
	s.ProfileURL = "https://www.linkedin.com/in/nonexistent"

	out, err := NewProfileAnalyzer(Deps{LLM: model, Scraper: scraper, Metrics: metrics}).Execute(nodeCtx(), s)

	require.NoError(t, err)
	assert.Nil(t, out.Profile)
	assert.False(t, out.Done(conversation.StageProfileAnalysis))
	last := out.Transcript[len(out.Transcript)-1]
	assert.Equal(t, conversation.KindFailure, last.Kind)
	assert.Contains(t, last.Content, "no profile data found")
	assert.Contains(t, last.Content, "https://www.linkedin.com/in/nonexistent")
	assert.Zero(t, model.CallCount())
	assert.Equal(t, []string{"scraper"}, metrics.failures)
}

func TestJobFitAnalyzer_AfterFailedScrape(t *testing.T) {
	model := newScriptedLLM()
	deps := Deps{
		LLM:     model,
		Scraper: &stubScraper{failure: &tools.ScrapeFailure{Kind: tools.FailureEmpty, Reason: "no profile data found"}},
		Search:  &stubSearcher{},
	}
	s := intakeState()
	s.ProfileURL = "https://www.linkedin.com/in/nonexistent"

	failed, err := NewProfileAnalyzer(deps).Execute(nodeCtx(), s)
	require.NoError(t, err)
	require.Nil(t, failed.Profile)

	out, err := NewJobFitAnalyzer(deps).Execute(nodeCtx(), failed)

	require.NoError(t, err)
	require.Len(t, out.Transcript, len(failed.Transcript)+1)
	last := out.Transcript[len(out.Transcript)-1]
	assert.Equal(t, string(conversation.NodeJobFitAnalyzer), last.Speaker)
	assert.Equal(t, conversation.KindPrecondition, last.Kind)
	assert.Equal(t, "JobFitAnalyzer cannot proceed without profile data.", last.Content)
	assert.False(t, out.Done(conversation.StageJobFit))
	assert.Zero(t, model.CallCount())
}

func TestJobFitAnalyzer_SearchFailureIsNotFatal(t *testing.T) {
	model := newScriptedLLM()
	metrics := &recordingMetrics{}
	s := intakeState()
	s.Profile = testProfile(testProfileURL)

	out, err := NewJobFitAnalyzer(Deps{
		LLM:     model,
		Search:  &stubSearcher{err: errors.New("search down")},
		Metrics: metrics,
	}).Execute(nodeCtx(), s)

	require.NoError(t, err)
	assert.True(t, out.Done(conversation.StageJobFit))
	call, ok := model.LastCall()
	require.True(t, ok)
	assert.Contains(t, call.Messages[0].Content, "Web search failed: search down")
	assert.Contains(t, call.Messages[0].Content, "Target role: "+testRole)
	assert.Equal(t, []string{"search"}, metrics.failures)
}

func TestCareerAdvisor_UsesPriorResults(t *testing.T) {
	model := newScriptedLLM()
	s := intakeState()
	s.Append(conversation.AssistantMessage(string(conversation.NodeProfileAnalyzer), conversation.KindResult, profileResult))
	s.Complete(conversation.StageProfileAnalysis)
	s.Append(conversation.AssistantMessage(string(conversation.NodeJobFitAnalyzer), conversation.KindResult, jobFitResult))
	s.Complete(conversation.StageJobFit)

	out, err := NewCareerAdvisor(Deps{LLM: model}).Execute(nodeCtx(), s)

	require.NoError(t, err)
	assert.True(t, out.Completed.AllDone())
	call, ok := model.LastCall()
	require.True(t, ok)
	assert.Contains(t, call.Messages[0].Content, profileResult)
	assert.Contains(t, call.Messages[0].Content, jobFitResult)
	assert.Contains(t, call.Messages[0].Content, "Web search is not available.")
}

func TestWorker_LLMUnavailable(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
	}{
		{"no client", Deps{Scraper: &stubScraper{}}},
		{"client error", Deps{LLM: llm.NewMockClient("").WithError(errors.New("quota exceeded")), Scraper: &stubScraper{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewProfileAnalyzer(tt.deps).Execute(nodeCtx(), intakeState())

			require.NoError(t, err)
			assert.False(t, out.Done(conversation.StageProfileAnalysis))
			last := out.Transcript[len(out.Transcript)-1]
			assert.Equal(t, conversation.KindFailure, last.Kind)
			assert.Contains(t, last.Content, "I'm sorry")
		})
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	// "é" is two bytes; cutting at 2 would split it.
	got := truncate("aé-tail", 2)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "a\n[truncated]", got)

	got = truncate(strings.Repeat("日本", 10), 7)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasPrefix(got, "日本"))
}
