package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/llm"
)

func TestSupervisor_IntakeGate(t *testing.T) {
	model := newScriptedLLM("ProfileAnalyzer")
	s := *conversation.New("c")
	s.BeginTurn("hi there")

	d := NewSupervisor(Deps{LLM: model}).Route(nodeCtx(), s)

	assert.Equal(t, conversation.NodeCounsellor, d.Next)
	assert.Equal(t, ReasonIntake, d.Reason)
	assert.Zero(t, model.CallCount())
}

func TestSupervisor_ModelLabels(t *testing.T) {
	tests := []struct {
		content string
		want    conversation.Node
		reason  Reason
	}{
		{`{"next": "ProfileAnalyzer"}`, conversation.NodeProfileAnalyzer, ReasonModel},
		{"```json\n{\"next\": \"jobfitanalyzer\"}\n```", conversation.NodeJobFitAnalyzer, ReasonModel},
		{`{"next": "Counceller"}`, conversation.NodeCounsellor, ReasonModel},
		{`{"next": "Astrologer"}`, conversation.NodeCounsellor, ReasonAmbiguous},
		{`not json at all`, conversation.NodeCounsellor, ReasonAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			model := llm.NewMockClient(tt.content)

			d := NewSupervisor(Deps{LLM: model}).Route(nodeCtx(), intakeState())

			assert.Equal(t, tt.want, d.Next)
			assert.Equal(t, tt.reason, d.Reason)
			call, ok := model.LastCall()
			require.True(t, ok)
			assert.JSONEq(t,
				`{"type":"object","properties":{"next":{"type":"string","enum":["ProfileAnalyzer","JobFitAnalyzer","CareerAdvisor","Counsellor","FINISH"]}},"required":["next"]}`,
				string(call.Schema))
		})
	}
}

func TestSupervisor_Unavailable(t *testing.T) {
	metrics := &recordingMetrics{}
	model := llm.NewMockClient("").WithError(errors.New("connection refused"))

	d := NewSupervisor(Deps{LLM: model, Metrics: metrics}).Route(nodeCtx(), intakeState())

	assert.Equal(t, conversation.NodeCounsellor, d.Next)
	assert.Equal(t, ReasonUnavailable, d.Reason)
	assert.Equal(t, []string{"llm"}, metrics.failures)
}

func TestSupervisor_FinishRequiresCounsellorReply(t *testing.T) {
	metrics := &recordingMetrics{}
	sup := NewSupervisor(Deps{LLM: llm.NewMockClient(`{"next": "FINISH"}`), Metrics: metrics})
	s := intakeState()

	d := sup.Route(nodeCtx(), s)
	assert.Equal(t, conversation.NodeCounsellor, d.Next)
	assert.Equal(t, conversation.NodeFinish, d.Proposed)
	assert.Equal(t, ReasonNoReply, d.Reason)
	assert.True(t, d.Overridden())
	assert.Equal(t, []string{"no_reply"}, metrics.overrides)

	// A worker's raw output is not a reply to the user.
	s.Append(conversation.AssistantMessage(string(conversation.NodeProfileAnalyzer), conversation.KindResult, profileResult))
	d = sup.Route(nodeCtx(), s)
	assert.Equal(t, conversation.NodeCounsellor, d.Next)
	assert.Equal(t, ReasonNoReply, d.Reason)

	s.Append(conversation.AssistantMessage(string(conversation.NodeCounsellor), conversation.KindResult, synthesisReply))
	out, err := sup.Execute(nodeCtx(), s)
	require.NoError(t, err)
	assert.Equal(t, conversation.NodeFinish, out.NextNode)
	assert.Equal(t, careerflow.END, sup.Next(nodeCtx(), out))
}

func TestSupervisor_PriorityMode(t *testing.T) {
	sup := NewSupervisor(Deps{})
	s := intakeState()

	assert.Equal(t, conversation.NodeProfileAnalyzer, sup.Route(nodeCtx(), s).Next)

	s.Complete(conversation.StageProfileAnalysis)
	assert.Equal(t, conversation.NodeJobFitAnalyzer, sup.Route(nodeCtx(), s).Next)

	s.Complete(conversation.StageJobFit)
	assert.Equal(t, conversation.NodeCareerAdvisor, sup.Route(nodeCtx(), s).Next)

	s.Complete(conversation.StageCareerGuidance)
	d := sup.Route(nodeCtx(), s)
	assert.Equal(t, conversation.NodeCounsellor, d.Next)
	assert.Equal(t, ReasonPolicy, d.Reason)
}

func TestSupervisor_PriorityModeIgnoresModel(t *testing.T) {
	model := newScriptedLLM("CareerAdvisor")

	d := NewSupervisor(Deps{LLM: model}, WithRoutingMode(RoutingPriority)).Route(nodeCtx(), intakeState())

	assert.Equal(t, conversation.NodeProfileAnalyzer, d.Next)
	assert.Zero(t, model.CallCount())
}

func TestSupervisor_LoopGuard(t *testing.T) {
	metrics := &recordingMetrics{}
	sup := NewSupervisor(Deps{LLM: llm.NewMockClient(`{"next": "JobFitAnalyzer"}`), Metrics: metrics})
	s := intakeState()

	s, err := sup.Execute(nodeCtx(), s)
	require.NoError(t, err)
	assert.Equal(t, conversation.NodeJobFitAnalyzer, s.NextNode)
	require.Len(t, s.Routes, 1)
	assert.Equal(t, conversation.RouteRecord{Node: conversation.NodeJobFitAnalyzer, Flags: "000"}, s.Routes[0])

	s, err = sup.Execute(nodeCtx(), s)
	require.NoError(t, err)
	assert.Equal(t, conversation.NodeCounsellor, s.NextNode)
	assert.Equal(t, []string{"loop_guard"}, metrics.overrides)
	assert.Len(t, s.Routes, 1, "overrides are not recorded in the window")
}

func TestSupervisor_LoopGuardAllowsProgress(t *testing.T) {
	sup := NewSupervisor(Deps{LLM: llm.NewMockClient(`{"next": "ProfileAnalyzer"}`)})
	s := intakeState()

	s, err := sup.Execute(nodeCtx(), s)
	require.NoError(t, err)
	s.Complete(conversation.StageProfileAnalysis)

	d := sup.Route(nodeCtx(), s)
	assert.Equal(t, conversation.NodeProfileAnalyzer, d.Next, "a flag changed since the last visit")
}

func TestLoopGuard_Window(t *testing.T) {
	g := loopGuard{window: 3}
	var routes []conversation.RouteRecord
	for _, n := range []conversation.Node{
		conversation.NodeProfileAnalyzer,
		conversation.NodeJobFitAnalyzer,
		conversation.NodeCareerAdvisor,
		conversation.NodeJobFitAnalyzer,
	} {
		routes = g.record(routes, conversation.RouteRecord{Node: n, Flags: "000"})
	}

	require.Len(t, routes, 3)
	assert.Equal(t, conversation.NodeJobFitAnalyzer, routes[0].Node)
	assert.False(t, g.repeats(routes, conversation.NodeProfileAnalyzer, "000"), "evicted from the window")
	assert.True(t, g.repeats(routes, conversation.NodeCareerAdvisor, "000"))
	assert.False(t, g.repeats(routes, conversation.NodeCareerAdvisor, "100"))
}

func TestSupervisor_NextDefaultsToCounsellor(t *testing.T) {
	sup := NewSupervisor(Deps{})
	assert.Equal(t, string(conversation.NodeCounsellor), sup.Next(nodeCtx(), conversation.State{}))
}
