package agent

import (
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
)

// GraphName is attached to turn spans.
const GraphName = "career-guidance"

// BuildGraph compiles the turn graph. The Supervisor is the entry point,
// every worker returns to it, and the Counsellor ends the turn.
func BuildGraph(deps Deps, opts ...Option) (*careerflow.CompiledGraph[conversation.State], error) {
	sup := NewSupervisor(deps, opts...)
	counsellor := NewCounsellor(deps, opts...)
	workers := []*Worker{
		NewProfileAnalyzer(deps),
		NewJobFitAnalyzer(deps),
		NewCareerAdvisor(deps),
	}

	g := careerflow.NewGraph[conversation.State]().
		AddNode(string(conversation.NodeSupervisor), sup.Execute).
		AddNode(string(conversation.NodeCounsellor), counsellor.Execute).
		AddEdge(string(conversation.NodeCounsellor), careerflow.END).
		SetEntry(string(conversation.NodeSupervisor))

	targets := []string{string(conversation.NodeCounsellor), careerflow.END}
	for _, w := range workers {
		g.AddNode(string(w.Node()), w.Execute).
			AddEdge(string(w.Node()), string(conversation.NodeSupervisor))
		targets = append(targets, string(w.Node()))
	}
	g.AddConditionalEdge(string(conversation.NodeSupervisor), sup.Next, targets...)

	return g.Compile()
}
