package conversation

import "strings"

// Node names a routing target. Worker and counsellor nodes double as the
// speaker names of the messages they append.
type Node string

// Routing targets.
const (
	NodeProfileAnalyzer Node = "ProfileAnalyzer"
	NodeJobFitAnalyzer  Node = "JobFitAnalyzer"
	NodeCareerAdvisor   Node = "CareerAdvisor"
	NodeCounsellor      Node = "Counsellor"
	NodeFinish          Node = "FINISH"
)

// NodeSupervisor is the graph node that produces routing decisions. It is
// not a valid routing target.
const NodeSupervisor Node = "Supervisor"

// RoutingTargets returns every label the supervisor may choose.
func RoutingTargets() []Node {
	return []Node{NodeProfileAnalyzer, NodeJobFitAnalyzer, NodeCareerAdvisor, NodeCounsellor, NodeFinish}
}

// ParseNode maps a label to a known routing target. Matching ignores case
// and surrounding quotes or whitespace. The historical spellings
// "Counceller", "__end__" and "END" are accepted. The second return value
// is false for anything else.
func ParseNode(label string) (Node, bool) {
	l := strings.ToLower(strings.Trim(strings.TrimSpace(label), `"'`+"`"))
	switch l {
	case "profileanalyzer", "profile_analysis":
		return NodeProfileAnalyzer, true
	case "jobfitanalyzer", "job_fit":
		return NodeJobFitAnalyzer, true
	case "careeradvisor", "career_guidance":
		return NodeCareerAdvisor, true
	case "counsellor", "counselor", "counceller":
		return NodeCounsellor, true
	case "finish", "__end__", "end":
		return NodeFinish, true
	}
	return "", false
}

// Stage returns the stage a worker node executes.
func (n Node) Stage() (Stage, bool) {
	switch n {
	case NodeProfileAnalyzer:
		return StageProfileAnalysis, true
	case NodeJobFitAnalyzer:
		return StageJobFit, true
	case NodeCareerAdvisor:
		return StageCareerGuidance, true
	}
	return "", false
}

// IsWorker reports whether n executes a stage.
func (n Node) IsWorker() bool {
	_, ok := n.Stage()
	return ok
}

// WorkerFor returns the worker node for a stage.
func WorkerFor(s Stage) Node {
	switch s {
	case StageProfileAnalysis:
		return NodeProfileAnalyzer
	case StageJobFit:
		return NodeJobFitAnalyzer
	case StageCareerGuidance:
		return NodeCareerAdvisor
	}
	return ""
}
