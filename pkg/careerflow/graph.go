package careerflow

import (
	"fmt"
	"strings"
)

// END is the terminal node identifier.
const END = "__end__"

// NodeFunc is the signature for node functions. The returned state
// replaces the input state for the rest of the run.
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc picks the next node after the node it is attached to.
// It must return a registered node ID or END.
type RouterFunc[S any] func(ctx Context, state S) string

// Graph is a mutable builder for an execution graph. It is not safe for
// concurrent use; build it in one goroutine and call Compile.
//
//	g := careerflow.NewGraph[conversation.State]().
//	    AddNode("Supervisor", supervise).
//	    AddNode("ProfileAnalyzer", analyze).
//	    AddConditionalEdge("Supervisor", route).
//	    AddEdge("ProfileAnalyzer", "Supervisor").
//	    SetEntry("Supervisor")
type Graph[S any] struct {
	nodes      map[string]NodeFunc[S]
	order      []string
	edges      map[string]string
	routers    map[string]RouterFunc[S]
	targets    map[string][]string
	entryPoint string
}

// NewGraph creates an empty graph builder for state type S.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:   make(map[string]NodeFunc[S]),
		edges:   make(map[string]string),
		routers: make(map[string]RouterFunc[S]),
		targets: make(map[string][]string),
	}
}

// AddNode registers a node.
//
// Panics if id is empty, reserved, contains whitespace or already exists,
// or if fn is nil. These are programming errors in graph construction.
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	if id == "" {
		panic("careerflow: node ID cannot be empty")
	}
	if lower := strings.ToLower(id); lower == "end" || lower == END {
		panic("careerflow: node ID cannot be reserved word 'END'")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("careerflow: node ID cannot contain whitespace")
	}
	if fn == nil {
		panic("careerflow: node function cannot be nil")
	}
	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("careerflow: duplicate node ID: %s", id))
	}

	g.nodes[id] = fn
	g.order = append(g.order, id)
	return g
}

// AddEdge adds an unconditional edge. A node has at most one simple edge;
// adding another replaces it. Validation happens in Compile.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = to
	return g
}

// AddConditionalEdge attaches a router to from. The optional targets
// declare which nodes the router may return; when given, Compile checks
// them and the executor rejects anything else.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S], targets ...string) *Graph[S] {
	if router == nil {
		panic("careerflow: router function cannot be nil")
	}
	g.routers[from] = router
	if len(targets) > 0 {
		g.targets[from] = append([]string(nil), targets...)
	}
	return g
}

// SetEntry designates the entry node.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.entryPoint = id
	return g
}
