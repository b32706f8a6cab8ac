package careerflow

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// CompiledGraph is an immutable, executable graph. It is safe for
// concurrent Run calls.
type CompiledGraph[S any] struct {
	nodes      map[string]NodeFunc[S]
	order      []string
	edges      map[string]string
	routers    map[string]RouterFunc[S]
	targets    map[string]map[string]bool
	entryPoint string
}

// Compile validates the graph and returns an executable CompiledGraph.
// All validation failures are joined into one error.
//
// Checks:
//  1. the entry point is set and exists
//  2. every edge source and target exists (targets may be END)
//  3. every declared router target exists or is END
//  4. every node has an outgoing edge
//  5. END is reachable from the entry point
//
// Nodes unreachable from the entry point are logged, not rejected.
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, ok := g.nodes[g.entryPoint]; !ok {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	for _, from := range sortedKeys(g.edges) {
		to := g.edges[from]
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		if to != END {
			if _, ok := g.nodes[to]; !ok {
				errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
			}
		}
	}

	for _, from := range sortedKeys(g.routers) {
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		for _, to := range g.targets[from] {
			if to == END {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				errs = append(errs, fmt.Errorf("%w: router target '%s' does not exist", ErrNodeNotFound, to))
			}
		}
	}

	for _, id := range g.order {
		_, simple := g.edges[id]
		_, conditional := g.routers[id]
		if !simple && !conditional {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, id))
		}
	}

	if _, ok := g.nodes[g.entryPoint]; ok && !g.reachesEnd() {
		errs = append(errs, ErrNoPathToEnd)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	g.warnUnreachable()
	return g.build(), nil
}

// successors returns the possible next nodes of id. A router without
// declared targets may return any node.
func (g *Graph[S]) successors(id string) []string {
	if _, ok := g.routers[id]; ok {
		if declared, ok := g.targets[id]; ok {
			return declared
		}
		return append(append([]string(nil), g.order...), END)
	}
	if to, ok := g.edges[id]; ok {
		return []string{to}
	}
	return nil
}

func (g *Graph[S]) reachable() map[string]bool {
	seen := map[string]bool{g.entryPoint: true}
	queue := []string{g.entryPoint}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.successors(current) {
			if !seen[next] {
				seen[next] = true
				if next != END {
					queue = append(queue, next)
				}
			}
		}
	}
	return seen
}

func (g *Graph[S]) reachesEnd() bool {
	return g.reachable()[END]
}

func (g *Graph[S]) warnUnreachable() {
	seen := g.reachable()
	for _, id := range g.order {
		if !seen[id] {
			slog.Warn("node is unreachable from entry", "node_id", id)
		}
	}
}

func (g *Graph[S]) build() *CompiledGraph[S] {
	cg := &CompiledGraph[S]{
		nodes:      make(map[string]NodeFunc[S], len(g.nodes)),
		order:      append([]string(nil), g.order...),
		edges:      make(map[string]string, len(g.edges)),
		routers:    make(map[string]RouterFunc[S], len(g.routers)),
		targets:    make(map[string]map[string]bool, len(g.targets)),
		entryPoint: g.entryPoint,
	}
	for id, fn := range g.nodes {
		cg.nodes[id] = fn
	}
	for from, to := range g.edges {
		cg.edges[from] = to
	}
	for from, r := range g.routers {
		cg.routers[from] = r
	}
	for from, ts := range g.targets {
		set := make(map[string]bool, len(ts))
		for _, t := range ts {
			set[t] = true
		}
		cg.targets[from] = set
	}
	return cg
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entryPoint
}

// NodeIDs returns node IDs in registration order.
func (cg *CompiledGraph[S]) NodeIDs() []string {
	return append([]string(nil), cg.order...)
}

// HasNode reports whether id is a registered node.
func (cg *CompiledGraph[S]) HasNode(id string) bool {
	_, ok := cg.nodes[id]
	return ok
}

// IsConditional reports whether id has a router.
func (cg *CompiledGraph[S]) IsConditional(id string) bool {
	_, ok := cg.routers[id]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
