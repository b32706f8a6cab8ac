package agent

import "github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"

// loopGuard remembers the last few worker routes of a turn together with
// the completion flags at the time they were chosen.
type loopGuard struct {
	window int
}

// repeats reports whether routing to node now would revisit it without
// any flag having changed since it was last chosen.
func (g loopGuard) repeats(routes []conversation.RouteRecord, node conversation.Node, fingerprint string) bool {
	for _, r := range g.recent(routes) {
		if r.Node == node && r.Flags == fingerprint {
			return true
		}
	}
	return false
}

// record appends rec and keeps only the newest window entries.
func (g loopGuard) record(routes []conversation.RouteRecord, rec conversation.RouteRecord) []conversation.RouteRecord {
	out := append(append([]conversation.RouteRecord(nil), routes...), rec)
	return g.recent(out)
}

func (g loopGuard) recent(routes []conversation.RouteRecord) []conversation.RouteRecord {
	if g.window <= 0 || len(routes) <= g.window {
		return routes
	}
	return routes[len(routes)-g.window:]
}
