package integrity

import (
	"gridtwin/pkg/model"
)

// checkReachability flags every in-service bus that cannot be reached from
// any generator bus or HVDC terminal over in-service elements. Such a bus
// is electrically dead; a dead bus is only acceptable when it has been
// switched off on purpose.
func checkReachability(net *model.Network) []Violation {
	inService := make(map[string]bool)
	for _, b := range net.Buses() {
		if b.InService {
			inService[b.ID] = true
		}
	}

	adj := make(map[string][]string)
	addEdge := func(a, b string) {
		if !inService[a] || !inService[b] {
			return
		}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for _, l := range net.Lines() {
		if l.InService {
			addEdge(l.FromBus, l.ToBus)
		}
	}
	for _, tr := range net.Transformers() {
		if tr.InService {
			addEdge(tr.FromBus, tr.ToBus)
		}
	}
	for _, h := range net.HVDCLinks() {
		if h.InService {
			addEdge(h.FromBus, h.ToBus)
		}
	}

	// Sources: every in-service generator bus and HVDC terminal.
	var queue []string
	seen := make(map[string]bool)
	enqueue := func(bus string) {
		if inService[bus] && !seen[bus] {
			seen[bus] = true
			queue = append(queue, bus)
		}
	}
	for _, g := range net.Generators() {
		if g.InService {
			enqueue(g.Bus)
		}
	}
	for _, h := range net.HVDCLinks() {
		if h.InService {
			enqueue(h.FromBus)
			enqueue(h.ToBus)
		}
	}

	// Plain BFS; the corridor graphs are tiny.
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	var out []Violation
	for _, b := range net.Buses() {
		if b.InService && !seen[b.ID] {
			out = append(out, Violation{
				Check: CheckDeadBus, EntityKind: "bus", EntityID: b.ID,
				Detail: "not reachable from any generator or HVDC terminal",
			})
		}
	}
	return out
}
