package layout

import (
	"slices"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// gridLayout places blocks on a fixed lattice in topological order,
// wrapping after opts.Columns. Ties between simultaneously ready blocks
// are broken lexicographically by id; blocks trapped in cycles (never
// ready) are appended in id order after the acyclic part.
func gridLayout(g *workflow.Graph, opts Options) map[string]workflow.Position {
	order := topoOrder(g)
	positions := make(map[string]workflow.Position, len(order))
	for i, id := range order {
		positions[id] = workflow.Position{
			X: float64(i%opts.Columns) * opts.CellWidth,
			Y: float64(i/opts.Columns) * opts.CellHeight,
		}
	}
	return positions
}

// topoOrder returns a deterministic topological order using Kahn's
// algorithm with a sorted ready set.
func topoOrder(g *workflow.Graph) []string {
	indegree := make(map[string]int, g.BlockCount())
	for _, id := range g.BlockIDs() {
		indegree[id] = len(g.Incoming(id))
	}

	ready := g.Sources()
	order := make([]string, 0, g.BlockCount())
	seen := make(map[string]bool, g.BlockCount())

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		seen[id] = true

		var unlocked []string
		for _, e := range g.Outgoing(id) {
			indegree[e.To]--
			if indegree[e.To] == 0 {
				unlocked = append(unlocked, e.To)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			slices.Sort(ready)
		}
	}

	// Cycle members never reach in-degree zero.
	for _, id := range g.BlockIDs() {
		if !seen[id] {
			order = append(order, id)
		}
	}
	return order
}
