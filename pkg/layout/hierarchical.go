package layout

import (
	"maps"
	"slices"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// barycenterPasses is the fixed number of down/up sweep pairs used for
// crossing reduction. More passes give diminishing returns on workflow
// sized graphs.
const barycenterPasses = 4

// hierarchicalLayout assigns each block a rank equal to its longest path
// from any source, orders blocks within a rank with a barycenter
// heuristic, and maps (rank, index) to lattice coordinates along
// opts.Direction.
//
// Back-edges are excluded before rank computation, so every non-back edge
// points from a lower rank to a strictly higher one.
func hierarchicalLayout(g *workflow.Graph, opts Options) map[string]workflow.Position {
	if g.BlockCount() == 0 {
		return map[string]workflow.Position{}
	}

	back := backEdges(g)
	ranks := longestPathRanks(g, back)
	rows := orderRanks(g, back, ranks)

	positions := make(map[string]workflow.Position, g.BlockCount())
	for rank, ids := range rows {
		for idx, id := range ids {
			var pos workflow.Position
			if opts.Direction == LeftRight {
				pos = workflow.Position{X: float64(rank) * opts.CellWidth, Y: float64(idx) * opts.CellHeight}
			} else {
				pos = workflow.Position{X: float64(idx) * opts.CellWidth, Y: float64(rank) * opts.CellHeight}
			}
			positions[id] = pos
		}
	}
	return positions
}

// longestPathRanks computes each block's rank as the length of the longest
// path from any source, ignoring back-edges. Runs Kahn's algorithm over
// the acyclic subgraph.
func longestPathRanks(g *workflow.Graph, back map[workflow.Edge]bool) map[string]int {
	indegree := make(map[string]int, g.BlockCount())
	for _, id := range g.BlockIDs() {
		n := 0
		for _, e := range g.Incoming(id) {
			if !back[e] {
				n++
			}
		}
		indegree[id] = n
	}

	ranks := make(map[string]int, g.BlockCount())
	var queue []string
	for _, id := range g.BlockIDs() {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Outgoing(id) {
			if back[e] {
				continue
			}
			if r := ranks[id] + 1; r > ranks[e.To] {
				ranks[e.To] = r
			}
			indegree[e.To]--
			if indegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}
	return ranks
}

// orderRanks arranges each rank's blocks to reduce edge crossings using
// barycenter sweeps: each block moves toward the average index of its
// neighbors in the adjacent rank, alternating top-down and bottom-up for a
// fixed number of passes. Ties and neighbor-free blocks fall back to id
// order, keeping the result deterministic.
func orderRanks(g *workflow.Graph, back map[workflow.Edge]bool, ranks map[string]int) map[int][]string {
	rows := make(map[int][]string)
	for _, id := range g.BlockIDs() {
		rows[ranks[id]] = append(rows[ranks[id]], id)
	}
	rankIDs := slices.Sorted(maps.Keys(rows))
	for _, r := range rankIDs {
		slices.Sort(rows[r])
	}

	neighborsUp := func(id string) []string {
		var out []string
		for _, e := range g.Incoming(id) {
			if !back[e] && ranks[e.From] == ranks[id]-1 {
				out = append(out, e.From)
			}
		}
		return out
	}
	neighborsDown := func(id string) []string {
		var out []string
		for _, e := range g.Outgoing(id) {
			if !back[e] && ranks[e.To] == ranks[id]+1 {
				out = append(out, e.To)
			}
		}
		return out
	}

	for pass := 0; pass < barycenterPasses; pass++ {
		for i := 1; i < len(rankIDs); i++ {
			sweep(rows, rankIDs[i], rankIDs[i-1], neighborsUp)
		}
		for i := len(rankIDs) - 2; i >= 0; i-- {
			sweep(rows, rankIDs[i], rankIDs[i+1], neighborsDown)
		}
	}
	return rows
}

// sweep reorders one rank by the barycenter of each block's neighbors in
// the adjacent, already-ordered rank. Blocks with no neighbors keep a
// barycenter derived from their current index so they do not all collapse
// to the front.
func sweep(rows map[int][]string, rank, adjacent int, neighbors func(string) []string) {
	index := make(map[string]int, len(rows[adjacent]))
	for i, id := range rows[adjacent] {
		index[id] = i
	}

	ids := rows[rank]
	bary := make(map[string]float64, len(ids))
	for i, id := range ids {
		ns := neighbors(id)
		if len(ns) == 0 {
			bary[id] = float64(i)
			continue
		}
		sum := 0.0
		for _, n := range ns {
			sum += float64(index[n])
		}
		bary[id] = sum / float64(len(ns))
	}

	slices.SortFunc(ids, func(a, b string) int {
		switch {
		case bary[a] < bary[b]:
			return -1
		case bary[a] > bary[b]:
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
}
