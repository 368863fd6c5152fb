package workflow

// Summary aggregates descriptive statistics about a graph. It mirrors what
// workflow editors surface next to the canvas: size, block-type histogram,
// and a rough complexity score.
type Summary struct {
	Name         string
	Blocks       int
	Edges        int
	TypeCounts   map[string]int
	HasPositions bool
	Complexity   float64
}

// complexityWeights are per-type multipliers for the complexity score.
// Control-flow blocks weigh more than plain actions.
var complexityWeights = map[string]float64{
	"trigger":   1.0,
	"action":    1.2,
	"condition": 1.5,
	"loop":      2.0,
	"parallel":  1.8,
}

// Summarize computes a [Summary] for the graph.
//
// The complexity score is blocks + 0.5*edges plus a per-block weight taken
// from the block's type (unknown types weigh 1.0). It is a heuristic for
// ranking workflows by size, not a semantic measure.
func Summarize(g *Graph) Summary {
	s := Summary{
		Name:       g.Meta().Name,
		Blocks:     g.BlockCount(),
		Edges:      g.EdgeCount(),
		TypeCounts: make(map[string]int),
	}
	for _, b := range g.Blocks() {
		s.TypeCounts[b.Type]++
		if b.Position != nil {
			s.HasPositions = true
		}
		w, ok := complexityWeights[b.Type]
		if !ok {
			w = 1.0
		}
		s.Complexity += w
	}
	s.Complexity += float64(s.Blocks) + 0.5*float64(s.Edges)
	return s
}
