package layout

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// forceLayout runs a spring-embedder simulation: all block pairs repel
// inversely proportional to squared distance, connected blocks attract
// proportional to their distance minus the target edge length. The
// simulation stops after opts.MaxIterations or once total displacement in
// a pass drops below opts.Epsilon, whichever comes first.
//
// Initial placement is drawn from a PCG generator seeded with a hash of
// the block ids, so the same graph and options always produce the same
// coordinates. The context is checked between iterations only.
func forceLayout(ctx context.Context, g *workflow.Graph, opts Options) (map[string]workflow.Position, error) {
	ids := g.BlockIDs()
	n := len(ids)
	positions := make(map[string]workflow.Position, n)
	if n == 0 {
		return positions, nil
	}
	if n == 1 {
		positions[ids[0]] = workflow.Position{}
		return positions, nil
	}

	edgeLen := opts.CellWidth
	area := edgeLen * math.Sqrt(float64(n))

	seed := graphSeed(ids)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range ids {
		xs[i] = rng.Float64() * area
		ys[i] = rng.Float64() * area
	}

	// Edges by index; back-edges participate like any other spring.
	type spring struct{ a, b int }
	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}
	var springs []spring
	for _, e := range g.SortedEdges() {
		springs = append(springs, spring{index[e.From], index[e.To]})
	}

	const (
		repulsion = 5000.0
		stiffness = 0.06
		step      = 0.85
	)

	fx := make([]float64, n)
	fy := make([]float64, n)
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range fx {
			fx[i], fy[i] = 0, 0
		}

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx, dy := xs[i]-xs[j], ys[i]-ys[j]
				d2 := dx*dx + dy*dy
				if d2 < 1e-6 {
					// Coincident blocks get a deterministic nudge along the
					// index axis so the force is well defined.
					dx, dy, d2 = 1e-3*float64(j-i), 1e-3, 2e-6
				}
				f := repulsion / d2
				d := math.Sqrt(d2)
				fx[i] += f * dx / d
				fy[i] += f * dy / d
				fx[j] -= f * dx / d
				fy[j] -= f * dy / d
			}
		}

		for _, s := range springs {
			dx, dy := xs[s.b]-xs[s.a], ys[s.b]-ys[s.a]
			d := math.Hypot(dx, dy)
			if d < 1e-6 {
				continue
			}
			f := stiffness * (d - edgeLen)
			fx[s.a] += f * dx / d
			fy[s.a] += f * dy / d
			fx[s.b] -= f * dx / d
			fy[s.b] -= f * dy / d
		}

		total := 0.0
		for i := 0; i < n; i++ {
			dx, dy := step*fx[i], step*fy[i]
			// Clamp per-iteration movement to keep the simulation stable.
			if m := math.Hypot(dx, dy); m > edgeLen {
				dx, dy = dx/m*edgeLen, dy/m*edgeLen
			}
			xs[i] += dx
			ys[i] += dy
			total += math.Hypot(dx, dy)
		}
		if total < opts.Epsilon {
			break
		}
	}

	// Normalize so the top-left of the bounding box sits at the origin.
	minX, minY := math.Inf(1), math.Inf(1)
	for i := 0; i < n; i++ {
		minX = math.Min(minX, xs[i])
		minY = math.Min(minY, ys[i])
	}
	for i, id := range ids {
		positions[id] = workflow.Position{X: round2(xs[i] - minX), Y: round2(ys[i] - minY)}
	}
	return positions, nil
}

// graphSeed derives a stable seed from the sorted block ids.
func graphSeed(ids []string) uint64 {
	h := fnv.New64a()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// round2 rounds to two decimals so serialized coordinates stay compact and
// reproducible across platforms.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
