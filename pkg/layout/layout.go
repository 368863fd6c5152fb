// Package layout computes canvas positions for workflow blocks.
//
// Three strategies are provided: Grid places blocks in topological order on
// a fixed lattice, Hierarchical assigns layered ranks with barycenter
// crossing reduction, and Force runs a bounded spring simulation. All three
// are deterministic for a fixed graph and option set - the force simulation
// seeds its initial placement from the block ids, never from system
// entropy - so repeated runs produce bit-identical coordinates.
//
// Cyclic graphs are handled by every strategy: back-edges found by a
// depth-first traversal are ignored during rank and order computation, so
// the algorithms always terminate.
package layout

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// ErrInvalidStrategy is returned by Compute and ParseStrategy for an
// unrecognized strategy name.
var ErrInvalidStrategy = errors.New("invalid layout strategy")

// Strategy selects the placement algorithm.
type Strategy string

const (
	Grid         Strategy = "grid"
	Hierarchical Strategy = "hierarchical"
	Force        Strategy = "force"
)

// ParseStrategy converts a user-supplied name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Grid, Hierarchical, Force:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q (want grid, hierarchical or force)", ErrInvalidStrategy, s)
}

// Direction controls the main axis of the hierarchical strategy.
type Direction int

const (
	// TopDown stacks ranks vertically, rank 0 at the top.
	TopDown Direction = iota
	// LeftRight stacks ranks horizontally, rank 0 at the left.
	LeftRight
)

// Options tunes the layout strategies. The zero value is usable: Compute
// fills unset fields with the package defaults.
type Options struct {
	// CellWidth and CellHeight set the lattice spacing for Grid and
	// Hierarchical, and the target edge length for Force.
	CellWidth  float64
	CellHeight float64

	// Columns is the wrap width for Grid.
	Columns int

	// Direction orients the Hierarchical strategy.
	Direction Direction

	// MaxIterations bounds the Force simulation.
	MaxIterations int

	// Epsilon is the total-displacement convergence threshold for Force.
	Epsilon float64
}

const (
	defaultCellWidth     = 200
	defaultCellHeight    = 100
	defaultColumns       = 4
	defaultMaxIterations = 300
	defaultEpsilon       = 0.5
)

func (o Options) withDefaults() Options {
	if o.CellWidth <= 0 {
		o.CellWidth = defaultCellWidth
	}
	if o.CellHeight <= 0 {
		o.CellHeight = defaultCellHeight
	}
	if o.Columns <= 0 {
		o.Columns = defaultColumns
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
	if o.Epsilon <= 0 {
		o.Epsilon = defaultEpsilon
	}
	return o
}

// Compute returns a position for every block in the graph. The graph is
// not modified; callers apply the result (typically through a diff of
// MoveBlock ops) if they want it persisted.
//
// The context is checked between force-simulation iterations, never
// mid-iteration; Grid and Hierarchical run to completion as they are not
// iterative. Returns ErrInvalidStrategy for an unknown strategy.
func Compute(ctx context.Context, g *workflow.Graph, strategy Strategy, opts Options) (map[string]workflow.Position, error) {
	opts = opts.withDefaults()
	switch strategy {
	case Grid:
		return gridLayout(g, opts), nil
	case Hierarchical:
		return hierarchicalLayout(g, opts), nil
	case Force:
		return forceLayout(ctx, g, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
}

// Apply writes computed positions back onto a clone of the graph and
// returns it. The input graph is unchanged.
func Apply(g *workflow.Graph, positions map[string]workflow.Position) *workflow.Graph {
	out := g.Clone()
	for id, pos := range positions {
		if b, ok := out.Block(id); ok {
			p := pos
			b.Position = &p
		}
	}
	return out
}

// backEdges identifies edges whose removal makes the graph acyclic, using
// depth-first search with white/gray/black coloring. Traversal starts from
// the sorted source blocks, then visits remaining blocks in id order, so
// the selected edge set is deterministic.
func backEdges(g *workflow.Graph) map[workflow.Edge]bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.BlockCount())
	back := make(map[workflow.Edge]bool)

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, e := range sortedOutgoing(g, id) {
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				back[e] = true
			}
		}
		color[id] = black
	}

	for _, id := range g.Sources() {
		if color[id] == white {
			dfs(id)
		}
	}
	for _, id := range g.BlockIDs() {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}

func sortedOutgoing(g *workflow.Graph, id string) []workflow.Edge {
	out := slices.Clone(g.Outgoing(id))
	slices.SortFunc(out, workflow.CompareEdges)
	return out
}
