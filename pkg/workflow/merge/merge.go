// Package merge applies diff sets to workflow graphs with optimistic
// concurrency control.
//
// The base graph a diff was computed against may have drifted by the time
// the diff is applied. Every operation therefore carries its expected prior
// state, and Merge checks that expectation against the live graph before
// touching anything. When one or more operations conflict, the whole merge
// is rejected with a ConflictSet - the caller's graph is never left half
// mutated - and the caller can retry with a filtered set.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flowsmith/flowsmith/pkg/workflow"
	"github.com/flowsmith/flowsmith/pkg/workflow/diff"
)

// ErrConflict is the sentinel wrapped by ConflictSet so callers can test
// merge failures with errors.Is without inspecting the concrete type.
var ErrConflict = errors.New("merge conflict")

// Conflict reports one operation whose expected prior state did not match
// the graph being merged into.
type Conflict struct {
	Op     diff.Op `json:"op"`
	Reason string  `json:"reason"`
}

// BlockID returns the id of the block the conflicting op targets, or the
// edge's source block for edge ops.
func (c Conflict) BlockID() string {
	switch c.Op.Kind {
	case diff.AddBlock, diff.RemoveBlock:
		return c.Op.Block.ID
	case diff.AddEdge, diff.RemoveEdge:
		return c.Op.Edge.From
	default:
		return c.Op.BlockID
	}
}

// ConflictSet is the error returned when a merge is rejected. It lists
// every conflicting operation, not just the first one found, so the caller
// can review and filter in a single pass.
type ConflictSet struct {
	Conflicts []Conflict `json:"conflicts"`
}

// Error implements error.
func (cs *ConflictSet) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "merge rejected with %d conflict(s)", len(cs.Conflicts))
	for _, c := range cs.Conflicts {
		fmt.Fprintf(&b, "\n  %s: %s", c.Op.Path(), c.Reason)
	}
	return b.String()
}

// Unwrap lets errors.Is(err, ErrConflict) match.
func (cs *ConflictSet) Unwrap() error { return ErrConflict }

// Paths returns the path references of all conflicting ops, in set order.
func (cs *ConflictSet) Paths() []string {
	out := make([]string, len(cs.Conflicts))
	for i, c := range cs.Conflicts {
		out[i] = c.Op.Path()
	}
	return out
}

// Merge applies the set to base and returns the merged graph. The base
// graph is never mutated; on success the result is a new graph with its
// metadata version bumped, and Merge(base, diff.Compute(base, target))
// reproduces target's structure.
//
// Conflicts checked per operation:
//   - AddBlock: id already present
//   - RemoveBlock: id missing, or the stored block no longer matches the
//     one the diff recorded
//   - AddEdge: endpoint pair already present
//   - RemoveEdge: endpoint pair missing
//   - UpdateConfig / MoveBlock: block missing, or the recorded old value
//     differs from the live value
//
// All operations are checked before any is applied; a non-nil error is
// always a *ConflictSet listing every failing op, unless a structural
// invariant breaks mid-apply (which the pre-check makes unreachable for
// well-formed sets).
func Merge(base *workflow.Graph, set diff.Set) (*workflow.Graph, error) {
	work := base.Clone()

	if cs := check(work, set); len(cs.Conflicts) > 0 {
		return nil, cs
	}

	for _, op := range set.Ops {
		if err := apply(work, op); err != nil {
			// Pre-checked ops only fail on internally inconsistent sets,
			// e.g. hand-edited JSON adding an edge to a block the same set
			// removed.
			return nil, &ConflictSet{Conflicts: []Conflict{{Op: op, Reason: err.Error()}}}
		}
	}

	meta := work.Meta()
	meta.Version++
	work.SetMeta(meta)
	return work, nil
}

func check(g *workflow.Graph, set diff.Set) *ConflictSet {
	cs := &ConflictSet{}

	// Membership is tracked against a simulation of the set's own effects
	// so a RemoveBlock followed by an AddBlock of the same id is not a
	// false conflict.
	present := make(map[string]bool, g.BlockCount())
	for _, id := range g.BlockIDs() {
		present[id] = true
	}
	hasEdge := make(map[workflow.Edge]bool, g.EdgeCount())
	for _, e := range g.Edges() {
		hasEdge[e] = true
	}

	for _, op := range set.Ops {
		switch op.Kind {
		case diff.AddBlock:
			if present[op.Block.ID] {
				cs.add(op, fmt.Sprintf("block %q already exists", op.Block.ID))
				continue
			}
			present[op.Block.ID] = true

		case diff.RemoveBlock:
			live, ok := g.Block(op.Block.ID)
			if !ok || !present[op.Block.ID] {
				cs.add(op, fmt.Sprintf("block %q does not exist", op.Block.ID))
				continue
			}
			if !live.Equal(op.Block) {
				cs.add(op, fmt.Sprintf("block %q changed since the diff was computed", op.Block.ID))
				continue
			}
			present[op.Block.ID] = false
			for e := range hasEdge {
				if e.From == op.Block.ID || e.To == op.Block.ID {
					hasEdge[e] = false
				}
			}

		case diff.AddEdge:
			if hasEdge[*op.Edge] {
				cs.add(op, fmt.Sprintf("edge %s already exists", op.Path()))
				continue
			}
			hasEdge[*op.Edge] = true

		case diff.RemoveEdge:
			if !hasEdge[*op.Edge] {
				cs.add(op, fmt.Sprintf("edge %s does not exist", op.Path()))
				continue
			}
			hasEdge[*op.Edge] = false

		case diff.UpdateConfig:
			live, ok := g.Block(op.BlockID)
			if !ok {
				cs.add(op, fmt.Sprintf("block %q does not exist", op.BlockID))
				continue
			}
			if !workflow.EqualConfigs(live.Config, op.OldConfig) || !workflow.EqualConfigs(live.Extra, op.OldExtra) || live.Parent != op.OldParent {
				cs.add(op, fmt.Sprintf("config of %q changed since the diff was computed", op.BlockID))
			}

		case diff.MoveBlock:
			live, ok := g.Block(op.BlockID)
			if !ok {
				cs.add(op, fmt.Sprintf("block %q does not exist", op.BlockID))
				continue
			}
			if !samePosition(live.Position, op.OldPos) {
				cs.add(op, fmt.Sprintf("position of %q changed since the diff was computed", op.BlockID))
			}

		default:
			cs.add(op, fmt.Sprintf("unknown operation kind %q", op.Kind))
		}
	}
	return cs
}

func apply(g *workflow.Graph, op diff.Op) error {
	switch op.Kind {
	case diff.AddBlock:
		return g.AddBlock(*op.Block)
	case diff.RemoveBlock:
		return g.RemoveBlock(op.Block.ID)
	case diff.AddEdge:
		return g.AddEdge(*op.Edge)
	case diff.RemoveEdge:
		return g.RemoveEdge(*op.Edge)
	case diff.UpdateConfig:
		b, ok := g.Block(op.BlockID)
		if !ok {
			return fmt.Errorf("block %q: %w", op.BlockID, workflow.ErrNotFound)
		}
		b.Config = workflow.CloneConfig(op.NewConfig)
		b.Extra = workflow.CloneConfig(op.NewExtra)
		b.Parent = op.NewParent
		return nil
	case diff.MoveBlock:
		b, ok := g.Block(op.BlockID)
		if !ok {
			return fmt.Errorf("block %q: %w", op.BlockID, workflow.ErrNotFound)
		}
		if op.NewPos == nil {
			b.Position = nil
		} else {
			pos := *op.NewPos
			b.Position = &pos
		}
		return nil
	}
	return fmt.Errorf("unknown operation kind %q", op.Kind)
}

func (cs *ConflictSet) add(op diff.Op, reason string) {
	cs.Conflicts = append(cs.Conflicts, Conflict{Op: op, Reason: reason})
}

func samePosition(a, b *workflow.Position) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
