// Package diff computes the minimal set of structural operations that
// transforms one workflow graph into another.
//
// Blocks are matched by identifier, edges by their full endpoint pair, so
// the comparison runs in linear time over both graphs. Operations are
// emitted in a fixed canonical order - removals, then additions, then
// config updates, then moves - chosen so that replaying a set never
// transiently references a block that does not exist yet. Within each
// phase, operations are sorted by their path reference for determinism.
//
// Every operation carries enough data to be applied on its own and to be
// inverted, which is what the merge engine's conflict checks and undo
// support build on.
package diff

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// Kind identifies a diff operation variant.
type Kind string

const (
	AddBlock     Kind = "add_block"
	RemoveBlock  Kind = "remove_block"
	UpdateConfig Kind = "update_config"
	MoveBlock    Kind = "move_block"
	AddEdge      Kind = "add_edge"
	RemoveEdge   Kind = "remove_edge"
)

// phase returns the canonical ordering phase for a kind. Lower applies first.
func (k Kind) phase() int {
	switch k {
	case RemoveEdge:
		return 0
	case RemoveBlock:
		return 1
	case AddBlock:
		return 2
	case AddEdge:
		return 3
	case UpdateConfig:
		return 4
	case MoveBlock:
		return 5
	}
	return 6
}

// Op is a single structural change. Exactly one payload group is set,
// determined by Kind:
//
//   - AddBlock / RemoveBlock: Block (the full block; RemoveBlock carries
//     the removed block so the op can be inverted)
//   - UpdateConfig: BlockID plus Old/New config and extra maps
//   - MoveBlock: BlockID plus OldPos/NewPos (nil means unpositioned)
//   - AddEdge / RemoveEdge: Edge
type Op struct {
	Kind Kind `json:"kind"`

	BlockID string          `json:"block_id,omitempty"`
	Block   *workflow.Block `json:"block,omitempty"`
	Edge    *workflow.Edge  `json:"edge,omitempty"`

	OldConfig map[string]workflow.Value `json:"old_config,omitempty"`
	NewConfig map[string]workflow.Value `json:"new_config,omitempty"`
	OldExtra  map[string]workflow.Value `json:"old_extra,omitempty"`
	NewExtra  map[string]workflow.Value `json:"new_extra,omitempty"`

	OldParent string `json:"old_parent,omitempty"`
	NewParent string `json:"new_parent,omitempty"`

	OldPos *workflow.Position `json:"old_pos,omitempty"`
	NewPos *workflow.Position `json:"new_pos,omitempty"`
}

// Path returns the stable reference for the entity the op targets: the
// block id for block ops, or "from.port->to.port" for edge ops. Two ops
// with the same path target the same entity.
func (o Op) Path() string {
	switch o.Kind {
	case AddBlock, RemoveBlock:
		return o.Block.ID
	case AddEdge, RemoveEdge:
		return fmt.Sprintf("%s.%s->%s.%s", o.Edge.From, o.Edge.FromPort, o.Edge.To, o.Edge.ToPort)
	default:
		return o.BlockID
	}
}

// String renders a short human-readable description of the op.
func (o Op) String() string {
	switch o.Kind {
	case AddBlock:
		return fmt.Sprintf("add block %s (%s)", o.Block.ID, o.Block.Type)
	case RemoveBlock:
		return fmt.Sprintf("remove block %s", o.Block.ID)
	case UpdateConfig:
		return fmt.Sprintf("update config of %s", o.BlockID)
	case MoveBlock:
		return fmt.Sprintf("move block %s", o.BlockID)
	case AddEdge:
		return fmt.Sprintf("add edge %s", o.Path())
	case RemoveEdge:
		return fmt.Sprintf("remove edge %s", o.Path())
	}
	return string(o.Kind)
}

// Invert returns the operation that undoes this one.
func (o Op) Invert() Op {
	switch o.Kind {
	case AddBlock:
		return Op{Kind: RemoveBlock, Block: o.Block}
	case RemoveBlock:
		return Op{Kind: AddBlock, Block: o.Block}
	case AddEdge:
		return Op{Kind: RemoveEdge, Edge: o.Edge}
	case RemoveEdge:
		return Op{Kind: AddEdge, Edge: o.Edge}
	case UpdateConfig:
		return Op{
			Kind: UpdateConfig, BlockID: o.BlockID,
			OldConfig: o.NewConfig, NewConfig: o.OldConfig,
			OldExtra: o.NewExtra, NewExtra: o.OldExtra,
			OldParent: o.NewParent, NewParent: o.OldParent,
		}
	case MoveBlock:
		return Op{Kind: MoveBlock, BlockID: o.BlockID, OldPos: o.NewPos, NewPos: o.OldPos}
	}
	return o
}

// Set is an ordered, replayable sequence of operations.
type Set struct {
	Ops []Op `json:"ops"`
}

// Empty reports whether the set contains no operations.
func (s Set) Empty() bool { return len(s.Ops) == 0 }

// Len returns the number of operations.
func (s Set) Len() int { return len(s.Ops) }

// Invert returns a set that undoes this one when applied to the target
// graph. Operations are inverted individually and re-sorted into canonical
// order so the result replays safely.
func (s Set) Invert() Set {
	out := Set{Ops: make([]Op, len(s.Ops))}
	for i, o := range s.Ops {
		out.Ops[i] = o.Invert()
	}
	out.sortCanonical()
	return out
}

// Filter returns a set containing only the ops for which keep returns true.
// Order is preserved. Used to apply a user-reviewed subset of a diff.
func (s Set) Filter(keep func(Op) bool) Set {
	var out Set
	for _, o := range s.Ops {
		if keep(o) {
			out.Ops = append(out.Ops, o)
		}
	}
	return out
}

func (s *Set) sortCanonical() {
	slices.SortStableFunc(s.Ops, func(a, b Op) int {
		if d := a.Kind.phase() - b.Kind.phase(); d != 0 {
			return d
		}
		pa, pb := a.Path(), b.Path()
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})
}

// Compute diffs base against target and returns the operations that turn
// base into target. Comparing a graph with itself yields an empty set.
// Neither input is mutated.
//
// A block whose type changed is reported as a remove plus an add: a block
// of a different type is a different unit of work, not an edit. Parent
// container changes travel with the config update op's extra payload
// handling; position changes become MoveBlock ops.
func Compute(base, target *workflow.Graph) Set {
	var s Set

	// A type change is a remove plus an add, so a retyped block behaves as
	// unmatched on both sides. Its surviving edges must be removed and
	// re-added around it, since removing a block drops its edges.
	retyped := make(map[string]bool)
	for _, id := range base.BlockIDs() {
		ob, _ := base.Block(id)
		if nb, ok := target.Block(id); ok && ob.Type != nb.Type {
			retyped[id] = true
		}
	}
	touchesRetyped := func(e workflow.Edge) bool { return retyped[e.From] || retyped[e.To] }

	baseEdges := make(map[workflow.Edge]bool, base.EdgeCount())
	for _, e := range base.Edges() {
		baseEdges[e] = true
	}
	targetEdges := make(map[workflow.Edge]bool, target.EdgeCount())
	for _, e := range target.Edges() {
		targetEdges[e] = true
	}

	// Edge removals first so block removals never orphan a live edge.
	for _, e := range base.SortedEdges() {
		if !targetEdges[e] || touchesRetyped(e) {
			edge := e
			s.Ops = append(s.Ops, Op{Kind: RemoveEdge, Edge: &edge})
		}
	}

	for _, id := range base.BlockIDs() {
		_, ok := target.Block(id)
		if !ok || retyped[id] {
			b, _ := base.Block(id)
			s.Ops = append(s.Ops, Op{Kind: RemoveBlock, Block: b.Clone()})
		}
	}
	for _, id := range target.BlockIDs() {
		_, ok := base.Block(id)
		if !ok || retyped[id] {
			b, _ := target.Block(id)
			s.Ops = append(s.Ops, Op{Kind: AddBlock, Block: b.Clone()})
		}
	}

	for _, e := range target.SortedEdges() {
		if !baseEdges[e] || touchesRetyped(e) {
			edge := e
			s.Ops = append(s.Ops, Op{Kind: AddEdge, Edge: &edge})
		}
	}

	// Updates and moves for blocks present on both sides.
	var updates, moves []Op
	for _, id := range base.BlockIDs() {
		ob, _ := base.Block(id)
		nb, ok := target.Block(id)
		if !ok || retyped[id] {
			continue
		}
		if !workflow.EqualConfigs(ob.Config, nb.Config) || !workflow.EqualConfigs(ob.Extra, nb.Extra) || ob.Parent != nb.Parent {
			updates = append(updates, Op{
				Kind: UpdateConfig, BlockID: id,
				OldConfig: workflow.CloneConfig(ob.Config), NewConfig: workflow.CloneConfig(nb.Config),
				OldExtra: workflow.CloneConfig(ob.Extra), NewExtra: workflow.CloneConfig(nb.Extra),
				OldParent: ob.Parent, NewParent: nb.Parent,
			})
		}
		if !samePosition(ob.Position, nb.Position) {
			moves = append(moves, Op{Kind: MoveBlock, BlockID: id, OldPos: clonePos(ob.Position), NewPos: clonePos(nb.Position)})
		}
	}
	s.Ops = append(s.Ops, updates...)
	s.Ops = append(s.Ops, moves...)

	s.sortCanonical()
	return s
}

func samePosition(a, b *workflow.Position) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func clonePos(p *workflow.Position) *workflow.Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Marshal encodes the set as indented JSON.
func Marshal(s Set) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal decodes a set from JSON.
func Unmarshal(data []byte) (Set, error) {
	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return Set{}, fmt.Errorf("decode diff: %w", err)
	}
	return s, nil
}

// ReadFile loads a serialized set from a file.
func ReadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}

// WriteFile writes the set as JSON with 0644 permissions.
func WriteFile(s Set, path string) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
