package workflow

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidBlockID is returned by [Graph.AddBlock] when the block ID is
	// empty. All blocks must have non-empty identifiers.
	ErrInvalidBlockID = errors.New("block ID must not be empty")

	// ErrDuplicateID is returned by [Graph.AddBlock] when a block with the
	// same ID already exists in the graph. Block IDs must be unique.
	ErrDuplicateID = errors.New("duplicate block ID")

	// ErrNotFound is returned when an operation references a block ID that
	// does not exist in the graph.
	ErrNotFound = errors.New("block not found")

	// ErrDanglingEndpoint is returned by [Graph.AddEdge] when an endpoint
	// references a missing block, or a port name the block declares ports
	// for but does not include.
	ErrDanglingEndpoint = errors.New("edge endpoint does not exist")

	// ErrIncompatiblePorts is returned by [Graph.AddEdge] when both endpoint
	// ports declare a data kind and the kinds differ.
	ErrIncompatiblePorts = errors.New("incompatible port data kinds")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when an edge with the
	// same endpoint pair (block and port on both sides) already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")
)

// PortDirection distinguishes input ports from output ports.
type PortDirection int

const (
	// Input ports receive data from upstream blocks.
	Input PortDirection = iota
	// Output ports emit data to downstream blocks.
	Output
)

// Port is a named, typed attachment point on a block. DataKind is a free
// tag used for connection-compatibility checks; an empty DataKind is a
// wildcard that connects to anything.
type Port struct {
	Name      string        `json:"name"`
	Direction PortDirection `json:"direction"`
	DataKind  string        `json:"kind,omitempty"`
}

// Position is a 2-D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Block is one configurable unit of work in a workflow graph.
//
// Ports lists the block's declared attachment points. A block with no
// declared ports accepts any port name on its edges; declared ports are
// enforced by [Graph.AddEdge]. Extra holds unknown document fields carried
// through a codec round trip verbatim; the model itself never interprets
// them.
type Block struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Config   map[string]Value `json:"config,omitempty"`
	Position *Position        `json:"position,omitempty"`
	Parent   string           `json:"parent,omitempty"` // enclosing container block ID, empty for top level
	Ports    []Port           `json:"ports,omitempty"`
	Extra    map[string]Value `json:"extra,omitempty"`
}

// Port returns the declared port with the given name and direction.
func (b *Block) Port(name string, dir PortDirection) (Port, bool) {
	for _, p := range b.Ports {
		if p.Name == name && p.Direction == dir {
			return p, true
		}
	}
	return Port{}, false
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	out := *b
	out.Config = CloneConfig(b.Config)
	out.Extra = CloneConfig(b.Extra)
	out.Ports = slices.Clone(b.Ports)
	if b.Position != nil {
		pos := *b.Position
		out.Position = &pos
	}
	return &out
}

// Equal reports whether two blocks are structurally identical.
func (b *Block) Equal(o *Block) bool {
	if b.ID != o.ID || b.Type != o.Type || b.Parent != o.Parent {
		return false
	}
	if !EqualConfigs(b.Config, o.Config) || !EqualConfigs(b.Extra, o.Extra) {
		return false
	}
	if !slices.Equal(b.Ports, o.Ports) {
		return false
	}
	if (b.Position == nil) != (o.Position == nil) {
		return false
	}
	return b.Position == nil || *b.Position == *o.Position
}

// Edge is a directed connection from an output port on one block to an
// input port on another. Edges are identified by their full endpoint pair;
// two edges with the same blocks and ports are duplicates.
type Edge struct {
	From     string `json:"from"`
	FromPort string `json:"from_port"`
	To       string `json:"to"`
	ToPort   string `json:"to_port"`
}

// Metadata is graph-level metadata: a display name and a version counter
// that the merge engine bumps on every successful merge.
type Metadata struct {
	Name    string
	Version int
}

// Graph is an id-indexed directed graph of blocks. It may contain cycles;
// acyclicity is a policy question for the validator's registry, not a
// structural invariant.
//
// The zero value is not usable - use [New].
type Graph struct {
	meta     Metadata
	blocks   map[string]*Block
	edges    []Edge
	outgoing map[string][]Edge
	incoming map[string][]Edge
}

// New creates an empty graph with the given display name.
func New(name string) *Graph {
	return &Graph{
		meta:     Metadata{Name: name},
		blocks:   make(map[string]*Block),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
	}
}

// Meta returns the graph-level metadata.
func (g *Graph) Meta() Metadata { return g.meta }

// SetMeta replaces the graph-level metadata.
func (g *Graph) SetMeta(m Metadata) { g.meta = m }

// AddBlock adds a block to the graph. Returns ErrInvalidBlockID for an
// empty ID or ErrDuplicateID if the ID is already present. The block is
// stored by pointer copy; later changes to the argument do not affect the
// graph.
func (g *Graph) AddBlock(b Block) error {
	if b.ID == "" {
		return ErrInvalidBlockID
	}
	if _, exists := g.blocks[b.ID]; exists {
		return ErrDuplicateID
	}
	g.blocks[b.ID] = b.Clone()
	return nil
}

// RemoveBlock removes a block and every edge touching it.
// Returns ErrNotFound if no block has the given ID.
func (g *Graph) RemoveBlock(id string) error {
	if _, ok := g.blocks[id]; !ok {
		return ErrNotFound
	}
	delete(g.blocks, id)
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == id || e.To == id })
	delete(g.outgoing, id)
	delete(g.incoming, id)
	for bid := range g.outgoing {
		g.outgoing[bid] = slices.DeleteFunc(g.outgoing[bid], func(e Edge) bool { return e.To == id })
	}
	for bid := range g.incoming {
		g.incoming[bid] = slices.DeleteFunc(g.incoming[bid], func(e Edge) bool { return e.From == id })
	}
	return nil
}

// Block returns the block with the given ID and true, or nil and false.
// The returned pointer refers to the stored block; mutating it mutates
// the graph.
func (g *Graph) Block(id string) (*Block, bool) {
	b, ok := g.blocks[id]
	return b, ok
}

// Blocks returns all blocks sorted by ID for deterministic iteration.
func (g *Graph) Blocks() []*Block {
	ids := slices.Sorted(maps.Keys(g.blocks))
	out := make([]*Block, len(ids))
	for i, id := range ids {
		out[i] = g.blocks[id]
	}
	return out
}

// BlockIDs returns all block IDs in sorted order.
func (g *Graph) BlockIDs() []string {
	return slices.Sorted(maps.Keys(g.blocks))
}

// AddEdge adds a directed edge between two existing blocks.
//
// Returns ErrDanglingEndpoint if either block is missing, or if a block
// declares ports and the referenced port name is absent from them.
// Returns ErrIncompatiblePorts when both endpoint ports declare non-empty
// data kinds that differ, and ErrDuplicateEdge when the exact endpoint
// pair is already connected.
func (g *Graph) AddEdge(e Edge) error {
	src, ok := g.blocks[e.From]
	if !ok {
		return ErrDanglingEndpoint
	}
	dst, ok := g.blocks[e.To]
	if !ok {
		return ErrDanglingEndpoint
	}

	var srcKind, dstKind string
	if len(src.Ports) > 0 {
		p, ok := src.Port(e.FromPort, Output)
		if !ok {
			return ErrDanglingEndpoint
		}
		srcKind = p.DataKind
	}
	if len(dst.Ports) > 0 {
		p, ok := dst.Port(e.ToPort, Input)
		if !ok {
			return ErrDanglingEndpoint
		}
		dstKind = p.DataKind
	}
	if srcKind != "" && dstKind != "" && srcKind != dstKind {
		return ErrIncompatiblePorts
	}

	if slices.Contains(g.edges, e) {
		return ErrDuplicateEdge
	}

	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e)
	g.incoming[e.To] = append(g.incoming[e.To], e)
	return nil
}

// RemoveEdge removes the edge with the exact endpoint pair.
// Returns ErrNotFound if no such edge exists.
func (g *Graph) RemoveEdge(e Edge) error {
	if !slices.Contains(g.edges, e) {
		return ErrNotFound
	}
	g.edges = slices.DeleteFunc(g.edges, func(x Edge) bool { return x == e })
	g.outgoing[e.From] = slices.DeleteFunc(g.outgoing[e.From], func(x Edge) bool { return x == e })
	g.incoming[e.To] = slices.DeleteFunc(g.incoming[e.To], func(x Edge) bool { return x == e })
	return nil
}

// HasEdge reports whether the exact endpoint pair is connected.
func (g *Graph) HasEdge(e Edge) bool { return slices.Contains(g.edges, e) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// SortedEdges returns all edges ordered by (From, FromPort, To, ToPort).
// Used wherever deterministic edge iteration matters.
func (g *Graph) SortedEdges() []Edge {
	out := slices.Clone(g.edges)
	slices.SortFunc(out, CompareEdges)
	return out
}

// Outgoing returns the edges leaving the given block.
// The returned slice is a read-only view.
func (g *Graph) Outgoing(id string) []Edge { return g.outgoing[id] }

// Incoming returns the edges entering the given block.
// The returned slice is a read-only view.
func (g *Graph) Incoming(id string) []Edge { return g.incoming[id] }

// BlockCount returns the number of blocks.
func (g *Graph) BlockCount() int { return len(g.blocks) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Sources returns the IDs of blocks with no incoming edges, sorted.
func (g *Graph) Sources() []string {
	var out []string
	for id := range g.blocks {
		if len(g.incoming[id]) == 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := New(g.meta.Name)
	out.meta = g.meta
	for id, b := range g.blocks {
		out.blocks[id] = b.Clone()
	}
	out.edges = slices.Clone(g.edges)
	for id, es := range g.outgoing {
		out.outgoing[id] = slices.Clone(es)
	}
	for id, es := range g.incoming {
		out.incoming[id] = slices.Clone(es)
	}
	return out
}

// Equal reports whether two graphs are structurally identical: same
// metadata, same blocks, and the same edge set regardless of insertion
// order.
func (g *Graph) Equal(o *Graph) bool {
	if g.meta != o.meta || len(g.blocks) != len(o.blocks) || len(g.edges) != len(o.edges) {
		return false
	}
	for id, b := range g.blocks {
		ob, ok := o.blocks[id]
		if !ok || !b.Equal(ob) {
			return false
		}
	}
	return slices.Equal(g.SortedEdges(), o.SortedEdges())
}

// CompareEdges orders edges by (From, FromPort, To, ToPort).
func CompareEdges(a, b Edge) int {
	if c := compareStrings(a.From, b.From); c != 0 {
		return c
	}
	if c := compareStrings(a.FromPort, b.FromPort); c != 0 {
		return c
	}
	if c := compareStrings(a.To, b.To); c != 0 {
		return c
	}
	return compareStrings(a.ToPort, b.ToPort)
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
