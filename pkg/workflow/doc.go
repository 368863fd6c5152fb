// Package workflow defines the in-memory model for automation workflow
// graphs: blocks, typed ports, directed edges, and graph-level metadata.
//
// A [Graph] is a set of uniquely identified [Block] values connected by
// directed [Edge] values. Blocks carry a type tag, a configuration map of
// [Value] entries, an optional canvas position, and an optional parent
// container. Lookups are id-indexed, so block and adjacency access is
// constant time.
//
// The model is purely structural. It enforces referential integrity
// (no dangling endpoints, no duplicate ids or edges, compatible port data
// kinds) but holds no knowledge of block behavior - that belongs to the
// block-type registry injected into the validate package. Graphs may
// contain cycles; whether a cycle is legal for a given workflow is a
// registry decision, and the layout package tolerates cycles regardless.
//
// Graph is not safe for concurrent use without external synchronization.
// Operations that transform graphs (diff, merge, layout) never mutate
// their input; use [Graph.Clone] when an independent copy is needed.
package workflow
