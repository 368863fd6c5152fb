// Package pkg provides the core libraries for Flowsmith workflow tooling.
//
// # Overview
//
// Flowsmith treats a workflow as a directed graph of typed blocks wired
// through named ports, stored as a canonical YAML document. The pkg
// directory is organized around the document lifecycle:
//
//  1. [workflow] - Graph model (blocks, ports, edges, config values)
//  2. [workflow/codec] - Canonical YAML interchange format
//  3. [workflow/validate] - Registry-based validation
//  4. [workflow/diff] / [workflow/merge] - Structural diff and transactional merge
//  5. [layout] - Deterministic placement strategies (grid, hierarchical, force)
//  6. [render] - Graphviz DOT export and SVG/PNG rendering
//  7. [pipeline] - Orchestration (decode → validate → layout → render)
//
// # Architecture
//
// The typical data flow through Flowsmith:
//
//	Workflow document (YAML)
//	         ↓
//	    [workflow/codec] package (parse, canonicalize)
//	         ↓
//	    [workflow/validate] package (check against registry)
//	         ↓
//	    [layout] package (compute positions)
//	         ↓
//	    [render] package (DOT, SVG, PNG)
//
// Two documents can be compared with [workflow/diff] and the resulting
// operation set replayed onto another revision with [workflow/merge],
// which rejects the whole set when any operation no longer applies.
//
// # Quick Start
//
// Parse a document, lay it out, and export DOT:
//
//	import (
//	    "context"
//	    "github.com/flowsmith/flowsmith/pkg/layout"
//	    "github.com/flowsmith/flowsmith/pkg/render"
//	    "github.com/flowsmith/flowsmith/pkg/workflow/codec"
//	)
//
//	g, _ := codec.ParseFile("flow.yaml")
//	positions, _ := layout.Compute(context.Background(), g, layout.Hierarchical, layout.Options{})
//	dot := render.ToDOT(layout.Apply(g, positions), render.Options{UsePositions: true})
//
// # Supporting Packages
//
// [registry] - Built-in block types, TOML-defined extensions, and workflow
// templates.
//
// [cache] - Layout and artifact caching keyed by the canonical document
// hash. File, redis, and null backends.
//
// [store] - Versioned document storage (memory, MongoDB) with per-workflow
// sequence numbers.
//
// [pipeline] - The shared Options/Runner pair used by the CLI; caching and
// stage timing live here so every entry point behaves identically.
//
// [observability] - Optional instrumentation hooks for pipeline stages,
// cache access, and the version store.
//
// [errors] - Code-based errors shared across packages.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/workflow/...     # Graph model, codec, diff, merge
//
// Integration tests for the redis cache and mongo store are skipped unless
// FLOWSMITH_TEST_REDIS_URL / FLOWSMITH_TEST_MONGO_URI are set.
//
// [workflow]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/workflow
// [workflow/codec]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/workflow/codec
// [workflow/validate]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/workflow/validate
// [workflow/diff]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/workflow/diff
// [workflow/merge]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/workflow/merge
// [layout]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/layout
// [render]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/pipeline
// [registry]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/registry
// [cache]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/cache
// [store]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/store
// [observability]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/observability
// [errors]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/flowsmith/flowsmith/pkg/buildinfo
package pkg
