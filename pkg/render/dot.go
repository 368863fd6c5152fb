// Package render exports workflow graphs as Graphviz DOT and renders them
// to SVG or PNG.
//
// Rendering is a presentation concern layered on top of the layout engine:
// when blocks carry positions, they are pinned in the DOT output so the
// picture matches the computed layout instead of Graphviz's own placement.
package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// Options configures DOT export.
type Options struct {
	// Detailed includes block type and config keys in node labels.
	// When false, only the block ID is shown.
	Detailed bool

	// UsePositions pins nodes to their stored coordinates with the neato
	// engine instead of letting dot place them.
	UsePositions bool
}

// ToDOT converts a workflow graph to Graphviz DOT. Blocks are emitted in
// id order and edges in canonical order, so the output is deterministic.
// Trigger-less rendering knowledge stays out of this package; shapes only
// distinguish condition blocks (diamonds) from the rest (rounded boxes).
func ToDOT(g *workflow.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph workflow {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, b := range g.Blocks() {
		attrs := blockAttrs(b, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", b.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.SortedEdges() {
		fmt.Fprintf(&buf, "  %q -> %q [taillabel=%q, headlabel=%q];\n", e.From, e.To, e.FromPort, e.ToPort)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func blockAttrs(b *workflow.Block, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", blockLabel(b, opts.Detailed))}
	if b.Type == "condition" {
		attrs = append(attrs, "shape=diamond", "style=filled")
	}
	if opts.UsePositions && b.Position != nil {
		// Graphviz pos is in points with y growing upward; canvas y grows
		// downward.
		attrs = append(attrs, fmt.Sprintf(`pos="%.2f,%.2f!"`, b.Position.X, -b.Position.Y))
	}
	return attrs
}

func blockLabel(b *workflow.Block, detailed bool) string {
	if !detailed {
		return b.ID
	}
	parts := []string{b.ID, "type: " + b.Type}
	for _, key := range slices.Sorted(maps.Keys(b.Config)) {
		parts = append(parts, fmt.Sprintf("%s: %s", key, b.Config[key].GoString()))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz. When pinned
// positions are present the caller should have produced the DOT with
// UsePositions; the neato engine honors the pins.
func RenderSVG(ctx context.Context, dot string, pinned bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string, pinned bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg element so the view box starts at
// the origin, which keeps embedding in web views predictable.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
