// Package pipeline orchestrates the decode → validate → layout → render
// stages behind a single Options/Result pair, with caching between runs.
//
// The CLI is the only consumer today, but the package keeps the same shape
// an HTTP handler or worker would use: Options is JSON-serializable
// (runtime-only fields are excluded), defaults live here in one place, and
// the Runner is safe for concurrent use.
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowsmith/flowsmith/pkg/layout"
	"github.com/flowsmith/flowsmith/pkg/workflow"
	"github.com/flowsmith/flowsmith/pkg/workflow/validate"
)

// Output formats the render stage can produce.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
)

// ValidFormats enumerates the accepted output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatDOT: true,
}

// Defaults applied by ValidateAndSetDefaults. Every entry point (CLI
// flags, future API handlers) should rely on these rather than restating
// its own values.
const (
	DefaultStrategy = string(layout.Hierarchical)
)

// DefaultFormats is the output format set used when none is requested.
var DefaultFormats = []string{FormatSVG}

// Options configures a pipeline run. The zero value plus a workflow
// source is valid; ValidateAndSetDefaults fills the rest.
type Options struct {
	// WorkflowFile is the path to the workflow document. Mutually
	// exclusive with WorkflowText.
	WorkflowFile string `json:"workflow_file,omitempty"`

	// WorkflowText is the workflow document itself.
	WorkflowText string `json:"workflow_text,omitempty"`

	// RegistryFile optionally points at a TOML block-type registry that
	// extends the built-in types for the validate stage.
	RegistryFile string `json:"registry_file,omitempty"`

	// Strict makes Execute fail when validation reports error-severity
	// issues. Warnings never fail a run.
	Strict bool `json:"strict,omitempty"`

	// Strategy selects the layout algorithm (grid, hierarchical, force).
	Strategy string `json:"strategy,omitempty"`

	// Columns is the wrap width for the grid strategy.
	Columns int `json:"columns,omitempty"`

	// CellWidth and CellHeight set the layout lattice spacing.
	CellWidth  float64 `json:"cell_width,omitempty"`
	CellHeight float64 `json:"cell_height,omitempty"`

	// LeftRight orients the hierarchical strategy horizontally.
	LeftRight bool `json:"left_right,omitempty"`

	// Formats lists the artifacts to produce (svg, png, dot).
	Formats []string `json:"formats,omitempty"`

	// Detailed includes block type and config in rendered node labels.
	Detailed bool `json:"detailed,omitempty"`

	// Refresh bypasses the cache and recomputes every stage.
	Refresh bool `json:"refresh,omitempty"`

	// Logger receives stage progress. Runtime-only, never serialized.
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills unset fields.
// Idempotent: a second call returns immediately.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.WorkflowFile == "" && o.WorkflowText == "" {
		return fmt.Errorf("either workflow file or workflow text is required")
	}
	if o.WorkflowFile != "" && o.WorkflowText != "" {
		return fmt.Errorf("workflow file and workflow text are mutually exclusive")
	}

	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if _, err := layout.ParseStrategy(o.Strategy); err != nil {
		return err
	}

	if len(o.Formats) == 0 {
		o.Formats = append([]string(nil), DefaultFormats...)
	}
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return fmt.Errorf("invalid format %q (want svg, png or dot)", f)
		}
	}

	if o.Logger == nil {
		o.Logger = log.Default()
	}

	o.validated = true
	return nil
}

// LayoutOptions converts the flat option fields into the layout package's
// option struct. Zero fields fall through to the layout defaults.
func (o *Options) LayoutOptions() layout.Options {
	dir := layout.TopDown
	if o.LeftRight {
		dir = layout.LeftRight
	}
	return layout.Options{
		CellWidth:  o.CellWidth,
		CellHeight: o.CellHeight,
		Columns:    o.Columns,
		Direction:  dir,
	}
}

// Result carries the outputs of a pipeline run.
type Result struct {
	// Graph is the decoded workflow with computed positions applied.
	Graph *workflow.Graph

	// GraphHash is the SHA-256 hash of the canonical serialization of the
	// decoded graph, before layout. Stable across runs for an unchanged
	// document, so it doubles as a cache key component and an ETag.
	GraphHash string

	// Issues holds the validation findings, warnings included.
	Issues []validate.Issue

	// Positions is the computed layout, keyed by block id.
	Positions map[string]workflow.Position

	// Artifacts maps format name to rendered bytes.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats records per-stage timings and graph size.
type Stats struct {
	DecodeTime   time.Duration `json:"decode_time"`
	ValidateTime time.Duration `json:"validate_time"`
	LayoutTime   time.Duration `json:"layout_time"`
	RenderTime   time.Duration `json:"render_time"`
	BlockCount   int           `json:"block_count"`
	EdgeCount    int           `json:"edge_count"`
}

// CacheInfo records which stages were served from cache.
type CacheInfo struct {
	LayoutHit bool `json:"layout_hit"`
	RenderHit bool `json:"render_hit"`
}

// ErrorIssues filters the result's issues down to error severity.
func (r *Result) ErrorIssues() []validate.Issue {
	var out []validate.Issue
	for _, is := range r.Issues {
		if is.Severity == validate.Error {
			out = append(out, is)
		}
	}
	return out
}
