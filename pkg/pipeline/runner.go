package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowsmith/flowsmith/pkg/cache"
	"github.com/flowsmith/flowsmith/pkg/layout"
	"github.com/flowsmith/flowsmith/pkg/observability"
	"github.com/flowsmith/flowsmith/pkg/registry"
	"github.com/flowsmith/flowsmith/pkg/render"
	"github.com/flowsmith/flowsmith/pkg/workflow"
	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
	"github.com/flowsmith/flowsmith/pkg/workflow/validate"
)

// Runner executes the pipeline with caching. It holds no per-run state,
// so one Runner can serve concurrent Execute calls with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. Nil arguments fall back to a NullCache, the
// default keyer, and the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// ValidationError is returned by Execute in strict mode when the workflow
// has error-severity findings. The full issue list, warnings included, is
// still available on the Result.
type ValidationError struct {
	Issues []validate.Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		if is.BlockID != "" {
			msgs[i] = fmt.Sprintf("%s: %s", is.BlockID, is.Message)
		} else {
			msgs[i] = is.Message
		}
	}
	return fmt.Sprintf("workflow has %d validation error(s): %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Execute runs decode → validate → layout → render and returns the
// combined result. In strict mode a workflow with validation errors stops
// the run with a *ValidationError; the partially filled Result is returned
// alongside it so callers can show the findings.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	result := &Result{Artifacts: make(map[string][]byte)}

	decodeStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageDecode, 0)
	g, err := r.decode(opts)
	observability.Pipeline().OnStageComplete(ctx, observability.StageDecode, time.Since(decodeStart), err)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	result.Graph = g
	result.Stats.DecodeTime = time.Since(decodeStart)
	result.Stats.BlockCount = g.BlockCount()
	result.Stats.EdgeCount = g.EdgeCount()

	canonical, err := codec.Serialize(g)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	result.GraphHash = cache.Hash([]byte(canonical))

	logger.Debug("decoded workflow",
		"blocks", g.BlockCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.DecodeTime)

	validateStart := time.Now()
	reg, err := r.registry(opts)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	result.Issues = validate.Graph(g, reg)
	result.Stats.ValidateTime = time.Since(validateStart)

	logger.Debug("validated workflow",
		"issues", len(result.Issues),
		"duration", result.Stats.ValidateTime)

	if errs := result.ErrorIssues(); opts.Strict && len(errs) > 0 {
		return result, &ValidationError{Issues: errs}
	}

	layoutStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageLayout, g.BlockCount())
	positions, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, result.GraphHash, opts)
	observability.Pipeline().OnStageComplete(ctx, observability.StageLayout, time.Since(layoutStart), err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Positions = positions
	result.Graph = layout.Apply(g, positions)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	logger.Debug("computed layout",
		"strategy", opts.Strategy,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageRender, g.BlockCount())
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Graph, opts)
	observability.Pipeline().OnStageComplete(ctx, observability.StageRender, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Debug("rendered artifacts",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

func (r *Runner) decode(opts Options) (*workflow.Graph, error) {
	if opts.WorkflowFile != "" {
		return codec.ParseFile(opts.WorkflowFile)
	}
	return codec.Parse(opts.WorkflowText)
}

func (r *Runner) registry(opts Options) (validate.Registry, error) {
	if opts.RegistryFile != "" {
		return registry.LoadFile(opts.RegistryFile)
	}
	return registry.Builtin(), nil
}

// LayoutWithCacheInfo computes positions for the graph, serving from cache
// when an identical graph was laid out with identical options before.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *workflow.Graph, graphHash string, opts Options) (map[string]workflow.Position, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	key := r.Keyer.LayoutKey(graphHash, opts.Strategy, opts.LayoutOptions())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var positions map[string]workflow.Position
			if err := json.Unmarshal(data, &positions); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return positions, true, nil
			}
			// Undecodable entries are treated as misses and overwritten.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	strategy, err := layout.ParseStrategy(opts.Strategy)
	if err != nil {
		return nil, false, err
	}
	positions, err := layout.Compute(ctx, g, strategy, opts.LayoutOptions())
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(positions); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}
	return positions, false, nil
}

// RenderWithCacheInfo produces the requested artifacts for a laid-out
// graph. The cache key hashes the canonical serialization of the graph
// with positions applied, so moving a block invalidates the picture. Hit
// is reported only when every requested format was cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *workflow.Graph, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	canonical, err := codec.Serialize(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize for cache key: %w", err)
	}
	renderHash := cache.Hash([]byte(canonical))

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		allCached := true
		for _, format := range opts.Formats {
			key := r.Keyer.RenderKey(renderHash, format, opts.Detailed)
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				allCached = false
				break
			}
			artifacts[format] = data
		}
		if allCached {
			observability.Cache().OnCacheHit(ctx, "render")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "render")
	}

	artifacts, err := r.renderAll(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range artifacts {
		key := r.Keyer.RenderKey(renderHash, format, opts.Detailed)
		_ = r.Cache.Set(ctx, key, data, cache.TTLRender)
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}
	return artifacts, false, nil
}

func (r *Runner) renderAll(ctx context.Context, g *workflow.Graph, opts Options) (map[string][]byte, error) {
	pinned := hasPositions(g)
	dot := render.ToDOT(g, render.Options{Detailed: opts.Detailed, UsePositions: pinned})

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(dot)
		case FormatSVG:
			data, err := render.RenderSVG(ctx, dot, pinned)
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = data
		case FormatPNG:
			data, err := render.RenderPNG(ctx, dot, pinned)
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		default:
			return nil, fmt.Errorf("invalid format %q", format)
		}
	}
	return artifacts, nil
}

func hasPositions(g *workflow.Graph) bool {
	for _, b := range g.Blocks() {
		if b.Position == nil {
			return false
		}
	}
	return g.BlockCount() > 0
}

// Close releases the runner's cache resources.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
