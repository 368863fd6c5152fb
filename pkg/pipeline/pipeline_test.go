package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/flowsmith/flowsmith/pkg/cache"
)

const sampleWorkflow = `version: "1.0"
name: Sample
blocks:
  start:
    type: trigger
  step:
    type: action
connections:
  - from: start.out
    to: step.in
`

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func dotOptions(text string) Options {
	return Options{
		WorkflowText: text,
		Formats:      []string{FormatDOT},
		Logger:       quietLogger(),
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name:    "NoSource",
			opts:    Options{},
			wantErr: "workflow file or workflow text",
		},
		{
			name:    "BothSources",
			opts:    Options{WorkflowFile: "a.yaml", WorkflowText: "x"},
			wantErr: "mutually exclusive",
		},
		{
			name:    "BadStrategy",
			opts:    Options{WorkflowText: "x", Strategy: "spiral"},
			wantErr: "invalid layout strategy",
		},
		{
			name:    "BadFormat",
			opts:    Options{WorkflowText: "x", Formats: []string{"pdf"}},
			wantErr: `invalid format "pdf"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{WorkflowText: "x"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Strategy != DefaultStrategy {
		t.Errorf("Strategy = %q, want %q", opts.Strategy, DefaultStrategy)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	// A second call must not fail or reset anything.
	opts.Formats = []string{"pdf"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestExecuteProducesDOT(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	result, err := r.Execute(context.Background(), dotOptions(sampleWorkflow))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.GraphHash == "" {
		t.Error("GraphHash empty")
	}
	if result.Stats.BlockCount != 2 || result.Stats.EdgeCount != 1 {
		t.Errorf("stats = %d blocks, %d edges", result.Stats.BlockCount, result.Stats.EdgeCount)
	}
	if len(result.Issues) != 0 {
		t.Errorf("unexpected issues: %v", result.Issues)
	}
	if len(result.Positions) != 2 {
		t.Errorf("positions = %v, want both blocks", result.Positions)
	}
	for _, id := range result.Graph.BlockIDs() {
		b, _ := result.Graph.Block(id)
		if b.Position == nil {
			t.Errorf("block %q has no position after layout", id)
		}
	}

	dot, ok := result.Artifacts[FormatDOT]
	if !ok {
		t.Fatal("no dot artifact")
	}
	for _, want := range []string{`"start"`, `"step"`, `"start" -> "step"`} {
		if !bytes.Contains(dot, []byte(want)) {
			t.Errorf("dot output missing %s", want)
		}
	}
	if result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Error("null cache reported a hit")
	}
}

func TestExecuteDeterministic(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	ctx := context.Background()

	a, err := r.Execute(ctx, dotOptions(sampleWorkflow))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	b, err := r.Execute(ctx, dotOptions(sampleWorkflow))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if a.GraphHash != b.GraphHash {
		t.Errorf("hashes differ: %q vs %q", a.GraphHash, b.GraphHash)
	}
	if !bytes.Equal(a.Artifacts[FormatDOT], b.Artifacts[FormatDOT]) {
		t.Error("dot output differs between identical runs")
	}
}

func TestExecuteCacheHits(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, quietLogger())
	defer r.Close()
	ctx := context.Background()

	first, err := r.Execute(ctx, dotOptions(sampleWorkflow))
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Error("first run reported cache hits")
	}

	second, err := r.Execute(ctx, dotOptions(sampleWorkflow))
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run hits = %+v, want both", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatDOT], second.Artifacts[FormatDOT]) {
		t.Error("cached artifact differs from computed one")
	}

	refreshOpts := dotOptions(sampleWorkflow)
	refreshOpts.Refresh = true
	third, err := r.Execute(ctx, refreshOpts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh run hits = %+v, want none", third.CacheInfo)
	}
}

func TestExecuteCacheDistinguishesOptions(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, quietLogger())
	defer r.Close()
	ctx := context.Background()

	if _, err := r.Execute(ctx, dotOptions(sampleWorkflow)); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	gridOpts := dotOptions(sampleWorkflow)
	gridOpts.Strategy = "grid"
	result, err := r.Execute(ctx, gridOpts)
	if err != nil {
		t.Fatalf("Execute grid: %v", err)
	}
	if result.CacheInfo.LayoutHit {
		t.Error("different strategy served from cache")
	}
}

func TestExecuteStrictFailsOnErrors(t *testing.T) {
	const badWorkflow = `version: "1.0"
name: Bad
blocks:
  mystery:
    type: warp
`
	opts := dotOptions(badWorkflow)
	opts.Strict = true

	r := NewRunner(nil, nil, quietLogger())
	result, err := r.Execute(context.Background(), opts)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Issues) == 0 || !strings.Contains(verr.Error(), "mystery") {
		t.Errorf("ValidationError = %v, want issue naming the block", verr)
	}
	if result == nil || len(result.Issues) == 0 {
		t.Error("strict failure should still return the result with issues")
	}
}

func TestExecuteNonStrictReportsIssues(t *testing.T) {
	const noTrigger = `version: "1.0"
name: Quiet
blocks:
  step:
    type: action
`
	r := NewRunner(nil, nil, quietLogger())
	result, err := r.Execute(context.Background(), dotOptions(noTrigger))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	found := false
	for _, is := range result.Issues {
		if strings.Contains(is.Message, "trigger") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want missing-trigger warning", result.Issues)
	}
}
