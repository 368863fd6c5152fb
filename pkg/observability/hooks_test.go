package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, StageDecode, 10)
	p.OnStageComplete(ctx, StageDecode, time.Second, nil)
	p.OnStageComplete(ctx, StageLayout, time.Second, errors.New("boom"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "render")
	c.OnCacheSet(ctx, "render", 1024)

	s := NoopStoreHooks{}
	s.OnPut(ctx, "wf", 1, time.Millisecond)
	s.OnError(ctx, "put", "wf", errors.New("boom"))
}

type recordingPipelineHooks struct {
	NoopPipelineHooks
	stages []string
}

func (r *recordingPipelineHooks) OnStageComplete(_ context.Context, stage string, _ time.Duration, _ error) {
	r.stages = append(r.stages, stage)
}

func TestSetAndResetHooks(t *testing.T) {
	defer Reset()

	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)

	Pipeline().OnStageComplete(context.Background(), StageRender, time.Second, nil)
	if len(rec.stages) != 1 || rec.stages[0] != StageRender {
		t.Errorf("stages = %v, want [render]", rec.stages)
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset did not restore the no-op pipeline hooks")
	}

	// nil registration keeps the current hooks
	SetCacheHooks(nil)
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("nil registration replaced the cache hooks")
	}
}
