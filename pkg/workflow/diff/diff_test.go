package diff

import (
	"testing"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

func mustGraph(t *testing.T, blocks []workflow.Block, edges []workflow.Edge) *workflow.Graph {
	t.Helper()
	g := workflow.New("test")
	for _, b := range blocks {
		if err := g.AddBlock(b); err != nil {
			t.Fatalf("AddBlock(%s): %v", b.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func kinds(s Set) []Kind {
	out := make([]Kind, len(s.Ops))
	for i, o := range s.Ops {
		out[i] = o.Kind
	}
	return out
}

func TestComputeIdentical(t *testing.T) {
	g := mustGraph(t,
		[]workflow.Block{{ID: "a", Type: "trigger"}, {ID: "b", Type: "action"}},
		[]workflow.Edge{{From: "a", FromPort: "out", To: "b", ToPort: "in"}},
	)
	if s := Compute(g, g.Clone()); !s.Empty() {
		t.Errorf("diff of identical graphs = %v, want empty", s.Ops)
	}
}

func TestComputeAddition(t *testing.T) {
	base := mustGraph(t,
		[]workflow.Block{{ID: "a", Type: "trigger"}, {ID: "b", Type: "action"}},
		[]workflow.Edge{{From: "a", FromPort: "out", To: "b", ToPort: "in"}},
	)
	target := mustGraph(t,
		[]workflow.Block{{ID: "a", Type: "trigger"}, {ID: "b", Type: "action"}, {ID: "c", Type: "action"}},
		[]workflow.Edge{
			{From: "a", FromPort: "out", To: "b", ToPort: "in"},
			{From: "b", FromPort: "out", To: "c", ToPort: "in"},
		},
	)

	s := Compute(base, target)
	if len(s.Ops) != 2 {
		t.Fatalf("ops = %v, want exactly [add_block c, add_edge b->c]", s.Ops)
	}
	if s.Ops[0].Kind != AddBlock || s.Ops[0].Block.ID != "c" {
		t.Errorf("ops[0] = %v, want add_block c", s.Ops[0])
	}
	if s.Ops[1].Kind != AddEdge || *s.Ops[1].Edge != (workflow.Edge{From: "b", FromPort: "out", To: "c", ToPort: "in"}) {
		t.Errorf("ops[1] = %v, want add_edge b->c", s.Ops[1])
	}
}

func TestComputeCanonicalOrder(t *testing.T) {
	base := mustGraph(t,
		[]workflow.Block{
			{ID: "keep", Type: "action", Config: map[string]workflow.Value{"n": workflow.Number(1)}},
			{ID: "gone", Type: "action"},
			{ID: "mover", Type: "action", Position: &workflow.Position{X: 0, Y: 0}},
		},
		[]workflow.Edge{{From: "keep", FromPort: "out", To: "gone", ToPort: "in"}},
	)
	target := mustGraph(t,
		[]workflow.Block{
			{ID: "keep", Type: "action", Config: map[string]workflow.Value{"n": workflow.Number(2)}},
			{ID: "fresh", Type: "action"},
			{ID: "mover", Type: "action", Position: &workflow.Position{X: 10, Y: 20}},
		},
		[]workflow.Edge{{From: "keep", FromPort: "out", To: "fresh", ToPort: "in"}},
	)

	s := Compute(base, target)
	want := []Kind{RemoveEdge, RemoveBlock, AddBlock, AddEdge, UpdateConfig, MoveBlock}
	got := kinds(s)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}

func TestComputeDeterministicWithinPhase(t *testing.T) {
	base := mustGraph(t, []workflow.Block{{ID: "x", Type: "action"}}, nil)
	target := mustGraph(t, []workflow.Block{
		{ID: "x", Type: "action"},
		{ID: "zeta", Type: "action"},
		{ID: "alpha", Type: "action"},
		{ID: "mid", Type: "action"},
	}, nil)

	s := Compute(base, target)
	wantIDs := []string{"alpha", "mid", "zeta"}
	if len(s.Ops) != 3 {
		t.Fatalf("ops = %v, want 3 adds", s.Ops)
	}
	for i, id := range wantIDs {
		if s.Ops[i].Kind != AddBlock || s.Ops[i].Block.ID != id {
			t.Errorf("ops[%d] = %v, want add_block %s", i, s.Ops[i], id)
		}
	}
}

func TestComputeTypeChangeIsRemoveAdd(t *testing.T) {
	base := mustGraph(t, []workflow.Block{{ID: "a", Type: "action"}}, nil)
	target := mustGraph(t, []workflow.Block{{ID: "a", Type: "condition"}}, nil)

	s := Compute(base, target)
	if len(s.Ops) != 2 {
		t.Fatalf("ops = %v, want [remove_block a, add_block a]", s.Ops)
	}
	if s.Ops[0].Kind != RemoveBlock || s.Ops[0].Block.Type != "action" {
		t.Errorf("ops[0] = %v, want remove of old block", s.Ops[0])
	}
	if s.Ops[1].Kind != AddBlock || s.Ops[1].Block.Type != "condition" {
		t.Errorf("ops[1] = %v, want add of retyped block", s.Ops[1])
	}
}

func TestComputeParentChangeIsUpdate(t *testing.T) {
	base := mustGraph(t, []workflow.Block{{ID: "a", Type: "action", Parent: "loop1"}}, nil)
	target := mustGraph(t, []workflow.Block{{ID: "a", Type: "action", Parent: ""}}, nil)

	s := Compute(base, target)
	if len(s.Ops) != 1 || s.Ops[0].Kind != UpdateConfig {
		t.Fatalf("ops = %v, want single update_config", s.Ops)
	}
}

func TestComputeMoveBlock(t *testing.T) {
	base := mustGraph(t, []workflow.Block{{ID: "a", Type: "action"}}, nil)
	target := mustGraph(t, []workflow.Block{{ID: "a", Type: "action", Position: &workflow.Position{X: 5, Y: 7}}}, nil)

	s := Compute(base, target)
	if len(s.Ops) != 1 || s.Ops[0].Kind != MoveBlock {
		t.Fatalf("ops = %v, want single move_block", s.Ops)
	}
	if s.Ops[0].OldPos != nil {
		t.Errorf("OldPos = %v, want nil", s.Ops[0].OldPos)
	}
	if s.Ops[0].NewPos == nil || *s.Ops[0].NewPos != (workflow.Position{X: 5, Y: 7}) {
		t.Errorf("NewPos = %v, want (5,7)", s.Ops[0].NewPos)
	}
}

func TestInvert(t *testing.T) {
	base := mustGraph(t,
		[]workflow.Block{
			{ID: "a", Type: "trigger"},
			{ID: "b", Type: "action", Config: map[string]workflow.Value{"n": workflow.Number(1)}},
		},
		[]workflow.Edge{{From: "a", FromPort: "out", To: "b", ToPort: "in"}},
	)
	target := mustGraph(t,
		[]workflow.Block{
			{ID: "a", Type: "trigger"},
			{ID: "b", Type: "action", Config: map[string]workflow.Value{"n": workflow.Number(2)}},
			{ID: "c", Type: "action"},
		},
		[]workflow.Edge{
			{From: "a", FromPort: "out", To: "b", ToPort: "in"},
			{From: "b", FromPort: "out", To: "c", ToPort: "in"},
		},
	)

	forward := Compute(base, target)
	backward := Compute(target, base)
	inverted := forward.Invert()

	if len(inverted.Ops) != len(backward.Ops) {
		t.Fatalf("inverted = %v, backward = %v", inverted.Ops, backward.Ops)
	}
	for i := range inverted.Ops {
		if inverted.Ops[i].Kind != backward.Ops[i].Kind || inverted.Ops[i].Path() != backward.Ops[i].Path() {
			t.Errorf("inverted[%d] = %v, backward[%d] = %v", i, inverted.Ops[i], i, backward.Ops[i])
		}
	}
}

func TestFilter(t *testing.T) {
	base := mustGraph(t, nil, nil)
	target := mustGraph(t, []workflow.Block{{ID: "a", Type: "action"}, {ID: "b", Type: "action"}}, nil)

	s := Compute(base, target).Filter(func(o Op) bool { return o.Path() == "a" })
	if s.Len() != 1 || s.Ops[0].Block.ID != "a" {
		t.Errorf("filtered = %v, want only add_block a", s.Ops)
	}
}

func TestSetRoundTripJSON(t *testing.T) {
	base := mustGraph(t,
		[]workflow.Block{{ID: "a", Type: "trigger", Position: &workflow.Position{X: 1, Y: 2}}},
		nil,
	)
	target := mustGraph(t,
		[]workflow.Block{
			{ID: "a", Type: "trigger", Position: &workflow.Position{X: 3, Y: 4}},
			{ID: "b", Type: "action", Config: map[string]workflow.Value{
				"url":  workflow.String("https://example.com"),
				"deep": workflow.Map(map[string]workflow.Value{"k": workflow.Bool(true)}),
			}},
		},
		[]workflow.Edge{{From: "a", FromPort: "out", To: "b", ToPort: "in"}},
	)

	s := Compute(base, target)
	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Len() != s.Len() {
		t.Fatalf("round trip lost ops: %d -> %d", s.Len(), back.Len())
	}
	for i := range s.Ops {
		if s.Ops[i].Kind != back.Ops[i].Kind || s.Ops[i].Path() != back.Ops[i].Path() {
			t.Errorf("op %d changed: %v -> %v", i, s.Ops[i], back.Ops[i])
		}
	}
}
