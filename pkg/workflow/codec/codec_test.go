package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

const sampleDoc = `version: "1.0"
name: Fetch and notify
blocks:
  fetch:
    type: action
    config:
      retries: 3
      url: https://example.com
    position:
      x: 0
      y: 100
  notify:
    type: action
    config:
      channel: ops
  start:
    type: trigger
connections:
  - from: start.out
    to: fetch.in
  - from: fetch.out
    to: notify.in
`

func TestParse(t *testing.T) {
	g, err := Parse(sampleDoc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if g.Meta().Name != "Fetch and notify" {
		t.Errorf("name = %q", g.Meta().Name)
	}
	if g.BlockCount() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("blocks/edges = %d/%d, want 3/2", g.BlockCount(), g.EdgeCount())
	}

	fetch, ok := g.Block("fetch")
	if !ok {
		t.Fatal("block fetch missing")
	}
	if !fetch.Config["retries"].Equal(workflow.Number(3)) {
		t.Errorf("retries = %#v", fetch.Config["retries"])
	}
	if !fetch.Config["url"].Equal(workflow.String("https://example.com")) {
		t.Errorf("url = %#v", fetch.Config["url"])
	}
	if fetch.Position == nil || fetch.Position.Y != 100 {
		t.Errorf("position = %v", fetch.Position)
	}
	if !g.HasEdge(workflow.Edge{From: "start", FromPort: "out", To: "fetch", ToPort: "in"}) {
		t.Error("missing start->fetch edge")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(t *testing.T, err error)
	}{
		{
			name: "MalformedYAML",
			doc:  "version: \"1.0\"\nname: [oops\nblocks: {}\n",
			check: func(t *testing.T, err error) {
				var se *SyntaxError
				if !errors.As(err, &se) {
					t.Fatalf("error = %v, want SyntaxError", err)
				}
				if se.Line == 0 {
					t.Errorf("SyntaxError carries no line: %v", se)
				}
			},
		},
		{
			name: "MissingVersion",
			doc:  "name: x\nblocks: {}\n",
			check: func(t *testing.T, err error) {
				var se *SchemaError
				if !errors.As(err, &se) || se.Field != "version" {
					t.Fatalf("error = %v, want SchemaError{version}", err)
				}
			},
		},
		{
			name: "UnsupportedVersion",
			doc:  "version: \"9.9\"\nname: x\n",
			check: func(t *testing.T, err error) {
				var ue *UnsupportedVersionError
				if !errors.As(err, &ue) || ue.Version != "9.9" {
					t.Fatalf("error = %v, want UnsupportedVersionError{9.9}", err)
				}
			},
		},
		{
			name: "MissingName",
			doc:  "version: \"1.0\"\nblocks: {}\n",
			check: func(t *testing.T, err error) {
				var se *SchemaError
				if !errors.As(err, &se) || se.Field != "name" {
					t.Fatalf("error = %v, want SchemaError{name}", err)
				}
			},
		},
		{
			name: "MissingBlockType",
			doc:  "version: \"1.0\"\nname: x\nblocks:\n  a:\n    config: {}\n",
			check: func(t *testing.T, err error) {
				var se *SchemaError
				if !errors.As(err, &se) || se.Field != "blocks.a.type" {
					t.Fatalf("error = %v, want SchemaError{blocks.a.type}", err)
				}
			},
		},
		{
			name: "DanglingConnection",
			doc:  "version: \"1.0\"\nname: x\nblocks:\n  a:\n    type: action\nconnections:\n  - from: a.out\n    to: ghost.in\n",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, workflow.ErrDanglingEndpoint) {
					t.Fatalf("error = %v, want ErrDanglingEndpoint", err)
				}
			},
		},
		{
			name: "DuplicateConnection",
			doc: "version: \"1.0\"\nname: x\nblocks:\n  a:\n    type: action\n  b:\n    type: action\n" +
				"connections:\n  - from: a.out\n    to: b.in\n  - from: a.out\n    to: b.in\n",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, workflow.ErrDuplicateEdge) {
					t.Fatalf("error = %v, want ErrDuplicateEdge", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			tt.check(t, err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	g, err := Parse(sampleDoc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	text, err := Serialize(g)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	g2, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(Serialize): %v", err)
	}
	if !g.Equal(g2) {
		t.Error("round-tripped graph differs from original")
	}

	text2, err := Serialize(g2)
	if err != nil {
		t.Fatalf("Serialize second pass: %v", err)
	}
	if text != text2 {
		t.Errorf("serialization not canonical:\n--- first ---\n%s\n--- second ---\n%s", text, text2)
	}
}

func TestCanonicalOrdering(t *testing.T) {
	// Same graph with blocks and config keys in a different source order
	// must serialize identically.
	shuffled := `version: "1.0"
name: Fetch and notify
blocks:
  start:
    type: trigger
  notify:
    type: action
    config:
      channel: ops
  fetch:
    type: action
    position:
      y: 100
      x: 0
    config:
      url: https://example.com
      retries: 3
connections:
  - from: fetch.out
    to: notify.in
  - from: start.out
    to: fetch.in
`
	a, err := Parse(sampleDoc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(shuffled)
	if err != nil {
		t.Fatal(err)
	}

	ta, _ := Serialize(a)
	tb, _ := Serialize(b)
	if ta != tb {
		t.Errorf("key order leaked into canonical output:\n%s\nvs\n%s", ta, tb)
	}
}

func TestUnknownFieldsPreserved(t *testing.T) {
	doc := `version: "1.0"
name: forward
blocks:
  a:
    type: action
    color: "#ff0000"
    labels:
      - alpha
      - beta
`
	g, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, _ := g.Block("a")
	if !a.Extra["color"].Equal(workflow.String("#ff0000")) {
		t.Errorf("color extra = %#v", a.Extra["color"])
	}

	text, err := Serialize(g)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.Contains(text, "color:") || !strings.Contains(text, "alpha") {
		t.Errorf("unknown fields dropped from output:\n%s", text)
	}

	g2, err := Parse(text)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !g.Equal(g2) {
		t.Error("extras changed across round trip")
	}
}

func TestRevisionRoundTrip(t *testing.T) {
	g := workflow.New("versioned")
	g.SetMeta(workflow.Metadata{Name: "versioned", Version: 7})
	g.AddBlock(workflow.Block{ID: "a", Type: "trigger"})

	text, err := Serialize(g)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if g2.Meta().Version != 7 {
		t.Errorf("revision = %d, want 7", g2.Meta().Version)
	}
}

func TestSerializePortsAndParent(t *testing.T) {
	g := workflow.New("ports")
	g.AddBlock(workflow.Block{ID: "grp", Type: "group"})
	g.AddBlock(workflow.Block{
		ID:     "a",
		Type:   "action",
		Parent: "grp",
		Ports: []workflow.Port{
			{Name: "in", Direction: workflow.Input, DataKind: "json"},
			{Name: "out", Direction: workflow.Output, DataKind: "json"},
		},
	})

	text, err := Serialize(g)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := Parse(text)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, text)
	}
	if !g.Equal(g2) {
		t.Errorf("ports/parent lost in round trip:\n%s", text)
	}
}
