package validate

import (
	"strings"
	"testing"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// mapRegistry is a trivial in-memory Registry for tests.
type mapRegistry map[string]BlockType

func (m mapRegistry) Lookup(tag string) (BlockType, bool) {
	bt, ok := m[tag]
	return bt, ok
}

var testRegistry = mapRegistry{
	"trigger": {
		Trigger: true,
		Ports:   []workflow.Port{{Name: "out", Direction: workflow.Output}},
	},
	"http": {
		RequiredConfig: map[string]workflow.ValueKind{
			"url":     workflow.KindString,
			"retries": workflow.KindNumber,
		},
		Ports: []workflow.Port{
			{Name: "in", Direction: workflow.Input},
			{Name: "out", Direction: workflow.Output},
		},
	},
	"anything": {},
}

func countBySeverity(issues []Issue, s Severity) int {
	n := 0
	for _, i := range issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

func TestGraphValid(t *testing.T) {
	g := workflow.New("ok")
	g.AddBlock(workflow.Block{ID: "t", Type: "trigger"})
	g.AddBlock(workflow.Block{ID: "h", Type: "http", Config: map[string]workflow.Value{
		"url":     workflow.String("https://example.com"),
		"retries": workflow.Number(2),
	}})
	g.AddEdge(workflow.Edge{From: "t", FromPort: "out", To: "h", ToPort: "in"})

	if issues := Graph(g, testRegistry); len(issues) != 0 {
		t.Errorf("valid graph produced issues: %v", issues)
	}
}

func TestGraphIssues(t *testing.T) {
	tests := []struct {
		name         string
		build        func() *workflow.Graph
		wantErrors   int
		wantWarnings int
		wantContains string
	}{
		{
			name: "UnknownType",
			build: func() *workflow.Graph {
				g := workflow.New("x")
				g.AddBlock(workflow.Block{ID: "a", Type: "nope"})
				return g
			},
			wantErrors:   1,
			wantWarnings: 1, // unknown type cannot be a trigger either
			wantContains: "unknown block type",
		},
		{
			name: "MissingRequiredConfig",
			build: func() *workflow.Graph {
				g := workflow.New("x")
				g.AddBlock(workflow.Block{ID: "t", Type: "trigger"})
				g.AddBlock(workflow.Block{ID: "h", Type: "http", Config: map[string]workflow.Value{
					"url": workflow.String("https://example.com"),
				}})
				g.AddEdge(workflow.Edge{From: "t", FromPort: "out", To: "h", ToPort: "in"})
				return g
			},
			wantErrors:   1,
			wantContains: `missing required config key "retries"`,
		},
		{
			name: "WrongConfigKind",
			build: func() *workflow.Graph {
				g := workflow.New("x")
				g.AddBlock(workflow.Block{ID: "t", Type: "trigger"})
				g.AddBlock(workflow.Block{ID: "h", Type: "http", Config: map[string]workflow.Value{
					"url":     workflow.String("https://example.com"),
					"retries": workflow.String("two"),
				}})
				g.AddEdge(workflow.Edge{From: "t", FromPort: "out", To: "h", ToPort: "in"})
				return g
			},
			wantErrors:   1,
			wantContains: "has kind string, want number",
		},
		{
			name: "EdgePortNotOnType",
			build: func() *workflow.Graph {
				g := workflow.New("x")
				g.AddBlock(workflow.Block{ID: "t", Type: "trigger"})
				g.AddBlock(workflow.Block{ID: "a", Type: "anything"})
				// Model allows it (trigger block declares no model-level
				// ports), registry says trigger has no "err" output.
				g.AddEdge(workflow.Edge{From: "t", FromPort: "err", To: "a", ToPort: "in"})
				return g
			},
			wantErrors:   1,
			wantContains: `no output port "err"`,
		},
		{
			name: "OrphanWarning",
			build: func() *workflow.Graph {
				g := workflow.New("x")
				g.AddBlock(workflow.Block{ID: "t", Type: "trigger"})
				g.AddBlock(workflow.Block{ID: "a", Type: "anything"})
				g.AddBlock(workflow.Block{ID: "island", Type: "anything"})
				g.AddEdge(workflow.Edge{From: "t", FromPort: "out", To: "a", ToPort: "in"})
				return g
			},
			wantWarnings: 1,
			wantContains: "not connected",
		},
		{
			name: "NoTriggerWarning",
			build: func() *workflow.Graph {
				g := workflow.New("x")
				g.AddBlock(workflow.Block{ID: "a", Type: "anything"})
				return g
			},
			wantWarnings: 1,
			wantContains: "no trigger block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Graph(tt.build(), testRegistry)
			if got := countBySeverity(issues, Error); got != tt.wantErrors {
				t.Errorf("errors = %d, want %d (%v)", got, tt.wantErrors, issues)
			}
			if got := countBySeverity(issues, Warning); got != tt.wantWarnings {
				t.Errorf("warnings = %d, want %d (%v)", got, tt.wantWarnings, issues)
			}
			found := false
			for _, i := range issues {
				if strings.Contains(i.Message, tt.wantContains) {
					found = true
				}
			}
			if !found {
				t.Errorf("no issue contains %q: %v", tt.wantContains, issues)
			}
		})
	}
}

func TestEmptyGraphProducesNoIssues(t *testing.T) {
	if issues := Graph(workflow.New("empty"), testRegistry); len(issues) != 0 {
		t.Errorf("empty graph produced issues: %v", issues)
	}
}
