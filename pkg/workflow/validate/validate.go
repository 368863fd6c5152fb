// Package validate checks workflow graphs against a block-type registry.
//
// The registry is a capability the caller supplies - typically backed by a
// TOML definition file (see pkg/registry) - so the core never hard-codes
// block semantics. Validation never fails for a structurally sound graph;
// findings come back as a list of issues the caller interprets.
package validate

import (
	"fmt"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// Severity classifies a validation issue.
type Severity int

const (
	// Warning marks a finding that does not block downstream use.
	Warning Severity = iota
	// Error marks a finding that makes the workflow unusable.
	Error
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Issue is a single validation finding. BlockID is empty for graph-level
// findings.
type Issue struct {
	Severity Severity
	BlockID  string
	Message  string
}

// BlockType describes what the registry knows about one block type.
type BlockType struct {
	// RequiredConfig maps required config keys to their expected value kind.
	RequiredConfig map[string]workflow.ValueKind
	// Ports is the allowed port set for the type. An empty set means the
	// type accepts any port.
	Ports []workflow.Port
	// Trigger marks types that can start a workflow.
	Trigger bool
}

// HasPort reports whether the type definition includes the named port in
// the given direction.
func (bt BlockType) HasPort(name string, dir workflow.PortDirection) bool {
	for _, p := range bt.Ports {
		if p.Name == name && p.Direction == dir {
			return true
		}
	}
	return false
}

// Registry resolves block type tags to their definitions.
// Implementations are supplied by the caller and must be side-effect free.
type Registry interface {
	// Lookup returns the definition for a type tag, or false if the tag
	// is unknown.
	Lookup(typeTag string) (BlockType, bool)
}

// Graph validates a workflow graph against the registry and returns all
// findings. An empty result means the graph is usable.
//
// Checks performed:
//   - every block's type is known to the registry (Error)
//   - every required config key is present with the expected kind (Error)
//   - every edge's ports exist on the endpoint types' port sets (Error)
//   - a workflow with edges but isolated blocks gets a Warning per orphan
//   - a workflow with no trigger-capable block gets a Warning
func Graph(g *workflow.Graph, reg Registry) []Issue {
	var issues []Issue

	hasTrigger := false
	for _, b := range g.Blocks() {
		bt, known := reg.Lookup(b.Type)
		if !known {
			issues = append(issues, Issue{
				Severity: Error,
				BlockID:  b.ID,
				Message:  fmt.Sprintf("unknown block type %q", b.Type),
			})
			continue
		}
		if bt.Trigger {
			hasTrigger = true
		}
		issues = append(issues, checkConfig(b, bt)...)
	}

	issues = append(issues, checkEdgePorts(g, reg)...)
	issues = append(issues, checkOrphans(g)...)

	if !hasTrigger && g.BlockCount() > 0 {
		issues = append(issues, Issue{
			Severity: Warning,
			Message:  "workflow has no trigger block",
		})
	}
	return issues
}

func checkConfig(b *workflow.Block, bt BlockType) []Issue {
	var issues []Issue
	for key, kind := range bt.RequiredConfig {
		v, ok := b.Config[key]
		if !ok {
			issues = append(issues, Issue{
				Severity: Error,
				BlockID:  b.ID,
				Message:  fmt.Sprintf("missing required config key %q", key),
			})
			continue
		}
		if v.Kind != kind {
			issues = append(issues, Issue{
				Severity: Error,
				BlockID:  b.ID,
				Message:  fmt.Sprintf("config key %q has kind %s, want %s", key, kindName(v.Kind), kindName(kind)),
			})
		}
	}
	return issues
}

func checkEdgePorts(g *workflow.Graph, reg Registry) []Issue {
	var issues []Issue
	for _, e := range g.SortedEdges() {
		if src, ok := g.Block(e.From); ok {
			if bt, known := reg.Lookup(src.Type); known && len(bt.Ports) > 0 && !bt.HasPort(e.FromPort, workflow.Output) {
				issues = append(issues, Issue{
					Severity: Error,
					BlockID:  e.From,
					Message:  fmt.Sprintf("type %q has no output port %q", src.Type, e.FromPort),
				})
			}
		}
		if dst, ok := g.Block(e.To); ok {
			if bt, known := reg.Lookup(dst.Type); known && len(bt.Ports) > 0 && !bt.HasPort(e.ToPort, workflow.Input) {
				issues = append(issues, Issue{
					Severity: Error,
					BlockID:  e.To,
					Message:  fmt.Sprintf("type %q has no input port %q", dst.Type, e.ToPort),
				})
			}
		}
	}
	return issues
}

// checkOrphans flags blocks with no edges at all in a graph that otherwise
// has connections. These typically remain after edits removed every edge
// that reached them.
func checkOrphans(g *workflow.Graph) []Issue {
	if g.EdgeCount() == 0 {
		return nil
	}
	var issues []Issue
	for _, id := range g.BlockIDs() {
		if len(g.Incoming(id)) == 0 && len(g.Outgoing(id)) == 0 {
			issues = append(issues, Issue{
				Severity: Warning,
				BlockID:  id,
				Message:  "block is not connected to the rest of the workflow",
			})
		}
	}
	return issues
}

func kindName(k workflow.ValueKind) string {
	switch k {
	case workflow.KindString:
		return "string"
	case workflow.KindNumber:
		return "number"
	case workflow.KindBool:
		return "bool"
	case workflow.KindList:
		return "list"
	case workflow.KindMap:
		return "map"
	}
	return "unknown"
}
