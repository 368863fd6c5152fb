// Package registry supplies block-type definitions for workflow
// validation.
//
// The built-in registry covers the five core block roles (trigger, action,
// condition, loop, parallel). Deployments extend or override them with a
// TOML definition file:
//
//	[types.http_request]
//	trigger = false
//
//	[types.http_request.config]
//	url = "string"
//	retries = "number"
//
//	[[types.http_request.ports]]
//	name = "in"
//	direction = "input"
//
//	[[types.http_request.ports]]
//	name = "out"
//	direction = "output"
package registry

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/flowsmith/flowsmith/pkg/workflow"
	"github.com/flowsmith/flowsmith/pkg/workflow/validate"
)

// Registry is a static block-type table implementing validate.Registry.
type Registry struct {
	types map[string]validate.BlockType
}

// Lookup implements validate.Registry.
func (r *Registry) Lookup(typeTag string) (validate.BlockType, bool) {
	bt, ok := r.types[typeTag]
	return bt, ok
}

// Types returns all registered type tags in sorted order.
func (r *Registry) Types() []string {
	return slices.Sorted(maps.Keys(r.types))
}

// Builtin returns the registry of core block types.
func Builtin() *Registry {
	in := workflow.Port{Name: "in", Direction: workflow.Input}
	out := workflow.Port{Name: "out", Direction: workflow.Output}
	return &Registry{types: map[string]validate.BlockType{
		"trigger": {
			Trigger: true,
			Ports:   []workflow.Port{out},
		},
		"action": {
			Ports: []workflow.Port{in, out},
		},
		"condition": {
			RequiredConfig: map[string]workflow.ValueKind{"condition": workflow.KindString},
			Ports: []workflow.Port{
				in,
				{Name: "true", Direction: workflow.Output},
				{Name: "false", Direction: workflow.Output},
			},
		},
		"loop": {
			Ports: []workflow.Port{
				in,
				{Name: "body", Direction: workflow.Output},
				{Name: "done", Direction: workflow.Output},
			},
		},
		"parallel": {
			Ports: []workflow.Port{in, out},
		},
	}}
}

// LoadFile reads a TOML definition file and returns the built-in registry
// extended with its types. File entries override built-ins with the same
// tag.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return Load(data)
}

// Load parses TOML registry data, extending the built-ins.
func Load(data []byte) (*Registry, error) {
	var file struct {
		Types map[string]typeDef `toml:"types"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	reg := Builtin()
	for tag, def := range file.Types {
		bt, err := def.blockType()
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", tag, err)
		}
		reg.types[tag] = bt
	}
	return reg, nil
}

type typeDef struct {
	Trigger bool              `toml:"trigger"`
	Config  map[string]string `toml:"config"`
	Ports   []portDef         `toml:"ports"`
}

type portDef struct {
	Name      string `toml:"name"`
	Direction string `toml:"direction"`
	Kind      string `toml:"kind"`
}

func (d typeDef) blockType() (validate.BlockType, error) {
	bt := validate.BlockType{Trigger: d.Trigger}

	if len(d.Config) > 0 {
		bt.RequiredConfig = make(map[string]workflow.ValueKind, len(d.Config))
		for key, kind := range d.Config {
			k, err := parseKind(kind)
			if err != nil {
				return validate.BlockType{}, fmt.Errorf("config key %q: %w", key, err)
			}
			bt.RequiredConfig[key] = k
		}
	}

	for _, p := range d.Ports {
		if p.Name == "" {
			return validate.BlockType{}, fmt.Errorf("port with empty name")
		}
		port := workflow.Port{Name: p.Name, DataKind: p.Kind}
		switch p.Direction {
		case "input":
			port.Direction = workflow.Input
		case "output":
			port.Direction = workflow.Output
		default:
			return validate.BlockType{}, fmt.Errorf("port %q: direction must be input or output, got %q", p.Name, p.Direction)
		}
		bt.Ports = append(bt.Ports, port)
	}
	return bt, nil
}

func parseKind(s string) (workflow.ValueKind, error) {
	switch s {
	case "string":
		return workflow.KindString, nil
	case "number":
		return workflow.KindNumber, nil
	case "bool":
		return workflow.KindBool, nil
	case "list":
		return workflow.KindList, nil
	case "map":
		return workflow.KindMap, nil
	}
	return 0, fmt.Errorf("unknown value kind %q", s)
}
