package registry

import (
	"fmt"
	"strings"

	"github.com/flowsmith/flowsmith/pkg/workflow"
	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
)

// Template is a predefined workflow skeleton. Parameters appear in the
// document body as {{name}} placeholders and are substituted before
// parsing, so an instantiated template is always a codec-valid document.
type Template struct {
	ID          string
	Name        string
	Description string
	Params      []string

	body string
}

// Templates returns the built-in workflow templates, ordered by ID.
func Templates() []Template {
	return []Template{basicAutomation, conditionalWorkflow}
}

// LookupTemplate returns the template with the given ID.
func LookupTemplate(id string) (Template, bool) {
	for _, t := range Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Instantiate substitutes the parameters into the template body and parses
// the result. Missing parameters fall back to the parameter name so the
// result is always usable; unknown parameters are rejected.
func (t Template) Instantiate(params map[string]string) (*workflow.Graph, error) {
	known := make(map[string]bool, len(t.Params))
	for _, p := range t.Params {
		known[p] = true
	}
	for p := range params {
		if !known[p] {
			return nil, fmt.Errorf("template %q has no parameter %q", t.ID, p)
		}
	}

	body := t.body
	for _, p := range t.Params {
		v, ok := params[p]
		if !ok {
			v = strings.ReplaceAll(p, "_", " ")
		}
		body = strings.ReplaceAll(body, "{{"+p+"}}", v)
	}
	return codec.Parse(body)
}

var basicAutomation = Template{
	ID:          "basic_automation",
	Name:        "Basic Automation",
	Description: "Simple trigger-action workflow",
	Params:      []string{"workflow_name", "trigger_name", "action_name"},
	body: `version: "1.0"
name: "{{workflow_name}}"
blocks:
  trigger_1:
    type: trigger
    config:
      label: "{{trigger_name}}"
  action_1:
    type: action
    config:
      label: "{{action_name}}"
connections:
  - from: trigger_1.out
    to: action_1.in
`,
}

var conditionalWorkflow = Template{
	ID:          "conditional_workflow",
	Name:        "Conditional Workflow",
	Description: "Workflow with conditional logic",
	Params:      []string{"workflow_name", "trigger_name", "condition_logic", "true_action", "false_action"},
	body: `version: "1.0"
name: "{{workflow_name}}"
blocks:
  trigger_1:
    type: trigger
    config:
      label: "{{trigger_name}}"
  condition_1:
    type: condition
    config:
      condition: "{{condition_logic}}"
  action_true:
    type: action
    config:
      label: "{{true_action}}"
  action_false:
    type: action
    config:
      label: "{{false_action}}"
connections:
  - from: trigger_1.out
    to: condition_1.in
  - from: condition_1.true
    to: action_true.in
  - from: condition_1.false
    to: action_false.in
`,
}
