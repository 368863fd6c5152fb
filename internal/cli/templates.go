package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/pkg/registry"
	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
)

// templatesCommand creates the templates listing command.
func (c *CLI) templatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available workflow templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range registry.Templates() {
				fmt.Println(StyleHighlight.Render(t.ID) + "  " + StyleValue.Render(t.Name))
				printDetail("%s", t.Description)
				if len(t.Params) > 0 {
					printDetail("params: %s", strings.Join(t.Params, ", "))
				}
			}
			printNextStep("Create a workflow with", "flowsmith new <template> -o workflow.yaml")
			return nil
		},
	}
}

// newCommand creates the new command for instantiating templates.
func (c *CLI) newCommand() *cobra.Command {
	var (
		output string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "new [template]",
		Short: "Create a workflow document from a template",
		Long: `New instantiates one of the built-in templates into a ready-to-edit
workflow document. Template parameters are set with -p key=value; omitted
parameters get readable defaults. The result is always valid against the
built-in registry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNew(args[0], output, params)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "template parameter as key=value (repeatable)")

	return cmd
}

func (c *CLI) runNew(templateID, output string, params []string) error {
	t, ok := registry.LookupTemplate(templateID)
	if !ok {
		ids := make([]string, 0, len(registry.Templates()))
		for _, t := range registry.Templates() {
			ids = append(ids, t.ID)
		}
		return fmt.Errorf("unknown template %q (available: %s)", templateID, strings.Join(ids, ", "))
	}

	values := make(map[string]string, len(params))
	for _, p := range params {
		key, value, found := strings.Cut(p, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid parameter %q (want key=value)", p)
		}
		values[key] = value
	}

	g, err := t.Instantiate(values)
	if err != nil {
		return err
	}
	text, err := codec.Serialize(g)
	if err != nil {
		return err
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write([]byte(text)); err != nil {
		return err
	}

	if output != "" {
		printSuccess("created %s from %s", output, t.ID)
		printNextStep("Render it with", "flowsmith render "+output)
	}
	return nil
}
