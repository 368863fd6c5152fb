package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/pkg/registry"
	"github.com/flowsmith/flowsmith/pkg/workflow"
	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
	"github.com/flowsmith/flowsmith/pkg/workflow/validate"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		registryFile string
		strict       bool
		summary      bool
	)

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a workflow document against the block-type registry",
		Long: `Validate parses a workflow document and checks every block against the
registry: known types, required config keys, legal ports. Findings are
reported as warnings or errors; the command fails on errors, and with
--strict on warnings too. A TOML registry file extends the built-in types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(args[0], registryFile, strict, summary)
		},
	}

	cmd.Flags().StringVarP(&registryFile, "registry", "r", "", "TOML block-type registry extending the built-ins")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")
	cmd.Flags().BoolVar(&summary, "summary", false, "print workflow statistics")

	return cmd
}

func (c *CLI) runValidate(path, registryFile string, strict, summary bool) error {
	g, err := codec.ParseFile(path)
	if err != nil {
		return err
	}

	reg := registry.Builtin()
	if registryFile != "" {
		reg, err = registry.LoadFile(registryFile)
		if err != nil {
			return err
		}
	}

	issues := validate.Graph(g, reg)
	if summary {
		printSummary(workflow.Summarize(g))
	}
	if len(issues) == 0 {
		printSuccess("%s is valid", path)
		printStats(g.BlockCount(), g.EdgeCount(), false)
		return nil
	}

	errorCount := 0
	for _, is := range issues {
		printIssue(is)
		if is.Severity == validate.Error {
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("%s has %d validation error(s)", path, errorCount)
	}
	if strict {
		return fmt.Errorf("%s has %d warning(s)", path, len(issues))
	}
	printWarning("%s is usable with %d warning(s)", path, len(issues))
	return nil
}

// printSummary prints the workflow statistics block.
func printSummary(s workflow.Summary) {
	if s.Name != "" {
		printDetail("name: %s", s.Name)
	}
	printDetail("blocks: %d, connections: %d", s.Blocks, s.Edges)
	for _, typ := range slices.Sorted(maps.Keys(s.TypeCounts)) {
		printDetail("  %s: %d", typ, s.TypeCounts[typ])
	}
	printDetail("positioned: %v", s.HasPositions)
	printDetail("complexity: %.1f", s.Complexity)
}
