package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
	"github.com/flowsmith/flowsmith/pkg/workflow/diff"
)

// diffCommand creates the diff command.
func (c *CLI) diffCommand() *cobra.Command {
	var (
		output  string
		asJSON  bool
		inverse bool
	)

	cmd := &cobra.Command{
		Use:   "diff [base] [target]",
		Short: "Compute the structural difference between two workflow documents",
		Long: `Diff parses both documents and emits the operations that transform base
into target, in canonical order: edge removals, block removals, block
additions, edge additions, config updates, position moves. The operation
set can be saved with -o and replayed later with merge.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiff(args[0], args[1], output, asJSON, inverse)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the operation set as JSON to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the operation set as JSON instead of a summary")
	cmd.Flags().BoolVar(&inverse, "inverse", false, "emit the operations that undo the change instead")

	return cmd
}

func (c *CLI) runDiff(basePath, targetPath, output string, asJSON, inverse bool) error {
	base, err := codec.ParseFile(basePath)
	if err != nil {
		return fmt.Errorf("%s: %w", basePath, err)
	}
	target, err := codec.ParseFile(targetPath)
	if err != nil {
		return fmt.Errorf("%s: %w", targetPath, err)
	}

	set := diff.Compute(base, target)
	if inverse {
		set = set.Invert()
	}

	if output != "" {
		if err := diff.WriteFile(set, output); err != nil {
			return err
		}
		printSuccess("%d operation(s)", set.Len())
		printFile(output)
		return nil
	}

	if asJSON {
		data, err := diff.Marshal(set)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if set.Empty() {
		printInfo("no differences")
		return nil
	}
	for _, op := range set.Ops {
		printOp(op)
	}
	printDetail("%d operation(s)", set.Len())
	return nil
}

// printOp prints one diff operation, colored by what it does.
func printOp(op diff.Op) {
	style := styleOpChange
	sign := "~"
	switch op.Kind {
	case diff.AddBlock, diff.AddEdge:
		style = styleOpAdd
		sign = "+"
	case diff.RemoveBlock, diff.RemoveEdge:
		style = styleOpRemove
		sign = "-"
	}
	fmt.Println("  " + style.Render(sign) + " " + op.String())
}
