package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
	"github.com/flowsmith/flowsmith/pkg/workflow/diff"
	"github.com/flowsmith/flowsmith/pkg/workflow/merge"
)

// mergeCommand creates the merge command.
func (c *CLI) mergeCommand() *cobra.Command {
	var (
		output      string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "merge [base] [patch]",
		Short: "Apply a diff operation set to a workflow document",
		Long: `Merge applies a saved operation set (see diff -o) to a base document.
The merge is transactional: every operation is checked against the current
document first, and if any no longer applies - the block changed under it,
the edge is already gone - the whole set is rejected with the full conflict
list. With --interactive a picker lets you choose which operations to
apply.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMerge(args[0], args[1], output, interactive)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick operations to apply")

	return cmd
}

func (c *CLI) runMerge(basePath, patchPath, output string, interactive bool) error {
	base, err := codec.ParseFile(basePath)
	if err != nil {
		return fmt.Errorf("%s: %w", basePath, err)
	}
	set, err := diff.ReadFile(patchPath)
	if err != nil {
		return fmt.Errorf("%s: %w", patchPath, err)
	}

	if interactive && !set.Empty() {
		set, err = pickOps(set)
		if err != nil {
			return err
		}
		if set.Empty() {
			printInfo("nothing selected, document unchanged")
			return nil
		}
	}

	merged, err := merge.Merge(base, set)
	if err != nil {
		var conflicts *merge.ConflictSet
		if errors.As(err, &conflicts) {
			printError("merge rejected, %d conflict(s):", len(conflicts.Conflicts))
			for _, cf := range conflicts.Conflicts {
				printDetail("%s: %s", cf.Op.Path(), cf.Reason)
			}
			printNextStep("Pick applicable operations with", fmt.Sprintf("flowsmith merge -i %s %s", basePath, patchPath))
		}
		return err
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	text, err := codec.Serialize(merged)
	if err != nil {
		return err
	}
	if _, err := out.Write([]byte(text)); err != nil {
		return err
	}

	if output != "" {
		printSuccess("applied %d operation(s)", set.Len())
		printFile(output)
	}
	return nil
}

// pickOps runs the interactive operation picker and returns the subset the
// user confirmed.
func pickOps(set diff.Set) (diff.Set, error) {
	model := NewOpListModel(set.Ops)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return diff.Set{}, fmt.Errorf("interactive picker: %w", err)
	}

	m, ok := final.(OpListModel)
	if !ok || !m.Confirmed {
		return diff.Set{}, nil
	}
	return set.Filter(func(op diff.Op) bool {
		return m.Picked[op.Path()+string(op.Kind)]
	}), nil
}
