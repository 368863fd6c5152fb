package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
)

// fmtCommand creates the fmt command for canonical formatting.
func (c *CLI) fmtCommand() *cobra.Command {
	var (
		write bool
		check bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Rewrite a workflow document in canonical form",
		Long: `Fmt parses a workflow document and prints its canonical serialization:
blocks ordered by id, fixed key order, sorted connections. Unknown fields
are preserved. With -w the file is rewritten in place; with --check the
command exits non-zero if the file is not already canonical.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFmt(args[0], write, check)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file instead of printing to stdout")
	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero if the file is not canonical")

	return cmd
}

func (c *CLI) runFmt(path string, write, check bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	g, err := codec.Parse(string(data))
	if err != nil {
		return err
	}
	canonical, err := codec.Serialize(g)
	if err != nil {
		return err
	}

	switch {
	case check:
		if string(data) != canonical {
			return fmt.Errorf("%s is not canonically formatted", path)
		}
		printSuccess("%s is canonical", path)
		return nil
	case write:
		if string(data) == canonical {
			c.Logger.Debug("already canonical", "file", path)
			return nil
		}
		if err := os.WriteFile(path, []byte(canonical), 0o644); err != nil {
			return err
		}
		printSuccess("formatted %s", path)
		return nil
	default:
		fmt.Print(canonical)
		return nil
	}
}
