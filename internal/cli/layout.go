package cli

import (
	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/pkg/cache"
	"github.com/flowsmith/flowsmith/pkg/layout"
	"github.com/flowsmith/flowsmith/pkg/pipeline"
	"github.com/flowsmith/flowsmith/pkg/workflow/codec"
)

// layoutOpts holds the command-line flags shared by layout and render.
type layoutOpts struct {
	strategy   string
	columns    int
	cellWidth  float64
	cellHeight float64
	leftRight  bool
	noCache    bool
	refresh    bool
}

// registerLayoutFlags wires the shared layout flags onto a command.
func registerLayoutFlags(cmd *cobra.Command, opts *layoutOpts) {
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", pipeline.DefaultStrategy, "layout strategy: grid, hierarchical, force")
	cmd.Flags().IntVar(&opts.columns, "columns", 0, "wrap width for the grid strategy")
	cmd.Flags().Float64Var(&opts.cellWidth, "cell-width", 0, "horizontal spacing between blocks")
	cmd.Flags().Float64Var(&opts.cellHeight, "cell-height", 0, "vertical spacing between blocks")
	cmd.Flags().BoolVar(&opts.leftRight, "left-right", false, "orient the hierarchical strategy horizontally")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if cached")
}

// pipelineOptions converts the flags into pipeline options for a document.
func (lo *layoutOpts) pipelineOptions(file string) pipeline.Options {
	return pipeline.Options{
		WorkflowFile: file,
		Strategy:     lo.strategy,
		Columns:      lo.columns,
		CellWidth:    lo.cellWidth,
		CellHeight:   lo.cellHeight,
		LeftRight:    lo.leftRight,
		Refresh:      lo.refresh,
	}
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		opts   layoutOpts
		output string
		write  bool
	)

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute block positions for a workflow document",
		Long: `Layout runs one of the deterministic placement strategies over the
workflow graph and emits the document with the computed positions set on
every block. Identical documents and options always produce identical
coordinates, so the result is cached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write {
				output = args[0]
			}
			return c.runLayout(cmd, args[0], output, &opts)
		},
	}

	registerLayoutFlags(cmd, &opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the input file in place")

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, file, output string, opts *layoutOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	ctx := cmd.Context()

	g, err := codec.ParseFile(file)
	if err != nil {
		return err
	}
	canonical, err := codec.Serialize(g)
	if err != nil {
		return err
	}

	pOpts := opts.pipelineOptions(file)
	pOpts.Logger = c.Logger
	positions, cached, err := runner.LayoutWithCacheInfo(ctx, g, cache.Hash([]byte(canonical)), pOpts)
	if err != nil {
		return err
	}

	laidOut := layout.Apply(g, positions)
	text, err := codec.Serialize(laidOut)
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
		printSuccess("%s layout", opts.strategy)
		printStats(g.BlockCount(), g.EdgeCount(), cached)
		printFile(output)
	}
	return nil
}
