package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/pkg/pipeline"
	"github.com/flowsmith/flowsmith/pkg/workflow/validate"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts         layoutOpts
		output       string
		formatsStr   string
		detailed     bool
		strict       bool
		registryFile string
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a workflow document to SVG, PNG or DOT",
		Long: `Render runs the full pipeline: decode, validate, layout, render. The
computed positions pin the blocks in the Graphviz output, so the picture
matches the layout exactly. Layouts and artifacts are cached; an unchanged
document renders instantly on the second run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			return c.runRender(cmd, args[0], output, formats, detailed, strict, registryFile, &opts)
		},
	}

	registerLayoutFlags(cmd, &opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include block type and config in node labels")
	cmd.Flags().BoolVar(&strict, "strict", false, "refuse to render documents with validation errors")
	cmd.Flags().StringVarP(&registryFile, "registry", "r", "", "TOML block-type registry extending the built-ins")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, file, output string, formats []string, detailed, strict bool, registryFile string, lo *layoutOpts) error {
	runner, err := c.newRunner(lo.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	ctx := cmd.Context()

	pOpts := lo.pipelineOptions(file)
	pOpts.Formats = formats
	pOpts.Detailed = detailed
	pOpts.Strict = strict
	pOpts.RegistryFile = registryFile
	pOpts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "rendering "+file)
	spinner.Start()
	result, err := runner.Execute(ctx, pOpts)
	if err != nil {
		spinner.StopWithError(err.Error())
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) && result != nil {
			for _, is := range result.Issues {
				printIssue(is)
			}
		}
		return err
	}
	spinner.Stop()

	for _, is := range result.Issues {
		if is.Severity == validate.Warning {
			printIssue(is)
		}
	}

	base := basePath(output, file)
	for _, format := range formats {
		path := base + "." + format
		if output != "" && len(formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(path)
	}

	printSuccess("rendered %s", file)
	printStats(result.Stats.BlockCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
	c.Logger.Debug("pipeline stats",
		"hash", result.GraphHash,
		"decode", result.Stats.DecodeTime,
		"validate", result.Stats.ValidateTime,
		"layout", result.Stats.LayoutTime,
		"render", result.Stats.RenderTime)
	return nil
}

// basePath derives the base output path from the output and input paths.
// An empty output means the input path with its extension stripped; an
// output ending in a known format extension has that extension stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
