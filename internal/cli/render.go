package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryankumar/mermaidfleet/internal/render"
	"github.com/aryankumar/mermaidfleet/internal/util"
)

// diagramExtensions are the file extensions picked up from directories
var diagramExtensions = []string{".mmd", ".mermaid"}

type renderOptions struct {
	recursive bool
	outDir    string
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [paths...]",
		Short: "Render Mermaid files to SVG",
		Long: `Render Mermaid definition files (.mmd, .mermaid) to SVG.

Each path may be a file or a directory. Every diagram is rendered by its own
mmdc process, at most --parallel at a time. The SVG is written next to its
source, or into --out-dir. The command exits non-zero if any diagram failed,
after every diagram has been rendered and reported.`,
		Example: `  # Render every diagram in docs/
  mermaidfleet render docs/

  # Render a tree with four processes and a 30 second timeout
  mermaidfleet render -R -p 4 --timeout 30s docs/

  # Render into a separate directory, reporting as JSON
  mermaidfleet render --out-dir build/diagrams -o json flow.mmd sequence.mmd`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "R", false, "descend into subdirectories")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "directory for the rendered SVG files (default next to each source)")

	return cmd
}

func runRender(cmd *cobra.Command, args []string, opts *renderOptions) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := settings(cmd)
	if err != nil {
		return err
	}

	files, err := util.CollectFiles(args, diagramExtensions, opts.recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %v", util.ErrNoInputs, args)
	}

	targets := make(map[string]string, len(files))
	for _, file := range files {
		targets[file] = util.OutputPath(file, opts.outDir, ".svg")
	}
	if err := checkCollisions(targets); err != nil {
		return err
	}

	rcfg := cfg.Renderer.RenderConfig()
	pool, err := newPool(rcfg, logger)
	if err != nil {
		return err
	}

	var readErrs []error
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Error("failed to read diagram", "id", file, "error", err)
			readErrs = append(readErrs, util.WrapItemError(file, err))
			continue
		}

		if err := pool.Submit(render.Request{ID: file, Input: bytes.NewReader(data)}); err != nil {
			return err
		}
	}

	logger.Debug("rendering files", "files", len(files), "out_dir", opts.outDir)

	results := execute(ctx, pool, logger)

	writes := make([]pendingWrite, 0, len(results))
	for _, res := range results {
		if res.Error != nil {
			continue
		}
		writes = append(writes, pendingWrite{
			id:   res.ID,
			path: targets[res.ID],
			data: []byte(res.Artifact.Content),
		})
	}
	writeErrs := writeFiles(writes, rcfg.Concurrency(), logger)

	return report(cmd.OutOrStdout(), cfg, results, append(readErrs, writeErrs...))
}
