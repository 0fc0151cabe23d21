package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aryankumar/mermaidfleet/internal/embed"
	"github.com/aryankumar/mermaidfleet/internal/render"
	"github.com/aryankumar/mermaidfleet/internal/util"
)

var pageExtensions = []string{".html", ".htm"}

type embedOptions struct {
	recursive bool
	selector  string
	outDir    string
}

func newEmbedCmd() *cobra.Command {
	opts := &embedOptions{}

	cmd := &cobra.Command{
		Use:   "embed [paths...]",
		Short: "Render Mermaid blocks embedded in HTML pages",
		Long: `Render the Mermaid blocks of HTML pages and replace each block's
definition with the SVG it renders to.

Blocks are located with a CSS selector (default ".mermaid"). Rendered blocks
get the "svg" class and are skipped on later runs, so the command can be run
repeatedly over a site. Blocks that fail to render are left untouched. Pages
are rewritten in place unless --out-dir is given; pages without rendered
blocks are not written at all.`,
		Example: `  # Render the diagrams of a generated site in place
  mermaidfleet embed -R site/

  # Use a different block selector
  mermaidfleet embed --selector "pre.language-mermaid" index.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbed(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "R", false, "descend into subdirectories")
	cmd.Flags().StringVar(&opts.selector, "selector", embed.DefaultSelector, "CSS selector of diagram blocks")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "directory for the rewritten pages (default in place)")

	return cmd
}

func runEmbed(cmd *cobra.Command, args []string, opts *embedOptions) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := settings(cmd)
	if err != nil {
		return err
	}

	files, err := util.CollectFiles(args, pageExtensions, opts.recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %v", util.ErrNoInputs, args)
	}

	targets := make(map[string]string, len(files))
	for _, file := range files {
		targets[file] = file
		if opts.outDir != "" {
			targets[file] = util.OutputPath(file, opts.outDir, filepath.Ext(file))
		}
	}
	if err := checkCollisions(targets); err != nil {
		return err
	}

	var extra []error
	pages := make([]embed.Page, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Error("failed to read page", "id", file, "error", err)
			extra = append(extra, util.WrapItemError(file, err))
			continue
		}
		pages = append(pages, embed.Page{Name: file, HTML: data})
	}

	rcfg := cfg.Renderer.RenderConfig()
	embedder := embed.NewEmbedder(rcfg, render.NewExecutor(rcfg, logger), logger, embed.WithSelector(opts.selector))

	pageResults, err := embedder.Process(ctx, pages)
	if err != nil {
		return err
	}

	var writes []pendingWrite
	for _, pr := range pageResults {
		if pr.Err != nil {
			extra = append(extra, util.WrapItemError(pr.Name, pr.Err))
		}

		logger.Info("processed page",
			"page", pr.Name,
			"rendered", pr.Rendered,
			"failed", pr.Failed,
			"skipped", pr.Skipped)

		if pr.Changed {
			writes = append(writes, pendingWrite{id: pr.Name, path: targets[pr.Name], data: pr.HTML})
		}
	}
	extra = append(extra, writeFiles(writes, rcfg.Concurrency(), logger)...)

	return report(cmd.OutOrStdout(), cfg, embedder.Results(), extra)
}
