package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aryankumar/mermaidfleet/internal/diagram"
	"github.com/aryankumar/mermaidfleet/internal/render"
	"github.com/aryankumar/mermaidfleet/internal/util"
)

var hierarchyExtensions = []string{".yaml", ".yml"}

type hierarchyOptions struct {
	outDir         string
	emitDefinition bool
}

func newHierarchyCmd() *cobra.Command {
	opts := &hierarchyOptions{}

	cmd := &cobra.Command{
		Use:   "hierarchy [files...]",
		Short: "Render type hierarchy diagrams from YAML descriptions",
		Long: `Build a bottom-to-top flowchart for every type hierarchy described in the
given YAML files and render it to SVG.

A file may hold several YAML documents, one hierarchy each:

  name: List
  type: {displayName: "List<T>", link: "api/list.html"}
  baseTypes:
    - {displayName: Object}
  interfaces:
    - {displayName: "IList<T>"}
  derivedTypes:
    - {displayName: SortedList}

Each hierarchy is written to <out-dir>/<name>/type_diagram.svg. The out-dir
defaults to the directory of the YAML file.`,
		Example: `  # Render every hierarchy in api/types.yaml
  mermaidfleet hierarchy api/types.yaml

  # Keep the generated Mermaid definitions next to the SVGs
  mermaidfleet hierarchy --emit-definition --out-dir build/types api/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHierarchy(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "directory for the per-type output folders (default next to each YAML file)")
	cmd.Flags().BoolVar(&opts.emitDefinition, "emit-definition", false, "also write the generated Mermaid definition ("+diagram.DefinitionFileName+")")

	return cmd
}

func runHierarchy(cmd *cobra.Command, args []string, opts *hierarchyOptions) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := settings(cmd)
	if err != nil {
		return err
	}

	files, err := util.CollectFiles(args, hierarchyExtensions, false)
	if err != nil {
		return err
	}

	rcfg := cfg.Renderer.RenderConfig()
	pool, err := newPool(rcfg, logger)
	if err != nil {
		return err
	}

	var extra []error
	dirs := make(map[string]string)
	definitions := make(map[string]string)

	for _, file := range files {
		hierarchies, err := loadHierarchyFile(file)
		if err != nil {
			logger.Error("failed to load hierarchies", "file", file, "error", err)
			extra = append(extra, util.WrapItemError(file, err))
			continue
		}

		outDir := opts.outDir
		if outDir == "" {
			outDir = filepath.Dir(file)
		}

		for _, h := range hierarchies {
			definition := h.Definition()
			if err := pool.Submit(render.Request{ID: h.Name, Input: strings.NewReader(definition)}); err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			dirs[h.Name] = filepath.Join(outDir, diagram.SafeName(h.Name))
			definitions[h.Name] = definition
		}
	}

	if pool.TaskCount() == 0 && len(extra) == 0 {
		return fmt.Errorf("%w in %v", util.ErrNoInputs, args)
	}
	if err := checkCollisions(dirs); err != nil {
		return err
	}

	results := execute(ctx, pool, logger)

	var writes []pendingWrite
	svgName := strings.TrimSuffix(diagram.DefinitionFileName, filepath.Ext(diagram.DefinitionFileName)) + ".svg"
	for _, res := range results {
		dir := dirs[res.ID]

		if opts.emitDefinition {
			writes = append(writes, pendingWrite{
				id:   res.ID,
				path: filepath.Join(dir, diagram.DefinitionFileName),
				data: []byte(definitions[res.ID]),
			})
		}

		if res.Error == nil {
			writes = append(writes, pendingWrite{
				id:   res.ID,
				path: filepath.Join(dir, svgName),
				data: []byte(res.Artifact.Content),
			})
		}
	}
	extra = append(extra, writeFiles(writes, rcfg.Concurrency(), logger)...)

	return report(cmd.OutOrStdout(), cfg, results, extra)
}

func loadHierarchyFile(path string) ([]diagram.Hierarchy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return diagram.LoadHierarchies(f)
}
