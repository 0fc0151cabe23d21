package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aryankumar/mermaidfleet/internal/output"
	"github.com/aryankumar/mermaidfleet/internal/render"
	"github.com/aryankumar/mermaidfleet/pkg/version"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for mermaidfleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	if cfg, err := settings(cmd); err == nil {
		v, err := render.ExecutableVersion(cmd.Context(), cfg.Renderer.Executable)
		if err != nil {
			slog.Debug("mermaid CLI version unavailable", "executable", cfg.Renderer.Executable, "error", err)
		}
		info.MermaidCLI = v
	}

	// Only an explicit -o changes the human-readable default
	outputFormat, _ := cmd.Flags().GetString("output")
	noColor, _ := cmd.Flags().GetBool("no-color")

	switch output.Format(outputFormat) {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(output.Format(outputFormat)).Format(w, info)
	case output.FormatTable:
		return output.NewFormatter(output.FormatTable, output.WithNoColor(noColor)).Format(w, map[string]interface{}{
			"Version":     info.Version,
			"Commit":      info.Commit,
			"Build Time":  info.BuildTime,
			"Go Version":  info.GoVersion,
			"Platform":    info.Platform,
			"Mermaid CLI": info.MermaidCLI,
		})
	default:
		fmt.Fprintln(w, info.String())
		return nil
	}
}
