package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryankumar/mermaidfleet/internal/config"
)

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mermaidfleet",
		Short: "mermaidfleet - render Mermaid diagrams in parallel",
		Long: `mermaidfleet renders batches of Mermaid diagrams to SVG with the Mermaid CLI (mmdc).

Diagrams are rendered concurrently with a bounded number of mmdc processes.
Each render runs under its own timeout, a failed diagram never stops the
others, and interrupting the command stops every running renderer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.mermaidfleet/config.yaml)")
	flags.String("executable", "", "Mermaid CLI executable (default \"mmdc\")")
	flags.Duration("timeout", 0, "timeout for a single render (default 2m0s)")
	flags.IntP("parallel", "p", 0, "maximum number of concurrent renders (default number of CPUs)")
	flags.Bool("serial", false, "render one diagram at a time")
	flags.String("temp-dir", "", "directory for temporary render output (default system temp dir)")
	flags.String("theme", "", "Mermaid theme (default, forest, dark, neutral)")
	flags.String("background-color", "", "background color of rendered diagrams, e.g. transparent")
	flags.String("mermaid-config", "", "Mermaid JSON configuration file passed to mmdc")
	flags.String("puppeteer-config", "", "Puppeteer JSON configuration file passed to mmdc")
	flags.StringP("output", "o", "", "output format (json, yaml, table)")
	flags.Bool("wide", false, "show exit codes, sizes and errors in table output")
	flags.BoolP("verbose", "v", false, "verbose output with debug logging")
	flags.Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newEmbedCmd())
	rootCmd.AddCommand(newHierarchyCmd())

	return rootCmd
}

// initConfig resolves configuration from file, environment and flags,
// sets up logging and stores the result in the command's context
func initConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")

	mgr := config.NewManager(cfgFile)
	if err := mgr.BindFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogging(cfg.Output)

	if used := mgr.ConfigFileUsed(); used != "" {
		slog.Debug("loaded configuration", "file", used)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(config.NewContext(ctx, cfg))

	return nil
}

// setupLogging configures structured logging with slog
func setupLogging(out config.OutputConfig) {
	logLevel := slog.LevelInfo
	if out.Verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if out.NoColor {
		// Use JSON handler for no-color mode
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	if out.Verbose {
		slog.Debug("verbose logging enabled")
	}
}
