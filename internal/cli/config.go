package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryankumar/mermaidfleet/internal/config"
	"github.com/aryankumar/mermaidfleet/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
		Long: `Inspect the resolved configuration or write a configuration file.

Settings are read from the config file ($HOME/.mermaidfleet/config.yaml or
$HOME/.mermaidfleet.yaml), then MERMAIDFLEET_* environment variables, then
command-line flags; later sources win.`,
	}

	cmd.AddCommand(newConfigViewCmd())
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}

			format := output.Format(cfg.Output.Format)
			if format == output.FormatTable {
				// A nested document reads better as YAML than as a table
				format = output.FormatYAML
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), cfg)
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the resolved settings",
		Long: `Write the resolved settings to the file named by --config, or to
$HOME/.mermaidfleet/config.yaml. An existing file is only replaced with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			if cfgFile == "" {
				path, err := config.DefaultPath()
				if err != nil {
					return err
				}
				cfgFile = path
			}

			if _, err := os.Stat(cfgFile); err == nil && !force {
				return fmt.Errorf("config file %s already exists, use --force to overwrite", cfgFile)
			}

			mgr := config.NewManager(cfgFile)
			if err := mgr.BindFlags(cmd.Flags()); err != nil {
				return err
			}
			if _, err := mgr.Load(); err != nil {
				return err
			}

			if err := mgr.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", mgr.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
