package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// completionGenerators maps each supported shell to its cobra generator
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error {
		return root.GenBashCompletionV2(w, true)
	},
	"zsh": func(root *cobra.Command, w io.Writer) error {
		return root.GenZshCompletion(w)
	},
	"fish": func(root *cobra.Command, w io.Writer) error {
		return root.GenFishCompletion(w, true)
	},
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for mermaidfleet.

Load it into the current shell:

  bash:        source <(mermaidfleet completion bash)
  zsh:         source <(mermaidfleet completion zsh)
  fish:        mermaidfleet completion fish | source
  powershell:  mermaidfleet completion powershell | Out-String | Invoke-Expression

To keep completions across sessions, write the script to your shell's
completion directory, for example:

  mermaidfleet completion bash > /etc/bash_completion.d/mermaidfleet
  mermaidfleet completion zsh > "${fpath[1]}/_mermaidfleet"
  mermaidfleet completion fish > ~/.config/fish/completions/mermaidfleet.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// No configuration is needed to print a script
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
