package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd represents the completion command.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for alarmd.

To load completions:

Bash:
  $ source <(alarmd completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ alarmd completion bash > /etc/bash_completion.d/alarmd
  # macOS:
  $ alarmd completion bash > $(brew --prefix)/etc/bash_completion.d/alarmd

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ alarmd completion zsh > "${fpath[1]}/_alarmd"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ alarmd completion fish | source

  # To load completions for each session, execute once:
  $ alarmd completion fish > ~/.config/fish/completions/alarmd.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
