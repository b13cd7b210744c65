package cli

import (
	"strings"

	"github.com/spf13/cobra"

	dvio "github.com/matzehuels/dayview/pkg/io"
	"github.com/matzehuels/dayview/pkg/render/sink"
)

// eventExts are the file extensions accepted as event input.
var eventExts = []string{"json", "yaml", "yml", "toml", "ics"}

// completionCommand creates the completion command for shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dayview.

Besides commands and flags, the scripts complete event files for the
commands that read events, output formats for --format, and the names of
the feeds in the config file for --feed.

Bash:
  $ source <(dayview completion bash)

Zsh:
  $ dayview completion zsh > "${fpath[1]}/_dayview"

Fish:
  $ dayview completion fish > ~/.config/fish/completions/dayview.fish

PowerShell:
  PS> dayview completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// registerCompletions attaches argument and flag completion to the
// subcommands of root.
func (c *CLI) registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		switch cmd.Name() {
		case "layout", "render", "export", "preview", "watch":
			cmd.ValidArgsFunction = fileExts(eventExts...)
		case "visualize":
			cmd.ValidArgsFunction = fileExts("json")
		}

		if cmd.Flags().Lookup("feed") != nil {
			_ = cmd.RegisterFlagCompletionFunc("feed", c.completeFeeds)
		}
		if cmd.Flags().Lookup("format") != nil {
			if cmd.Name() == "export" {
				_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
					[]string{string(dvio.FormatJSON), string(dvio.FormatYAML), string(dvio.FormatTOML)},
					cobra.ShellCompDirectiveNoFileComp))
			} else {
				_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
			}
		}
	}
}

func fileExts(exts ...string) cobra.CompletionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

// completeFeeds offers the feed names from the config file.
func (c *CLI) completeFeeds(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var names []string
	for _, f := range cfg.Feeds {
		if strings.HasPrefix(f.Name, toComplete) {
			names = append(names, f.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes the last entry of a comma-separated format list.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	var out []string
	for _, f := range sink.Formats {
		if strings.HasPrefix(string(f), last) {
			out = append(out, prefix+string(f))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
