package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ghtraf/ghtraf/internal/version"
)

// repoFlags are the repository-scoped flags every subcommand inherits.
type repoFlags struct {
	owner          string
	repo           string
	repoDir        string
	dryRun         bool
	nonInteractive bool
}

func newRootCmd(rt *runtime) *cobra.Command {
	var rf repoFlags

	rootCmd := &cobra.Command{
		Use:   "ghtraf",
		Short: "GitHub Traffic Tracker CLI",
		Long: `ghtraf sets up long-term traffic tracking for a GitHub repository.

GitHub only keeps 14 days of clone and view history. ghtraf deploys a
scheduled workflow and a dashboard, and creates the gists the workflow
accumulates totals in.

Global flags (-v, -Q, --show, --no-color, --config) can appear before or
after the subcommand.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Flags().BoolP("version", "V", false, "Print the version and exit")

	addGlobalFlagDocs(rootCmd.PersistentFlags())

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rf.owner, "owner", "", "GitHub username or organization")
	pf.StringVar(&rf.repo, "repo", "", "Repository name")
	pf.StringVar(&rf.repoDir, "repo-dir", "", "Local repository directory")
	pf.BoolVar(&rf.dryRun, "dry-run", false, "Preview changes without applying them")
	pf.BoolVar(&rf.nonInteractive, "non-interactive", false, "Never prompt; fail on missing required values")

	rootCmd.AddCommand(
		newCreateCmd(rt, &rf),
		newInitCmd(rt, &rf),
		newConfigCmd(rt, &rf),
		newVersionCmd(),
	)
	return rootCmd
}

// addGlobalFlagDocs registers the global flags so they appear in --help.
// ExtractGlobalFlags consumes them before cobra parses argv, so these
// definitions are never set.
func addGlobalFlagDocs(fs *pflag.FlagSet) {
	fs.CountP("verbose", "v", "Increase verbosity (repeatable: -vv, -vvv)")
	fs.CountP("quiet", "Q", "Decrease verbosity (repeatable: -QQ, -QQQQ silences everything)")
	fs.StringArray("show", nil, "Channel override NAME[:LEVEL[:DEST[:LOCATION[:FORMAT]]]]; NAME may be a glob")
	fs.Bool("channels", false, "List output channels and exit")
	fs.Bool("no-color", false, "Disable colored output")
	fs.String("config", "", "Path to the global config file (default ~/.ghtraf/config.json)")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
