package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghtraf/ghtraf/internal/output"
	"github.com/ghtraf/ghtraf/internal/templates"
)

// Overwrite prompt answers.
const (
	answerNo  = "No"
	answerYes = "Yes"
	answerAll = "All"
)

func newInitCmd(rt *runtime, rf *repoFlags) *cobra.Command {
	var force, skipExisting bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Copy the workflow and dashboard template files into a repository",
		Long: `Copy the traffic workflow and dashboard templates into the target
repository: the directory containing .ghtraf.json, else the enclosing git
repository, else the current directory.

Existing files are kept unless you confirm overwriting them. Run
'ghtraf create --configure' afterwards to fill in your values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := templates.PolicyDefault
			switch {
			case force:
				policy = templates.PolicyForce
			case skipExisting:
				policy = templates.PolicySkipExisting
			}
			return runInit(rt, *rf, policy)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files without prompting")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Never overwrite existing files")
	cmd.MarkFlagsMutuallyExclusive("force", "skip-existing")

	return cmd
}

func runInit(rt *runtime, rf repoFlags, policy templates.Policy) error {
	out := rt.out
	interactive := rt.interactive(rf.nonInteractive)
	rt.logger = rt.logger.WithCommand("init")

	cwd, err := rt.app.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	var confirmParent templates.ConfirmParentFunc
	if interactive {
		confirmParent = func(gitRoot string) (bool, error) {
			out.Info("\n  No .ghtraf.json found in current directory.")
			out.Infof("  Found git repository at: %s", gitRoot)
			return rt.app.Prompter.Confirm("Use this directory?", true)
		}
	}

	target, err := templates.DiscoverTargetDir(rf.repoDir, cwd, confirmParent, out)
	if err != nil {
		return err
	}
	rt.logger.Info("deploying templates", "target", target, "dry_run", rf.dryRun)

	out.Banner("ghtraf init - Copy template files")
	if rf.dryRun {
		out.Info("[DRY RUN MODE - no files will be written]")
	}
	out.Infof("  Target: %s", target)
	out.Info("")

	var overwrite templates.OverwriteFunc
	if interactive {
		overwrite = func(rel string) (templates.Choice, error) {
			answer, err := rt.app.Prompter.Select(fmt.Sprintf("%s already exists. Overwrite?", rel),
				[]string{answerNo, answerYes, answerAll}, answerNo)
			if err != nil {
				return templates.ChoiceNo, err
			}
			switch answer {
			case answerYes:
				return templates.ChoiceYes, nil
			case answerAll:
				return templates.ChoiceAll, nil
			}
			return templates.ChoiceNo, nil
		}
	}

	counts, err := templates.NewDeployer(out, overwrite).Deploy(target, templates.Files, policy, rf.dryRun)
	if err != nil {
		return err
	}

	out.Info("")
	if rf.dryRun {
		out.Infof("  Would copy %d file(s), skip %d file(s).", counts.Copied, counts.Skipped)
		return nil
	}
	out.Infof("  Copied %d file(s), skipped %d file(s).", counts.Copied, counts.Skipped)

	if counts.Copied > 0 {
		out.Hint(output.HintConfigure, output.ContextResult)
		out.Info("  Next: Run 'ghtraf create --configure' to fill in project values.")
	}
	return nil
}
