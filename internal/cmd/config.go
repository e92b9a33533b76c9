package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghtraf/ghtraf/internal/config"
	"github.com/ghtraf/ghtraf/internal/output"
)

func newConfigCmd(rt *runtime, rf *repoFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify ghtraf configuration",
		Long: `View or modify ghtraf configuration.

Without arguments, displays the tool settings and the project values that
create would use from the current directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(rt, *rf, cmd.OutOrStdout())
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow(rt, *rf, cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a tool setting in the global config file",
			Long: `Set a tool setting in the "defaults" section of the global config file.

Valid keys:
  defaults.gist_token_name  - Repository secret name for the workflow PAT
  defaults.dashboard_dir    - Dashboard directory relative to the repository
  defaults.verbosity        - Starting verbosity, -4 to 3
  defaults.no_color         - Disable colored output (true/false)
  defaults.log_dir          - Directory for the JSON debug log (empty disables)
  defaults.log_level        - Debug log level: DEBUG, INFO, WARN, ERROR

The "defaults." prefix may be omitted.`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := config.SetSetting(rt.globalPath, args[0], args[1])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Set %s = %v\n", args[0], value)
				fmt.Fprintf(w, "Config saved to %s\n", rt.globalPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file paths",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigPath(rt, cmd.OutOrStdout())
			},
		},
	)
	return configCmd
}

func runConfigShow(rt *runtime, rf repoFlags, w io.Writer) error {
	cwd, err := rt.app.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	startDir := cwd
	if rf.repoDir != "" {
		startDir = rf.repoDir
	}

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Global config: %s\n", describePath(rt.globalPath))

	s := rt.settings
	fmt.Fprintln(w, "defaults:")
	fmt.Fprintf(w, "  gist_token_name: %s\n", s.GistTokenName)
	fmt.Fprintf(w, "  dashboard_dir: %s\n", s.DashboardDir)
	fmt.Fprintf(w, "  verbosity: %d (%s)\n", s.Verbosity, output.LevelName(s.Verbosity))
	fmt.Fprintf(w, "  no_color: %v\n", s.NoColor)
	fmt.Fprintf(w, "  log_dir: %s\n", s.LogDir)
	fmt.Fprintf(w, "  log_level: %s\n", s.LogLevel)

	resolver := config.NewResolver(startDir, rt.globalPath)
	fmt.Fprintln(w)
	if resolver.ProjectPath != "" {
		fmt.Fprintf(w, "Project file: %s\n", resolver.ProjectPath)
	} else {
		fmt.Fprintln(w, "Project file: (none found)")
	}

	keys := []string{
		config.KeyOwner, config.KeyRepo, config.KeyCreated, config.KeyDisplayName,
		config.KeyCIWorkflows, config.KeyBadgeGistID, config.KeyArchiveGistID,
		config.KeyDashboardDir, config.KeyRepoDir,
	}
	resolved, sources := resolver.ResolveWithSources(config.Values{
		config.KeyOwner: rf.owner,
		config.KeyRepo:  rf.repo,
	}, keys...)

	fmt.Fprintln(w, "project:")
	for _, key := range keys {
		if !resolved.Has(key) {
			fmt.Fprintf(w, "  %s: (unset)\n", key)
			continue
		}
		value := resolved.String(key)
		if list, ok := resolved.Strings(key); ok && key == config.KeyCIWorkflows {
			value = fmt.Sprint(list)
		}
		fmt.Fprintf(w, "  %s: %s  [%s]\n", key, value, sources[key])
	}
	return nil
}

func runConfigPath(rt *runtime, w io.Writer) error {
	fmt.Fprintf(w, "Global config: %s\n", describePath(rt.globalPath))
	fmt.Fprintf(w, "Project file:  %s (searched upward from the current directory)\n", config.ProjectFileName)

	fmt.Fprintln(w, "\nEnvironment variables:")
	for _, key := range config.SettingKeys() {
		fmt.Fprintf(w, "  %-22s overrides %s\n", config.SettingEnv(key), key)
	}
	return nil
}

func describePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path + " (not created)"
	}
	return path
}
