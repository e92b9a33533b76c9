package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/ghtraf/ghtraf/internal/config"
	"github.com/ghtraf/ghtraf/internal/configure"
	"github.com/ghtraf/ghtraf/internal/errors"
	"github.com/ghtraf/ghtraf/internal/gist"
	"github.com/ghtraf/ghtraf/internal/output"
)

// Repository variables the workflow reads the gist IDs from.
const (
	VarBadgeGistID   = "TRAFFIC_GIST_ID"
	VarArchiveGistID = "TRAFFIC_ARCHIVE_GIST_ID"
)

// WorkflowName is the display name of the deployed traffic workflow.
const WorkflowName = "Track Downloads & Clones"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type createFlags struct {
	created       string
	displayName   string
	ciWorkflows   []string
	configure     bool
	skipVariables bool
	gistTokenName string
}

func newCreateCmd(rt *runtime, rf *repoFlags) *cobra.Command {
	var cf createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create gists and set repository variables for traffic tracking",
		Long: `Create the public badge gist and unlisted archive gist needed by the
traffic-badges.yml workflow, then optionally configure repository
variables/secrets and update dashboard files.

Values not given as flags are taken from .ghtraf.json, then from the
repository's entry in ~/.ghtraf/config.json, then prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &creator{
				rt:        rt,
				rf:        *rf,
				cf:        cf,
				ciChanged: cmd.Flags().Changed("ci-workflows"),
			}
			if !cmd.Flags().Changed("gist-token-name") {
				c.cf.gistTokenName = rt.settings.GistTokenName
			}
			return c.run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cf.created, "created", "", "Repository creation date (YYYY-MM-DD)")
	f.StringVar(&cf.displayName, "display-name", "", "Display name for dashboard title/banner")
	f.StringSliceVar(&cf.ciWorkflows, "ci-workflows", nil,
		"CI workflow names for the workflow_run trigger (repeatable or comma-separated; \"\" comments the trigger out)")
	f.BoolVar(&cf.configure, "configure", false, "Also update dashboard and workflow files with your values")
	f.BoolVar(&cf.skipVariables, "skip-variables", false, "Skip setting repository variables/secrets")
	f.StringVar(&cf.gistTokenName, "gist-token-name", config.DefaultGistTokenName, "Name for the gist token secret")

	return cmd
}

// project is the gathered configuration for one create run.
type project struct {
	owner       string
	repo        string
	created     string
	displayName string
	ciWorkflows []string
	repoDir     string
	dashboard   string
}

func (p project) ownerRepo() string {
	return config.RepoKey(p.owner, p.repo)
}

type creator struct {
	rt        *runtime
	rf        repoFlags
	cf        createFlags
	ciChanged bool

	interactive bool
	username    string
}

func (c *creator) run(ctx context.Context) error {
	out := c.rt.out
	c.interactive = c.rt.interactive(c.rf.nonInteractive)
	c.rt.logger = c.rt.logger.WithCommand("create")

	out.Banner("GitHub Traffic Tracker Setup")
	if c.rf.dryRun {
		out.Info("[DRY RUN MODE - no changes will be made]")
	}

	if err := c.preflight(ctx); err != nil {
		return err
	}

	out.Info("\nGathering configuration...")
	out.Emit(output.LevelTiming, output.ChannelSetup, "  [setup] Gathering configuration (interactive={interactive})",
		"interactive", c.interactive)
	p, err := c.gather(ctx)
	if err != nil {
		return err
	}
	if err := c.validate(ctx, p); err != nil {
		return err
	}
	c.rt.logger = c.rt.logger.WithRepo(p.ownerRepo())

	c.printSummary(p)
	if c.interactive && !c.rf.dryRun {
		out.Info("")
		proceed, err := c.rt.app.Prompter.Confirm("Proceed?", true)
		if err != nil {
			return err
		}
		if !proceed {
			out.Info("  Setup cancelled.")
			out.Hint(output.HintDryRun, output.ContextResult)
			return nil
		}
	}

	total := 2
	if !c.cf.skipVariables {
		total += 2
	}
	if c.cf.configure {
		total++
	}
	step := 0

	stores := gist.NewManager(c.rt.gateway, out)

	step++
	out.Step(step, total, "Create badge gist (public)")
	out.Emit(output.LevelTiming, output.ChannelGist, "  [gist] Creating public badge gist for {repo}", "repo", p.ownerRepo())
	badge, err := stores.CreateBadgeStore(ctx, p.ownerRepo(), c.rf.dryRun)
	if err != nil {
		return err
	}
	out.Emit(output.LevelConfig, output.ChannelGist, "  [gist] Badge gist ID: {id}", "id", badge.ID)

	step++
	out.Step(step, total, "Create archive gist (unlisted)")
	out.Emit(output.LevelTiming, output.ChannelGist, "  [gist] Creating unlisted archive gist for {repo}", "repo", p.ownerRepo())
	archive, err := stores.CreateArchiveStore(ctx, p.ownerRepo(), c.rf.dryRun)
	if err != nil {
		return err
	}
	out.Emit(output.LevelConfig, output.ChannelGist, "  [gist] Archive gist ID: {id}", "id", archive.ID)

	if !c.cf.skipVariables {
		step++
		out.Step(step, total, "Set repository variables")
		out.Emit(output.LevelTiming, output.ChannelAPI, "  [api] Setting repository variables on {repo}", "repo", p.ownerRepo())
		if err := c.setVariable(ctx, p, VarBadgeGistID, badge.ID); err != nil {
			return err
		}
		if err := c.setVariable(ctx, p, VarArchiveGistID, archive.ID); err != nil {
			return err
		}

		step++
		out.Step(step, total, fmt.Sprintf("Repository secret (%s)", c.cf.gistTokenName))
		if err := c.guideToken(ctx, p); err != nil {
			return err
		}
		out.Hint(output.HintSeparatePAT, output.ContextVerbose)
	}

	if c.cf.configure {
		step++
		out.Step(step, total, "Configure project files")
		if err := c.configureFiles(p, badge.ID, archive.ID); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	out.Emit(output.LevelTiming, output.ChannelConfig, "  [config] Writing project configuration...")
	if !c.rf.dryRun {
		if err := c.persist(p, badge.ID, archive.ID); err != nil {
			return err
		}
	}

	c.printResult(p, badge.ID, archive.ID)
	return nil
}

// preflight checks gh is installed, authenticated, and can write gists, and
// resolves the account name.
func (c *creator) preflight(ctx context.Context) error {
	out := c.rt.out
	gw := c.rt.gateway

	out.Info("\nChecking prerequisites...")
	out.Emit(output.LevelTiming, output.ChannelSetup, "  [setup] Checking gh CLI installation...")
	ver, err := gw.CheckInstalled(ctx)
	if err != nil {
		return err
	}
	out.OK(fmt.Sprintf("gh CLI found (%s)", ver))

	out.Emit(output.LevelTiming, output.ChannelAPI, "  [api] Checking GitHub authentication...")
	status, err := gw.CheckAuthenticated(ctx)
	if err != nil {
		return err
	}
	if line := loginLine(status); line != "" {
		out.OK(line)
	}

	switch err := gw.HasGistScope(ctx); {
	case err == nil:
		out.OK("Token has gist access")
	case !errors.Is(err, errors.ErrMissingScope):
		return err
	default:
		out.Warn("Your gh CLI token may not have 'gist' scope.")
		out.Infof("  Run: %s", errors.Remedy(err))
		if c.interactive {
			cont, err := c.rt.app.Prompter.Confirm("Continue anyway?", false)
			if err != nil {
				return err
			}
			if !cont {
				return errors.NewExitError(errors.ExitFailure, "")
			}
		}
	}

	c.username, err = gw.Username(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve GitHub username: %w", err)
	}
	out.OK(fmt.Sprintf("GitHub username: %s", c.username))
	out.Hint(output.HintRateLimit, output.ContextVerbose)
	return nil
}

// loginLine extracts the "Logged in to ... account ..." line of gh auth
// status output.
func loginLine(status string) string {
	for _, line := range strings.Split(status, "\n") {
		if strings.Contains(line, "Logged in to") && strings.Contains(line, "account") {
			return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "✓"))
		}
	}
	return ""
}

// gather resolves every value through the config layers, then prompts for
// or defaults what is still missing.
func (c *creator) gather(ctx context.Context) (project, error) {
	cwd, err := c.rt.app.Getwd()
	if err != nil {
		return project{}, fmt.Errorf("failed to get current directory: %w", err)
	}
	startDir := cwd
	if c.rf.repoDir != "" {
		startDir = c.rf.repoDir
	}

	cli := config.Values{
		config.KeyOwner:       c.rf.owner,
		config.KeyRepo:        c.rf.repo,
		config.KeyRepoDir:     c.rf.repoDir,
		config.KeyCreated:     c.cf.created,
		config.KeyDisplayName: c.cf.displayName,
	}
	if c.ciChanged {
		cli[config.KeyCIWorkflows] = cleanList(c.cf.ciWorkflows)
	}

	resolver := config.NewResolver(startDir, c.rt.globalPath)
	resolved, sources := resolver.ResolveWithSources(cli,
		config.KeyOwner, config.KeyRepo, config.KeyRepoDir, config.KeyCreated,
		config.KeyDisplayName, config.KeyCIWorkflows, config.KeyDashboardDir)
	for key, src := range sources {
		c.rt.out.Emit(output.LevelDebug, output.ChannelConfig, "  [config] {key} from {source}", "key", key, "source", src)
	}

	var p project
	if p.owner, err = c.required(resolved.String(config.KeyOwner), "--owner", "GitHub owner (username or org)"); err != nil {
		return p, err
	}
	if p.repo, err = c.required(resolved.String(config.KeyRepo), "--repo", "Repository name"); err != nil {
		return p, err
	}

	if p.created, err = c.createdDate(ctx, resolved.String(config.KeyCreated), p.ownerRepo()); err != nil {
		return p, err
	}

	p.displayName = resolved.String(config.KeyDisplayName)
	if p.displayName == "" {
		def := defaultDisplayName(p.repo)
		p.displayName = def
		if c.interactive {
			if p.displayName, err = c.rt.app.Prompter.Input("Display name for dashboard", def); err != nil {
				return p, err
			}
		}
	}

	if list, ok := resolved.Strings(config.KeyCIWorkflows); ok {
		p.ciWorkflows = list
	} else if c.interactive {
		answer, err := c.rt.app.Prompter.Input("CI workflow names to trigger after (comma-separated, Enter to skip)", "")
		if err != nil {
			return p, err
		}
		p.ciWorkflows = cleanList(strings.Split(answer, ","))
	}

	p.repoDir, err = repoDir(c.rf.repoDir, resolver.ProjectPath, resolved.String(config.KeyRepoDir), sources[config.KeyRepoDir], cwd)
	if err != nil {
		return p, err
	}
	p.dashboard = resolved.String(config.KeyDashboardDir)
	if p.dashboard == "" {
		p.dashboard = c.rt.settings.DashboardDir
	}
	return p, nil
}

// required returns value, or prompts for it, or fails in non-interactive
// mode.
func (c *creator) required(value, flag, question string) (string, error) {
	if value != "" {
		return value, nil
	}
	if !c.interactive {
		return "", errors.NewMissingValueError(flag)
	}
	answer, err := c.rt.app.Prompter.Input(question, "")
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errors.NewValidationError(strings.TrimPrefix(flag, "--"), "", "must not be empty")
	}
	return answer, nil
}

// createdDate returns the resolved date, else the repository's creation
// date from GitHub, else today. Interactive runs confirm the default.
func (c *creator) createdDate(ctx context.Context, resolved, ownerRepo string) (string, error) {
	if resolved != "" {
		return resolved, nil
	}
	def, err := c.rt.gateway.RepoCreatedDate(ctx, ownerRepo)
	if err != nil {
		if errors.IsInterrupt(err) {
			return "", err
		}
		def = c.rt.app.Now().Format("2006-01-02")
	}
	if !c.interactive {
		return def, nil
	}
	return c.rt.app.Prompter.Input("Repository creation date (YYYY-MM-DD)", def)
}

// repoDir picks where the project file is written: --repo-dir, else the
// directory of the project file found, else the global entry's repo_dir,
// else cwd.
func repoDir(flag, projectPath, resolved string, source config.Source, cwd string) (string, error) {
	switch {
	case flag != "":
		return filepath.Abs(flag)
	case projectPath != "":
		return filepath.Dir(projectPath), nil
	case resolved != "" && source == config.SourceGlobal:
		return filepath.Abs(resolved)
	}
	return filepath.Abs(cwd)
}

func (c *creator) validate(ctx context.Context, p project) error {
	if !datePattern.MatchString(p.created) {
		return errors.NewValidationError("created date", p.created, "expected YYYY-MM-DD")
	}

	if _, err := c.rt.gateway.RepoExists(ctx, p.ownerRepo()); err != nil {
		if errors.IsInterrupt(err) {
			return err
		}
		c.rt.out.Warnf("Repository %s not found on GitHub.", p.ownerRepo())
		c.rt.out.Info("  This is OK if you haven't created it yet.")
		c.rt.out.Info("  Repository variables/secrets will be set once it exists.")
	}

	c.rt.out.Emit(output.LevelConfig, output.ChannelConfig, "  [config] Resolved: owner={owner}, repo={repo}, created={created}",
		"owner", p.owner, "repo", p.repo, "created", p.created)
	c.rt.out.Emit(output.LevelConfig, output.ChannelConfig, "  [config] display_name={name}, ci_workflows={ci}",
		"name", p.displayName, "ci", p.ciWorkflows)
	return nil
}

func (c *creator) printSummary(p project) {
	out := c.rt.out
	out.Info("")
	out.Infof("  Owner:        %s", p.owner)
	out.Infof("  Repository:   %s", p.repo)
	out.Infof("  Created:      %s", p.created)
	out.Infof("  Display Name: %s", p.displayName)
	if len(p.ciWorkflows) > 0 {
		out.Infof("  CI Workflows: %s", strings.Join(p.ciWorkflows, ", "))
	} else {
		out.Info("  CI Workflows: (none)")
	}
	out.Infof("  Configure:    %s", yesNo(c.cf.configure))
}

// setVariable sets one repository variable. A failure is reported with the
// manual command and the run goes on; only an interrupt is returned.
func (c *creator) setVariable(ctx context.Context, p project, name, value string) error {
	out := c.rt.out
	if c.rf.dryRun {
		out.Dry(fmt.Sprintf("Would set variable %s = %s", name, value))
		return nil
	}
	if err := c.rt.gateway.SetVariable(ctx, name, value, p.ownerRepo()); err != nil {
		if errors.IsInterrupt(err) {
			return err
		}
		c.rt.logger.Warn("set variable failed", "name", name, "error", err.Error())
		out.Warnf("Could not set %s", name)
		out.Infof("  Run manually: gh variable set %s --body %q -R %s", name, value, p.ownerRepo())
		return nil
	}
	out.OK(fmt.Sprintf("%s = %s", name, value))
	return nil
}

// guideToken explains how to create the workflow's PAT and offers to store
// it as a repository secret.
func (c *creator) guideToken(ctx context.Context, p project) error {
	out := c.rt.out
	name := c.cf.gistTokenName
	manual := fmt.Sprintf("gh secret set %s -R %s", name, p.ownerRepo())

	for _, line := range []string{
		"",
		"  The workflow needs a Personal Access Token (PAT) with 'gist' scope",
		"  to update your gists. This is SEPARATE from your gh CLI token.",
		"",
		"  To create one:",
		"    1. Go to: https://github.com/settings/tokens/new",
		fmt.Sprintf("    2. Name it: \"Traffic Tracker - %s\"", p.ownerRepo()),
		"    3. Check ONLY the 'gist' scope",
		"    4. Set expiration (recommended: no expiration, or 1 year)",
		"    5. Click 'Generate token' and copy the value",
		"",
	} {
		out.Info(line)
	}

	switch {
	case c.rf.dryRun:
		out.Dry(fmt.Sprintf("Would prompt for PAT and set secret %s", name))
		return nil
	case !c.interactive:
		out.Infof("  Then run: %s", manual)
		return nil
	}

	token, err := c.rt.app.Prompter.Password("Paste your PAT here (or press Enter to skip)")
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		out.Skip("PAT not provided")
		out.Infof("  Remember to run: %s", manual)
		return nil
	}

	if err := c.rt.gateway.SetSecret(ctx, name, token, p.ownerRepo()); err != nil {
		if errors.IsInterrupt(err) {
			return err
		}
		c.rt.logger.Warn("set secret failed", "name", name, "error", err.Error())
		out.Warn("Could not set secret.")
		out.Infof("  Run manually: %s", manual)
		return nil
	}
	out.OK(fmt.Sprintf("Secret %s set successfully", name))
	return nil
}

func (c *creator) configureFiles(p project, badgeID, archiveID string) error {
	dashboard, readme, workflow := configure.Paths(p.repoDir, p.dashboard)
	values := configure.Project{
		Owner:         p.owner,
		Repo:          p.repo,
		DisplayName:   p.displayName,
		Created:       p.created,
		GhUsername:    c.username,
		BadgeGistID:   badgeID,
		ArchiveGistID: archiveID,
		CIWorkflows:   p.ciWorkflows,
	}

	cfg := configure.New(c.rt.out)
	if _, err := cfg.Dashboard(values, dashboard, c.rf.dryRun); err != nil {
		return err
	}
	if _, err := cfg.Readme(values, readme, c.rf.dryRun); err != nil {
		return err
	}
	_, err := cfg.Workflow(values, workflow, c.rf.dryRun)
	return err
}

// persist writes .ghtraf.json and registers the repository in the global
// file.
func (c *creator) persist(p project, badgeID, archiveID string) error {
	path, err := config.SaveProject(config.ProjectConfig{
		Owner:         p.owner,
		Repo:          p.repo,
		Created:       p.created,
		DisplayName:   p.displayName,
		BadgeGistID:   badgeID,
		ArchiveGistID: archiveID,
		DashboardDir:  p.dashboard,
		SchemaVersion: config.SchemaVersion,
		CIWorkflows:   p.ciWorkflows,
	}, p.repoDir)
	if err != nil {
		return err
	}
	c.rt.out.Emit(output.LevelConfig, output.ChannelConfig, "  [config] Wrote {path}", "path", path)

	err = config.RegisterRepoGlobally(c.rt.globalPath, p.owner, p.repo, config.RepoEntry{
		BadgeGistID:   badgeID,
		ArchiveGistID: archiveID,
		RepoDir:       p.repoDir,
		DisplayName:   p.displayName,
		Created:       p.created,
	})
	if err != nil {
		return err
	}
	c.rt.out.Emit(output.LevelConfig, output.ChannelConfig, "  [config] Registered {repo} in {path}",
		"repo", p.ownerRepo(), "path", c.rt.globalPath)
	return nil
}

func (c *creator) printResult(p project, badgeID, archiveID string) {
	out := c.rt.out

	out.Info("")
	out.Info(strings.Repeat("=", 40))
	if c.rf.dryRun {
		out.Info("Dry run complete! Re-run without --dry-run to apply.")
	} else {
		out.Info("Setup complete!")
		out.Hint(output.HintRemember, output.ContextResult)
	}

	out.Infof("\n  Badge Gist ID:   %s", badgeID)
	out.Infof("  Archive Gist ID: %s", archiveID)

	gistBase := fmt.Sprintf("https://gist.githubusercontent.com/%s/%s/raw", c.username, badgeID)
	shieldBase := "https://img.shields.io/endpoint?url=" + gistBase
	out.Info("\nBadge URLs:")
	out.Infof("  Installs:  %s/%s", shieldBase, gist.InstallsFile)
	out.Infof("  Downloads: %s/%s", shieldBase, gist.DownloadsFile)
	out.Infof("  Clones:    %s/%s", shieldBase, gist.ClonesFile)
	out.Infof("  Views:     %s/%s", shieldBase, gist.ViewsFile)

	statsURL := fmt.Sprintf("https://%s.github.io/%s/stats/", strings.ToLower(p.owner), p.repo)
	out.Info("\nBadge Markdown (copy-paste for README):")
	out.Infof("  [![Installs](%s/%s)](%s#installs)", shieldBase, gist.InstallsFile, statsURL)

	out.Info("\nNext steps:")
	if c.cf.skipVariables {
		out.Info("  1. Set repo variables:")
		out.Infof("     gh variable set %s --body %q -R %s", VarBadgeGistID, badgeID, p.ownerRepo())
		out.Infof("     gh variable set %s --body %q -R %s", VarArchiveGistID, archiveID, p.ownerRepo())
		out.Info("  2. Set repo secret with a PAT (gist scope):")
		out.Infof("     gh secret set %s -R %s", c.cf.gistTokenName, p.ownerRepo())
	}
	if !c.cf.configure {
		out.Info("  - Run again with --configure to update dashboard/workflow files")
		out.Hint(output.HintConfigure, output.ContextResult)
	}
	out.Info("  - Commit and push your changes")
	out.Info("  - Enable GitHub Pages (Settings > Pages > Deploy from branch > main, /docs)")
	out.Info("  - Trigger the workflow manually or wait for the 3am UTC schedule:")
	out.Infof("    gh workflow run %q -R %s", WorkflowName, p.ownerRepo())
	out.Info("")
}

// defaultDisplayName turns a repository name into a title: separators
// become spaces and each word is capitalized.
func defaultDisplayName(repo string) string {
	name := strings.NewReplacer("-", " ", "_", " ").Replace(repo)

	var sb strings.Builder
	prevLetter := false
	for _, r := range name {
		if prevLetter {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return sb.String()
}

// cleanList trims names and drops empty ones. The result is never nil.
func cleanList(names []string) []string {
	out := []string{}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
