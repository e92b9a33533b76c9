package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghtraf/ghtraf/internal/config"
	"github.com/ghtraf/ghtraf/internal/errors"
	"github.com/ghtraf/ghtraf/internal/gh"
	"github.com/ghtraf/ghtraf/internal/gist"
	"github.com/ghtraf/ghtraf/internal/logging"
	"github.com/ghtraf/ghtraf/internal/output"
	"github.com/ghtraf/ghtraf/internal/prompt"
	"github.com/ghtraf/ghtraf/internal/templates"
	"github.com/ghtraf/ghtraf/internal/testutil"
)

// fakeGateway records what the commands ask of GitHub.
type fakeGateway struct {
	installErr  error
	noGist      bool
	missing     bool
	created     string
	variableErr error

	// interruptAt names a gateway method that cancels the run's context
	// the way Ctrl-C does.
	interruptAt string
	cancel      context.CancelFunc

	gists     []gh.GistRef
	payloads  [][]byte
	variables map[string]string
	secrets   map[string]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		created:   "2024-05-06",
		gists:     []gh.GistRef{{ID: "badge123"}, {ID: "archive456"}},
		variables: map[string]string{},
		secrets:   map[string]string{},
	}
}

func (f *fakeGateway) interrupt(ctx context.Context, method string) error {
	if f.interruptAt != method {
		return nil
	}
	f.cancel()
	return ctx.Err()
}

func (f *fakeGateway) CheckInstalled(context.Context) (string, error) {
	if f.installErr != nil {
		return "", f.installErr
	}
	return "gh version 2.62.0 (2024-11-14)", nil
}

func (f *fakeGateway) CheckAuthenticated(context.Context) (string, error) {
	return "github.com\n  ✓ Logged in to github.com account octo (keyring)\n", nil
}

func (f *fakeGateway) HasGistScope(ctx context.Context) error {
	if err := f.interrupt(ctx, "HasGistScope"); err != nil {
		return err
	}
	if f.noGist {
		return errors.NewGatewayError("gh token cannot access gists", errors.ErrMissingScope).
			WithRemedy("gh auth refresh -s gist")
	}
	return nil
}

func (f *fakeGateway) Username(context.Context) (string, error) { return "octo", nil }

func (f *fakeGateway) CreateGist(_ context.Context, payload []byte) (gh.GistRef, error) {
	f.payloads = append(f.payloads, payload)
	ref := f.gists[0]
	f.gists = f.gists[1:]
	return ref, nil
}

func (f *fakeGateway) SetVariable(ctx context.Context, name, value, _ string) error {
	if err := f.interrupt(ctx, "SetVariable"); err != nil {
		return err
	}
	if f.variableErr != nil {
		return f.variableErr
	}
	f.variables[name] = value
	return nil
}

func (f *fakeGateway) SetSecret(ctx context.Context, name, value, _ string) error {
	if err := f.interrupt(ctx, "SetSecret"); err != nil {
		return err
	}
	f.secrets[name] = value
	return nil
}

func (f *fakeGateway) RepoExists(ctx context.Context, ownerRepo string) (string, error) {
	if err := f.interrupt(ctx, "RepoExists"); err != nil {
		return "", err
	}
	if f.missing {
		return "", errors.ErrNotFound
	}
	return ownerRepo, nil
}

func (f *fakeGateway) RepoCreatedDate(ctx context.Context, _ string) (string, error) {
	if err := f.interrupt(ctx, "RepoCreatedDate"); err != nil {
		return "", err
	}
	if f.created == "" {
		return "", errors.ErrNotFound
	}
	return f.created, nil
}

// interruptPrompter fails every prompt the way Ctrl-C does.
type interruptPrompter struct{}

func (interruptPrompter) Input(string, string) (string, error) { return "", errors.ErrInterrupted }
func (interruptPrompter) Confirm(string, bool) (bool, error)   { return false, errors.ErrInterrupted }
func (interruptPrompter) Select(string, []string, string) (string, error) {
	return "", errors.ErrInterrupted
}
func (interruptPrompter) Password(string) (string, error) { return "", errors.ErrInterrupted }

type testEnv struct {
	app      *App
	gateway  *fakeGateway
	out      *bytes.Buffer
	repoDir  string
	global   string
	prompter prompt.Prompter
}

func newTestEnv(t *testing.T, interactive bool, answers ...string) *testEnv {
	t.Helper()

	env := &testEnv{
		gateway: newFakeGateway(),
		out:     &bytes.Buffer{},
		repoDir: testutil.SetupTestRepo(t),
		global:  filepath.Join(t.TempDir(), "config.json"),
	}
	env.prompter = prompt.NewScript(answers...)
	env.app = &App{
		Stdout: env.out,
		Stderr: env.out,
		NewGateway: func(*logging.Logger, *output.Manager) Gateway {
			return env.gateway
		},
		Prompter:    env.prompter,
		Interactive: func() bool { return interactive },
		Getwd:       func() (string, error) { return env.repoDir, nil },
		Now:         func() time.Time { return time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC) },
		GlobalPath:  env.global,
	}
	return env
}

func (e *testEnv) run(args ...string) int {
	return e.runContext(context.Background(), args...)
}

func (e *testEnv) runContext(ctx context.Context, args ...string) int {
	e.out.Reset()
	return e.app.Execute(ctx, append([]string{"--no-color"}, args...))
}

func TestExecute_NoArgsPrintsHelp(t *testing.T) {
	env := newTestEnv(t, false)

	code := env.run()
	assert.Equal(t, errors.ExitOK, code)
	assert.Contains(t, env.out.String(), "Usage:")
	assert.Contains(t, env.out.String(), "create")
	assert.Contains(t, env.out.String(), "init")
}

func TestExecute_UnknownCommand(t *testing.T) {
	env := newTestEnv(t, false)

	code := env.run("frobnicate")
	assert.Equal(t, errors.ExitFailure, code)
	assert.Contains(t, env.out.String(), `unknown command "frobnicate"`)
}

func TestExecute_Version(t *testing.T) {
	env := newTestEnv(t, false)

	for _, args := range [][]string{{"version"}, {"--version"}, {"-V"}} {
		code := env.run(args...)
		assert.Equal(t, errors.ExitOK, code, args)
		assert.True(t, strings.HasPrefix(env.out.String(), "ghtraf "), "%v printed %q", args, env.out.String())
	}
}

func TestExecute_Channels(t *testing.T) {
	env := newTestEnv(t, false)

	for _, arg := range []string{"--channels", "--channels=true"} {
		code := env.run(arg)
		assert.Equal(t, errors.ExitOK, code, arg)
		for _, ch := range []string{output.ChannelAPI, output.ChannelGist, output.ChannelTrace} {
			assert.Contains(t, env.out.String(), ch, arg)
		}
	}
}

func TestExecute_BadGlobalFlag(t *testing.T) {
	env := newTestEnv(t, false)

	code := env.run("create", "--config")
	assert.Equal(t, errors.ExitFailure, code)
	assert.Contains(t, env.out.String(), "--config requires a value")
}

func TestCreate_DryRun(t *testing.T) {
	env := newTestEnv(t, false)

	code := env.run("create", "--owner", "acme", "--repo", "widget", "--created", "2026-01-01", "--dry-run")
	require.Equal(t, errors.ExitOK, code, env.out.String())

	out := env.out.String()
	assert.Contains(t, out, "[DRY RUN MODE - no changes will be made]")
	assert.Contains(t, out, `Would create PUBLIC gist: "acme/widget traffic badges"`)
	assert.Contains(t, out, "Would create UNLISTED gist")
	for _, f := range []string{gist.StateFile, gist.InstallsFile, gist.DownloadsFile, gist.ClonesFile, gist.ViewsFile, gist.ArchiveFile} {
		assert.Contains(t, out, "- "+f)
	}
	assert.Contains(t, out, "Would set variable TRAFFIC_GIST_ID = "+gist.DryRunBadgeID)
	assert.Contains(t, out, "Would prompt for PAT and set secret TRAFFIC_GIST_TOKEN")
	assert.Contains(t, out, "Step 4/4")
	assert.Contains(t, out, "Dry run complete!")

	assert.Empty(t, env.gateway.payloads)
	assert.Empty(t, env.gateway.variables)
	assert.False(t, testutil.FileExists(t, env.repoDir, config.ProjectFileName))
	assert.False(t, testutil.FileExists(t, filepath.Dir(env.global), "config.json"))
}

func TestCreate_PersistsAndReuses(t *testing.T) {
	env := newTestEnv(t, false)

	code := env.run("create", "--owner", "acme", "--repo", "my-cool_tool",
		"--ci-workflows", "CI", "--ci-workflows", "Lint")
	require.Equal(t, errors.ExitOK, code, env.out.String())

	out := env.out.String()
	assert.Contains(t, out, "gh CLI found (gh version 2.62.0 (2024-11-14))")
	assert.Contains(t, out, "Logged in to github.com account octo (keyring)")
	assert.NotContains(t, out, "✓")
	assert.Contains(t, out, "TRAFFIC_GIST_ID = badge123")
	assert.Contains(t, out, "Then run: gh secret set TRAFFIC_GIST_TOKEN -R acme/my-cool_tool")
	assert.Contains(t, out, "Setup complete!")
	assert.Contains(t, out, "https://img.shields.io/endpoint?url=https://gist.githubusercontent.com/octo/badge123/raw/installs.json")
	assert.Contains(t, out, "(https://acme.github.io/my-cool_tool/stats/#installs)")

	assert.Len(t, env.gateway.payloads, 2)
	assert.Equal(t, map[string]string{
		VarBadgeGistID:   "badge123",
		VarArchiveGistID: "archive456",
	}, env.gateway.variables)
	assert.Empty(t, env.gateway.secrets)

	project := testutil.ReadJSON(t, filepath.Join(env.repoDir, config.ProjectFileName))
	assert.Equal(t, "acme", project["owner"])
	assert.Equal(t, "my-cool_tool", project["repo"])
	assert.Equal(t, "2024-05-06", project["created"])
	assert.Equal(t, "My Cool Tool", project["display_name"])
	assert.Equal(t, "badge123", project["badge_gist_id"])
	assert.Equal(t, "docs/stats", project["dashboard_dir"])
	assert.Equal(t, []any{"CI", "Lint"}, project["ci_workflows"])

	global := testutil.ReadJSON(t, env.global)
	repos, ok := global["repos"].(map[string]any)
	require.True(t, ok, "global repos = %#v", global["repos"])
	entry, ok := repos["acme/my-cool_tool"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "archive456", entry["archive_gist_id"])
	assert.Equal(t, env.repoDir, entry["repo_dir"])

	// Second run takes owner and repo from .ghtraf.json.
	env.gateway.gists = []gh.GistRef{{ID: "badge2"}, {ID: "archive2"}}
	code = env.run("create", "--skip-variables", "--dry-run")
	require.Equal(t, errors.ExitOK, code, env.out.String())
	assert.Contains(t, env.out.String(), "Owner:        acme")
	assert.Contains(t, env.out.String(), "CI Workflows: CI, Lint")
	assert.Contains(t, env.out.String(), "Step 2/2")
}

func TestCreate_Configure(t *testing.T) {
	env := newTestEnv(t, false)

	require.Equal(t, errors.ExitOK, env.run("init"), env.out.String())

	code := env.run("create", "--owner", "acme", "--repo", "widget", "--created", "2025-03-04",
		"--display-name", "Widget <Pro>", "--ci-workflows", "CI", "--configure", "--skip-variables")
	require.Equal(t, errors.ExitOK, code, env.out.String())
	assert.Contains(t, env.out.String(), "Step 3/3: Configure project files")

	dashboard := testutil.ReadFile(t, env.repoDir, templates.DashboardFile)
	assert.Contains(t, dashboard, "<title>Widget &lt;Pro&gt; - Project Statistics</title>")
	assert.Contains(t, dashboard, "const REPO_OWNER = 'acme'")
	assert.Contains(t, dashboard, "https://gist.githubusercontent.com/octo/badge123/raw")
	assert.Contains(t, dashboard, "'archive456'")

	workflow := testutil.ReadFile(t, env.repoDir, templates.WorkflowFile)
	assert.Contains(t, workflow, `workflows: ["CI"]`)

	readme := testutil.ReadFile(t, env.repoDir, templates.ReadmeFile)
	assert.Contains(t, readme, "[Widget <Pro>](https://github.com/acme/widget)")
	assert.Empty(t, env.gateway.variables)
}

func TestCreate_Interactive(t *testing.T) {
	env := newTestEnv(t, true,
		"acme",      // owner
		"widget",    // repo
		"",          // created: accept detected date
		"",          // display name: accept default
		"CI, Lint",  // CI workflows
		"y",         // proceed
		"ghp_token", // PAT
	)

	code := env.run("create")
	require.Equal(t, errors.ExitOK, code, env.out.String())

	assert.Equal(t, "ghp_token", env.gateway.secrets[config.DefaultGistTokenName])
	assert.Contains(t, env.out.String(), "Secret TRAFFIC_GIST_TOKEN set successfully")

	project := testutil.ReadJSON(t, filepath.Join(env.repoDir, config.ProjectFileName))
	assert.Equal(t, "2024-05-06", project["created"])
	assert.Equal(t, "Widget", project["display_name"])
	assert.Equal(t, []any{"CI", "Lint"}, project["ci_workflows"])

	script := env.prompter.(*prompt.Script)
	assert.Len(t, script.Asked, 7)
}

func TestCreate_InteractiveCancel(t *testing.T) {
	env := newTestEnv(t, true, "", "", "", "n")

	code := env.run("create", "--owner", "acme", "--repo", "widget")
	assert.Equal(t, errors.ExitOK, code)
	assert.Contains(t, env.out.String(), "Setup cancelled.")
	assert.Contains(t, env.out.String(), "--dry-run")
	assert.Empty(t, env.gateway.payloads)
}

func TestCreate_MissingGistScopeDeclined(t *testing.T) {
	env := newTestEnv(t, true, "n")
	env.gateway.noGist = true

	code := env.run("create", "--owner", "acme", "--repo", "widget")
	assert.Equal(t, errors.ExitFailure, code)
	assert.Contains(t, env.out.String(), "may not have 'gist' scope")
	assert.Contains(t, env.out.String(), "gh auth refresh -s gist")
}

func TestCreate_NonInteractiveMissingOwner(t *testing.T) {
	env := newTestEnv(t, false)

	code := env.run("create", "--repo", "widget", "--non-interactive")
	assert.Equal(t, errors.ExitFailure, code)
	assert.Contains(t, env.out.String(), "--owner is required in non-interactive mode")
}

func TestCreate_InvalidDate(t *testing.T) {
	env := newTestEnv(t, false)

	code := env.run("create", "--owner", "acme", "--repo", "widget", "--created", "March 2026")
	assert.Equal(t, errors.ExitFailure, code)
	assert.Contains(t, env.out.String(), "March 2026")
	assert.Empty(t, env.gateway.payloads)
}

func TestCreate_MissingRepoAndVariableFailure(t *testing.T) {
	env := newTestEnv(t, false)
	env.gateway.missing = true
	env.gateway.created = ""
	env.gateway.variableErr = errors.New("HTTP 404")

	code := env.run("create", "--owner", "acme", "--repo", "widget")
	require.Equal(t, errors.ExitOK, code, env.out.String())

	out := env.out.String()
	assert.Contains(t, out, "Repository acme/widget not found on GitHub.")
	assert.Contains(t, out, "Could not set TRAFFIC_GIST_ID")
	assert.Contains(t, out, `gh variable set TRAFFIC_GIST_ID --body "badge123" -R acme/widget`)

	// No detected date falls back to today.
	project := testutil.ReadJSON(t, filepath.Join(env.repoDir, config.ProjectFileName))
	assert.Equal(t, "2026-02-26", project["created"])
}

func TestCreate_GhNotInstalled(t *testing.T) {
	env := newTestEnv(t, false)
	env.gateway.installErr = errors.NewGatewayError("gh --version", errors.ErrGhNotInstalled).
		WithRemedy("Install it from https://cli.github.com")

	code := env.run("create", "--owner", "acme", "--repo", "widget")
	assert.Equal(t, errors.ExitFailure, code)
	assert.Contains(t, env.out.String(), "https://cli.github.com")
}

func TestCreate_Interrupted(t *testing.T) {
	env := newTestEnv(t, true)
	env.app.Prompter = interruptPrompter{}

	code := env.run("create")
	assert.Equal(t, errors.ExitInterrupted, code)
	assert.Contains(t, env.out.String(), "Interrupted.")
}

func TestCreate_InterruptedDuringGatewayCall(t *testing.T) {
	interactiveAnswers := []string{"acme", "widget", "", "", "", "y", "ghp_token"}

	tests := []struct {
		method      string
		interactive bool
	}{
		{"HasGistScope", false},
		{"RepoCreatedDate", false},
		{"RepoExists", false},
		{"SetVariable", false},
		{"SetSecret", true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			var env *testEnv
			args := []string{"create"}
			if tt.interactive {
				env = newTestEnv(t, true, interactiveAnswers...)
			} else {
				env = newTestEnv(t, false)
				args = append(args, "--owner", "acme", "--repo", "widget", "--non-interactive")
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			env.gateway.interruptAt = tt.method
			env.gateway.cancel = cancel

			code := env.runContext(ctx, args...)
			assert.Equal(t, errors.ExitInterrupted, code, env.out.String())
			assert.Contains(t, env.out.String(), "Interrupted.")
			assert.NotContains(t, env.out.String(), "Setup complete!")
			assert.False(t, testutil.FileExists(t, env.repoDir, config.ProjectFileName))
			assert.NoFileExists(t, env.global)
		})
	}
}

func TestCreate_Verbosity(t *testing.T) {
	env := newTestEnv(t, false)

	code := env.run("-QQ", "create", "--owner", "acme", "--repo", "widget", "--created", "2026-01-01", "--dry-run")
	require.Equal(t, errors.ExitOK, code)
	assert.NotContains(t, env.out.String(), "Would create PUBLIC gist")

	code = env.run("create", "--owner", "acme", "--repo", "widget", "--created", "2026-01-01", "--dry-run", "--show", "gist:1")
	require.Equal(t, errors.ExitOK, code)
	assert.Contains(t, env.out.String(), "[gist] Creating public badge gist for acme/widget")
}

func TestInit(t *testing.T) {
	t.Run("copies all files", func(t *testing.T) {
		env := newTestEnv(t, false)

		code := env.run("init")
		require.Equal(t, errors.ExitOK, code, env.out.String())
		for _, f := range templates.Files {
			assert.True(t, testutil.FileExists(t, env.repoDir, f), f)
		}
		assert.Contains(t, env.out.String(), "Copied 4 file(s), skipped 0 file(s).")
		assert.Contains(t, env.out.String(), "ghtraf create --configure")
	})

	t.Run("skip existing keeps customized files", func(t *testing.T) {
		env := newTestEnv(t, false)
		testutil.WriteFile(t, env.repoDir, templates.WorkflowFile, "custom\n")

		code := env.run("init", "--skip-existing")
		require.Equal(t, errors.ExitOK, code, env.out.String())
		assert.Equal(t, "custom\n", testutil.ReadFile(t, env.repoDir, templates.WorkflowFile))
		assert.Contains(t, env.out.String(), "Copied 3 file(s), skipped 1 file(s).")
	})

	t.Run("force overwrites", func(t *testing.T) {
		env := newTestEnv(t, false)
		testutil.WriteFile(t, env.repoDir, templates.WorkflowFile, "custom\n")

		code := env.run("init", "--force")
		require.Equal(t, errors.ExitOK, code, env.out.String())
		assert.NotEqual(t, "custom\n", testutil.ReadFile(t, env.repoDir, templates.WorkflowFile))
	})

	t.Run("force and skip-existing conflict", func(t *testing.T) {
		env := newTestEnv(t, false)

		code := env.run("init", "--force", "--skip-existing")
		assert.Equal(t, errors.ExitFailure, code)
		assert.False(t, testutil.FileExists(t, env.repoDir, templates.DashboardFile))
	})

	t.Run("interactive overwrite prompt", func(t *testing.T) {
		env := newTestEnv(t, true, "Yes")
		testutil.WriteFile(t, env.repoDir, templates.ReadmeFile, "custom\n")

		code := env.run("init")
		require.Equal(t, errors.ExitOK, code, env.out.String())
		assert.NotEqual(t, "custom\n", testutil.ReadFile(t, env.repoDir, templates.ReadmeFile))
		assert.Equal(t, []string{templates.ReadmeFile + " already exists. Overwrite?"}, env.prompter.(*prompt.Script).Asked)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		env := newTestEnv(t, false)

		code := env.run("init", "--dry-run")
		require.Equal(t, errors.ExitOK, code, env.out.String())
		assert.Contains(t, env.out.String(), "Would copy 4 file(s), skip 0 file(s).")
		assert.Equal(t, []string{"README.md"}, testutil.ListFiles(t, env.repoDir))
	})
}

func TestDefaultDisplayName(t *testing.T) {
	tests := map[string]string{
		"widget":       "Widget",
		"my-cool_tool": "My Cool Tool",
		"API-v2":       "Api V2",
		"3d-printer":   "3D Printer",
	}
	for in, want := range tests {
		assert.Equal(t, want, defaultDisplayName(in), in)
	}
}

func TestLoginLine(t *testing.T) {
	status := "github.com\n  ✓ Logged in to github.com account octo (keyring)\n  - Token: gho_****\n"
	assert.Equal(t, "Logged in to github.com account octo (keyring)", loginLine(status))
	assert.Empty(t, loginLine("not logged in"))
}

func TestGistPayloadIsJSON(t *testing.T) {
	env := newTestEnv(t, false)

	require.Equal(t, errors.ExitOK, env.run("create", "--owner", "acme", "--repo", "widget", "--skip-variables"))
	require.Len(t, env.gateway.payloads, 2)
	for _, p := range env.gateway.payloads {
		assert.True(t, json.Valid(p))
	}
}
