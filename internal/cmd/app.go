// Package cmd implements the ghtraf command line: a first pass that pulls
// global flags from anywhere in argv, and a cobra command tree for the
// subcommands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ghtraf/ghtraf/internal/config"
	"github.com/ghtraf/ghtraf/internal/errors"
	"github.com/ghtraf/ghtraf/internal/gh"
	"github.com/ghtraf/ghtraf/internal/logging"
	"github.com/ghtraf/ghtraf/internal/output"
	"github.com/ghtraf/ghtraf/internal/prompt"
	"github.com/ghtraf/ghtraf/internal/util"
)

// Gateway is the subset of the gh client the commands use.
type Gateway interface {
	CheckInstalled(ctx context.Context) (string, error)
	CheckAuthenticated(ctx context.Context) (string, error)
	HasGistScope(ctx context.Context) error
	Username(ctx context.Context) (string, error)
	CreateGist(ctx context.Context, payload []byte) (gh.GistRef, error)
	SetVariable(ctx context.Context, name, value, ownerRepo string) error
	SetSecret(ctx context.Context, name, value, ownerRepo string) error
	RepoExists(ctx context.Context, ownerRepo string) (string, error)
	RepoCreatedDate(ctx context.Context, ownerRepo string) (string, error)
}

// App holds the process dependencies. Tests replace them with fakes.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	// NewGateway builds the gh gateway once logging and output are set up.
	NewGateway func(logger *logging.Logger, out *output.Manager) Gateway
	Prompter   prompt.Prompter
	// Interactive reports whether prompting is possible at all.
	Interactive func() bool
	Getwd       func() (string, error)
	Now         func() time.Time
	// GlobalPath is the global settings file used when --config is absent.
	GlobalPath string
}

// NewApp returns an App wired to the real terminal, gh, and filesystem.
func NewApp() *App {
	return &App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewGateway: func(logger *logging.Logger, out *output.Manager) Gateway {
			return gh.NewClient(logger, out)
		},
		Prompter:    prompt.NewSurvey(),
		Interactive: prompt.IsInteractive,
		Getwd:       os.Getwd,
		Now:         time.Now,
		GlobalPath:  config.DefaultGlobalPath(),
	}
}

// runtime is the per-invocation state shared by the subcommands.
type runtime struct {
	app        *App
	globals    GlobalFlags
	out        *output.Manager
	logger     *logging.Logger
	gateway    Gateway
	settings   config.Settings
	globalPath string
}

// Execute runs ghtraf with argv (without the program name) and returns the
// process exit code.
func (a *App) Execute(ctx context.Context, argv []string) int {
	globals, rest, err := ExtractGlobalFlags(argv)
	if err != nil {
		fmt.Fprintf(a.Stderr, "  ERROR: %v\n", err)
		return errors.ExitFailure
	}

	rt, err := a.newRuntime(globals)
	if err != nil {
		fmt.Fprintf(a.Stderr, "  ERROR: %v\n", err)
		return errors.ExitFailure
	}
	defer func() { _ = rt.logger.Close() }()

	if globals.Channels {
		fmt.Fprint(a.Stdout, rt.out.ChannelList())
		return errors.ExitOK
	}

	root := newRootCmd(rt)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	if len(rest) == 0 {
		_ = root.Help()
		return errors.ExitOK
	}
	root.SetArgs(rest)

	err = root.ExecuteContext(ctx)
	return rt.report(root.UsageString(), err)
}

// newRuntime loads settings and builds the output manager and logger.
func (a *App) newRuntime(globals GlobalFlags) (*runtime, error) {
	globalPath := a.GlobalPath
	if globals.Config != "" {
		globalPath = globals.Config
	}

	settings, settingsErr := config.LoadSettings(globalPath)

	specs, err := output.ParseChannelSpecs(globals.Show)
	if err != nil {
		return nil, err
	}

	hints := output.NewHintRegistry()
	output.RegisterDomainHints(hints)

	out, err := output.NewManager(output.Options{
		Verbosity: settings.Verbosity + output.Verbosity(globals.Verbose, globals.Quiet),
		Specs:     specs,
		Out:       a.Stdout,
		Err:       a.Stderr,
		Hints:     hints,
		NoColor:   globals.NoColor || settings.NoColor,
	})
	if err != nil {
		return nil, err
	}
	if settingsErr != nil {
		out.Warnf("Ignoring invalid settings in %s: %v", globalPath, strings.TrimSpace(settingsErr.Error()))
	}

	logger, err := logging.NewLogger(settings.LogDir, settings.LogLevel)
	if err != nil {
		out.Warnf("Debug log disabled: %v", err)
		logger = logging.NopLogger()
	}

	return &runtime{
		app:        a,
		globals:    globals,
		out:        out,
		logger:     logger,
		gateway:    a.NewGateway(logger, out),
		settings:   settings,
		globalPath: globalPath,
	}, nil
}

// report prints err for the user and maps it to an exit code.
func (rt *runtime) report(usage string, err error) int {
	if err == nil {
		return errors.ExitOK
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" && exitErr.Code != errors.ExitOK {
			rt.out.Error(exitErr.Message)
		}
		return exitErr.Code
	}

	if errors.IsInterrupt(err) {
		fmt.Fprintln(rt.app.Stderr, "\nInterrupted.")
		return errors.ExitInterrupted
	}

	if strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprint(rt.app.Stderr, usage)
	}

	rt.logger.Error("command failed", "error", err.Error())
	rt.out.Error(err.Error())
	if remedy := errors.Remedy(err); remedy != "" {
		fmt.Fprintln(rt.app.Stderr, util.Indent(remedy, "  "))
	}
	return errors.ExitCode(err)
}

// interactive reports whether the command may prompt.
func (rt *runtime) interactive(nonInteractive bool) bool {
	return !nonInteractive && rt.app.Interactive != nil && rt.app.Interactive()
}
