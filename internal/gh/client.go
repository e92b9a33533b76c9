// Package gh wraps the GitHub CLI. Every ghtraf operation that touches
// GitHub goes through a Client, which shells out to gh and classifies its
// failures into the errors package taxonomy.
package gh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ghtraf/ghtraf/internal/errors"
	"github.com/ghtraf/ghtraf/internal/logging"
	"github.com/ghtraf/ghtraf/internal/output"
	"github.com/ghtraf/ghtraf/internal/util"
)

// Binary is the executable every command runs.
const Binary = "gh"

// maxLoggedStderr caps the gh stderr recorded in the debug log.
const maxLoggedStderr = 500

// InstallHelp is shown when gh is not on PATH.
const InstallHelp = `Install it from: https://cli.github.com
  Or via package manager:
    Windows:  winget install GitHub.cli
    macOS:    brew install gh
    Linux:    See https://github.com/cli/cli/blob/trunk/docs/install_linux.md`

// CommandExecutor runs a command with optional stdin and returns its stdout
// and stderr. This allows for dependency injection in tests.
type CommandExecutor func(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)

// defaultExecutor runs commands using os/exec.
var defaultExecutor CommandExecutor = func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Client runs gh commands.
type Client struct {
	executor CommandExecutor
	logger   *logging.Logger
	out      *output.Manager
}

// NewClient creates a Client using the default command executor.
func NewClient(logger *logging.Logger, out *output.Manager) *Client {
	return NewClientWithExecutor(defaultExecutor, logger, out)
}

// NewClientWithExecutor creates a Client with a custom command executor for
// testing.
func NewClientWithExecutor(executor CommandExecutor, logger *logging.Logger, out *output.Manager) *Client {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if out == nil {
		out = output.Discard()
	}
	return &Client{executor: executor, logger: logger, out: out}
}

// result is one finished gh invocation.
type result struct {
	stdout []byte
	stderr []byte
	err    error
}

// run executes gh with args. Secrets must only ever be passed via stdin;
// args are logged.
func (c *Client) run(ctx context.Context, stdin []byte, args ...string) result {
	c.out.Emit(output.LevelDebug, output.ChannelAPI, "  gh {args}", "args", strings.Join(args, " "))

	start := time.Now()
	stdout, stderr, err := c.executor(ctx, stdin, Binary, args...)

	attrs := []any{
		"args", args,
		"stdin_bytes", len(stdin),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error(), "stderr", util.TruncateString(strings.TrimSpace(string(stderr)), maxLoggedStderr))
		c.logger.Warn("gh command failed", attrs...)
	} else {
		c.logger.Debug("gh command", attrs...)
	}

	return result{stdout: stdout, stderr: stderr, err: err}
}

// describe returns the first three args, which identify a command without
// exposing values passed after them.
func describe(args []string) string {
	if len(args) > 3 {
		args = args[:3]
	}
	return strings.Join(args, " ")
}

// classifyError maps a failed invocation to a GatewayError wrapping one of
// the gateway sentinels where one applies.
func classifyError(ctx context.Context, args []string, r result) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var execErr *exec.Error
	if errors.As(r.err, &execErr) {
		return errors.NewGatewayError("gh CLI not found", errors.ErrGhNotInstalled).
			WithCommand(describe(args)).
			WithRemedy(InstallHelp)
	}

	errStr := strings.ToLower(string(r.stderr))
	switch {
	case strings.Contains(errStr, "not logged in") ||
		strings.Contains(errStr, "authentication required") ||
		strings.Contains(errStr, "gh auth login"):
		return errors.NewGatewayError("not authenticated", errors.ErrNotAuthenticated).
			WithCommand(describe(args)).
			WithStderr(string(r.stderr)).
			WithRemedy("gh auth login")

	case strings.Contains(errStr, "http 404") || strings.Contains(errStr, "not found"):
		return errors.NewGatewayError("resource not found", errors.ErrNotFound).
			WithCommand(describe(args)).
			WithStderr(string(r.stderr))
	}

	return errors.NewGatewayError("command failed", r.err).
		WithCommand(describe(args)).
		WithStderr(string(r.stderr))
}

// CheckInstalled verifies gh is on PATH and returns the first line of
// gh --version.
func (c *Client) CheckInstalled(ctx context.Context) (string, error) {
	defer c.out.Trace("gh.CheckInstalled")()

	args := []string{"--version"}
	r := c.run(ctx, nil, args...)
	if r.err != nil {
		return "", classifyError(ctx, args, r)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(r.stdout)), "\n")
	return line, nil
}

// CheckAuthenticated verifies gh has a logged-in account and returns the
// combined gh auth status output.
func (c *Client) CheckAuthenticated(ctx context.Context) (string, error) {
	args := []string{"auth", "status"}
	r := c.run(ctx, nil, args...)
	combined := string(r.stdout) + string(r.stderr)
	if r.err != nil {
		if err := classifyError(ctx, args, r); errors.Is(err, errors.ErrGhNotInstalled) || errors.IsInterrupt(err) {
			return "", err
		}
		return "", errors.NewGatewayError("not authenticated with GitHub CLI", errors.ErrNotAuthenticated).
			WithCommand(describe(args)).
			WithRemedy("gh auth login")
	}
	return combined, nil
}

// HasGistScope checks the gh token can list gists. Only an HTTP 403 counts
// as missing scope and yields an error wrapping ErrMissingScope; other
// failures are assumed to be transient and pass. A cancelled ctx is
// returned as is.
func (c *Client) HasGistScope(ctx context.Context) error {
	args := []string{"api", "gists", "--method", "GET", "-q", ".[0].id"}
	r := c.run(ctx, nil, args...)
	if r.err == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.Contains(string(r.stderr), "403") {
		return nil
	}
	return errors.NewGatewayError("gh token cannot access gists", errors.ErrMissingScope).
		WithCommand(describe(args)).
		WithStderr(string(r.stderr)).
		WithRemedy("gh auth refresh -s gist")
}

// API runs gh api with args and returns trimmed stdout.
func (c *Client) API(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	full := append([]string{"api"}, args...)
	r := c.run(ctx, stdin, full...)
	if r.err != nil {
		return nil, classifyError(ctx, full, r)
	}
	return bytes.TrimSpace(r.stdout), nil
}

// Username returns the login of the authenticated account.
func (c *Client) Username(ctx context.Context) (string, error) {
	defer c.out.Trace("gh.Username")()

	out, err := c.API(ctx, nil, "user", "--jq", ".login")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// GistRef identifies a created gist.
type GistRef struct {
	ID      string `json:"id"`
	HTMLURL string `json:"html_url"`
}

// CreateGist posts payload, a JSON gist creation body, to the gists API.
func (c *Client) CreateGist(ctx context.Context, payload []byte) (GistRef, error) {
	out, err := c.API(ctx, payload, "gists", "--method", "POST", "--input", "-")
	if err != nil {
		return GistRef{}, err
	}

	var ref GistRef
	if err := json.Unmarshal(out, &ref); err != nil {
		return GistRef{}, errors.NewGatewayError("unexpected gist API response", err).
			WithCommand("api gists --method")
	}
	if ref.ID == "" {
		return GistRef{}, errors.NewGatewayError("gist API response has no id", nil).
			WithCommand("api gists --method")
	}
	return ref, nil
}

// SetVariable sets a repository Actions variable.
func (c *Client) SetVariable(ctx context.Context, name, value, ownerRepo string) error {
	args := []string{"variable", "set", name, "--body", value, "-R", ownerRepo}
	r := c.run(ctx, nil, args...)
	if r.err != nil {
		return classifyError(ctx, args, r)
	}
	return nil
}

// SetSecret sets a repository Actions secret. The value is passed on stdin
// so it never appears in a process listing or the debug log.
func (c *Client) SetSecret(ctx context.Context, name, value, ownerRepo string) error {
	args := []string{"secret", "set", name, "-R", ownerRepo}
	r := c.run(ctx, []byte(value), args...)
	if r.err != nil {
		return classifyError(ctx, args, r)
	}
	return nil
}

// RepoExists returns the full name of ownerRepo. It fails when the
// repository does not exist or is not visible to the account.
func (c *Client) RepoExists(ctx context.Context, ownerRepo string) (string, error) {
	out, err := c.API(ctx, nil, fmt.Sprintf("repos/%s", ownerRepo), "--jq", ".full_name")
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", errors.NewGatewayError("empty repository name", errors.ErrNotFound).
			WithCommand("api repos/" + ownerRepo)
	}
	return string(out), nil
}

// RepoCreatedDate returns the YYYY-MM-DD creation date of ownerRepo.
func (c *Client) RepoCreatedDate(ctx context.Context, ownerRepo string) (string, error) {
	out, err := c.API(ctx, nil, fmt.Sprintf("repos/%s", ownerRepo), "--jq", ".created_at")
	if err != nil {
		return "", err
	}
	raw := string(out)
	if len(raw) < 10 || raw[4] != '-' || raw[7] != '-' {
		return "", errors.NewGatewayError(fmt.Sprintf("unexpected created_at %q", raw), nil).
			WithCommand("api repos/" + ownerRepo)
	}
	return raw[:10], nil
}
