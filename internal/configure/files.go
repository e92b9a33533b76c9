package configure

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ghtraf/ghtraf/internal/output"
	"gopkg.in/yaml.v3"
)

// ArchiveSchemaVersion is pinned into the workflow's archive writer.
const ArchiveSchemaVersion = "0.1.0"

// Locations of the configurable files, relative to the repository root.
var (
	WorkflowPath  = filepath.Join(".github", "workflows", "traffic-badges.yml")
	DashboardFile = "index.html"
	ReadmeFile    = "README.md"
)

// Project holds the values written into the files.
type Project struct {
	Owner         string
	Repo          string
	DisplayName   string
	Created       string
	GhUsername    string
	BadgeGistID   string
	ArchiveGistID string
	CIWorkflows   []string
}

// Values returns the template values for p, including the derived
// display_name_html and owner_lower.
func (p Project) Values() Values {
	return Values{
		"owner":             p.Owner,
		"owner_lower":       strings.ToLower(p.Owner),
		"repo":              p.Repo,
		"display_name":      p.DisplayName,
		"display_name_html": html.EscapeString(p.DisplayName),
		"created":           p.Created,
		"gh_username":       p.GhUsername,
		"badge_gist_id":     p.BadgeGistID,
		"archive_gist_id":   p.ArchiveGistID,
		"ci_workflows_json": jsonList(p.CIWorkflows),
		"archive_version":   ArchiveSchemaVersion,
	}
}

// jsonList renders names as a flow-style list: ["CI", "Lint"].
func jsonList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// DashboardRules targets docs/stats/index.html.
func DashboardRules() []Rule {
	return []Rule{
		NewRule(`<title>.*?- Project Statistics</title>`,
			`<title>{display_name_html} - Project Statistics</title>`,
			"HTML title"),
		NewRule(`href="https://github\.com/[^"]+?" class="banner-link"`,
			`href="https://github.com/{owner}/{repo}" class="banner-link"`,
			"Banner link URL"),
		NewRule(`<p class="banner-title">.*?</p>`,
			`<p class="banner-title">{display_name_html}</p>`,
			"Banner title"),
		NewRule(`<a href="https://github\.com/[^"]+?">Repository</a>`,
			`<a href="https://github.com/{owner}/{repo}">Repository</a>`,
			"Footer repo link"),
		NewRule(`<a href="https://github\.com/[^"]+?/releases">Releases</a>`,
			`<a href="https://github.com/{owner}/{repo}/releases">Releases</a>`,
			"Footer releases link"),
		NewRule(`const GIST_RAW_BASE = '[^']+';`,
			`const GIST_RAW_BASE = 'https://gist.githubusercontent.com/{gh_username}/{badge_gist_id}/raw';`,
			"Gist raw base URL"),
		NewRule(`const ARCHIVE_GIST_ID = '[^']+';`,
			`const ARCHIVE_GIST_ID = '{archive_gist_id}';`,
			"Archive gist ID"),
		NewRule(`const REPO_OWNER = '[^']+';`,
			`const REPO_OWNER = '{owner}';`,
			"Repo owner"),
		NewRule(`const REPO_NAME = '[^']+';`,
			`const REPO_NAME = '{repo}';`,
			"Repo name"),
		NewRule(`const REPO_CREATED = '[^']+';`,
			`const REPO_CREATED = '{created}';`,
			"Repo creation date"),
	}
}

// ReadmeRules targets docs/stats/README.md. The dashboard URL uses the
// lower-cased owner, as GitHub Pages hostnames are lower case.
func ReadmeRules() []Rule {
	return []Rule{
		NewRule(`\[.*?\]\(https://github\.com/[^)]+\)\.`,
			`[{display_name}](https://github.com/{owner}/{repo}).`,
			"Project link"),
		NewRule(`\[Badge Gist\]\(https://gist\.github\.com/[^)]+\)`,
			`[Badge Gist](https://gist.github.com/{gh_username}/{badge_gist_id})`,
			"Badge gist link"),
		NewRule(`\*\*https://[^*]+/stats/\*\*`,
			`**https://{owner_lower}.github.io/{repo}/stats/**`,
			"Dashboard URL"),
	}
}

const commentedTrigger = "  # workflow_run:            # Uncomment and set your CI workflow name to run after CI\n" +
	"  #   workflows: [\"CI\"]\n" +
	"  #   types: [completed]\n"

// WorkflowRules targets .github/workflows/traffic-badges.yml. With CI
// workflow names the workflow_run trigger is enabled (uncommenting it if
// needed) and pointed at them; without, an active trigger is commented out.
func WorkflowRules(ciWorkflows []string) []Rule {
	var trigger Rule
	if len(ciWorkflows) > 0 {
		trigger = NewRule(
			`(?m)^  (?:# )?workflow_run:.*\n  #? +workflows: \[.*?\].*\n  #? +types: \[.*?\].*\n`,
			"  workflow_run:\n    workflows: {ci_workflows_json}\n    types: [completed]\n",
			fmt.Sprintf("workflow_run trigger: %s", jsonList(ciWorkflows)),
		)
	} else {
		trigger = NewRule(
			`(?m)^  (?:# )?workflow_run:.*\n  #? +workflows:.*\n  #? +types:.*\n`,
			commentedTrigger,
			"workflow_run trigger: commented out (no CI workflows specified)",
		)
	}

	return []Rule{
		trigger,
		NewRule(`version: "[^"]+",`,
			`version: "{archive_version}",`,
			fmt.Sprintf("Archive version: %s", ArchiveSchemaVersion)),
	}
}

// Configurator applies the per-file rule sets through an Editor.
type Configurator struct {
	Editor Editor
	Out    *output.Manager
}

// New returns a Configurator using a RegexEditor.
func New(out *output.Manager) *Configurator {
	return &Configurator{Editor: NewRegexEditor(out), Out: out}
}

// Dashboard configures the dashboard page at path.
func (c *Configurator) Dashboard(p Project, path string, dryRun bool) (Result, error) {
	c.Out.Infof("  Updating %s...", path)
	return c.Editor.Apply(path, DashboardRules(), p.Values(), dryRun)
}

// Readme configures the dashboard README at path.
func (c *Configurator) Readme(p Project, path string, dryRun bool) (Result, error) {
	c.Out.Infof("  Updating %s...", path)
	return c.Editor.Apply(path, ReadmeRules(), p.Values(), dryRun)
}

// Workflow configures the traffic workflow at path. After a real write the
// file is parsed as YAML; a parse failure is reported as a warning.
func (c *Configurator) Workflow(p Project, path string, dryRun bool) (Result, error) {
	c.Out.Infof("  Updating %s...", path)
	res, err := c.Editor.Apply(path, WorkflowRules(p.CIWorkflows), p.Values(), dryRun)
	if err != nil || !res.Written {
		return res, err
	}

	if err := ValidateYAML(path); err != nil {
		c.Out.Warnf("%s may no longer be valid YAML: %v", path, err)
	}
	return res, nil
}

// ValidateYAML parses the file at path as YAML.
func ValidateYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var node yaml.Node
	return yaml.Unmarshal(data, &node)
}

// Paths returns the three configurable files under repoDir, with the
// dashboard and README under dashboardDir.
func Paths(repoDir, dashboardDir string) (dashboard, readme, workflow string) {
	base := filepath.Join(repoDir, filepath.FromSlash(dashboardDir))
	return filepath.Join(base, DashboardFile),
		filepath.Join(base, ReadmeFile),
		filepath.Join(repoDir, WorkflowPath)
}
