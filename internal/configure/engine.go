// Package configure fills project values into the deployed dashboard,
// dashboard README, and traffic workflow.
//
// Each file gets a fixed, ordered list of substitution rules. A rule is a
// regular expression plus a replacement template; the first match of the
// pattern is replaced and the rest of the file is left alone. Files are
// treated as opaque text.
package configure

import (
	"fmt"
	"os"
	"regexp"

	"github.com/ghtraf/ghtraf/internal/output"
)

// Rule is one named substitution.
type Rule struct {
	Pattern     *regexp.Regexp
	Template    string
	Description string
}

// NewRule compiles pattern and panics if it is invalid. Rules are package
// data, so a bad pattern is a programming error.
func NewRule(pattern, template, description string) Rule {
	return Rule{
		Pattern:     regexp.MustCompile(pattern),
		Template:    template,
		Description: description,
	}
}

// Values are the named values rule templates draw from.
type Values map[string]string

// Outcome is what happened to a single rule.
type Outcome int

const (
	// OutcomeApplied means the pattern matched and the text changed.
	OutcomeApplied Outcome = iota
	// OutcomeUnchanged means the pattern matched but the file already held
	// the rendered replacement.
	OutcomeUnchanged
	// OutcomeNotFound means the pattern did not match.
	OutcomeNotFound
)

// RuleResult reports one rule.
type RuleResult struct {
	Description string
	Outcome     Outcome
}

// Result summarizes one Apply call.
type Result struct {
	Path    string
	Missing bool
	Written bool
	Rules   []RuleResult
}

// Matched counts rules whose pattern matched and whose replacement changed
// the text. A second Apply with the same values reports zero.
func (r Result) Matched() int {
	return r.count(OutcomeApplied)
}

// Unchanged counts rules that found their target already configured.
func (r Result) Unchanged() int {
	return r.count(OutcomeUnchanged)
}

// NotFound counts rules whose pattern was not in the file.
func (r Result) NotFound() int {
	return r.count(OutcomeNotFound)
}

func (r Result) count(o Outcome) int {
	n := 0
	for _, rr := range r.Rules {
		if rr.Outcome == o {
			n++
		}
	}
	return n
}

// Editor applies rules to a file. RegexEditor is the only implementation;
// a format-aware editor can replace it without touching callers.
type Editor interface {
	Apply(path string, rules []Rule, values Values, dryRun bool) (Result, error)
}

// RegexEditor applies rules as plain text substitutions and reports each
// rule on the output manager.
type RegexEditor struct {
	Out *output.Manager
}

// NewRegexEditor returns a RegexEditor reporting to out.
func NewRegexEditor(out *output.Manager) *RegexEditor {
	return &RegexEditor{Out: out}
}

// Apply runs rules in order against the in-memory content of path and
// writes the file once at the end when anything changed. In dry-run mode
// nothing is written. A missing file is reported as a warning and is not an
// error.
func (e *RegexEditor) Apply(path string, rules []Rule, values Values, dryRun bool) (Result, error) {
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			e.Out.Warnf("File not found: %s", path)
			res.Missing = true
			return res, nil
		}
		return res, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(data)
	for _, rule := range rules {
		loc := rule.Pattern.FindStringIndex(content)
		if loc == nil {
			e.Out.Skip(fmt.Sprintf("%s (pattern not found)", rule.Description))
			res.Rules = append(res.Rules, RuleResult{rule.Description, OutcomeNotFound})
			continue
		}

		replacement := Render(rule.Template, values)
		if content[loc[0]:loc[1]] == replacement {
			e.Out.Skip(fmt.Sprintf("%s (already configured)", rule.Description))
			res.Rules = append(res.Rules, RuleResult{rule.Description, OutcomeUnchanged})
			continue
		}

		content = content[:loc[0]] + replacement + content[loc[1]:]
		res.Rules = append(res.Rules, RuleResult{rule.Description, OutcomeApplied})
		if dryRun {
			e.Out.Dry(rule.Description)
		} else {
			e.Out.OK(rule.Description)
		}
	}

	if dryRun || content == string(data) {
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", path, err)
	}
	res.Written = true
	return res, nil
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render replaces {name} placeholders in tmpl with values. Unknown names are
// left as written.
func Render(tmpl string, values Values) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		if v, ok := values[match[1:len(match)-1]]; ok {
			return v
		}
		return match
	})
}
