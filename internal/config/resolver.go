package config

import (
	"fmt"
	"strings"
)

// Keys understood by the resolver.
const (
	KeyOwner         = "owner"
	KeyRepo          = "repo"
	KeyRepoDir       = "repo_dir"
	KeyCreated       = "created"
	KeyDisplayName   = "display_name"
	KeyCIWorkflows   = "ci_workflows"
	KeyBadgeGistID   = "badge_gist_id"
	KeyArchiveGistID = "archive_gist_id"
	KeyDashboardDir  = "dashboard_dir"
)

// Values holds explicit command-line values by canonical key. A key that is
// absent, nil, or an empty string was not given on the command line.
type Values map[string]any

// Resolved is the per-key result of Resolve. Keys that no layer supplied
// are absent.
type Resolved map[string]any

// String returns the value of key as a string, or "" when unresolved.
func (r Resolved) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns the value of key as a string slice. ok is false when the
// key is unresolved; a resolved empty list returns a non-nil empty slice.
func (r Resolved) Strings(key string) (list []string, ok bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		return splitList(t), true
	}
	return nil, false
}

// Has reports whether key was resolved from any layer.
func (r Resolved) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Source names the layer a value came from.
type Source string

const (
	SourceCLI     Source = "cli"
	SourceProject Source = "project"
	SourceGlobal  Source = "global"
)

// Resolver merges the command line with the project and global layers.
type Resolver struct {
	ProjectPath string
	GlobalPath  string

	project map[string]any
	global  map[string]any
}

// NewResolver loads the project file found from startDir and the global
// file at globalPath. Missing or unreadable files become empty layers.
func NewResolver(startDir, globalPath string) *Resolver {
	r := &Resolver{GlobalPath: globalPath, project: map[string]any{}}
	if p, ok := FindProjectFile(startDir); ok {
		r.ProjectPath = p
		r.project = LoadJSON(p)
	}
	r.global = LoadJSON(globalPath)
	return r
}

// Resolve looks up each key independently: CLI, then project, then the
// global entry for owner/repo. The owner/repo used for the global lookup
// comes from the CLI when given, else from the project file.
func (r *Resolver) Resolve(cli Values, keys ...string) Resolved {
	resolved, _ := r.ResolveWithSources(cli, keys...)
	return resolved
}

// ResolveWithSources is Resolve plus the layer each key was found in.
func (r *Resolver) ResolveWithSources(cli Values, keys ...string) (Resolved, map[string]Source) {
	out := Resolved{}
	sources := map[string]Source{}
	entry := r.globalEntry(cli)

	for _, key := range keys {
		if v, ok := cli[key]; ok && !unset(v) {
			out[key] = v
			sources[key] = SourceCLI
			continue
		}
		if v, ok := lookup(r.project, key); ok {
			out[key] = v
			sources[key] = SourceProject
			continue
		}
		if v, ok := lookup(entry, key); ok {
			out[key] = v
			sources[key] = SourceGlobal
		}
	}
	return out, sources
}

func (r *Resolver) globalEntry(cli Values) map[string]any {
	owner := stringOf(cli[KeyOwner])
	if owner == "" {
		owner, _ = lookupString(r.project, KeyOwner)
	}
	repo := stringOf(cli[KeyRepo])
	if repo == "" {
		repo, _ = lookupString(r.project, KeyRepo)
	}
	if owner == "" || repo == "" {
		return nil
	}

	repos, ok := r.global["repos"].(map[string]any)
	if !ok {
		return nil
	}
	entry, _ := repos[RepoKey(owner, repo)].(map[string]any)
	return entry
}

// lookup finds key in layer under its snake_case or hyphenated spelling.
// Null and empty-string values count as unset.
func lookup(layer map[string]any, key string) (any, bool) {
	if layer == nil {
		return nil, false
	}
	for _, k := range spellings(key) {
		if v, ok := layer[k]; ok && !unset(v) {
			return v, true
		}
	}
	return nil, false
}

// unset reports whether v counts as not given. An empty list is a value.
func unset(v any) bool {
	if v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}

func lookupString(layer map[string]any, key string) (string, bool) {
	v, ok := lookup(layer, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func spellings(key string) []string {
	hyphen := strings.ReplaceAll(key, "_", "-")
	if hyphen == key {
		return []string{key}
	}
	return []string{key, hyphen}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
