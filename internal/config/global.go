package config

import (
	"os"
	"path/filepath"
)

// RepoEntry holds the fields recorded for one repository in the global file.
// Empty fields are not written, so registering a second time only updates
// what was supplied.
type RepoEntry struct {
	BadgeGistID   string
	ArchiveGistID string
	RepoDir       string
	DisplayName   string
	Created       string
}

func (e RepoEntry) fields() map[string]string {
	return map[string]string{
		"badge_gist_id":   e.BadgeGistID,
		"archive_gist_id": e.ArchiveGistID,
		"repo_dir":        e.RepoDir,
		"display_name":    e.DisplayName,
		"created":         e.Created,
	}
}

// DefaultGlobalPath returns ~/.ghtraf/config.json. If the home directory
// cannot be determined it falls back to a path relative to the cwd.
func DefaultGlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(GlobalDirName, GlobalFileName)
	}
	return filepath.Join(home, GlobalDirName, GlobalFileName)
}

// GlobalPath returns override when set, else DefaultGlobalPath.
func GlobalPath(override string) string {
	if override != "" {
		return override
	}
	return DefaultGlobalPath()
}

// RepoKey builds the global file key for a repository. Case is preserved:
// "Acme/Widget" and "acme/widget" are different entries.
func RepoKey(owner, repo string) string {
	return owner + "/" + repo
}

// RegisterRepoGlobally merges entry into repos["owner/repo"] of the global
// file at path. Unknown keys already present in the file are kept.
func RegisterRepoGlobally(path, owner, repo string, entry RepoEntry) error {
	data := LoadJSON(path)

	if _, ok := data["version"]; !ok {
		data["version"] = SchemaVersion
	}

	repos, ok := data["repos"].(map[string]any)
	if !ok {
		repos = map[string]any{}
		data["repos"] = repos
	}

	key := RepoKey(owner, repo)
	existing, ok := repos[key].(map[string]any)
	if !ok {
		existing = map[string]any{}
	}

	for k, v := range entry.fields() {
		if v != "" {
			existing[k] = v
		}
	}
	repos[key] = existing

	return writeJSON(path, data)
}
