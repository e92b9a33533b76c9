package config

import "path/filepath"

// ProjectConfig is the content of .ghtraf.json.
type ProjectConfig struct {
	Owner         string   `json:"owner"`
	Repo          string   `json:"repo"`
	Created       string   `json:"created"`
	DisplayName   string   `json:"display_name"`
	BadgeGistID   string   `json:"badge_gist_id"`
	ArchiveGistID string   `json:"archive_gist_id"`
	DashboardDir  string   `json:"dashboard_dir"`
	SchemaVersion int      `json:"schema_version"`
	CIWorkflows   []string `json:"ci_workflows,omitempty"`
}

// SaveProject writes data to dir/.ghtraf.json, replacing whatever was there.
// Callers pass the complete desired state; nothing is merged.
func SaveProject(data any, dir string) (string, error) {
	path := filepath.Join(dir, ProjectFileName)
	if err := writeJSON(path, data); err != nil {
		return "", err
	}
	return path, nil
}
