// Package templates ships the dashboard, README, favicon, and workflow
// files that ghtraf deploys into a repository, and copies them into place.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed all:files
var embedded embed.FS

// Repository-relative paths of the shipped files, slash separated.
const (
	WorkflowFile  = ".github/workflows/traffic-badges.yml"
	DashboardFile = "docs/stats/index.html"
	ReadmeFile    = "docs/stats/README.md"
	FaviconFile   = "docs/stats/favicon.svg"
)

// Files lists every shipped file in deployment order.
var Files = []string{
	WorkflowFile,
	DashboardFile,
	ReadmeFile,
	FaviconFile,
}

// FS returns the shipped files rooted at the repository root.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return sub
}
