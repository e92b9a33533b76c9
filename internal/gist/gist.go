// Package gist creates the two gists that back traffic tracking: a public
// badge gist holding the running state and four shields.io badges, and an
// unlisted archive gist holding monthly snapshots.
package gist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ghtraf/ghtraf/internal/gh"
	"github.com/ghtraf/ghtraf/internal/output"
)

// Placeholder IDs returned in dry-run mode.
const (
	DryRunBadgeID   = "<DRY_RUN_BADGE_GIST_ID>"
	DryRunArchiveID = "<DRY_RUN_ARCHIVE_GIST_ID>"
)

// File names in the badge and archive gists.
const (
	StateFile     = "state.json"
	InstallsFile  = "installs.json"
	DownloadsFile = "downloads.json"
	ClonesFile    = "clones.json"
	ViewsFile     = "views.json"
	ArchiveFile   = "archive.json"
)

// InitialState returns the empty state.json document the workflow starts
// counting from.
func InitialState() map[string]any {
	return map[string]any{
		"totalClones":              0,
		"totalUniqueClones":        0,
		"totalDownloads":           0,
		"totalViews":               0,
		"totalUniqueViews":         0,
		"totalCiCheckouts":         0,
		"totalCiUniqueClones":      0,
		"totalOrganicUniqueClones": 0,
		"previousTotalDownloads":   0,
		"_previousCiUniqueToday":   0,
		"stars":                    0,
		"forks":                    0,
		"openIssues":               0,
		"lastSeenDates":            []string{},
		"lastSeenViewDates":        []string{},
		"dailyHistory":             []any{},
		"ciCheckouts":              map[string]any{},
		"referrers":                []any{},
		"popularPaths":             []any{},
	}
}

// Badge is a shields.io endpoint badge.
type Badge struct {
	SchemaVersion int    `json:"schemaVersion"`
	Label         string `json:"label"`
	Message       string `json:"message"`
	Color         string `json:"color"`
}

// NewBadge returns a zero-count blue badge.
func NewBadge(label string) Badge {
	return Badge{SchemaVersion: 1, Label: label, Message: "0", Color: "blue"}
}

// Archive is the archive.json document.
type Archive struct {
	Repo        string `json:"repo"`
	Description string `json:"description"`
	Archives    []any  `json:"archives"`
}

// Store identifies a created gist.
type Store struct {
	ID      string
	HTMLURL string
}

// Creator posts a gist creation body. *gh.Client implements it.
type Creator interface {
	CreateGist(ctx context.Context, payload []byte) (gh.GistRef, error)
}

type fileContent struct {
	Content string `json:"content"`
}

type createRequest struct {
	Description string                 `json:"description"`
	Public      bool                   `json:"public"`
	Files       map[string]fileContent `json:"files"`
}

// namedFile keeps file order stable for output.
type namedFile struct {
	name    string
	content any
}

// Manager creates the badge and archive gists.
type Manager struct {
	creator Creator
	out     *output.Manager
}

// NewManager returns a Manager posting through creator.
func NewManager(creator Creator, out *output.Manager) *Manager {
	return &Manager{creator: creator, out: out}
}

// badgeFiles returns the badge gist files in creation order.
func badgeFiles() []namedFile {
	return []namedFile{
		{StateFile, InitialState()},
		{InstallsFile, NewBadge("installs")},
		{DownloadsFile, NewBadge("downloads")},
		{ClonesFile, NewBadge("clones")},
		{ViewsFile, NewBadge("views")},
	}
}

// CreateBadgeStore creates the public badge gist for ownerRepo.
func (m *Manager) CreateBadgeStore(ctx context.Context, ownerRepo string, dryRun bool) (Store, error) {
	description := fmt.Sprintf("%s traffic badges", ownerRepo)
	files := badgeFiles()

	if dryRun {
		m.out.Dry(fmt.Sprintf("Would create PUBLIC gist: %q", description))
		m.listFiles(files)
		return Store{ID: DryRunBadgeID}, nil
	}

	m.out.Infof("  Creating gist with %d files...", len(files))
	store, err := m.create(ctx, description, true, files)
	if err != nil {
		return Store{}, fmt.Errorf("failed to create badge gist: %w", err)
	}
	m.out.OK(fmt.Sprintf("Badge gist created: %s", store.ID))
	m.out.Infof("       %s", store.HTMLURL)
	m.out.Emit(output.LevelConfig, output.ChannelGist, "  Badge gist files: state.json, installs.json, downloads.json, clones.json, views.json")
	return store, nil
}

// CreateArchiveStore creates the unlisted archive gist for ownerRepo.
func (m *Manager) CreateArchiveStore(ctx context.Context, ownerRepo string, dryRun bool) (Store, error) {
	description := fmt.Sprintf("%s traffic archive", ownerRepo)
	files := []namedFile{{ArchiveFile, Archive{
		Repo:        ownerRepo,
		Description: fmt.Sprintf("Monthly traffic archive for %s", ownerRepo),
		Archives:    []any{},
	}}}

	if dryRun {
		m.out.Dry(fmt.Sprintf("Would create UNLISTED gist: %q", description))
		m.listFiles(files)
		return Store{ID: DryRunArchiveID}, nil
	}

	m.out.Info("  Creating unlisted gist...")
	store, err := m.create(ctx, description, false, files)
	if err != nil {
		return Store{}, fmt.Errorf("failed to create archive gist: %w", err)
	}
	m.out.OK(fmt.Sprintf("Archive gist created: %s", store.ID))
	return store, nil
}

func (m *Manager) listFiles(files []namedFile) {
	for _, f := range files {
		m.out.Infof("    - %s", f.name)
	}
}

func (m *Manager) create(ctx context.Context, description string, public bool, files []namedFile) (Store, error) {
	payload, err := buildPayload(description, public, files)
	if err != nil {
		return Store{}, err
	}

	m.out.Emit(output.LevelDebug, output.ChannelGist, "  Gist payload: {bytes} bytes", "bytes", len(payload))
	ref, err := m.creator.CreateGist(ctx, payload)
	if err != nil {
		return Store{}, err
	}
	return Store{ID: ref.ID, HTMLURL: ref.HTMLURL}, nil
}

// buildPayload renders a gist creation body. Each file's content is its
// JSON encoding indented by two spaces.
func buildPayload(description string, public bool, files []namedFile) ([]byte, error) {
	req := createRequest{
		Description: description,
		Public:      public,
		Files:       make(map[string]fileContent, len(files)),
	}
	for _, f := range files {
		content, err := json.MarshalIndent(f.content, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f.name, err)
		}
		req.Files[f.name] = fileContent{Content: string(content)}
	}
	return json.Marshal(req)
}
