package output

// Contexts in which a hint may be shown.
const (
	ContextResult  = "result"
	ContextError   = "error"
	ContextVerbose = "verbose"
)

// Hint is a one-shot tip shown after a command does something relevant.
type Hint struct {
	ID       string
	Message  string
	Contexts []string
	MinLevel int
	Category string
}

func (h Hint) appliesTo(context string) bool {
	for _, c := range h.Contexts {
		if c == context {
			return true
		}
	}
	return false
}

// HintRegistry holds the hints known to a process. Create one at startup
// and hand it to the Manager.
type HintRegistry struct {
	hints map[string]Hint
}

// NewHintRegistry returns an empty registry.
func NewHintRegistry() *HintRegistry {
	return &HintRegistry{hints: make(map[string]Hint)}
}

// Register adds hints. A duplicate ID replaces the earlier entry.
func (r *HintRegistry) Register(hints ...Hint) {
	for _, h := range hints {
		r.hints[h.ID] = h
	}
}

// Lookup returns the hint with the given ID.
func (r *HintRegistry) Lookup(id string) (Hint, bool) {
	if r == nil {
		return Hint{}, false
	}
	h, ok := r.hints[id]
	return h, ok
}

// Hint IDs registered by RegisterDomainHints.
const (
	HintDryRun      = "setup.dry_run"
	HintConfigure   = "setup.configure"
	HintRateLimit   = "api.rate_limit"
	HintRemember    = "config.remember"
	HintSeparatePAT = "setup.pat"
)

// RegisterDomainHints registers the hints ghtraf commands fire.
func RegisterDomainHints(r *HintRegistry) {
	r.Register(
		Hint{
			ID:       HintDryRun,
			Message:  "  Tip: Use --dry-run to preview all changes before applying.",
			Contexts: []string{ContextResult},
			MinLevel: LevelDefault,
			Category: "setup",
		},
		Hint{
			ID:       HintConfigure,
			Message:  "  Tip: Re-run with --configure to update dashboard files.",
			Contexts: []string{ContextResult},
			MinLevel: LevelDefault,
			Category: "setup",
		},
		Hint{
			ID:       HintRateLimit,
			Message:  "  Note: GitHub API rate limit is 60/hr unauthenticated, 5,000/hr with token.",
			Contexts: []string{ContextVerbose},
			MinLevel: LevelTiming,
			Category: "api",
		},
		Hint{
			ID:       HintRemember,
			Message:  "  Tip: ghtraf remembers your settings in .ghtraf.json, so future commands need zero flags.",
			Contexts: []string{ContextResult},
			MinLevel: LevelDefault,
			Category: "config",
		},
		Hint{
			ID:       HintSeparatePAT,
			Message:  "  Note: The workflow needs a separate PAT with gist scope (different from your gh CLI token).",
			Contexts: []string{ContextVerbose},
			MinLevel: LevelTiming,
			Category: "setup",
		},
	)
}
