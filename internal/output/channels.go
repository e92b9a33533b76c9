package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

// Channel names used by ghtraf.
const (
	ChannelAPI     = "api"
	ChannelConfig  = "config"
	ChannelGist    = "gist"
	ChannelSetup   = "setup"
	ChannelGeneral = "general"
	ChannelHint    = "hint"
	ChannelError   = "error"
	ChannelTrace   = "trace"
)

// Channel describes a named output category.
type Channel struct {
	Name        string
	Description string
	// OptIn channels stay silent until explicitly raised with --show.
	OptIn bool
}

// DefaultChannels returns the channel set known to ghtraf.
func DefaultChannels() []Channel {
	return []Channel{
		{Name: ChannelAPI, Description: "GitHub API calls and responses"},
		{Name: ChannelConfig, Description: "Configuration loading and resolution"},
		{Name: ChannelGist, Description: "Gist operations (create, read, update)"},
		{Name: ChannelSetup, Description: "Setup and initialization steps"},
		{Name: ChannelGeneral, Description: "General output"},
		{Name: ChannelHint, Description: "Contextual tips and suggestions"},
		{Name: ChannelError, Description: "Error messages"},
		{Name: ChannelTrace, Description: "Function call tracing", OptIn: true},
	}
}

// ChannelSpec is one parsed --show value.
//
// Syntax: NAME[:LEVEL[:DEST[:LOCATION[:FORMAT]]]]. Empty slots are allowed
// ("timing::file:perf.log"). Only Name and Level are acted on; the rest are
// kept so they round-trip. Name may be a glob pattern ("g*").
type ChannelSpec struct {
	Name        string
	Level       int
	Destination string
	Location    string
	Format      string
}

// ParseChannelSpec parses a channel spec string.
func ParseChannelSpec(spec string) (ChannelSpec, error) {
	parts := strings.Split(spec, ":")

	// A Windows drive letter in the location slot ("C:\logs\x.log") splits
	// into two parts; join it back.
	if len(parts) > 4 && len(parts[3]) == 1 && isLetter(parts[3][0]) {
		joined := append([]string{}, parts[:3]...)
		joined = append(joined, parts[3]+":"+parts[4])
		parts = append(joined, parts[5:]...)
	}

	cs := ChannelSpec{Name: strings.TrimSpace(parts[0])}
	if cs.Name == "" {
		return ChannelSpec{}, fmt.Errorf("invalid channel spec %q: missing channel name", spec)
	}
	if len(parts) > 5 {
		return ChannelSpec{}, fmt.Errorf("invalid channel spec %q: too many fields", spec)
	}

	if len(parts) > 1 && parts[1] != "" {
		level, err := strconv.Atoi(parts[1])
		if err != nil {
			return ChannelSpec{}, fmt.Errorf("invalid channel spec %q: level %q is not an integer", spec, parts[1])
		}
		cs.Level = level
	}
	if len(parts) > 2 {
		cs.Destination = parts[2]
	}
	if len(parts) > 3 {
		cs.Location = parts[3]
	}
	if len(parts) > 4 {
		cs.Format = parts[4]
	}
	return cs, nil
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// ParseChannelSpecs parses every spec, stopping at the first invalid one.
func ParseChannelSpecs(specs []string) ([]ChannelSpec, error) {
	out := make([]ChannelSpec, 0, len(specs))
	for _, s := range specs {
		cs, err := ParseChannelSpec(s)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

// resolveOverrides builds the per-channel threshold map. Opt-in channels
// start at LevelMinimal; specs are applied in order, so later specs win.
// A spec whose pattern matches no known channel is stored under its literal
// name.
func resolveOverrides(channels []Channel, specs []ChannelSpec) (map[string]int, error) {
	overrides := make(map[string]int)
	for _, ch := range channels {
		if ch.OptIn {
			overrides[ch.Name] = LevelMinimal
		}
	}

	for _, spec := range specs {
		g, err := glob.Compile(spec.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid channel pattern %q: %w", spec.Name, err)
		}

		matched := false
		for _, ch := range channels {
			if g.Match(ch.Name) {
				overrides[ch.Name] = spec.Level
				matched = true
			}
		}
		if !matched {
			overrides[spec.Name] = spec.Level
		}
	}
	return overrides, nil
}

// FormatChannelList renders the table printed by --channels.
func FormatChannelList(channels []Channel) string {
	sorted := make([]Channel, len(channels))
	copy(sorted, channels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	width := 0
	for _, ch := range sorted {
		if len(ch.Name) > width {
			width = len(ch.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available channels:\n")
	for _, ch := range sorted {
		desc := ch.Description
		if ch.OptIn {
			desc += " (opt-in)"
		}
		fmt.Fprintf(&b, "  %-*s  %s\n", width, ch.Name, desc)
	}
	b.WriteString("\nUse --show NAME:LEVEL to pin a channel, e.g. --show api:1 --show trace:3\n")
	return b.String()
}
