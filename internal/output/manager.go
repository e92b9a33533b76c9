package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
)

// Options configures a Manager.
type Options struct {
	// Verbosity is the global threshold (see Verbosity).
	Verbosity int
	// Specs are the parsed --show values.
	Specs []ChannelSpec
	// Out receives every channel except "error". Defaults to os.Stdout.
	Out io.Writer
	// Err receives the "error" channel. Defaults to os.Stderr.
	Err io.Writer
	// Hints is the registry consulted by Hint. May be nil.
	Hints *HintRegistry
	// Channels is the known channel set. Defaults to DefaultChannels().
	Channels []Channel
	// NoColor disables lipgloss styling of status tags.
	NoColor bool
}

// Manager is the verbosity-gated message router shared by every command.
// It is not safe for concurrent use; ghtraf emits from a single goroutine.
type Manager struct {
	verbosity int
	overrides map[string]int
	out       io.Writer
	errOut    io.Writer
	hints     *HintRegistry
	shown     map[string]bool
	channels  []Channel
	styles    styles
}

// NewManager builds a Manager from opts. It fails only on an invalid glob
// pattern in opts.Specs.
func NewManager(opts Options) (*Manager, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Channels == nil {
		opts.Channels = DefaultChannels()
	}

	overrides, err := resolveOverrides(opts.Channels, opts.Specs)
	if err != nil {
		return nil, err
	}

	return &Manager{
		verbosity: opts.Verbosity,
		overrides: overrides,
		out:       opts.Out,
		errOut:    opts.Err,
		hints:     opts.Hints,
		shown:     make(map[string]bool),
		channels:  opts.Channels,
		styles:    newStyles(opts.Out, opts.NoColor),
	}, nil
}

// Discard returns a Manager that prints nothing. Useful in tests.
func Discard() *Manager {
	m, _ := NewManager(Options{Verbosity: LevelWall, Out: io.Discard, Err: io.Discard, NoColor: true})
	return m
}

// Threshold returns the effective threshold for a channel.
func (m *Manager) Threshold(channel string) int {
	if t, ok := m.overrides[channel]; ok {
		return t
	}
	return m.verbosity
}

// Enabled reports whether a message at level on channel would be shown.
func (m *Manager) Enabled(level int, channel string) bool {
	if m.verbosity <= LevelWall {
		return false
	}
	threshold := m.Threshold(channel)
	if threshold <= LevelWall {
		return false
	}
	return level <= threshold
}

// Emit renders message with {name} placeholders taken from the alternating
// key/value pairs in kv, and prints it if level passes the channel threshold.
func (m *Manager) Emit(level int, channel, message string, kv ...any) {
	if !m.Enabled(level, channel) {
		return
	}
	m.writeLine(channel, Render(message, kv...))
}

// Hint shows a registered hint once per Manager. Unknown IDs, hints already
// shown, and contexts the hint does not apply to are silently ignored.
func (m *Manager) Hint(id, context string, kv ...any) {
	if m.shown[id] {
		return
	}
	h, ok := m.hints.Lookup(id)
	if !ok || !h.appliesTo(context) {
		return
	}
	if !m.Enabled(h.MinLevel, ChannelHint) {
		return
	}

	m.writeLine(ChannelHint, Render(h.Message, kv...))
	m.shown[id] = true
}

// ShownHints returns the IDs of hints displayed so far, sorted.
func (m *Manager) ShownHints() []string {
	ids := make([]string, 0, len(m.shown))
	for id := range m.shown {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Error prints an error line on the error stream. Only the hard wall hides it.
func (m *Manager) Error(message string, kv ...any) {
	if !m.Enabled(LevelError, ChannelError) {
		return
	}
	m.writeLine(ChannelError, "  "+m.styles.tag(m.styles.err, "ERROR:")+" "+Render(message, kv...))
}

// ChannelList returns the rendered --channels table.
func (m *Manager) ChannelList() string {
	return FormatChannelList(m.channels)
}

func (m *Manager) writeLine(channel, text string) {
	w := m.out
	if channel == ChannelError {
		w = m.errOut
	}
	fmt.Fprintln(w, text)
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render substitutes {name} placeholders from alternating key/value pairs.
// Placeholders with no matching key are left as written.
func Render(message string, kv ...any) string {
	if len(kv) < 2 {
		return message
	}

	values := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		values[key] = kv[i+1]
	}

	return placeholderRe.ReplaceAllStringFunc(message, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := values[name]; ok {
			return fmt.Sprint(v)
		}
		return match
	})
}
