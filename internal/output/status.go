package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	okColor    = lipgloss.Color("#10B981") // Green
	dryColor   = lipgloss.Color("#60A5FA") // Blue
	warnColor  = lipgloss.Color("#F59E0B") // Amber
	errColor   = lipgloss.Color("#F87171") // Red
	mutedColor = lipgloss.Color("#9CA3AF") // Gray
	titleColor = lipgloss.Color("#A78BFA") // Purple
)

type styles struct {
	noColor bool
	ok      lipgloss.Style
	dry     lipgloss.Style
	warn    lipgloss.Style
	skip    lipgloss.Style
	err     lipgloss.Style
	step    lipgloss.Style
	title   lipgloss.Style
}

// newStyles binds the styles to a renderer for w, so color is only emitted
// when w is a terminal that supports it.
func newStyles(w io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		noColor: noColor,
		ok:      r.NewStyle().Foreground(okColor).Bold(true),
		dry:     r.NewStyle().Foreground(dryColor).Bold(true),
		warn:    r.NewStyle().Foreground(warnColor).Bold(true),
		skip:    r.NewStyle().Foreground(mutedColor),
		err:     r.NewStyle().Foreground(errColor).Bold(true),
		step:    r.NewStyle().Bold(true),
		title:   r.NewStyle().Foreground(titleColor).Bold(true),
	}
}

func (s styles) tag(style lipgloss.Style, text string) string {
	if s.noColor {
		return text
	}
	return style.Render(text)
}

// Status tags. They are fixed strings so output can be grepped.
const (
	TagOK   = "[OK]"
	TagDry  = "[DRY RUN]"
	TagSkip = "[SKIP]"
	TagWarn = "[WARN]"
)

// OK reports a completed action.
func (m *Manager) OK(msg string) {
	m.status(LevelMinimal, m.styles.ok, TagOK, msg)
}

// Dry reports an action that dry-run mode skipped.
func (m *Manager) Dry(msg string) {
	m.status(LevelMinimal, m.styles.dry, TagDry, msg)
}

// Skip reports an action deliberately not taken.
func (m *Manager) Skip(msg string) {
	m.status(LevelMinimal, m.styles.skip, TagSkip, msg)
}

// Warn reports a problem that does not stop the command.
func (m *Manager) Warn(msg string) {
	m.status(LevelWarning, m.styles.warn, TagWarn, msg)
}

// Warnf is Warn with fmt formatting.
func (m *Manager) Warnf(format string, args ...any) {
	m.Warn(fmt.Sprintf(format, args...))
}

func (m *Manager) status(level int, style lipgloss.Style, tag, msg string) {
	if !m.Enabled(level, ChannelGeneral) {
		return
	}
	m.writeLine(ChannelGeneral, "  "+m.styles.tag(style, tag)+" "+msg)
}

// Step prints a numbered step header preceded by a blank line.
func (m *Manager) Step(n, total int, msg string) {
	if !m.Enabled(LevelMinimal, ChannelGeneral) {
		return
	}
	m.writeLine(ChannelGeneral, "\n"+m.styles.tag(m.styles.step, fmt.Sprintf("== Step %d/%d: %s ==", n, total, msg)))
}

// Info prints a plain line at the minimal level. An empty msg prints a
// blank line.
func (m *Manager) Info(msg string) {
	if !m.Enabled(LevelMinimal, ChannelGeneral) {
		return
	}
	m.writeLine(ChannelGeneral, msg)
}

// Infof is Info with fmt formatting.
func (m *Manager) Infof(format string, args ...any) {
	m.Info(fmt.Sprintf(format, args...))
}

// Banner prints a title underlined with '=' preceded by a blank line.
func (m *Manager) Banner(title string) {
	if !m.Enabled(LevelMinimal, ChannelGeneral) {
		return
	}
	m.writeLine(ChannelGeneral, "")
	m.writeLine(ChannelGeneral, m.styles.tag(m.styles.title, title))
	m.writeLine(ChannelGeneral, strings.Repeat("=", 40))
}
