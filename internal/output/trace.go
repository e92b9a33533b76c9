package output

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ghtraf/ghtraf/internal/util"
)

const traceMaxLen = 50

// Trace prints an entry line for fn on the trace channel and returns a func
// that prints the exit line. It is meant to be deferred:
//
//	defer out.Trace("config.Resolve", "keys", keys)()
//
// Passing results to the returned func reports them; a non-nil error as the
// last result is reported as a failure. Both lines are emitted at
// LevelDebug, so tracing shows with -vvv or --show trace:3.
func (m *Manager) Trace(fn string, kv ...any) func(results ...any) {
	if !m.Enabled(LevelDebug, ChannelTrace) {
		return func(...any) {}
	}

	m.writeLine(ChannelTrace, fmt.Sprintf("[TRACE] >> %s(%s)", fn, formatTraceArgs(kv)))

	return func(results ...any) {
		if len(results) == 0 {
			return
		}
		if err, ok := results[len(results)-1].(error); ok && err != nil {
			m.writeLine(ChannelTrace, fmt.Sprintf("[TRACE] !! %s failed: %v", fn, err))
			return
		}

		vals := make([]string, 0, len(results))
		for _, r := range results {
			vals = append(vals, traceRepr(r))
		}
		m.writeLine(ChannelTrace, fmt.Sprintf("[TRACE] << %s returned: %s", fn, strings.Join(vals, ", ")))
	}
}

func formatTraceArgs(kv []any) string {
	parts := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%s", kv[i], traceRepr(kv[i+1])))
	}
	return strings.Join(parts, ", ")
}

// traceRepr shortens long strings and collections so trace lines stay on
// one screen line.
func traceRepr(v any) string {
	if v == nil {
		return "nil"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", util.TruncateString(s, traceMaxLen))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		if rv.Len() > 3 {
			return fmt.Sprintf("[...%d items...]", rv.Len())
		}
	}
	return fmt.Sprintf("%v", v)
}
