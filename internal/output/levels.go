// Package output routes every user-facing message through a single signed
// verbosity axis.
//
// A message is shown when its level is less than or equal to the threshold of
// the channel it is emitted on. The threshold is the channel's override (from
// --show) when one is set, else the global verbosity. Verbosity -4 is a hard
// wall: nothing is printed at all, whatever the overrides say.
//
//	←── quieter ───────────── default ───────────── louder ──→
//	 -4     -3      -2        -1      0       1      2      3
//	 wall   error   warning   minimal default timing config debug
package output

import "fmt"

// Levels on the verbosity axis.
const (
	LevelWall    = -4
	LevelError   = -3
	LevelWarning = -2
	LevelMinimal = -1
	LevelDefault = 0
	LevelTiming  = 1
	LevelConfig  = 2
	LevelDebug   = 3
)

// LevelName returns the short name of a level, or the number for levels
// outside the axis.
func LevelName(level int) string {
	switch level {
	case LevelWall:
		return "wall"
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelMinimal:
		return "minimal"
	case LevelDefault:
		return "default"
	case LevelTiming:
		return "timing"
	case LevelConfig:
		return "config"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("%d", level)
	}
}

// Verbosity composes the repeat counts of -v and -Q into a level.
// -vv -Q is 1.
func Verbosity(verbose, quiet int) int {
	return verbose - quiet
}
