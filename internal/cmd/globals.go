package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// GlobalFlags are the flags accepted anywhere on the command line, before
// or after the subcommand.
type GlobalFlags struct {
	Verbose  int
	Quiet    int
	Show     []string
	Channels bool
	NoColor  bool
	Config   string
}

// globalFlag describes one global flag: the field it sets and how many
// values it consumes.
type globalFlag struct {
	name  string
	arity int
}

// globalGrammar maps every spelling of a global flag to its definition.
var globalGrammar = map[string]globalFlag{
	"-v":         {"verbose", 0},
	"--verbose":  {"verbose", 0},
	"-Q":         {"quiet", 0},
	"--quiet":    {"quiet", 0},
	"--show":     {"show", 1},
	"--channels": {"channels", 0},
	"--no-color": {"no-color", 0},
	"--config":   {"config", 1},
}

// clusterLetters are the short flags that may be combined, as in -vv or -QQ.
const clusterLetters = "vQ"

// ExtractGlobalFlags removes the global flags from argv and returns them
// with the remaining arguments in order. Scanning stops at "--"; it and
// everything after it are passed through untouched.
//
// Switches also take an inline boolean (--no-color=false) and counters an
// inline count (--verbose=2).
func ExtractGlobalFlags(argv []string) (GlobalFlags, []string, error) {
	var g GlobalFlags
	rest := make([]string, 0, len(argv))

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			rest = append(rest, argv[i:]...)
			break
		}

		if n, ok := cluster(arg); ok {
			g.Verbose += strings.Count(n, "v")
			g.Quiet += strings.Count(n, "Q")
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		def, ok := globalGrammar[name]
		if !ok {
			rest = append(rest, arg)
			continue
		}

		if def.arity == 1 && !hasValue {
			if i+1 >= len(argv) {
				return g, nil, fmt.Errorf("flag %s requires a value", name)
			}
			i++
			value = argv[i]
		}
		if err := g.set(def.name, value, hasValue); err != nil {
			return g, nil, fmt.Errorf("invalid value %q for flag %s", value, name)
		}
	}

	return g, rest, nil
}

// cluster reports whether arg is a run of clusterLetters after a single
// dash, returning the letters.
func cluster(arg string) (string, bool) {
	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return "", false
	}
	letters := arg[1:]
	for _, r := range letters {
		if !strings.ContainsRune(clusterLetters, r) {
			return "", false
		}
	}
	return letters, true
}

func (g *GlobalFlags) set(name, value string, hasValue bool) error {
	switch name {
	case "verbose", "quiet":
		n := 1
		if hasValue {
			var err error
			if n, err = strconv.Atoi(value); err != nil {
				return err
			}
			if n < 0 {
				return strconv.ErrRange
			}
		}
		if name == "verbose" {
			g.Verbose += n
		} else {
			g.Quiet += n
		}
	case "channels", "no-color":
		on := true
		if hasValue {
			var err error
			if on, err = strconv.ParseBool(value); err != nil {
				return err
			}
		}
		if name == "channels" {
			g.Channels = on
		} else {
			g.NoColor = on
		}
	case "show":
		g.Show = append(g.Show, value)
	case "config":
		g.Config = value
	}
	return nil
}
