package config

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/ghtraf/ghtraf/internal/errors"
	"github.com/ghtraf/ghtraf/internal/logging"
	"github.com/spf13/viper"
)

// DefaultGistTokenName is the repository secret the workflow reads its PAT from.
const DefaultGistTokenName = "TRAFFIC_GIST_TOKEN"

// DefaultDashboardDir is where init deploys the dashboard, relative to the repo.
const DefaultDashboardDir = "docs/stats"

// Settings are tool-wide preferences read from the "defaults" section of the
// global file and from GHTRAF_* environment variables.
type Settings struct {
	GistTokenName string
	DashboardDir  string
	Verbosity     int
	NoColor       bool
	LogDir        string
	LogLevel      string
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		GistTokenName: DefaultGistTokenName,
		DashboardDir:  DefaultDashboardDir,
		LogLevel:      logging.LevelDebug,
	}
}

var settingsEnv = map[string]string{
	"defaults.gist_token_name": "GHTRAF_GIST_TOKEN_NAME",
	"defaults.dashboard_dir":   "GHTRAF_DASHBOARD_DIR",
	"defaults.verbosity":       "GHTRAF_VERBOSITY",
	"defaults.no_color":        "GHTRAF_NO_COLOR",
	"defaults.log_dir":         "GHTRAF_LOG_DIR",
	"defaults.log_level":       "GHTRAF_LOG_LEVEL",
}

// LoadSettings reads Settings with viper. The global file is only read here;
// writes go through RegisterRepoGlobally and SetSetting, which preserve key
// case.
// A missing or malformed file leaves the defaults in place.
func LoadSettings(globalPath string) (Settings, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("defaults.gist_token_name", defaults.GistTokenName)
	v.SetDefault("defaults.dashboard_dir", defaults.DashboardDir)
	v.SetDefault("defaults.verbosity", defaults.Verbosity)
	v.SetDefault("defaults.no_color", defaults.NoColor)
	v.SetDefault("defaults.log_dir", defaults.LogDir)
	v.SetDefault("defaults.log_level", defaults.LogLevel)

	for key, env := range settingsEnv {
		if err := v.BindEnv(key, env); err != nil {
			return defaults, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if globalPath != "" {
		v.SetConfigFile(globalPath)
		v.SetConfigType("json")
		// Read errors (missing file, bad JSON) leave the defaults in place.
		_ = v.ReadInConfig()
	}

	s := Settings{
		GistTokenName: v.GetString("defaults.gist_token_name"),
		DashboardDir:  v.GetString("defaults.dashboard_dir"),
		Verbosity:     v.GetInt("defaults.verbosity"),
		NoColor:       v.GetBool("defaults.no_color"),
		LogDir:        v.GetString("defaults.log_dir"),
		LogLevel:      v.GetString("defaults.log_level"),
	}

	if errs := s.Validate(); len(errs) > 0 {
		return defaults, SettingsErrors(errs)
	}
	return s, nil
}

// SettingsError is a single invalid setting.
type SettingsError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e SettingsError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// SettingsErrors collects every invalid setting.
type SettingsErrors []SettingsError

// Error implements the error interface.
func (e SettingsErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d invalid settings:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate reports every invalid field.
func (s Settings) Validate() []SettingsError {
	var errs []SettingsError

	if strings.TrimSpace(s.GistTokenName) == "" {
		errs = append(errs, SettingsError{
			Field:   "defaults.gist_token_name",
			Value:   s.GistTokenName,
			Message: "must not be empty",
		})
	}
	if s.Verbosity < -4 || s.Verbosity > 3 {
		errs = append(errs, SettingsError{
			Field:   "defaults.verbosity",
			Value:   s.Verbosity,
			Message: "must be between -4 and 3",
		})
	}
	if !slices.Contains(logging.ValidLevels(), strings.ToUpper(s.LogLevel)) {
		errs = append(errs, SettingsError{
			Field:   "defaults.log_level",
			Value:   s.LogLevel,
			Message: fmt.Sprintf("must be one of %s", strings.Join(logging.ValidLevels(), ", ")),
		})
	}
	return errs
}

// settingKinds maps each setting under "defaults" to the type of its value.
var settingKinds = map[string]string{
	"gist_token_name": "string",
	"dashboard_dir":   "string",
	"verbosity":       "int",
	"no_color":        "bool",
	"log_dir":         "string",
	"log_level":       "string",
}

// SettingKeys returns the settable keys in dotted form, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for name := range settingKinds {
		keys = append(keys, "defaults."+name)
	}
	sort.Strings(keys)
	return keys
}

// SettingEnv returns the environment variable that overrides key.
func SettingEnv(key string) string {
	return settingsEnv[key]
}

// SetSetting parses raw for key ("defaults.verbosity" or just "verbosity"),
// validates it, and stores it in the defaults section of the global file at
// path. Everything else in the file is kept. It returns the typed value.
func SetSetting(path, key, raw string) (any, error) {
	name := strings.TrimPrefix(key, "defaults.")
	kind, ok := settingKinds[name]
	if !ok {
		return nil, errors.NewValidationError("setting", key,
			"valid keys: "+strings.Join(SettingKeys(), ", "))
	}

	var value any
	s := DefaultSettings()
	switch kind {
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.NewValidationError(key, raw, "expected true or false")
		}
		value = b
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.NewValidationError(key, raw, "expected an integer")
		}
		value = n
	default:
		value = raw
	}
	s.set(name, value)
	if errs := s.Validate(); len(errs) > 0 {
		return nil, errors.NewValidationError(key, raw, errs[0].Message)
	}
	// Levels are stored upper case.
	if name == "log_level" {
		value = logging.ParseLevel(raw)
	}

	data := LoadJSON(path)
	if _, ok := data["version"]; !ok {
		data["version"] = SchemaVersion
	}
	defaults, ok := data["defaults"].(map[string]any)
	if !ok {
		defaults = map[string]any{}
		data["defaults"] = defaults
	}
	defaults[name] = value

	if err := writeJSON(path, data); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Settings) set(name string, value any) {
	switch name {
	case "gist_token_name":
		s.GistTokenName = value.(string)
	case "dashboard_dir":
		s.DashboardDir = value.(string)
	case "verbosity":
		s.Verbosity = value.(int)
	case "no_color":
		s.NoColor = value.(bool)
	case "log_dir":
		s.LogDir = value.(string)
	case "log_level":
		s.LogLevel = value.(string)
	}
}
