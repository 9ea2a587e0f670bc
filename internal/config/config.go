package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user and per-project directory holding config and data.
const DirName = ".cora"

// EnvPrefix prefixes environment overrides, e.g. CORA_DB, CORA_LOG_LEVEL.
const EnvPrefix = "CORA"

var v *viper.Viper

// defaults lists every known key with its built-in value. It drives both
// viper's defaults and the file written by WriteDefaults.
var defaults = map[string]interface{}{
	"db":                  "",
	"json":                false,
	"no-color":            false,
	"editor":              "",
	"project":             "",
	"lock-timeout":        "10s",
	"log.level":           "warn",
	"log.file":            "",
	"log.max-size-mb":     10,
	"log.max-backups":     3,
	"log.max-age-days":    28,
	"export.dir":          ".",
	"inbox.debounce":      "500ms",
	"inbox.remove-after":  false,
	"ui.render-notes":     true,
	"ui.fuzzy-max-errors": 3,
}

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	// A .env next to the working directory may carry CORA_* overrides.
	// Missing is fine; existing variables win.
	_ = godotenv.Load()

	configPath := findConfigFile()
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		slog.Debug("loaded config", "path", v.ConfigFileUsed())
	} else {
		slog.Debug("no config.yaml found; using defaults and environment variables")
	}
	return nil
}

// findConfigFile locates config.yaml.
// Precedence: project .cora/config.yaml (walking up from the working
// directory) > $XDG_CONFIG_HOME/cora/config.yaml > ~/.cora/config.yaml.
func findConfigFile() string {
	if dir := FindProjectDir(); dir != "" {
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(configDir, "cora", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(homeDir, DirName, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindProjectDir walks up from the working directory looking for a .cora
// directory and returns its path, or "" when none exists.
func FindProjectDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		if dir == filepath.Dir(dir) {
			return ""
		}
	}
}

// DBPath resolves the database location: the db key if set, else
// cora.db inside the nearest project .cora directory, else ~/.cora/cora.db.
func DBPath() string {
	if path := GetString("db"); path != "" {
		return path
	}
	if dir := FindProjectDir(); dir != "" {
		return filepath.Join(dir, "cora.db")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, DirName, "cora.db")
	}
	return filepath.Join(DirName, "cora.db")
}

// ConfigFileUsed returns the loaded config file, or "" when none was found.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault    ConfigSource = "default"
	SourceConfigFile ConfigSource = "config_file"
	SourceEnvVar     ConfigSource = "env_var"
)

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}

// GetValueSource returns the source of a configuration value.
// Priority (highest to lowest): env var > config file > default
func GetValueSource(key string) ConfigSource {
	if v == nil {
		return SourceDefault
	}
	if _, ok := os.LookupEnv(EnvKey(key)); ok {
		return SourceEnvVar
	}
	if v.InConfig(key) {
		return SourceConfigFile
	}
	return SourceDefault
}

// Setting is one effective configuration value and its origin.
type Setting struct {
	Key    string
	Value  interface{}
	Source ConfigSource
}

// Settings returns every known key with its effective value, sorted by key.
func Settings() []Setting {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	if v != nil {
		for _, key := range v.AllKeys() {
			if _, known := defaults[key]; !known {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)

	out := make([]Setting, 0, len(keys))
	for _, key := range keys {
		var value interface{} = defaults[key]
		if v != nil {
			value = v.Get(key)
		}
		out = append(out, Setting{Key: key, Value: value, Source: GetValueSource(key)})
	}
	return out
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set sets a configuration value
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns all configuration settings as a nested map
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// nested turns dotted keys into nested maps for file encoders.
func nested(flat map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for key, value := range flat {
		parts := strings.Split(key, ".")
		m := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := m[part].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				m[part] = child
			}
			m = child
		}
		m[parts[len(parts)-1]] = value
	}
	return out
}

// WriteDefaults writes a config.yaml holding every default to path. It
// refuses to overwrite an existing file unless force is set.
func WriteDefaults(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# cora configuration. Every key can be overridden with a " + EnvPrefix + "_ environment variable.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(nested(defaults)); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// EncodeTOML writes the effective settings as TOML.
func EncodeTOML(w io.Writer) error {
	flat := make(map[string]interface{}, len(defaults))
	for _, s := range Settings() {
		flat[s.Key] = s.Value
	}
	if err := toml.NewEncoder(w).Encode(nested(flat)); err != nil {
		return fmt.Errorf("failed to encode config as TOML: %w", err)
	}
	return nil
}

// EncodeYAML writes the effective settings as YAML.
func EncodeYAML(w io.Writer) error {
	flat := make(map[string]interface{}, len(defaults))
	for _, s := range Settings() {
		flat[s.Key] = s.Value
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(nested(flat)); err != nil {
		return fmt.Errorf("failed to encode config as YAML: %w", err)
	}
	return enc.Close()
}

// SetInFile sets key to value in the YAML config file at path, creating the
// file when needed. Values for known boolean and integer keys are stored
// with their type.
func SetInFile(path, key, value string) error {
	doc := map[string]interface{}{}
	// #nosec G304 - path is the user's own config file
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	typed, err := typedValue(key, value)
	if err != nil {
		return err
	}
	parts := strings.Split(key, ".")
	m := doc
	for _, part := range parts[:len(parts)-1] {
		child, ok := m[part].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			m[part] = child
		}
		m = child
	}
	m[parts[len(parts)-1]] = typed

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func typedValue(key, value string) (interface{}, error) {
	switch defaults[key].(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number, got %q", key, value)
		}
		return n, nil
	}
	return value, nil
}
