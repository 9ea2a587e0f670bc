package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// isolate points every config search path at a fresh temp dir and makes it
// the working directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Chdir(dir)
	return dir
}

func TestInitializeDefaults(t *testing.T) {
	dir := isolate(t)
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if got := GetString("log.level"); got != "warn" {
		t.Errorf("log.level = %q, want warn", got)
	}
	if got := GetValueSource("log.level"); got != SourceDefault {
		t.Errorf("source = %s, want default", got)
	}
	if ConfigFileUsed() != "" {
		t.Errorf("unexpected config file %q", ConfigFileUsed())
	}
	if got, want := DBPath(), filepath.Join(dir, DirName, "cora.db"); got != want {
		t.Errorf("DBPath = %q, want %q", got, want)
	}
}

func TestInitializeProjectConfigAndEnv(t *testing.T) {
	dir := isolate(t)
	project := filepath.Join(dir, DirName)
	if err := os.MkdirAll(project, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, "config.yaml"), []byte("log:\n  level: debug\neditor: vim\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "chapters", "one")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)
	t.Setenv("CORA_EDITOR", "nano")

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	tests := []struct {
		key    string
		want   string
		source ConfigSource
	}{
		{"log.level", "debug", SourceConfigFile},
		{"editor", "nano", SourceEnvVar},
		{"export.dir", ".", SourceDefault},
	}
	for _, tt := range tests {
		if got := GetString(tt.key); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
		if got := GetValueSource(tt.key); got != tt.source {
			t.Errorf("%s source = %s, want %s", tt.key, got, tt.source)
		}
	}
	if got, want := DBPath(), filepath.Join(project, "cora.db"); got != want {
		t.Errorf("DBPath = %q, want %q", got, want)
	}
}

func TestInitializeLoadsDotEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("CORA_INBOX_DEBOUNCE", "")
	os.Unsetenv("CORA_INBOX_DEBOUNCE")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CORA_INBOX_DEBOUNCE=2s\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if got := GetDuration("inbox.debounce").String(); got != "2s" {
		t.Errorf("inbox.debounce = %s, want 2s", got)
	}
}

func TestWriteDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DirName, "config.yaml")
	if err := WriteDefaults(path, false); err != nil {
		t.Fatalf("WriteDefaults failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Log struct {
			Level     string `yaml:"level"`
			MaxSizeMB int    `yaml:"max-size-mb"`
		} `yaml:"log"`
		LockTimeout string `yaml:"lock-timeout"`
	}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("written config is not YAML: %v", err)
	}
	if decoded.Log.Level != "warn" || decoded.Log.MaxSizeMB != 10 || decoded.LockTimeout != "10s" {
		t.Errorf("decoded = %+v", decoded)
	}

	if err := WriteDefaults(path, false); err == nil {
		t.Error("expected error when config exists")
	}
	if err := WriteDefaults(path, true); err != nil {
		t.Errorf("WriteDefaults(force) failed: %v", err)
	}
}

func TestEncodeTOML(t *testing.T) {
	isolate(t)
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	Set("log.level", "error")

	var buf bytes.Buffer
	if err := EncodeTOML(&buf); err != nil {
		t.Fatalf("EncodeTOML failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[log]", `level = "error"`, "[export]"} {
		if !strings.Contains(out, want) {
			t.Errorf("TOML output missing %q:\n%s", want, out)
		}
	}
}

func TestSetInFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, DirName, "config.yaml")

	if err := SetInFile(path, "project", "Book"); err != nil {
		t.Fatalf("SetInFile(project) failed: %v", err)
	}
	if err := SetInFile(path, "log.max-backups", "7"); err != nil {
		t.Fatalf("SetInFile(log.max-backups) failed: %v", err)
	}
	if err := SetInFile(path, "json", "maybe"); err == nil {
		t.Error("SetInFile(json, maybe) should fail")
	}

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if got := GetString("project"); got != "Book" {
		t.Errorf("project = %q, want Book", got)
	}
	if got := GetInt("log.max-backups"); got != 7 {
		t.Errorf("log.max-backups = %d, want 7", got)
	}
	if got := GetValueSource("project"); got != SourceConfigFile {
		t.Errorf("source = %s, want config_file", got)
	}
}
