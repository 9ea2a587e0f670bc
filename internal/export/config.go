package export

import (
	"context"
	"fmt"
	"strconv"
)

// Config keys in the store's config table.
const (
	ConfigKeyUniqueAttempts = "export.unique_attempts"
	ConfigKeyWriteDrafts    = "export.write_drafts"
	ConfigKeyWriteManifest  = "export.write_manifest"
	ConfigKeyIndent         = "export.indent"
)

// Defaults applied when a key is unset or unparsable.
const (
	DefaultUniqueAttempts = 9999
	DefaultWriteDrafts    = true
	DefaultWriteManifest  = true
	DefaultIndent         = "  "
)

// Config controls how a project is written to disk.
type Config struct {
	// UniqueAttempts bounds the "<name> export N" counter.
	UniqueAttempts int
	WriteDrafts    bool
	WriteManifest  bool
	// Indent is the manifest JSON indent; empty means compact.
	Indent string
}

// DefaultConfig returns the built-in export settings.
func DefaultConfig() *Config {
	return &Config{
		UniqueAttempts: DefaultUniqueAttempts,
		WriteDrafts:    DefaultWriteDrafts,
		WriteManifest:  DefaultWriteManifest,
		Indent:         DefaultIndent,
	}
}

// ConfigStore defines the minimal storage interface needed for config
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// LoadConfig reads export configuration from storage
func LoadConfig(ctx context.Context, store ConfigStore) (*Config, error) {
	cfg := DefaultConfig()

	if val, err := store.GetConfig(ctx, ConfigKeyUniqueAttempts); err == nil && val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.UniqueAttempts = n
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigKeyUniqueAttempts, err)
	}

	if val, err := store.GetConfig(ctx, ConfigKeyWriteDrafts); err == nil && val != "" {
		if write, err := strconv.ParseBool(val); err == nil {
			cfg.WriteDrafts = write
		}
	}

	if val, err := store.GetConfig(ctx, ConfigKeyWriteManifest); err == nil && val != "" {
		if write, err := strconv.ParseBool(val); err == nil {
			cfg.WriteManifest = write
		}
	}

	if val, err := store.GetConfig(ctx, ConfigKeyIndent); err == nil && val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 && n <= 8 {
			cfg.Indent = fmt.Sprintf("%*s", n, "")
		}
	}

	return cfg, nil
}

// SetUniqueAttempts sets the bound on export root name retries
func SetUniqueAttempts(ctx context.Context, store ConfigStore, attempts int) error {
	if attempts <= 0 {
		return fmt.Errorf("unique attempts must be positive")
	}
	return store.SetConfig(ctx, ConfigKeyUniqueAttempts, strconv.Itoa(attempts))
}

// SetWriteDrafts sets whether draft files are written next to documents
func SetWriteDrafts(ctx context.Context, store ConfigStore, write bool) error {
	return store.SetConfig(ctx, ConfigKeyWriteDrafts, strconv.FormatBool(write))
}

// SetWriteManifest sets whether metadata.json is written
func SetWriteManifest(ctx context.Context, store ConfigStore, write bool) error {
	return store.SetConfig(ctx, ConfigKeyWriteManifest, strconv.FormatBool(write))
}

// SetIndent sets the manifest indent width (0 for compact JSON)
func SetIndent(ctx context.Context, store ConfigStore, width int) error {
	if width < 0 || width > 8 {
		return fmt.Errorf("indent must be between 0 and 8")
	}
	return store.SetConfig(ctx, ConfigKeyIndent, strconv.Itoa(width))
}
