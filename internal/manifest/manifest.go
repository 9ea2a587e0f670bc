// Package manifest defines metadata.json, the file that makes an exported
// project folder importable without loss.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/untoldecay/cora/internal/types"
)

const (
	// FileName is the manifest's name at the root of an export.
	FileName = "metadata.json"
	// App identifies manifests written by cora.
	App = "cora"
	// Version is the manifest layout version.
	Version = 1
)

// ErrUntrusted is returned by Validate when the manifest was not written by cora.
var ErrUntrusted = errors.New("manifest was not written by " + App)

// Meta describes who wrote the manifest and when.
type Meta struct {
	App        string `json:"app"`
	Version    int    `json:"version"`
	ExportedAt string `json:"exported_at"`
	AppVersion string `json:"app_version,omitempty"`
	// ExportID identifies one export run; re-imports of the same folder share it.
	ExportID string `json:"export_id,omitempty"`
}

// Document is a document as recorded in the manifest. The group reference
// keeps the historical doc_group_id key.
type Document struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Notes     string `json:"notes"`
	GroupID   *int64 `json:"doc_group_id"`
	SortOrder *int64 `json:"sort_order"`
}

// Draft is a draft as recorded in the manifest. Timestamps stay strings so
// manifests from older writers with other date formats still decode.
type Draft struct {
	ID        int64  `json:"id"`
	DocID     int64  `json:"doc_id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Links maps an owner id (decimal string) to attached entity ids.
type Links map[string][]int64

// Manifest is the full metadata.json document.
type Manifest struct {
	Meta            Meta                       `json:"meta"`
	Project         types.Project              `json:"project"`
	Groups          []*types.Group             `json:"groups"`
	Docs            []*Document                `json:"docs"`
	Characters      []*types.Character         `json:"characters"`
	Events          []*types.Event             `json:"events"`
	Places          []*types.Place             `json:"places"`
	DocCharacters   Links                      `json:"doc_characters"`
	DocEvents       Links                      `json:"doc_events"`
	DocPlaces       Links                      `json:"doc_places"`
	GroupCharacters Links                      `json:"group_characters,omitempty"`
	GroupEvents     Links                      `json:"group_events,omitempty"`
	GroupPlaces     Links                      `json:"group_places,omitempty"`
	ProjectTimeline *types.Timeline            `json:"project_timeline"`
	DocTimelines    map[string]*types.Timeline `json:"doc_timelines"`
	DraftsByDoc     map[string][]*Draft        `json:"drafts_by_doc"`
}

// New returns an empty manifest stamped with the cora signature.
func New(appVersion string, now time.Time) *Manifest {
	return &Manifest{
		Meta: Meta{
			App:        App,
			Version:    Version,
			ExportedAt: now.UTC().Format(time.RFC3339),
			AppVersion: appVersion,
		},
		DocCharacters: Links{},
		DocEvents:     Links{},
		DocPlaces:     Links{},
		DocTimelines:  map[string]*types.Timeline{},
		DraftsByDoc:   map[string][]*Draft{},
	}
}

// Validate reports ErrUntrusted unless the manifest carries the cora signature.
func (m *Manifest) Validate() error {
	if m.Meta.App != App {
		return fmt.Errorf("%w (app %q)", ErrUntrusted, m.Meta.App)
	}
	return nil
}

// Key renders an id as a manifest map key.
func Key(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseKey parses a manifest map key back into an id.
func ParseKey(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id key %q: %w", key, err)
	}
	return id, nil
}

// Encode writes m as JSON. indent "" produces compact output.
func Encode(w io.Writer, m *Manifest, indent string) error {
	enc := json.NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return nil
}

// Decode reads a manifest. It does not check the signature; see Validate.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// ReadFile decodes the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	// #nosec G304 - path is the manifest inside a user-chosen import folder
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile encodes m to path.
func WriteFile(path string, m *Manifest, indent string) error {
	// #nosec G304 - path is inside the export root this process created
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	if err := Encode(f, m, indent); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	return nil
}
