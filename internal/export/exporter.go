// Package export writes a project to disk as a numbered directory tree plus
// a metadata.json manifest that lets the importer rebuild it exactly.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/untoldecay/cora/internal/manifest"
	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

// Store is the read side of the storage layer the exporter needs.
type Store interface {
	GetProject(ctx context.Context, id int64) (*types.Project, error)
	ListGroups(ctx context.Context, projectID int64) ([]*types.Group, error)
	ListDocuments(ctx context.Context, projectID int64) ([]*types.Document, error)
	ListDrafts(ctx context.Context, documentID int64) ([]*types.Draft, error)
	ListCharacters(ctx context.Context, projectID int64) ([]*types.Character, error)
	ListEvents(ctx context.Context, projectID int64) ([]*types.Event, error)
	ListPlaces(ctx context.Context, projectID int64) ([]*types.Place, error)
	ListDocumentLinks(ctx context.Context, kind types.LinkKind, projectID int64) (map[int64][]int64, error)
	ListGroupLinks(ctx context.Context, kind types.LinkKind, projectID int64) (map[int64][]int64, error)
	GetTimelineByEntity(ctx context.Context, entityType types.TimelineEntity, entityID int64) (*types.Timeline, error)
}

// Exporter writes projects from a Store to the filesystem.
type Exporter struct {
	store  Store
	cfg    *Config
	logger *slog.Logger

	// AppVersion is recorded in the manifest as meta.app_version.
	AppVersion string
	// Now stamps meta.exported_at; defaults to time.Now.
	Now func() time.Time
}

// NewExporter creates an exporter. A nil cfg uses DefaultConfig and a nil
// logger discards output.
func NewExporter(store Store, cfg *Config, logger *slog.Logger) *Exporter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{store: store, cfg: cfg, logger: logger, Now: time.Now}
}

// groupFrame is one pending directory in the depth-first walk.
type groupFrame struct {
	group  *types.Group
	index  int
	parent string
}

// Export writes project projectID under dest and returns the export root.
// A failure midway leaves whatever was already written in place.
func (e *Exporter) Export(ctx context.Context, projectID int64, dest string) (string, error) {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return "", fmt.Errorf("failed to create destination: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("failed to stat destination: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("destination %s is not a directory", dest)
	}

	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	groups, err := e.store.ListGroups(ctx, projectID)
	if err != nil {
		return "", err
	}
	docs, err := e.store.ListDocuments(ctx, projectID)
	if err != nil {
		return "", err
	}

	children := childrenByParent(groups)
	docsByGroup := documentsByGroup(docs)

	drafts := make(map[int64][]*types.Draft, len(docs))
	for _, d := range docs {
		ds, err := e.store.ListDrafts(ctx, d.ID)
		if err != nil {
			return "", err
		}
		if len(ds) > 0 {
			drafts[d.ID] = ds
		}
	}

	root, err := UniqueRoot(dest, Sanitize(project.Name), e.cfg.UniqueAttempts)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export folder: %w", err)
	}
	e.logger.Info("exporting project", "project", project.Name, "root", root)

	stack := pushChildren(nil, children[0], root)
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return root, err
		}
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dir := filepath.Join(frame.parent, fmt.Sprintf("%d %s", frame.index, Sanitize(frame.group.Name)))
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return root, fmt.Errorf("failed to create group dir: %w", err)
		}
		e.logger.Debug("exported group", "group", frame.group.Name, "dir", dir)

		for j, d := range docsByGroup[frame.group.ID] {
			if err := e.writeDocument(dir, frame.index, j+1, d, drafts[d.ID]); err != nil {
				return root, err
			}
		}

		stack = pushChildren(stack, children[frame.group.ID], dir)
	}

	if e.cfg.WriteManifest {
		m, err := e.buildManifest(ctx, project, groups, docs, drafts)
		if err != nil {
			return root, err
		}
		if err := manifest.WriteFile(filepath.Join(root, manifest.FileName), m, e.cfg.Indent); err != nil {
			return root, err
		}
	}

	return root, nil
}

// pushChildren pushes siblings in reverse so the first sibling is popped first.
func pushChildren(stack []groupFrame, siblings []*types.Group, parentDir string) []groupFrame {
	for i := len(siblings) - 1; i >= 0; i-- {
		stack = append(stack, groupFrame{group: siblings[i], index: i + 1, parent: parentDir})
	}
	return stack
}

func (e *Exporter) writeDocument(dir string, groupIndex, docIndex int, d *types.Document, drafts []*types.Draft) error {
	prefix := fmt.Sprintf("%d.%d %s", groupIndex, docIndex, Sanitize(d.Name))

	// #nosec G306 - exported manuscripts are meant to be readable
	if err := os.WriteFile(filepath.Join(dir, prefix+".txt"), []byte(d.Text), 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if !e.cfg.WriteDrafts {
		return nil
	}
	for k, draft := range drafts {
		name := fmt.Sprintf("%s draft-%d.txt", prefix, k+1)
		// #nosec G306 - exported manuscripts are meant to be readable
		if err := os.WriteFile(filepath.Join(dir, name), []byte(draft.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write draft: %w", err)
		}
	}
	return nil
}

func (e *Exporter) buildManifest(ctx context.Context, project *types.Project, groups []*types.Group, docs []*types.Document, drafts map[int64][]*types.Draft) (*manifest.Manifest, error) {
	m := manifest.New(e.AppVersion, e.Now())
	m.Meta.ExportID = uuid.NewString()
	m.Project = *project
	m.Groups = groups

	for _, d := range docs {
		m.Docs = append(m.Docs, &manifest.Document{
			ID:        d.ID,
			ProjectID: d.ProjectID,
			Path:      d.Path,
			Name:      d.Name,
			Text:      d.Text,
			Notes:     d.Notes,
			GroupID:   d.GroupID,
			SortOrder: d.SortOrder,
		})

		tl, err := e.store.GetTimelineByEntity(ctx, types.TimelineDoc, d.ID)
		if err != nil && !storage.IsNotFound(err) {
			return nil, err
		}
		m.DocTimelines[manifest.Key(d.ID)] = tl

		for _, dr := range drafts[d.ID] {
			key := manifest.Key(d.ID)
			m.DraftsByDoc[key] = append(m.DraftsByDoc[key], &manifest.Draft{
				ID:        dr.ID,
				DocID:     dr.DocumentID,
				Name:      dr.Name,
				Content:   dr.Content,
				CreatedAt: dr.CreatedAt.UTC().Format(time.RFC3339Nano),
				UpdatedAt: dr.UpdatedAt.UTC().Format(time.RFC3339Nano),
			})
		}
	}

	var err error
	if m.Characters, err = e.store.ListCharacters(ctx, project.ID); err != nil {
		return nil, err
	}
	if m.Events, err = e.store.ListEvents(ctx, project.ID); err != nil {
		return nil, err
	}
	if m.Places, err = e.store.ListPlaces(ctx, project.ID); err != nil {
		return nil, err
	}

	docLinks := map[types.LinkKind]*manifest.Links{
		types.LinkCharacter: &m.DocCharacters,
		types.LinkEvent:     &m.DocEvents,
		types.LinkPlace:     &m.DocPlaces,
	}
	groupLinks := map[types.LinkKind]*manifest.Links{
		types.LinkCharacter: &m.GroupCharacters,
		types.LinkEvent:     &m.GroupEvents,
		types.LinkPlace:     &m.GroupPlaces,
	}
	for _, kind := range types.LinkKinds {
		links, err := e.store.ListDocumentLinks(ctx, kind, project.ID)
		if err != nil {
			return nil, err
		}
		*docLinks[kind] = toLinks(links)

		links, err = e.store.ListGroupLinks(ctx, kind, project.ID)
		if err != nil {
			return nil, err
		}
		*groupLinks[kind] = toLinks(links)
	}

	tl, err := e.store.GetTimelineByEntity(ctx, types.TimelineProject, project.ID)
	if err != nil && !storage.IsNotFound(err) {
		return nil, err
	}
	m.ProjectTimeline = tl

	return m, nil
}

func toLinks(in map[int64][]int64) manifest.Links {
	out := make(manifest.Links, len(in))
	for owner, ids := range in {
		out[manifest.Key(owner)] = ids
	}
	return out
}

// childrenByParent groups siblings by parent id (0 for roots), each set
// sorted by sort order.
func childrenByParent(groups []*types.Group) map[int64][]*types.Group {
	children := make(map[int64][]*types.Group)
	for _, g := range groups {
		var parent int64
		if g.ParentID != nil {
			parent = *g.ParentID
		}
		children[parent] = append(children[parent], g)
	}
	for _, siblings := range children {
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].SortOrder != siblings[j].SortOrder {
				return siblings[i].SortOrder < siblings[j].SortOrder
			}
			return siblings[i].ID < siblings[j].ID
		})
	}
	return children
}

// documentsByGroup collects filed documents per group in sort order.
// Unfiled documents only appear in the manifest.
func documentsByGroup(docs []*types.Document) map[int64][]*types.Document {
	out := make(map[int64][]*types.Document)
	for _, d := range docs {
		if d.GroupID == nil {
			continue
		}
		out[*d.GroupID] = append(out[*d.GroupID], d)
	}
	for _, set := range out {
		sort.SliceStable(set, func(i, j int) bool {
			return orderOf(set[i]) < orderOf(set[j])
		})
	}
	return out
}

func orderOf(d *types.Document) int64 {
	if d.SortOrder == nil {
		return 1<<62 + d.ID
	}
	return *d.SortOrder
}
