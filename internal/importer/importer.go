// Package importer rebuilds projects from exported folders, either exactly
// from a metadata.json manifest or heuristically from the directory layout.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/untoldecay/cora/internal/manifest"
	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

// Strategy names how a folder was imported.
type Strategy string

const (
	StrategyManifest Strategy = "manifest"
	StrategyLegacy   Strategy = "legacy"
)

// Result summarizes an import.
type Result struct {
	Project   *types.Project `json:"project"`
	Strategy  Strategy       `json:"strategy"`
	Groups    int            `json:"groups"`
	Documents int            `json:"documents"`
	Drafts    int            `json:"drafts"`
	// SkippedLinks counts manifest edges dropped because an endpoint was missing.
	SkippedLinks int `json:"skipped_links"`
	// ExportID is the manifest's export run id, empty for legacy imports.
	ExportID string `json:"export_id,omitempty"`
}

// Importer creates projects in a store from folders on disk.
type Importer struct {
	store  storage.Storage
	logger *slog.Logger

	// AppVersion is the running build's version, compared against
	// meta.app_version of imported manifests.
	AppVersion string
}

// NewImporter creates an importer. A nil logger discards output.
func NewImporter(store storage.Storage, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{store: store, logger: logger}
}

// ImportProject imports folder as a new project. A trusted metadata.json at
// the folder root drives an exact rebuild; otherwise the directory layout is
// imported with the legacy strategy. Writes already committed when an error
// occurs are kept.
func (im *Importer) ImportProject(ctx context.Context, folder string) (*Result, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to stat import folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import folder %s is not a directory", folder)
	}

	m, err := im.readManifest(folder)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return im.importLegacy(ctx, folder)
	}
	return im.importManifest(ctx, folder, m)
}

// readManifest returns nil, nil when the folder should use the legacy strategy.
func (im *Importer) readManifest(folder string) (*manifest.Manifest, error) {
	path := filepath.Join(folder, manifest.FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	m, err := manifest.ReadFile(path)
	if err != nil {
		im.logger.Warn("unreadable manifest, importing folder layout instead", "path", path, "error", err)
		return nil, nil
	}
	if err := m.Validate(); err != nil {
		im.logger.Warn("untrusted manifest, importing folder layout instead", "path", path, "error", err)
		return nil, nil
	}
	if newerVersion(m.Meta.AppVersion, im.AppVersion) {
		im.logger.Warn("manifest was written by a newer cora", "manifest_version", m.Meta.AppVersion, "running_version", im.AppVersion)
	}
	return m, nil
}

// newerVersion reports whether written is a valid semver newer than running.
func newerVersion(written, running string) bool {
	w, r := canonicalVersion(written), canonicalVersion(running)
	if !semver.IsValid(w) || !semver.IsValid(r) {
		return false
	}
	return semver.Compare(w, r) > 0
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// idMaps carries old manifest ids to newly created ids.
type idMaps struct {
	groups     map[int64]int64
	docs       map[int64]int64
	characters map[int64]int64
	events     map[int64]int64
	places     map[int64]int64
}

func (im *Importer) importManifest(ctx context.Context, folder string, m *manifest.Manifest) (*Result, error) {
	project, err := im.store.CreateProject(ctx, &types.Project{
		Name:  nameOr(m.Project.Name),
		Desc:  m.Project.Desc,
		Notes: m.Project.Notes,
		Path:  folder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	res := &Result{Project: project, Strategy: StrategyManifest, ExportID: m.Meta.ExportID}
	im.logger.Info("importing project from manifest", "project", project.Name, "folder", folder, "export_id", m.Meta.ExportID)

	maps := &idMaps{
		characters: make(map[int64]int64, len(m.Characters)),
		events:     make(map[int64]int64, len(m.Events)),
		places:     make(map[int64]int64, len(m.Places)),
	}

	if maps.groups, err = im.rebuildGroups(ctx, project.ID, m.Groups); err != nil {
		return res, err
	}
	res.Groups = len(maps.groups)

	if maps.docs, res.Drafts, err = im.rebuildDocuments(ctx, project.ID, m, maps.groups); err != nil {
		return res, err
	}
	res.Documents = len(maps.docs)

	if err := im.rebuildEntities(ctx, project.ID, m, maps); err != nil {
		return res, err
	}

	skipped, err := im.replayLinks(ctx, m, maps)
	if err != nil {
		return res, err
	}
	res.SkippedLinks = skipped

	if err := im.rebuildTimelines(ctx, project.ID, m, maps.docs); err != nil {
		return res, err
	}
	return res, nil
}

// groupFrame is a created group whose children are still pending.
type groupFrame struct {
	oldID int64
	newID int64
}

// rebuildGroups recreates the group tree parent-first with an explicit stack
// and returns the old→new id map.
func (im *Importer) rebuildGroups(ctx context.Context, projectID int64, groups []*types.Group) (map[int64]int64, error) {
	children := ChildrenByParent(groups)
	ids := make(map[int64]int64, len(groups))

	create := func(stack []groupFrame, siblings []*types.Group, parent *int64) ([]groupFrame, error) {
		frames := make([]groupFrame, 0, len(siblings))
		for _, g := range siblings {
			created, err := im.store.CreateGroup(ctx, projectID, nameOr(g.Name), parent)
			if err != nil {
				return nil, fmt.Errorf("failed to create group %q: %w", g.Name, err)
			}
			if g.Notes != "" {
				if err := im.store.UpdateGroupNotes(ctx, created.ID, g.Notes); err != nil {
					return nil, err
				}
			}
			ids[g.ID] = created.ID
			frames = append(frames, groupFrame{oldID: g.ID, newID: created.ID})
		}
		for i := len(frames) - 1; i >= 0; i-- {
			stack = append(stack, frames[i])
		}
		return stack, nil
	}

	stack, err := create(nil, children[0], nil)
	if err != nil {
		return ids, err
	}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		parent := frame.newID
		if stack, err = create(stack, children[frame.oldID], &parent); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

// rebuildDocuments creates every manifest document with its text, notes and
// drafts. Each document lands in one transaction.
func (im *Importer) rebuildDocuments(ctx context.Context, projectID int64, m *manifest.Manifest, groups map[int64]int64) (map[int64]int64, int, error) {
	docs := append([]*manifest.Document(nil), m.Docs...)
	SortDocumentsForImport(docs)

	ids := make(map[int64]int64, len(docs))
	drafts := 0
	for _, d := range docs {
		if d == nil {
			continue
		}
		var groupID *int64
		if d.GroupID != nil {
			if newID, ok := groups[*d.GroupID]; ok {
				groupID = &newID
			} else {
				im.logger.Debug("document group missing, importing unfiled", "doc", d.ID, "group", *d.GroupID)
			}
		}

		docDrafts := m.DraftsByDoc[manifest.Key(d.ID)]
		err := im.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
			created, err := tx.CreateDocument(ctx, projectID, nameOr(d.Name), groupID)
			if err != nil {
				return err
			}
			if d.Text != "" || d.Notes != "" {
				if _, err := tx.UpdateDocument(ctx, created.ID, types.DocumentUpdate{
					Text:  &d.Text,
					Notes: &d.Notes,
				}); err != nil {
					return err
				}
			}
			// Manifest drafts are newest first; insert oldest first.
			for i := len(docDrafts) - 1; i >= 0; i-- {
				dr := docDrafts[i]
				if dr == nil {
					continue
				}
				if _, err := tx.ImportDraft(ctx, &types.Draft{
					DocumentID: created.ID,
					Name:       dr.Name,
					Content:    dr.Content,
					CreatedAt:  ParseDraftTime(dr.CreatedAt),
					UpdatedAt:  ParseDraftTime(dr.UpdatedAt),
				}); err != nil {
					return err
				}
			}
			ids[d.ID] = created.ID
			return nil
		})
		if err != nil {
			return ids, drafts, fmt.Errorf("failed to import document %q: %w", d.Name, err)
		}
		drafts += len(docDrafts)
	}
	return ids, drafts, nil
}

func (im *Importer) rebuildEntities(ctx context.Context, projectID int64, m *manifest.Manifest, maps *idMaps) error {
	for _, c := range m.Characters {
		if c == nil {
			continue
		}
		created, err := im.store.CreateCharacter(ctx, projectID, nameOr(c.Name), c.Desc)
		if err != nil {
			return fmt.Errorf("failed to import character %q: %w", c.Name, err)
		}
		maps.characters[c.ID] = created.ID
	}
	for _, e := range m.Events {
		if e == nil {
			continue
		}
		created, err := im.store.CreateEvent(ctx, &types.Event{
			ProjectID: projectID,
			Name:      nameOr(e.Name),
			Desc:      e.Desc,
			Date:      e.Date,
			StartDate: e.StartDate,
			EndDate:   e.EndDate,
		})
		if err != nil {
			return fmt.Errorf("failed to import event %q: %w", e.Name, err)
		}
		maps.events[e.ID] = created.ID
	}
	for _, p := range m.Places {
		if p == nil {
			continue
		}
		created, err := im.store.CreatePlace(ctx, projectID, nameOr(p.Name), p.Desc)
		if err != nil {
			return fmt.Errorf("failed to import place %q: %w", p.Name, err)
		}
		maps.places[p.ID] = created.ID
	}
	return nil
}

// replayLinks recreates document and group edges through the id maps and
// returns how many edges were dropped.
func (im *Importer) replayLinks(ctx context.Context, m *manifest.Manifest, maps *idMaps) (int, error) {
	entityMaps := map[types.LinkKind]map[int64]int64{
		types.LinkCharacter: maps.characters,
		types.LinkEvent:     maps.events,
		types.LinkPlace:     maps.places,
	}
	docLinks := map[types.LinkKind]manifest.Links{
		types.LinkCharacter: m.DocCharacters,
		types.LinkEvent:     m.DocEvents,
		types.LinkPlace:     m.DocPlaces,
	}
	groupLinks := map[types.LinkKind]manifest.Links{
		types.LinkCharacter: m.GroupCharacters,
		types.LinkEvent:     m.GroupEvents,
		types.LinkPlace:     m.GroupPlaces,
	}

	skipped := 0
	for _, kind := range types.LinkKinds {
		n, err := im.replay(ctx, kind, "doc", docLinks[kind], maps.docs, entityMaps[kind], im.store.AttachToDocument)
		if err != nil {
			return skipped, err
		}
		skipped += n

		n, err = im.replay(ctx, kind, "group", groupLinks[kind], maps.groups, entityMaps[kind], im.store.AttachToGroup)
		if err != nil {
			return skipped, err
		}
		skipped += n
	}
	return skipped, nil
}

type attachFunc func(ctx context.Context, kind types.LinkKind, ownerID, entityID int64) error

func (im *Importer) replay(ctx context.Context, kind types.LinkKind, owner string, links manifest.Links, owners, entities map[int64]int64, attach attachFunc) (int, error) {
	skipped := 0
	for key, oldEntities := range links {
		oldOwner, err := manifest.ParseKey(key)
		if err != nil {
			im.logger.Debug("skipping link with bad owner key", "kind", kind, "owner", owner, "key", key)
			skipped += len(oldEntities)
			continue
		}
		newOwner, ok := owners[oldOwner]
		if !ok {
			im.logger.Debug("skipping links of missing owner", "kind", kind, "owner", owner, "id", oldOwner)
			skipped += len(oldEntities)
			continue
		}
		for _, oldEntity := range oldEntities {
			newEntity, ok := entities[oldEntity]
			if !ok {
				im.logger.Debug("skipping link to missing entity", "kind", kind, "owner", owner, "id", oldEntity)
				skipped++
				continue
			}
			if err := attach(ctx, kind, newOwner, newEntity); err != nil {
				return skipped, fmt.Errorf("failed to attach %s to %s: %w", kind, owner, err)
			}
		}
	}
	return skipped, nil
}

func (im *Importer) rebuildTimelines(ctx context.Context, projectID int64, m *manifest.Manifest, docs map[int64]int64) error {
	if tl := m.ProjectTimeline; tl != nil {
		if _, err := im.store.CreateTimeline(ctx, &types.Timeline{
			EntityType: types.TimelineProject,
			EntityID:   projectID,
			StartDate:  tl.StartDate,
			EndDate:    tl.EndDate,
		}); err != nil {
			return fmt.Errorf("failed to import project timeline: %w", err)
		}
	}
	for key, tl := range m.DocTimelines {
		if tl == nil {
			continue
		}
		oldID, err := manifest.ParseKey(key)
		if err != nil {
			im.logger.Debug("skipping timeline with bad key", "key", key)
			continue
		}
		newID, ok := docs[oldID]
		if !ok {
			im.logger.Debug("skipping timeline of missing document", "doc", oldID)
			continue
		}
		if _, err := im.store.CreateTimeline(ctx, &types.Timeline{
			EntityType: types.TimelineDoc,
			EntityID:   newID,
			StartDate:  tl.StartDate,
			EndDate:    tl.EndDate,
		}); err != nil {
			return fmt.Errorf("failed to import document timeline: %w", err)
		}
	}
	return nil
}
