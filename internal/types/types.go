// Package types defines the core data structures for cora projects.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Project is the top-level container for groups, documents and entities.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Desc      string    `json:"desc,omitempty"`
	Path      string    `json:"path,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is a folder in the project tree. A nil ParentID marks a root group.
// SortOrder is dense (0..n-1) among groups sharing the same parent.
type Group struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	ParentID  *int64 `json:"parent_id"`
	SortOrder int64  `json:"sort_order"`
	Notes     string `json:"notes,omitempty"`
}

// IsRoot reports whether the group has no parent.
func (g *Group) IsRoot() bool {
	return g.ParentID == nil
}

// Document is a text document, optionally filed under a group.
// A nil GroupID means the document is unfiled.
//
// SortOrder is dense among documents sharing the same group. Documents
// created through the legacy path-based API have a nil SortOrder and are
// not part of any ordered sibling set.
type Document struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	GroupID   *int64 `json:"group_id"`
	SortOrder *int64 `json:"sort_order"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Notes     string `json:"notes,omitempty"`
	Path      string `json:"path,omitempty"`
}

// IsUnfiled reports whether the document belongs to no group.
func (d *Document) IsUnfiled() bool {
	return d.GroupID == nil
}

// Draft is an append-only snapshot of a document's text.
type Draft struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"doc_id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProjectDraft is a free-standing draft kept at project level, such as an
// outline or synopsis.
type ProjectDraft struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FolderDraft is a draft attached to a group. A group's folder drafts keep
// a dense 0-based SortOrder.
type FolderDraft struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"doc_group_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	SortOrder int64     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Character is a person appearing in a project.
type Character struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	Desc      string `json:"desc,omitempty"`
}

// Event is something that happens in a project's story.
// Date is the legacy single-date field; StartDate/EndDate describe a range.
type Event struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	Desc      string `json:"desc,omitempty"`
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Place is a location in a project.
type Place struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	Desc      string `json:"desc,omitempty"`
}

// TimelineEntity names the kind of record a timeline is attached to.
type TimelineEntity string

const (
	TimelineProject TimelineEntity = "project"
	TimelineDoc     TimelineEntity = "doc"
	TimelineFolder  TimelineEntity = "folder"
	TimelineEvent   TimelineEntity = "event"
)

// IsValid checks if the timeline entity type is known.
func (e TimelineEntity) IsValid() bool {
	switch e {
	case TimelineProject, TimelineDoc, TimelineFolder, TimelineEvent:
		return true
	}
	return false
}

// Timeline is a date range attached to exactly one (entity type, entity id).
type Timeline struct {
	ID         int64          `json:"id"`
	EntityType TimelineEntity `json:"entity_type"`
	EntityID   int64          `json:"entity_id"`
	StartDate  string         `json:"start_date,omitempty"`
	EndDate    string         `json:"end_date,omitempty"`
}

// Direction is a one-step move within a sibling set.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection converts user input into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionDown:
		return d, nil
	}
	return "", fmt.Errorf("invalid direction %q (want up or down)", s)
}

// Delta returns the sort_order offset for the direction.
func (d Direction) Delta() int64 {
	if d == DirectionUp {
		return -1
	}
	return 1
}

// LinkKind names an attachable entity type for relation links.
type LinkKind string

const (
	LinkCharacter LinkKind = "character"
	LinkEvent     LinkKind = "event"
	LinkPlace     LinkKind = "place"
)

// LinkKinds lists every attachable entity kind.
var LinkKinds = []LinkKind{LinkCharacter, LinkEvent, LinkPlace}

// ParseLinkKind converts user input into a LinkKind.
func ParseLinkKind(s string) (LinkKind, error) {
	k := LinkKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range LinkKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid link kind %q (want character, event or place)", s)
}
