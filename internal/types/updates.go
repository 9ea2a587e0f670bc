package types

// Update structs carry optional fields for partial updates. A nil field
// leaves the stored value untouched; the store resolves every update against
// the current row before writing.

// ProjectUpdate holds optional project changes.
type ProjectUpdate struct {
	Name  *string
	Desc  *string
	Path  *string
	Notes *string
}

// IsEmpty reports whether the update changes nothing.
func (u ProjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Desc == nil && u.Path == nil && u.Notes == nil
}

// GroupUpdate holds optional group attribute changes.
type GroupUpdate struct {
	Name  *string
	Notes *string
}

// DocumentUpdate holds optional document attribute changes.
type DocumentUpdate struct {
	Name  *string
	Text  *string
	Notes *string
}

// IsEmpty reports whether the update changes nothing.
func (u DocumentUpdate) IsEmpty() bool {
	return u.Name == nil && u.Text == nil && u.Notes == nil
}

// CharacterUpdate holds optional character changes.
type CharacterUpdate struct {
	Name *string
	Desc *string
}

// PlaceUpdate holds optional place changes.
type PlaceUpdate struct {
	Name *string
	Desc *string
}

// EventUpdate holds optional event changes.
type EventUpdate struct {
	Name      *string
	Desc      *string
	Date      *string
	StartDate *string
	EndDate   *string
}

// DraftUpdate holds optional draft changes.
type DraftUpdate struct {
	Name    *string
	Content *string
}

// TimelineUpdate holds optional timeline date changes.
type TimelineUpdate struct {
	StartDate *string
	EndDate   *string
}

// StringPtr returns a pointer to s. Handy for building update structs.
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// EqualIDPtr reports whether two optional ids refer to the same value.
func EqualIDPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
