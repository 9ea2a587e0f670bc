package importer

import (
	"path/filepath"
	"strings"
	"time"
)

// untitled replaces blank names carried by older manifests.
const untitled = "Untitled"

// draftTimeLayouts are the timestamp formats found in manifests, newest first.
var draftTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDraftTime parses a manifest draft timestamp. It returns the zero time
// (which the store replaces with now) when s is empty or unparsable.
func ParseDraftTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range draftTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// nameOr returns name, or untitled when name is blank.
func nameOr(name string) string {
	if strings.TrimSpace(name) == "" {
		return untitled
	}
	return name
}

// isTextFile reports whether name has a .txt extension in any case.
func isTextFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt")
}

// stem returns a file name without its extension.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
