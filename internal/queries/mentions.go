package queries

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/untoldecay/cora/internal/types"
)

// Mention is an entity whose name occurs in a text.
type Mention struct {
	Kind  types.LinkKind `json:"kind"`
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Count int            `json:"count"`
}

// Entity is a mentionable record.
type Entity struct {
	Kind types.LinkKind
	ID   int64
	Name string
}

// MentionIndex finds whole-word, case-insensitive occurrences of entity
// names in text with a single Aho-Corasick automaton.
type MentionIndex struct {
	ac       *ahocorasick.Automaton
	patterns []string
	// owners maps a pattern index to every entity sharing that name.
	owners [][]Entity
}

// NewMentionIndex compiles entities into an index. Entities with blank
// names are ignored.
func NewMentionIndex(entities []Entity) (*MentionIndex, error) {
	idx := &MentionIndex{}
	byPattern := make(map[string]int)
	for _, e := range entities {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if key == "" {
			continue
		}
		if i, ok := byPattern[key]; ok {
			idx.owners[i] = append(idx.owners[i], e)
			continue
		}
		byPattern[key] = len(idx.patterns)
		idx.patterns = append(idx.patterns, key)
		idx.owners = append(idx.owners, []Entity{e})
	}
	if len(idx.patterns) == 0 {
		return idx, nil
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(idx.patterns).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build mention index: %w", err)
	}
	idx.ac = ac
	return idx, nil
}

// Find returns the entities mentioned in text, ordered by kind then name.
func (idx *MentionIndex) Find(text string) []Mention {
	if idx.ac == nil || text == "" {
		return nil
	}
	haystack := strings.ToLower(text)

	counts := make(map[int]int)
	for _, m := range idx.ac.FindAllOverlapping([]byte(haystack)) {
		if !wordBoundary(haystack, m.Start, m.End) {
			continue
		}
		counts[m.PatternID]++
	}

	var out []Mention
	for pattern, n := range counts {
		for _, e := range idx.owners[pattern] {
			out = append(out, Mention{Kind: e.Kind, ID: e.ID, Name: e.Name, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// wordBoundary reports whether s[start:end] is not glued to letters or
// digits on either side.
func wordBoundary(s string, start, end int) bool {
	if start < 0 || end > len(s) || start >= end {
		return false
	}
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
