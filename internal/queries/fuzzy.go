package queries

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/untoldecay/cora/internal/storage"
)

// Candidate is a named record a user may refer to by id or name.
type Candidate struct {
	ID   int64
	Name string
}

// ErrAmbiguous is returned when a name matches more than one candidate.
var ErrAmbiguous = errors.New("ambiguous name")

// NotFoundError reports a term that matched nothing, with spelling
// suggestions. It unwraps to storage.ErrNotFound.
type NotFoundError struct {
	Kind        string
	Term        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no %s matches %q", e.Kind, e.Term)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(quoteAll(e.Suggestions), ", ") + "?)"
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return storage.ErrNotFound
}

// Resolve finds the candidate a user meant by term. It tries, in order: an
// exact numeric id, a case-insensitive exact name, then a unique fuzzy
// subsequence match. Several equally good matches yield ErrAmbiguous;
// nothing yields a *NotFoundError with up to five suggestions within
// maxDistance edits.
func Resolve(kind, term string, candidates []Candidate, maxDistance int) (Candidate, error) {
	term = strings.TrimSpace(term)
	if id, err := strconv.ParseInt(term, 10, 64); err == nil {
		for _, c := range candidates {
			if c.ID == id {
				return c, nil
			}
		}
	}

	var exact []Candidate
	for _, c := range candidates {
		if strings.EqualFold(c.Name, term) {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	if len(exact) > 1 {
		return Candidate{}, ambiguous(kind, term, exact)
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	ranks := fuzzy.RankFindFold(term, names)
	sort.Sort(ranks)
	if len(ranks) == 1 {
		return candidates[ranks[0].OriginalIndex], nil
	}
	if len(ranks) > 1 {
		matched := make([]Candidate, len(ranks))
		for i, r := range ranks {
			matched[i] = candidates[r.OriginalIndex]
		}
		return Candidate{}, ambiguous(kind, term, matched)
	}

	return Candidate{}, &NotFoundError{Kind: kind, Term: term, Suggestions: SuggestNames(term, names, maxDistance)}
}

func ambiguous(kind, term string, matches []Candidate) error {
	parts := make([]string, len(matches))
	for i, c := range matches {
		parts[i] = fmt.Sprintf("%d %q", c.ID, c.Name)
	}
	return fmt.Errorf("%w: %s %q matches %s; use an id", ErrAmbiguous, kind, term, strings.Join(parts, ", "))
}

// SuggestNames returns up to five names within maxDistance edits of term
// (case-insensitive), closest first, ties broken alphabetically.
func SuggestNames(term string, names []string, maxDistance int) []string {
	if term == "" || len(names) == 0 {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	seen := make(map[string]bool, len(names))
	var near []scored
	lower := strings.ToLower(term)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if d := levenshtein.ComputeDistance(lower, strings.ToLower(name)); d <= maxDistance {
			near = append(near, scored{name, d})
		}
	}
	sort.Slice(near, func(i, j int) bool {
		if near[i].dist != near[j].dist {
			return near[i].dist < near[j].dist
		}
		return near[i].name < near[j].name
	})

	var out []string
	for _, s := range near {
		if len(out) == 5 {
			break
		}
		out = append(out, s.name)
	}
	return out
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strconv.Quote(s)
	}
	return out
}
