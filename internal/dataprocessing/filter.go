package dataprocessing

import (
	"strings"

	"bizinsights/pkg/contracts/domain"
)

// Selection is the user's current filter.
//
// Cities and Keywords are sets. An empty city set matches nothing, while an
// empty keyword set applies no keyword constraint. Score bounds are inclusive;
// MinScore > MaxScore matches nothing.
type Selection struct {
	Cities   map[string]struct{}
	Keywords map[string]struct{}
	MinScore int
	MaxScore int
}

// NewSelection builds a selection from value lists.
// Keywords are folded like normalized tokens so selections taken from the
// option list are unaffected.
func NewSelection(cities, keywords []string, minScore, maxScore int) Selection {
	sel := Selection{
		Cities:   make(map[string]struct{}, len(cities)),
		Keywords: make(map[string]struct{}, len(keywords)),
		MinScore: minScore,
		MaxScore: maxScore,
	}
	for _, c := range cities {
		sel.Cities[c] = struct{}{}
	}
	n := newNormalizer()
	for _, k := range keywords {
		if k = strings.TrimSpace(n.lower.String(k)); k != "" {
			sel.Keywords[k] = struct{}{}
		}
	}
	return sel
}

// DefaultSelection selects every city, no keyword constraint and the observed score range.
func DefaultSelection(records []domain.Company) Selection {
	opts := FilterOptions(records)
	return NewSelection(opts.Cities, nil, opts.MinScore, opts.MaxScore)
}

// Match reports whether a single record satisfies the selection.
func (s Selection) Match(c domain.Company) bool {
	if _, ok := s.Cities[c.City]; !ok {
		return false
	}
	if len(s.Keywords) > 0 && !c.HasAnyKeyword(s.Keywords) {
		return false
	}
	return c.LeadScore >= s.MinScore && c.LeadScore <= s.MaxScore
}

// Filter returns the records matching the selection, in input order.
// The input is not modified.
func Filter(records []domain.Company, sel Selection) []domain.Company {
	view := make([]domain.Company, 0, len(records))
	for _, c := range records {
		if sel.Match(c) {
			view = append(view, c)
		}
	}
	return view
}
