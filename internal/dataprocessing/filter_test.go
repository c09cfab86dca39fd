package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bizinsights/pkg/contracts/domain"
)

func company(row int, name, city string, score int, keywords ...string) domain.Company {
	if keywords == nil {
		keywords = []string{}
	}
	return domain.Company{Row: row, Name: name, City: city, LeadScore: score, KeywordsNorm: keywords}
}

func fixtureRecords() []domain.Company {
	return []domain.Company{
		company(0, "Acme", "Pune", 72, "tax", "audit"),
		company(1, "Beta", "Delhi", 0),
		company(2, "Gamma", "Pune", 50, "seo"),
		company(3, "Delta", "", 90, "tax"),
	}
}

func rows(view []domain.Company) []int {
	out := make([]int, len(view))
	for i, c := range view {
		out[i] = c.Row
	}
	return out
}

func TestFilter(t *testing.T) {
	records := fixtureRecords()

	tests := []struct {
		name string
		sel  Selection
		want []int
	}{
		{
			name: "default selection keeps everything",
			sel:  DefaultSelection(records),
			want: []int{0, 1, 2, 3},
		},
		{
			name: "empty city selection yields empty view",
			sel:  NewSelection(nil, []string{"tax"}, 0, 100),
			want: []int{},
		},
		{
			name: "empty keyword selection is no constraint",
			sel:  NewSelection([]string{"Pune", "Delhi"}, nil, 0, 100),
			want: []int{0, 1, 2},
		},
		{
			name: "keyword any-match",
			sel:  NewSelection([]string{"Pune", "Delhi", ""}, []string{"tax", "seo"}, 0, 100),
			want: []int{0, 2, 3},
		},
		{
			name: "keyword selection is case folded",
			sel:  NewSelection([]string{"Pune"}, []string{" SEO "}, 0, 100),
			want: []int{2},
		},
		{
			name: "score bounds inclusive",
			sel:  NewSelection([]string{"Pune", "Delhi", ""}, nil, 50, 72),
			want: []int{0, 2},
		},
		{
			name: "inverted bounds match nothing",
			sel:  NewSelection([]string{"Pune", "Delhi", ""}, nil, 80, 10),
			want: []int{},
		},
		{
			name: "missing city is selectable",
			sel:  NewSelection([]string{""}, nil, 0, 100),
			want: []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Filter(records, tt.sel)
			assert.Equal(t, tt.want, rows(view))
			for _, c := range view {
				assert.True(t, tt.sel.Match(c))
			}
		})
	}
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	records := fixtureRecords()
	before := rows(records)

	_ = Filter(records, NewSelection([]string{"Delhi"}, nil, 0, 100))

	assert.Equal(t, before, rows(records))
}

func TestDefaultSelection(t *testing.T) {
	sel := DefaultSelection(fixtureRecords())

	assert.Len(t, sel.Cities, 3)
	assert.Empty(t, sel.Keywords)
	assert.Equal(t, 0, sel.MinScore)
	assert.Equal(t, 90, sel.MaxScore)

	empty := DefaultSelection(nil)
	assert.Empty(t, Filter(nil, empty))
}
