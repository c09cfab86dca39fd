// Package api contains API contract definitions for the business insights dashboard.
// Version v1 represents the current stable API version.
package api

import (
	"bizinsights/pkg/contracts/domain"
)

// Default and maximum sizes of ranked outputs.
const (
	DefaultChartLimit = 15
	DefaultTopNodes   = 10
	MaxLimit          = 1000
)

// FilterRequest selects a view of the company table.
//
// A nil Cities or Keywords slice selects every value (the dashboard default).
// An empty, non-nil slice is an explicit empty selection: no city matches,
// while an empty keyword set applies no constraint. Nil score bounds default to
// the observed minimum and maximum lead score.
type FilterRequest struct {
	Cities   []string `json:"cities,omitempty" validate:"omitempty,max=1000"`
	Keywords []string `json:"keywords,omitempty" validate:"omitempty,max=1000,dive,max=200"`
	MinScore *int     `json:"min_score,omitempty" validate:"omitempty,min=0,max=100"`
	MaxScore *int     `json:"max_score,omitempty" validate:"omitempty,min=0,max=100"`
	Limit    int      `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`
}

// ChartLimit returns the requested chart size or the default.
func (r FilterRequest) ChartLimit() int {
	if r.Limit <= 0 {
		return DefaultChartLimit
	}
	return r.Limit
}

// NodeLimit returns the requested ranking size or the default.
func (r FilterRequest) NodeLimit() int {
	if r.Limit <= 0 {
		return DefaultTopNodes
	}
	return r.Limit
}

// ExportFormat names a lead download format.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// LeadsResponse is the lead list of a view.
type LeadsResponse struct {
	Total int              `json:"total"`
	Leads []domain.LeadRow `json:"leads"`
}

// MapResponse carries the markers of a view.
type MapResponse struct {
	Markers []domain.MapMarker `json:"markers"`
}

// ReloadResponse reports a forced dataset reload.
type ReloadResponse struct {
	Dataset domain.DatasetInfo `json:"dataset"`
}
