package domain

import (
	"time"
)

// TopCityNone is shown as the top city when the view has no cities.
const TopCityNone = "—"

// Default map position used for every marker; the dataset carries no coordinates.
const (
	DefaultLatitude  = 20.5937
	DefaultLongitude = 78.9629
)

// CityCount is one bar of the city distribution.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// ChannelPresence counts records having each contact channel.
type ChannelPresence struct {
	Phone   int `json:"phone"`
	Email   int `json:"email"`
	Website int `json:"website"`
}

// KeywordCount is one bar of the service/keyword distribution.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// KPISummary is the dashboard header for a filtered view.
type KPISummary struct {
	TotalCompanies int     `json:"total_companies"`
	CitiesCovered  int     `json:"cities_covered"`
	WebsitePercent float64 `json:"website_percent"`
	EmailPercent   float64 `json:"email_percent"`
	TopCity        string  `json:"top_city"`
}

// Overview bundles the city distribution with channel presence.
type Overview struct {
	Cities   []CityCount     `json:"cities"`
	Channels ChannelPresence `json:"channels"`
}

// ServiceReport is the keyword distribution of a view.
// Empty is set when no record in the view has any keyword.
type ServiceReport struct {
	Keywords []KeywordCount `json:"keywords"`
	Empty    bool           `json:"empty"`
}

// ColumnQuality describes completeness of one column.
type ColumnQuality struct {
	Column         string  `json:"column"`
	MissingPercent float64 `json:"missing_percent"`
	Unique         int     `json:"unique"`
	Type           string  `json:"dtype"`
}

// DuplicateRow is one member of a duplicated (name, city) group.
type DuplicateRow struct {
	Row   int    `json:"row"`
	Name  string `json:"co_name"`
	City  string `json:"city"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// QualityReport covers the whole unfiltered table.
type QualityReport struct {
	Rows       int             `json:"rows"`
	Columns    []ColumnQuality `json:"columns"`
	Duplicates []DuplicateRow  `json:"duplicates"`
}

// NodeKind distinguishes the two sides of the company/city graph.
type NodeKind string

const (
	NodeKindCity    NodeKind = "city"
	NodeKindCompany NodeKind = "company"
)

// NodeCentrality is a graph node with its normalized betweenness.
type NodeCentrality struct {
	Node       string   `json:"node"`
	Kind       NodeKind `json:"kind"`
	Label      string   `json:"label"`
	Centrality float64  `json:"centrality"`
}

// NetworkReport is the centrality ranking of a view.
// Empty is set when the view had no records and no graph was built.
type NetworkReport struct {
	Nodes int              `json:"nodes"`
	Edges int              `json:"edges"`
	Top   []NodeCentrality `json:"top"`
	Empty bool             `json:"empty"`
}

// MapMarker is one company pin.
type MapMarker struct {
	Name      string  `json:"co_name"`
	City      string  `json:"city"`
	LeadScore int     `json:"lead_score"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	MailTo    string  `json:"mailto,omitempty"`
	Tel       string  `json:"tel,omitempty"`
}

// FilterOptions are the selectable values and the dashboard defaults.
type FilterOptions struct {
	Cities   []string `json:"cities"`
	Keywords []string `json:"keywords"`
	MinScore int      `json:"min_score"`
	MaxScore int      `json:"max_score"`
}

// DatasetInfo describes the currently loaded dataset.
type DatasetInfo struct {
	Path     string    `json:"path"`
	ModTime  time.Time `json:"mod_time"`
	LoadedAt time.Time `json:"loaded_at"`
	Rows     int       `json:"rows"`
}
