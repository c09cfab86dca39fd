package domain

// Sentinels substituted for channels that are missing in the source table.
const (
	NoWebsite = "No Website"
	NoEmail   = "No Email"
)

// Source column names understood by the loader.
const (
	ColumnName     = "co_name"
	ColumnContact  = "contact"
	ColumnEmail    = "email"
	ColumnPhone    = "phone"
	ColumnWebsite  = "website"
	ColumnCity     = "city"
	ColumnKeywords = "keywords"
)

// SchemaColumns lists the fixed-schema columns in the order they are backfilled.
var SchemaColumns = []string{
	ColumnWebsite,
	ColumnEmail,
	ColumnPhone,
	ColumnKeywords,
	ColumnCity,
	ColumnName,
	ColumnContact,
}

// ExportColumns is the column order of the lead list and its downloads.
var ExportColumns = []string{
	ColumnName,
	ColumnContact,
	ColumnEmail,
	ColumnPhone,
	ColumnCity,
	"lead_score",
	ColumnWebsite,
	ColumnKeywords,
}

// RawRow is one input row mapped onto the fixed schema.
// A nil field means the cell (or the whole column) was missing.
type RawRow struct {
	Name     *string
	Contact  *string
	Email    *string
	Phone    *string
	Website  *string
	City     *string
	Keywords *string

	// Extra holds non-empty cells of columns outside the schema.
	Extra map[string]string
}

// Field returns the schema value for a column name and whether it is present.
func (r RawRow) Field(column string) (string, bool) {
	var p *string
	switch column {
	case ColumnName:
		p = r.Name
	case ColumnContact:
		p = r.Contact
	case ColumnEmail:
		p = r.Email
	case ColumnPhone:
		p = r.Phone
	case ColumnWebsite:
		p = r.Website
	case ColumnCity:
		p = r.City
	case ColumnKeywords:
		p = r.Keywords
	default:
		v, ok := r.Extra[column]
		return v, ok
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// Company is a normalized, scored row of the company table.
// Missing name, contact, phone and city are empty strings.
type Company struct {
	Row          int      `json:"row"`
	Name         string   `json:"co_name"`
	Contact      string   `json:"contact"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Website      string   `json:"website"`
	City         string   `json:"city"`
	Keywords     string   `json:"keywords"`
	KeywordsNorm []string `json:"keywords_norm"`
	HasEmail     bool     `json:"has_email"`
	HasWebsite   bool     `json:"has_website"`
	HasPhone     bool     `json:"has_phone"`
	LeadScore    int      `json:"lead_score"`
}

// HasAnyKeyword reports whether at least one normalized token is in set.
func (c Company) HasAnyKeyword(set map[string]struct{}) bool {
	for _, k := range c.KeywordsNorm {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

// LeadRow is a Company projected onto ExportColumns.
type LeadRow struct {
	Name      string `json:"co_name"`
	Contact   string `json:"contact"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	LeadScore int    `json:"lead_score"`
	Website   string `json:"website"`
	Keywords  string `json:"keywords"`
}

// Lead projects the company onto the export columns.
func (c Company) Lead() LeadRow {
	return LeadRow{
		Name:      c.Name,
		Contact:   c.Contact,
		Email:     c.Email,
		Phone:     c.Phone,
		City:      c.City,
		LeadScore: c.LeadScore,
		Website:   c.Website,
		Keywords:  c.Keywords,
	}
}
