package dataprocessing

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bizinsights/pkg/contracts/domain"
)

// Lead score weights.
const (
	EmailPoints      = 40
	PhonePoints      = 30
	WebsitePoints    = 20
	MaxKeywordPoints = 10

	// MinPhoneLength is exclusive: a phone needs more characters than this.
	MinPhoneLength = 6
)

var emailPattern = regexp.MustCompile(`(?i)^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// HasEmail reports whether the whole value looks like an e-mail address.
func HasEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// HasWebsite reports whether a website value is usable.
func HasWebsite(website string) bool {
	return website != domain.NoWebsite && strings.Contains(website, ".")
}

// HasPhone reports whether a phone value is long enough to be real.
func HasPhone(phone string) bool {
	return utf8.RuneCountInString(phone) > MinPhoneLength
}

// KeywordTokens counts the non-blank comma separated tokens of a raw keyword string.
func KeywordTokens(raw string) int {
	n := 0
	for _, tok := range strings.Split(raw, ",") {
		if strings.TrimSpace(tok) != "" {
			n++
		}
	}
	return n
}

// LeadScore computes the 0..100 outreach priority of a company.
func LeadScore(hasEmail, hasPhone, hasWebsite bool, keywordTokens int) int {
	score := 0
	if hasEmail {
		score += EmailPoints
	}
	if hasPhone {
		score += PhonePoints
	}
	if hasWebsite {
		score += WebsitePoints
	}
	return score + min(MaxKeywordPoints, max(0, keywordTokens))
}

// NormalizeKeywords lowercases a raw keyword string and splits it into trimmed,
// non-empty tokens. Duplicates and order are preserved.
func NormalizeKeywords(raw string) []string {
	return newNormalizer().keywords(raw)
}

// Normalize turns the raw table into scored company records, one per row.
func Normalize(table *Table) []domain.Company {
	if table == nil {
		return []domain.Company{}
	}

	n := newNormalizer()
	out := make([]domain.Company, len(table.Rows))
	for i, row := range table.Rows {
		out[i] = n.row(i, row)
	}
	return out
}

// NormalizeRow normalizes a single raw row at the given table position.
func NormalizeRow(index int, row domain.RawRow) domain.Company {
	return newNormalizer().row(index, row)
}

// normalizer holds a caser, which must not be shared between goroutines.
type normalizer struct {
	lower cases.Caser
}

func newNormalizer() *normalizer {
	return &normalizer{lower: cases.Lower(language.Und)}
}

func (n *normalizer) keywords(raw string) []string {
	tokens := strings.Split(n.lower.String(raw), ",")
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func (n *normalizer) row(index int, row domain.RawRow) domain.Company {
	c := domain.Company{
		Row:      index,
		Name:     valueOr(row.Name, ""),
		Contact:  valueOr(row.Contact, ""),
		Email:    valueOr(row.Email, domain.NoEmail),
		Phone:    valueOr(row.Phone, ""),
		Website:  valueOr(row.Website, domain.NoWebsite),
		City:     valueOr(row.City, ""),
		Keywords: valueOr(row.Keywords, ""),
	}

	c.KeywordsNorm = n.keywords(c.Keywords)
	c.HasEmail = HasEmail(c.Email)
	c.HasWebsite = HasWebsite(c.Website)
	c.HasPhone = HasPhone(c.Phone)
	c.LeadScore = LeadScore(c.HasEmail, c.HasPhone, c.HasWebsite, KeywordTokens(c.Keywords))
	return c
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
