package dataprocessing

import (
	"sort"

	"bizinsights/pkg/contracts/domain"
)

// CityCounts returns record counts per city, most frequent first.
// Ties keep first-encounter order. A limit <= 0 returns every city.
func CityCounts(view []domain.Company, limit int) []domain.CityCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, c := range view {
		if _, seen := counts[c.City]; !seen {
			order = append(order, c.City)
		}
		counts[c.City]++
	}

	out := make([]domain.CityCount, len(order))
	for i, city := range order {
		out[i] = domain.CityCount{City: city, Count: counts[city]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return truncate(out, limit)
}

// ChannelCounts counts records with a valid phone, email and website.
func ChannelCounts(view []domain.Company) domain.ChannelPresence {
	var p domain.ChannelPresence
	for _, c := range view {
		if c.HasPhone {
			p.Phone++
		}
		if c.HasEmail {
			p.Email++
		}
		if c.HasWebsite {
			p.Website++
		}
	}
	return p
}

// KeywordFrequency counts normalized keyword tokens over the view, most
// frequent first with first-encounter tie order. Empty is set when the view has
// no tokens at all.
func KeywordFrequency(view []domain.Company, limit int) domain.ServiceReport {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, c := range view {
		for _, k := range c.KeywordsNorm {
			if _, seen := counts[k]; !seen {
				order = append(order, k)
			}
			counts[k]++
		}
	}

	out := make([]domain.KeywordCount, len(order))
	for i, k := range order {
		out[i] = domain.KeywordCount{Keyword: k, Count: counts[k]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	return domain.ServiceReport{
		Keywords: truncate(out, limit),
		Empty:    len(out) == 0,
	}
}

// KPIs summarizes a view for the dashboard header.
// Percentages are 0 for an empty view and the top city is TopCityNone when no
// record has a city.
func KPIs(view []domain.Company) domain.KPISummary {
	kpi := domain.KPISummary{
		TotalCompanies: len(view),
		TopCity:        domain.TopCityNone,
	}
	if len(view) == 0 {
		return kpi
	}

	cities := make(map[string]int)
	var websites, emails int
	for _, c := range view {
		if c.HasWebsite {
			websites++
		}
		if c.HasEmail {
			emails++
		}
		if c.City != "" {
			cities[c.City]++
		}
	}

	kpi.CitiesCovered = len(cities)
	kpi.WebsitePercent = percent(websites, len(view))
	kpi.EmailPercent = percent(emails, len(view))

	// Mode, smallest name wins a tie.
	best := 0
	for city, n := range cities {
		if n > best || (n == best && city < kpi.TopCity) {
			best = n
			kpi.TopCity = city
		}
	}
	return kpi
}

// LeadList projects the view onto the export columns, highest score first.
// Records with equal scores keep their view order.
func LeadList(view []domain.Company) []domain.LeadRow {
	sorted := make([]domain.Company, len(view))
	copy(sorted, view)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LeadScore > sorted[j].LeadScore
	})

	out := make([]domain.LeadRow, len(sorted))
	for i, c := range sorted {
		out[i] = c.Lead()
	}
	return out
}

// MapMarkers places every record of the view at the default map position.
func MapMarkers(view []domain.Company) []domain.MapMarker {
	out := make([]domain.MapMarker, len(view))
	for i, c := range view {
		m := domain.MapMarker{
			Name:      c.Name,
			City:      c.City,
			LeadScore: c.LeadScore,
			Latitude:  domain.DefaultLatitude,
			Longitude: domain.DefaultLongitude,
		}
		if c.HasEmail {
			m.MailTo = "mailto:" + c.Email
		}
		if c.Phone != "" {
			m.Tel = "tel:" + c.Phone
		}
		out[i] = m
	}
	return out
}

// FilterOptions lists the selectable cities and keywords of the whole table
// together with the observed lead score range.
func FilterOptions(records []domain.Company) domain.FilterOptions {
	opts := domain.FilterOptions{
		Cities:   []string{},
		Keywords: []string{},
	}
	if len(records) == 0 {
		return opts
	}

	cities := make(map[string]struct{})
	keywords := make(map[string]struct{})
	opts.MinScore, opts.MaxScore = records[0].LeadScore, records[0].LeadScore
	for _, c := range records {
		cities[c.City] = struct{}{}
		for _, k := range c.KeywordsNorm {
			keywords[k] = struct{}{}
		}
		opts.MinScore = min(opts.MinScore, c.LeadScore)
		opts.MaxScore = max(opts.MaxScore, c.LeadScore)
	}

	opts.Cities = sortedKeys(cities)
	opts.Keywords = sortedKeys(keywords)
	return opts
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
