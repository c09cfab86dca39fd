// Package dataprocessing turns the raw company table into scored records and
// derives every dashboard view from them.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Parser: reads CSV or Excel company tables into a Table of RawRow values
// 2. Processor: normalizes rows, derives channel flags and computes the lead score
// 3. Filter: applies a Selection (cities, keywords, score range) to the records
// 4. Analytics and quality: distributions, KPIs, lead lists and completeness reports
//
// # Usage
//
//	table, err := dataprocessing.ParseFile("data/companies.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	records := dataprocessing.Normalize(table)
//	view := dataprocessing.Filter(records, dataprocessing.DefaultSelection(records))
//	cities := dataprocessing.CityCounts(view, 15)
//
// # Data Flow
//
//	File → Parser → Table → Processor → []Company → Filter → view → Analytics → reports
//
// Records and views are never modified after normalization; every function
// here returns fresh slices and is safe for concurrent use.
package dataprocessing
