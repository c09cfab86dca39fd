// Package http implements the HTTP handlers of the dashboard API.
// Handlers stay thin: they parse the filter of a request, call the service
// layer and render the result, leaving every computation to services.
//
// # Routes
//
//	GET       /api/data/dataset             loaded dataset description
//	GET       /api/data/filters             selectable cities, keywords and score range
//	GET|POST  /api/data/summary             KPI header
//	GET|POST  /api/data/overview            city distribution and channel presence
//	GET|POST  /api/data/services            keyword distribution
//	GET|POST  /api/data/leads               score ordered lead list
//	GET|POST  /api/data/leads/export.csv    lead list download
//	GET|POST  /api/data/leads/export.xlsx   lead list download
//	GET|POST  /api/data/map                 map markers
//	GET|POST  /api/data/network             betweenness ranking
//	GET       /api/data/quality             data-quality report of the whole table
//	POST      /api/data/reload              forced dataset reload
//	GET       /api/health[/ready|/live|/details]
//	GET       /api/version
//	GET       /metrics
//
// # Filters
//
// GET requests carry the filter as query parameters:
//
//	/api/data/summary?city=Pune&city=Delhi&keyword=tax&min_score=40&max_score=100
//
// POST requests carry it as JSON:
//
//	{"cities": ["Pune"], "keywords": ["tax"], "min_score": 40, "max_score": 100, "limit": 10}
//
// An omitted list selects every value. An empty list selects nothing for
// cities and applies no constraint for keywords.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/data/not-found",
//	    "title": "Dataset Unavailable",
//	    "status": 503,
//	    "detail": "dataset unavailable",
//	    "instance": "/api/data/summary",
//	    "trace_id": "..."
//	}
package http
