// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the dataset cache so that view
// computations are centralized and testable without a server.
//
// # Service Layer Responsibilities
//
// The service layer is responsible for:
//
//	- Resolving filter requests against the loaded records
//	- Running the aggregations, rankings and exports of a view
//	- Bounding expensive analyses with the configured timeout
//	- Translating cache failures into typed application errors
//	- Recording analysis and export metrics
//
// # Common Service Pattern
//
// Every view operation follows the same steps:
//
//	func (ds *DataService) Summary(ctx context.Context, req api.FilterRequest) (domain.KPISummary, error) {
//	    _, view, err := ds.view(ctx, req)  // snapshot + filter
//	    if err != nil {
//	        return domain.KPISummary{}, err
//	    }
//	    return dataprocessing.KPIs(view), nil
//	}
//
// # Available Services
//
//	- DataService: filter options, KPIs, charts, leads, exports, map, network, quality
//	- HealthService: health, readiness, liveness and version information
//
// # Error Handling
//
// A missing or closed dataset becomes an AppError of type DATASET, a file that
// cannot be parsed an AppError of type PARSING; both render as 503. Centrality
// failures are wrapped as ANALYSIS errors, and a context deadline anywhere in
// the chain renders as 504.
package services
