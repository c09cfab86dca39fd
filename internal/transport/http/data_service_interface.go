package http

import (
	"context"

	"bizinsights/internal/services"
	api "bizinsights/pkg/contracts/api/v1"
	"bizinsights/pkg/contracts/domain"
)

// DataServiceInterface defines the interface for dashboard data operations
type DataServiceInterface interface {
	Dataset(ctx context.Context) (domain.DatasetInfo, error)
	FilterOptions(ctx context.Context) (domain.FilterOptions, error)
	Summary(ctx context.Context, req api.FilterRequest) (domain.KPISummary, error)
	Overview(ctx context.Context, req api.FilterRequest) (domain.Overview, error)
	Services(ctx context.Context, req api.FilterRequest) (domain.ServiceReport, error)
	Leads(ctx context.Context, req api.FilterRequest) (api.LeadsResponse, error)
	ExportLeads(ctx context.Context, req api.FilterRequest, format api.ExportFormat) (*services.Export, error)
	MapMarkers(ctx context.Context, req api.FilterRequest) (api.MapResponse, error)
	Network(ctx context.Context, req api.FilterRequest) (domain.NetworkReport, error)
	Quality(ctx context.Context) (domain.QualityReport, error)
	Reload(ctx context.Context) (api.ReloadResponse, error)
}

var _ DataServiceInterface = (*services.DataService)(nil)
