package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"bizinsights/internal/config"
	"bizinsights/internal/dataprocessing"
	"bizinsights/internal/dataset"
	apierrors "bizinsights/internal/errors"
	"bizinsights/internal/exporter"
	"bizinsights/internal/infrastructure"
	"bizinsights/internal/network"
	api "bizinsights/pkg/contracts/api/v1"
	"bizinsights/pkg/contracts/domain"
)

// ExportBaseName is the file name of lead downloads without extension.
const ExportBaseName = "leads_export"

// Export is a rendered lead download.
type Export struct {
	Filename    string
	ContentType string
	Rows        int
	Body        []byte
}

// Notifier is told about dataset failures that clients should surface.
type Notifier interface {
	BroadcastError(code, message string)
}

// DataService answers dashboard queries against the cached dataset.
type DataService struct {
	cache           *dataset.Cache
	cfg             config.DatasetConfig
	analysisTimeout time.Duration
	analyzer        *network.Analyzer
	metrics         *infrastructure.DashboardMetrics
	writers         map[api.ExportFormat]exporter.LeadWriter
	notifier        Notifier
	logger          *slog.Logger
}

// NewDataService creates a data service. metrics may be nil.
func NewDataService(cache *dataset.Cache, cfg *config.Config, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	logger = infrastructure.WithComponent(logger, "data_service")
	logger.Info("DataService initialized",
		slog.Int("chart_limit", cfg.Dataset.ChartLimit),
		slog.Int("top_nodes", cfg.Dataset.TopNodes),
		slog.Duration("analysis_timeout", cfg.Server.AnalysisTimeout),
		slog.Int("max_analyses", cfg.Server.MaxAnalyses))

	exportDir := cfg.GetExportDir()
	return &DataService{
		cache:           cache,
		cfg:             cfg.Dataset,
		analysisTimeout: cfg.Server.AnalysisTimeout,
		analyzer:        network.NewAnalyzer(int64(cfg.Server.MaxAnalyses)),
		metrics:         metrics,
		writers: map[api.ExportFormat]exporter.LeadWriter{
			api.ExportFormatCSV:  exporter.NewCSVWriter(exportDir, cfg.Dataset.CSVBOM),
			api.ExportFormatXLSX: exporter.NewXLSXWriter(exportDir),
		},
		logger: logger,
	}
}

// SetNotifier registers the receiver of dataset failure notices.
func (ds *DataService) SetNotifier(n Notifier) {
	ds.notifier = n
}

// SelectionFromRequest resolves a filter request against the full record set.
// Nil fields take the dashboard defaults: every city, no keyword constraint
// and the observed score range.
func SelectionFromRequest(req api.FilterRequest, records []domain.Company) dataprocessing.Selection {
	if req.Cities == nil && req.Keywords == nil && req.MinScore == nil && req.MaxScore == nil {
		return dataprocessing.DefaultSelection(records)
	}
	opts := dataprocessing.FilterOptions(records)

	cities := req.Cities
	if cities == nil {
		cities = opts.Cities
	}
	minScore, maxScore := opts.MinScore, opts.MaxScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}
	if req.MaxScore != nil {
		maxScore = *req.MaxScore
	}
	return dataprocessing.NewSelection(cities, req.Keywords, minScore, maxScore)
}

// snapshot returns the current dataset, translating cache failures into
// application errors.
func (ds *DataService) snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	snap, err := ds.cache.Snapshot(ctx)
	if err == nil {
		return snap, nil
	}
	return nil, ds.datasetError(ctx, err)
}

func (ds *DataService) datasetError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, dataset.ErrDataFileNotFound),
		errors.Is(err, dataset.ErrNotOpen),
		errors.Is(err, dataset.ErrClosed):
		ds.logger.WarnContext(ctx, "dataset unavailable", slog.String("error", err.Error()))
		return apierrors.NewDatasetError("dataset unavailable", err)
	default:
		ds.logger.ErrorContext(ctx, "dataset load failed", slog.String("error", err.Error()))
		if ds.notifier != nil {
			ds.notifier.BroadcastError("DATASET_UNREADABLE", err.Error())
		}
		return apierrors.NewParsingError("failed to load dataset", err)
	}
}

// view filters the current snapshot.
func (ds *DataService) view(ctx context.Context, req api.FilterRequest) (*dataset.Snapshot, []domain.Company, error) {
	snap, err := ds.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	view := dataprocessing.Filter(snap.Records, SelectionFromRequest(req, snap.Records))
	ds.metrics.RecordAnalysis(ctx, "filter", time.Since(start), nil)

	ds.logger.DebugContext(ctx, "view filtered",
		slog.Int("records", len(snap.Records)),
		slog.Int("view", len(view)),
		slog.Int("cities", len(req.Cities)),
		slog.Int("keywords", len(req.Keywords)))
	return snap, view, nil
}

func (ds *DataService) chartLimit(req api.FilterRequest) int {
	if req.Limit <= 0 && ds.cfg.ChartLimit > 0 {
		return ds.cfg.ChartLimit
	}
	return req.ChartLimit()
}

func (ds *DataService) nodeLimit(req api.FilterRequest) int {
	if req.Limit <= 0 && ds.cfg.TopNodes > 0 {
		return ds.cfg.TopNodes
	}
	return req.NodeLimit()
}

// Dataset describes the loaded dataset.
func (ds *DataService) Dataset(ctx context.Context) (domain.DatasetInfo, error) {
	snap, err := ds.snapshot(ctx)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return snap.Info(), nil
}

// FilterOptions returns the selectable cities and keywords with the score range.
func (ds *DataService) FilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	snap, err := ds.snapshot(ctx)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return dataprocessing.FilterOptions(snap.Records), nil
}

// Summary returns the KPI header of the view.
func (ds *DataService) Summary(ctx context.Context, req api.FilterRequest) (domain.KPISummary, error) {
	_, view, err := ds.view(ctx, req)
	if err != nil {
		return domain.KPISummary{}, err
	}
	return dataprocessing.KPIs(view), nil
}

// Overview returns the city distribution and channel presence of the view.
func (ds *DataService) Overview(ctx context.Context, req api.FilterRequest) (domain.Overview, error) {
	_, view, err := ds.view(ctx, req)
	if err != nil {
		return domain.Overview{}, err
	}
	return domain.Overview{
		Cities:   dataprocessing.CityCounts(view, ds.chartLimit(req)),
		Channels: dataprocessing.ChannelCounts(view),
	}, nil
}

// Services returns the keyword distribution of the view.
func (ds *DataService) Services(ctx context.Context, req api.FilterRequest) (domain.ServiceReport, error) {
	_, view, err := ds.view(ctx, req)
	if err != nil {
		return domain.ServiceReport{}, err
	}
	return dataprocessing.KeywordFrequency(view, ds.chartLimit(req)), nil
}

// Leads returns the view as a lead list ordered by score.
func (ds *DataService) Leads(ctx context.Context, req api.FilterRequest) (api.LeadsResponse, error) {
	_, view, err := ds.view(ctx, req)
	if err != nil {
		return api.LeadsResponse{}, err
	}
	leads := dataprocessing.LeadList(view)
	return api.LeadsResponse{Total: len(leads), Leads: leads}, nil
}

// ExportCSV renders the lead list of the view as CSV.
func (ds *DataService) ExportCSV(ctx context.Context, req api.FilterRequest) (*Export, error) {
	return ds.ExportLeads(ctx, req, api.ExportFormatCSV)
}

// ExportXLSX renders the lead list of the view as an Excel workbook.
func (ds *DataService) ExportXLSX(ctx context.Context, req api.FilterRequest) (*Export, error) {
	return ds.ExportLeads(ctx, req, api.ExportFormatXLSX)
}

// ExportLeads renders the lead list of the view in the given format.
func (ds *DataService) ExportLeads(ctx context.Context, req api.FilterRequest, format api.ExportFormat) (*Export, error) {
	writer, ok := ds.writers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, apierrors.InvalidParameter("format", string(format)))
	}

	ctx, span := infrastructure.StartSpan(ctx, "DataService.ExportLeads",
		attribute.String("export.format", string(format)))
	defer span.End()

	_, view, err := ds.view(ctx, req)
	if err != nil {
		return nil, err
	}
	leads := dataprocessing.LeadList(view)

	var buf bytes.Buffer
	if err := writer.WriteLeads(&buf, leads); err != nil {
		infrastructure.RecordError(ctx, err)
		ds.logger.ErrorContext(ctx, "lead export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", apierrors.ErrExportFailed, err)
	}

	ds.metrics.RecordExport(ctx, string(format), len(leads))
	ds.logger.InfoContext(ctx, "lead export rendered",
		slog.String("format", string(format)),
		slog.Int("rows", len(leads)),
		slog.Int("bytes", buf.Len()))

	return &Export{
		Filename:    ExportBaseName + writer.Extension(),
		ContentType: writer.ContentType(),
		Rows:        len(leads),
		Body:        buf.Bytes(),
	}, nil
}

// MapMarkers returns one marker per company in the view.
func (ds *DataService) MapMarkers(ctx context.Context, req api.FilterRequest) (api.MapResponse, error) {
	_, view, err := ds.view(ctx, req)
	if err != nil {
		return api.MapResponse{}, err
	}
	return api.MapResponse{Markers: dataprocessing.MapMarkers(view)}, nil
}

// Network ranks the company/city graph of the view by betweenness centrality.
// The computation is bounded by the configured analysis timeout, and at most
// Server.MaxAnalyses computations run at once; waiting for a slot counts
// against the same timeout.
func (ds *DataService) Network(ctx context.Context, req api.FilterRequest) (domain.NetworkReport, error) {
	_, view, err := ds.view(ctx, req)
	if err != nil {
		return domain.NetworkReport{}, err
	}

	if ds.analysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ds.analysisTimeout)
		defer cancel()
	}

	ctx, span := infrastructure.StartSpan(ctx, "DataService.Network",
		attribute.Int("network.view_size", len(view)))
	defer span.End()

	start := time.Now()
	report, err := ds.analyzer.TopN(ctx, view, ds.nodeLimit(req))
	duration := time.Since(start)
	ds.metrics.RecordAnalysis(ctx, "centrality", duration, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		ds.logger.WarnContext(ctx, "centrality computation aborted",
			slog.Int("view", len(view)),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return domain.NetworkReport{}, apierrors.NewAnalysisError("centrality", err)
	}

	ds.logger.DebugContext(ctx, "centrality computed",
		slog.Int("nodes", report.Nodes),
		slog.Int("edges", report.Edges),
		slog.Duration("duration", duration))
	return report, nil
}

// Quality returns the data-quality report of the whole, unfiltered table.
func (ds *DataService) Quality(ctx context.Context) (domain.QualityReport, error) {
	snap, err := ds.snapshot(ctx)
	if err != nil {
		return domain.QualityReport{}, err
	}

	start := time.Now()
	report := dataprocessing.QualityReport(snap.Table, snap.Records)
	ds.metrics.RecordAnalysis(ctx, "quality", time.Since(start), nil)
	return report, nil
}

// Reload forces a fresh load of the data file.
func (ds *DataService) Reload(ctx context.Context) (api.ReloadResponse, error) {
	snap, err := ds.cache.Reload(ctx)
	if err != nil {
		return api.ReloadResponse{}, ds.datasetError(ctx, err)
	}

	ds.logger.InfoContext(ctx, "dataset reloaded on request",
		slog.String("path", snap.Path),
		slog.Int("rows", len(snap.Records)))
	return api.ReloadResponse{Dataset: snap.Info()}, nil
}
