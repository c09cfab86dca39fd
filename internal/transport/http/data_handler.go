package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "bizinsights/internal/errors"
	"bizinsights/internal/middleware"
	api "bizinsights/pkg/contracts/api/v1"
)

// DataHandler handles dashboard data requests with RFC 7807 compliance
type DataHandler struct {
	service      DataServiceInterface
	validation   *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, validation *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validation:   validation,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes. Every view accepts its filter either as
// query parameters (GET) or as a JSON body (POST).
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.validation.ValidateRequest)
	r.Use(middleware.ContentTypeValidator("application/json"))

	r.Get("/dataset", h.GetDataset)
	r.Get("/filters", h.GetFilterOptions)
	r.Get("/quality", h.GetQuality)
	r.Post("/reload", h.Reload)

	views := map[string]http.HandlerFunc{
		"/summary":  h.GetSummary,
		"/overview": h.GetOverview,
		"/services": h.GetServices,
		"/leads":    h.GetLeads,
		"/map":      h.GetMap,
		"/network":  h.GetNetwork,

		"/leads/export.csv":  h.ExportLeads(api.ExportFormatCSV),
		"/leads/export.xlsx": h.ExportLeads(api.ExportFormatXLSX),
	}
	for pattern, fn := range views {
		r.Get(pattern, fn)
		r.Post(pattern, fn)
	}

	return r
}

// parseFilter reads the filter of a view request.
//
// Query parameters: repeated city and keyword (one value per occurrence),
// min_score, max_score and limit. An absent list means every value; a present
// but empty one (?city=) is an explicit empty selection. The JSON body is the
// exact-match path, including the missing city "".
func (h *DataHandler) parseFilter(r *http.Request) (api.FilterRequest, error) {
	var req api.FilterRequest

	if r.Method == http.MethodPost {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, apierrors.InvalidRequestWithError(err)
		}
	} else {
		q := r.URL.Query()
		req.Cities = middleware.QueryList(q, "city")
		req.Keywords = middleware.QueryList(q, "keyword")

		var err error
		if req.MinScore, err = middleware.QueryInt(q, "min_score"); err != nil {
			return req, err
		}
		if req.MaxScore, err = middleware.QueryInt(q, "max_score"); err != nil {
			return req, err
		}
		limit, err := middleware.QueryInt(q, "limit")
		if err != nil {
			return req, err
		}
		if limit != nil {
			req.Limit = *limit
		}
	}

	if err := h.validation.ValidateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

// serveView parses the filter, runs fn and renders its result.
func serveView[T any](h *DataHandler, name string, fn func(context.Context, api.FilterRequest) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reqID := middleware.GetReqID(ctx)

		req, err := h.parseFilter(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		result, err := fn(ctx, req)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to compute "+name,
				slog.String("error", err.Error()),
				slog.String("request_id", reqID),
			)
			h.errorHandler.HandleError(w, r, err)
			return
		}

		render.JSON(w, r, map[string]interface{}{
			"status": "success",
			"data":   result,
		})
	}
}

// GetSummary handles GET|POST /api/data/summary
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	serveView(h, "summary", h.service.Summary)(w, r)
}

// GetOverview handles GET|POST /api/data/overview
func (h *DataHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	serveView(h, "overview", h.service.Overview)(w, r)
}

// GetServices handles GET|POST /api/data/services
func (h *DataHandler) GetServices(w http.ResponseWriter, r *http.Request) {
	serveView(h, "service report", h.service.Services)(w, r)
}

// GetLeads handles GET|POST /api/data/leads
func (h *DataHandler) GetLeads(w http.ResponseWriter, r *http.Request) {
	serveView(h, "lead list", h.service.Leads)(w, r)
}

// GetMap handles GET|POST /api/data/map
func (h *DataHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	serveView(h, "map markers", h.service.MapMarkers)(w, r)
}

// GetNetwork handles GET|POST /api/data/network
func (h *DataHandler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	serveView(h, "network", h.service.Network)(w, r)
}

// ExportLeads handles GET|POST /api/data/leads/export.{csv,xlsx}
func (h *DataHandler) ExportLeads(format api.ExportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		req, err := h.parseFilter(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		export, err := h.service.ExportLeads(ctx, req, format)
		if err != nil {
			h.logger.ErrorContext(ctx, "lead export failed",
				slog.String("format", string(format)),
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetReqID(ctx)),
			)
			h.errorHandler.HandleError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(export.Body)))
		w.Header().Set("X-Total-Count", strconv.Itoa(export.Rows))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(export.Body); err != nil {
			h.logger.WarnContext(ctx, "failed to write export body",
				slog.String("error", err.Error()))
		}
	}
}

// GetDataset handles GET /api/data/dataset
func (h *DataHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Dataset(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetFilterOptions handles GET /api/data/filters
func (h *DataHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   opts,
	})
}

// GetQuality handles GET /api/data/quality
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Quality(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
		"count":  len(report.Duplicates),
	})
}

// Reload handles POST /api/data/reload
func (h *DataHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.logger.InfoContext(ctx, "dataset reload requested",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("remote_addr", middleware.GetRealIP(r)),
	)

	resp, err := h.service.Reload(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   resp,
	})
}
