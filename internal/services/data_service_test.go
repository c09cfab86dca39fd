package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizinsights/internal/config"
	"bizinsights/internal/dataprocessing"
	"bizinsights/internal/dataset"
	apierrors "bizinsights/internal/errors"
	api "bizinsights/pkg/contracts/api/v1"
	"bizinsights/pkg/contracts/domain"
)

// Scores: Acme 92, Beta 1, Gamma 60.
const companiesCSV = `co_name,contact,email,phone,website,city,keywords
Acme,Ann,ann@acme.com,9876543210,acme.com,Pune,"tax,audit"
Beta,Bob,,12345,,Delhi,seo
Gamma,Gil,gil@gamma.io,,gamma.io,Pune,
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(i int) *int { return &i }

type recordingNotifier struct {
	codes []string
}

func (n *recordingNotifier) BroadcastError(code, _ string) {
	n.codes = append(n.codes, code)
}

type fixture struct {
	dir     string
	path    string
	cfg     *config.Config
	cache   *dataset.Cache
	service *DataService
}

func newFixture(t *testing.T, open bool) *fixture {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte(companiesCSV), 0644))

	cfg := config.Default()
	cfg.Dataset.BaseDir = dir
	cfg.Dataset.Candidates = []string{"companies.csv"}

	cache := dataset.NewCache(dataset.Config{
		BaseDir:    dir,
		Candidates: cfg.Dataset.Candidates,
	}, quietLogger())
	t.Cleanup(func() { cache.Close() })

	if open {
		_, err := cache.Open(context.Background())
		require.NoError(t, err)
	}

	return &fixture{
		dir:     dir,
		path:    path,
		cfg:     cfg,
		cache:   cache,
		service: NewDataService(cache, cfg, nil, quietLogger()),
	}
}

func TestSelectionFromRequest(t *testing.T) {
	records := []domain.Company{
		{Name: "a", City: "Pune", LeadScore: 10, KeywordsNorm: []string{"tax"}},
		{Name: "b", City: "Delhi", LeadScore: 70},
	}

	tests := []struct {
		name    string
		req     api.FilterRequest
		matches []string
	}{
		{"defaults select everything", api.FilterRequest{}, []string{"a", "b"}},
		{"explicit empty city set", api.FilterRequest{Cities: []string{}}, nil},
		{"empty keyword set is no constraint", api.FilterRequest{Keywords: []string{}}, []string{"a", "b"}},
		{"keyword folded", api.FilterRequest{Keywords: []string{"TAX"}}, []string{"a"}},
		{"city subset", api.FilterRequest{Cities: []string{"Delhi"}}, []string{"b"}},
		{"min bound only", api.FilterRequest{MinScore: intPtr(50)}, []string{"b"}},
		{"max bound only", api.FilterRequest{MaxScore: intPtr(50)}, []string{"a"}},
		{"inverted bounds", api.FilterRequest{MinScore: intPtr(80), MaxScore: intPtr(5)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := dataprocessing.Filter(records, SelectionFromRequest(tt.req, records))
			var names []string
			for _, c := range view {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.matches, names)
		})
	}
}

func TestDataService_FilterOptions(t *testing.T) {
	f := newFixture(t, true)

	opts, err := f.service.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi", "Pune"}, opts.Cities)
	assert.Equal(t, []string{"audit", "seo", "tax"}, opts.Keywords)
	assert.Equal(t, 1, opts.MinScore)
	assert.Equal(t, 92, opts.MaxScore)

	info, err := f.service.Dataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, f.path, info.Path)
}

func TestDataService_Summary(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	kpi, err := f.service.Summary(ctx, api.FilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, kpi.TotalCompanies)
	assert.Equal(t, 2, kpi.CitiesCovered)
	assert.InDelta(t, 66.67, kpi.WebsitePercent, 0.01)
	assert.InDelta(t, 66.67, kpi.EmailPercent, 0.01)
	assert.Equal(t, "Pune", kpi.TopCity)

	empty, err := f.service.Summary(ctx, api.FilterRequest{Cities: []string{}})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCompanies)
	assert.Equal(t, domain.TopCityNone, empty.TopCity)

	inverted, err := f.service.Summary(ctx, api.FilterRequest{MinScore: intPtr(90), MaxScore: intPtr(10)})
	require.NoError(t, err, "inverted bounds are an empty view, not an error")
	assert.Zero(t, inverted.TotalCompanies)
}

func TestDataService_OverviewAndServices(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	overview, err := f.service.Overview(ctx, api.FilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, []domain.CityCount{{City: "Pune", Count: 2}, {City: "Delhi", Count: 1}}, overview.Cities)
	assert.Equal(t, domain.ChannelPresence{Phone: 1, Email: 2, Website: 2}, overview.Channels)

	limited, err := f.service.Overview(ctx, api.FilterRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited.Cities, 1)

	services, err := f.service.Services(ctx, api.FilterRequest{})
	require.NoError(t, err)
	assert.False(t, services.Empty)
	assert.Len(t, services.Keywords, 3)

	none, err := f.service.Services(ctx, api.FilterRequest{Cities: []string{"Pune"}, MinScore: intPtr(60), MaxScore: intPtr(60)})
	require.NoError(t, err)
	assert.True(t, none.Empty, "Gamma has no keywords")
}

func TestDataService_Leads(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.service.Leads(context.Background(), api.FilterRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Total)

	var names []string
	for _, l := range resp.Leads {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Acme", "Gamma", "Beta"}, names)
	assert.Equal(t, domain.NoEmail, resp.Leads[2].Email)
}

func TestDataService_Export(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	csvExport, err := f.service.ExportCSV(ctx, api.FilterRequest{Keywords: []string{"tax"}})
	require.NoError(t, err)
	assert.Equal(t, "leads_export.csv", csvExport.Filename)
	assert.Equal(t, 1, csvExport.Rows)
	assert.True(t, strings.HasPrefix(csvExport.ContentType, "text/csv"))

	body := bytes.TrimPrefix(csvExport.Body, []byte("\xef\xbb\xbf"))
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "co_name,contact,email,phone,city,lead_score,website,keywords", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Acme,Ann,ann@acme.com,9876543210,Pune,92,"))

	xlsxExport, err := f.service.ExportXLSX(ctx, api.FilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, "leads_export.xlsx", xlsxExport.Filename)
	assert.Equal(t, 3, xlsxExport.Rows)
	assert.True(t, bytes.HasPrefix(xlsxExport.Body, []byte("PK")), "xlsx is a zip archive")

	_, err = f.service.ExportLeads(ctx, api.FilterRequest{}, api.ExportFormat("pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestDataService_MapMarkers(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.service.MapMarkers(context.Background(), api.FilterRequest{Cities: []string{"Delhi"}})
	require.NoError(t, err)
	require.Len(t, resp.Markers, 1)

	m := resp.Markers[0]
	assert.Equal(t, "Beta", m.Name)
	assert.Equal(t, domain.DefaultLatitude, m.Latitude)
	assert.Empty(t, m.MailTo)
	assert.Equal(t, "tel:12345", m.Tel)
}

func TestDataService_Network(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	report, err := f.service.Network(ctx, api.FilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Nodes)
	assert.Equal(t, 3, report.Edges)
	require.NotEmpty(t, report.Top)
	assert.Equal(t, "city::Pune", report.Top[0].Node)
	assert.Equal(t, domain.NodeKindCity, report.Top[0].Kind)

	empty, err := f.service.Network(ctx, api.FilterRequest{Cities: []string{}})
	require.NoError(t, err)
	assert.True(t, empty.Empty)
	assert.Empty(t, empty.Top)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.service.Network(cancelled, api.FilterRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeAnalysis, appErr.Type)

	assert.Eventually(t, func() bool { return f.service.analyzer.Running() == 0 },
		time.Second, 5*time.Millisecond, "every analysis slot is returned")
}

func TestDataService_Quality(t *testing.T) {
	f := newFixture(t, true)

	report, err := f.service.Quality(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rows)
	assert.NotEmpty(t, report.Columns)
	assert.Empty(t, report.Duplicates)
}

func TestDataService_Reload(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	updated := companiesCSV + "Delta,Dee,dee@delta.com,5551234567,delta.com,Agra,tax\n"
	require.NoError(t, os.WriteFile(f.path, []byte(updated), 0644))

	resp, err := f.service.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Dataset.Rows)

	opts, err := f.service.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Contains(t, opts.Cities, "Agra")
}

func TestDataService_DatasetErrors(t *testing.T) {
	t.Run("not opened", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.service.Summary(context.Background(), api.FilterRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, dataset.ErrNotOpen)
		var appErr *apierrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apierrors.ErrTypeDataset, appErr.Type)

		_, err = f.service.Reload(context.Background())
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apierrors.ErrTypeDataset, appErr.Type)
	})

	t.Run("file removed", func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, os.Remove(f.path))
		_, err := f.service.Leads(context.Background(), api.FilterRequest{})
		assert.ErrorIs(t, err, dataset.ErrDataFileNotFound)
	})

	t.Run("unparseable file", func(t *testing.T) {
		f := newFixture(t, true)
		notifier := &recordingNotifier{}
		f.service.SetNotifier(notifier)
		require.NoError(t, os.WriteFile(f.path, nil, 0644))
		later := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(f.path, later, later))

		_, err := f.service.Quality(context.Background())
		require.Error(t, err)
		var appErr *apierrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)
		assert.True(t, errors.Is(err, dataprocessing.ErrNoHeader))
		assert.Equal(t, []string{"DATASET_UNREADABLE"}, notifier.codes)
	})
}
