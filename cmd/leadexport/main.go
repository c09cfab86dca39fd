// Command leadexport writes the filtered, score ordered lead list of the
// company dataset to a CSV or Excel file without starting the dashboard.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bizinsights/internal/config"
	"bizinsights/internal/dataprocessing"
	"bizinsights/internal/dataset"
	"bizinsights/internal/exporter"
	"bizinsights/internal/files"
	"bizinsights/internal/infrastructure"
	"bizinsights/internal/services"
	"bizinsights/internal/validation"
	api "bizinsights/pkg/contracts/api/v1"
)

// listFlag is a repeatable, comma separated flag. An unset flag stays nil
// so the filter selects every value.
type listFlag struct {
	values []string
}

func (l *listFlag) String() string { return strings.Join(l.values, ",") }

func (l *listFlag) Set(s string) error {
	if l.values == nil {
		l.values = []string{}
	}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			l.values = append(l.values, part)
		}
	}
	return nil
}

// optionalInt distinguishes an unset bound from an explicit zero.
type optionalInt struct {
	value *int
}

func (o *optionalInt) String() string {
	if o.value == nil {
		return ""
	}
	return fmt.Sprint(*o.value)
}

func (o *optionalInt) Set(s string) error {
	var n int
	if _, err := fmt.Sscan(s, &n); err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	o.value = &n
	return nil
}

type options struct {
	configFile string
	dataFile   string
	outFile    string
	format     string
	cities     listFlag
	keywords   listFlag
	minScore   optionalInt
	maxScore   optionalInt
	force      bool
	list       bool
	summary    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("leadexport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configFile, "config", os.Getenv(config.ConfigFileEnv), "YAML config file")
	fs.StringVar(&opts.dataFile, "data", "", "data file (defaults to the configured candidates)")
	fs.StringVar(&opts.outFile, "out", "", "output file (defaults to leads_export.<format> in the export directory)")
	fs.StringVar(&opts.format, "format", string(api.ExportFormatCSV), "output format: csv or xlsx")
	fs.Var(&opts.cities, "city", "city to include, repeatable or comma separated")
	fs.Var(&opts.keywords, "keyword", "service keyword to require (any of), repeatable or comma separated")
	fs.Var(&opts.minScore, "min-score", "lowest lead score to include")
	fs.Var(&opts.maxScore, "max-score", "highest lead score to include")
	fs.BoolVar(&opts.force, "force", false, "overwrite an existing output file")
	fs.BoolVar(&opts.list, "list", false, "list data files in the dataset directory and exit")
	fs.BoolVar(&opts.summary, "summary", false, "print the KPI summary of the selection as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch api.ExportFormat(opts.format) {
	case api.ExportFormatCSV, api.ExportFormatXLSX:
	default:
		return nil, fmt.Errorf("unsupported format %q", opts.format)
	}
	return opts, nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			slog.Error("Lead export failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	if opts.list {
		return listDataFiles(cfg, stdout)
	}

	validator := validation.NewFileValidator(logger)

	candidates := cfg.Dataset.Candidates
	if opts.dataFile != "" {
		if err := validator.ValidateDataFile(cfg.ResolvePath(opts.dataFile)); err != nil {
			return err
		}
		candidates = []string{opts.dataFile}
	}

	cache := dataset.NewCache(dataset.Config{
		BaseDir:    cfg.Dataset.BaseDir,
		Candidates: candidates,
	}, logger)
	defer cache.Close()

	start := time.Now()
	snap, err := cache.Open(ctx)
	if err != nil {
		return err
	}

	req := api.FilterRequest{
		Cities:   opts.cities.values,
		Keywords: opts.keywords.values,
		MinScore: opts.minScore.value,
		MaxScore: opts.maxScore.value,
	}
	view := dataprocessing.Filter(snap.Records, services.SelectionFromRequest(req, snap.Records))
	leads := dataprocessing.LeadList(view)

	if opts.summary {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dataprocessing.KPIs(view)); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	format := api.ExportFormat(opts.format)
	outFile := opts.outFile
	if outFile == "" {
		outFile = filepath.Join(cfg.GetExportDir(), services.ExportBaseName+"."+string(format))
	}

	if err := validator.ValidateOutputFile(outFile, opts.force); err != nil {
		if errors.Is(err, validation.ErrOutputExists) {
			return fmt.Errorf("%w, use -force to overwrite", err)
		}
		return err
	}

	var writeErr error
	switch format {
	case api.ExportFormatXLSX:
		writeErr = exporter.NewXLSXWriter("").WriteLeadsFile(outFile, leads)
	default:
		writeErr = exporter.NewCSVWriter("", cfg.Dataset.CSVBOM).WriteLeadsFile(outFile, leads)
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", outFile, writeErr)
	}

	logger.Info("Lead export complete",
		slog.String("source", snap.Path),
		slog.Int("rows", len(snap.Records)),
		slog.Int("exported", len(leads)),
		slog.String("output", outFile),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func listDataFiles(cfg *config.Config, stdout io.Writer) error {
	dir := cfg.Dataset.BaseDir
	if dir == "" {
		dir = "."
	}

	found, err := files.NewDiscovery("").FindDataFiles(dir)
	if err != nil {
		return fmt.Errorf("failed to list data files: %w", err)
	}
	for _, f := range found {
		fmt.Fprintf(stdout, "%s\t%d\t%s\n", f.Name, f.Size, f.ModTime.Format(time.RFC3339))
	}
	return nil
}
