package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every BIZ_ variable for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, DefaultAnalysisTimeout, cfg.Server.AnalysisTimeout)
				assert.Equal(t, DefaultMaxAnalyses, cfg.Server.MaxAnalyses)
				assert.Equal(t, []string{"data/companies.csv", "companies.csv"}, cfg.Dataset.Candidates)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, 15, cfg.Dataset.ChartLimit)
				assert.True(t, cfg.Dataset.CSVBOM)
			},
		},
		{
			name: "environment variables",
			env: map[string]string{
				"BIZ_SERVER_PORT":              "9090",
				"BIZ_SERVER_ANALYSIS_TIMEOUT":  "5s",
				"BIZ_SERVER_MAX_ANALYSES":      "4",
				"BIZ_DATASET_CANDIDATES":       "a.csv,b.xlsx",
				"BIZ_LOGGING_LEVEL":            "debug",
				"BIZ_SECURITY_RATE_LIMIT_RPS":  "10",
				"BIZ_TELEMETRY_TRACE_EXPORTER": "stdout",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.AnalysisTimeout)
				assert.Equal(t, 4, cfg.Server.MaxAnalyses)
				assert.Equal(t, []string{"a.csv", "b.xlsx"}, cfg.Dataset.Candidates)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 10.0, cfg.Security.RateLimit.RPS)
				assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "file values override defaults",
			file: "server:\n  port: 7070\n  analysis_timeout: 2s\ndataset:\n  candidates: [\"x.csv\"]\n  chart_limit: 5\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 2*time.Second, cfg.Server.AnalysisTimeout)
				assert.Equal(t, []string{"x.csv"}, cfg.Dataset.Candidates)
				assert.Equal(t, 5, cfg.Dataset.ChartLimit)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset file values keep defaults")
			},
		},
		{
			name: "env overrides file",
			env:  map[string]string{"BIZ_SERVER_PORT": "6060"},
			file: "server:\n  port: 7070\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"BIZ_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"BIZ_SERVER_PORT": "abc"},
			wantErr: true,
		},
		{
			name:    "no dataset candidates",
			file:    "dataset:\n  candidates: [\" \"]\n",
			wantErr: true,
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"BIZ_TELEMETRY_TRACE_EXPORTER": "otlp"},
			wantErr: true,
		},
		{
			name: "invalid logging values fall back",
			env:  map[string]string{"BIZ_LOGGING_FORMAT": "xml", "BIZ_LOGGING_OUTPUT": "both"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ConfigFileEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigFileEnv, writeConfig(t, "server:\n  port: 5050\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Server.Port)
}

func TestResolvePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "exports", cfg.GetExportDir())

	cfg.Dataset.BaseDir = "/srv/app"
	assert.Equal(t, filepath.Join("/srv/app", "exports"), cfg.GetExportDir())
	assert.Equal(t, "/abs/file.csv", cfg.ResolvePath("/abs/file.csv"))
	assert.Equal(t, ":8080", cfg.Server.Address())
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().validate())
}
