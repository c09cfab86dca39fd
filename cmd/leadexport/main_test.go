package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companiesCSV = `co_name,contact,email,phone,website,city,keywords
Acme,Ann,ann@acme.com,9876543210,acme.com,Pune,"tax,audit"
Beta,Bob,,12345,,Delhi,seo
Gamma,Gil,gil@gamma.io,,gamma.io,Pune,
`

func writeDataset(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte(companiesCSV), 0644))
	return dir, path
}

func readExport(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestListFlag(t *testing.T) {
	var l listFlag
	assert.Nil(t, l.values, "unset flag selects everything")

	require.NoError(t, l.Set("Pune, Delhi"))
	require.NoError(t, l.Set("Mumbai"))
	assert.Equal(t, []string{"Pune", "Delhi", "Mumbai"}, l.values)

	var empty listFlag
	require.NoError(t, empty.Set(""))
	assert.NotNil(t, empty.values)
	assert.Empty(t, empty.values)
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer

	opts, err := parseFlags([]string{"-min-score", "0", "-format", "xlsx"}, &stderr)
	require.NoError(t, err)
	require.NotNil(t, opts.minScore.value)
	assert.Equal(t, 0, *opts.minScore.value)
	assert.Nil(t, opts.maxScore.value)

	_, err = parseFlags([]string{"-format", "pdf"}, &stderr)
	assert.ErrorContains(t, err, "unsupported format")

	_, err = parseFlags([]string{"-max-score", "high"}, &stderr)
	assert.Error(t, err)
}

func TestRun_CSV(t *testing.T) {
	_, data := writeDataset(t)
	out := filepath.Join(t.TempDir(), "leads.csv")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-data", data, "-out", out, "-city", "Pune"}, &stdout, &stderr)
	require.NoError(t, err)

	rows := readExport(t, out)
	require.Len(t, rows, 3)
	assert.Equal(t, "co_name", rows[0][0])
	assert.Equal(t, "Acme", rows[1][0], "highest score first")
	assert.Equal(t, "Gamma", rows[2][0])
}

func TestRun_SummaryAndKeywords(t *testing.T) {
	_, data := writeDataset(t)
	out := filepath.Join(t.TempDir(), "leads.csv")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-data", data, "-out", out, "-keyword", "SEO", "-summary"}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), `"total_companies": 1`)
	rows := readExport(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, "Beta", rows[1][0])
}

func TestRun_XLSX(t *testing.T) {
	_, data := writeDataset(t)
	out := filepath.Join(t.TempDir(), "leads.xlsx")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-data", data, "-out", out, "-format", "xlsx"}, &stdout, &stderr))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")))
}

func TestRun_RefusesOverwrite(t *testing.T) {
	_, data := writeDataset(t)
	out := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(out, []byte("keep"), 0644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-data", data, "-out", out}, &stdout, &stderr)
	assert.ErrorContains(t, err, "-force")

	require.NoError(t, run(context.Background(), []string{"-data", data, "-out", out, "-force"}, &stdout, &stderr))
	assert.Len(t, readExport(t, out), 4)
}

func TestRun_MissingData(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-data", filepath.Join(t.TempDir(), "none.csv")}, &stdout, &stderr)
	assert.ErrorContains(t, err, "none.csv not found")
}

func TestRun_List(t *testing.T) {
	dir, _ := writeDataset(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("dataset:\n  base_dir: "+dir+"\n"), 0644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", cfgFile, "-list"}, &stdout, &stderr))

	assert.True(t, strings.HasPrefix(stdout.String(), "companies.csv\t"))
	assert.NotContains(t, stdout.String(), "notes.txt")
}
