package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "bizinsights/internal/errors"
	"bizinsights/internal/files"
)

var (
	// ErrNotDataFile means the path exists but cannot be loaded as a dataset.
	ErrNotDataFile = errors.New("not a data file")
	// ErrOutputExists means an export would replace an existing file.
	ErrOutputExists = errors.New("output file exists")
)

// FileValidator checks data and export paths before they are used
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateDataFile checks that path is a readable CSV or Excel file.
// Office lock files (~$name.xlsx) are rejected.
func (v *FileValidator) ValidateDataFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Data file does not exist",
			slog.String("file", path))
		return apierrors.NewNotFoundError("data file " + path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotDataFile, path)
	}

	base := filepath.Base(path)
	if !files.IsDataFile(base) {
		v.logger.Error("Unsupported data file type",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(base)))
		return fmt.Errorf("%w: %s (supported: %s)", ErrNotDataFile, path, strings.Join(files.DataExtensions, ", "))
	}
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("%w: %s is a temporary Excel file", ErrNotDataFile, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Data file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apierrors.NewStorageError("failed to create output directory "+dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apierrors.NewStorageError("output directory "+dir+" is not writable", err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that an export can be written to path.
// An existing file is only accepted when overwrite is set.
func (v *FileValidator) ValidateOutputFile(path string, overwrite bool) error {
	if err := v.ValidateOutputDirectory(filepath.Dir(path)); err != nil {
		return err
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	case info.IsDir():
		return fmt.Errorf("%s is a directory, not a file", path)
	case !overwrite:
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	}
	return nil
}
