package services

import "errors"

// Data service errors
var (
	// Export errors
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// Health errors
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
)
