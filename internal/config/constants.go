package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "Business Insights Dashboard"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable (BIZ_SERVER_PORT, ...).
	EnvPrefix = "BIZ"
	// ConfigFileEnv names an explicit YAML config file.
	ConfigFileEnv = "BIZ_CONFIG_FILE"

	// Dataset
	DefaultDataCandidates = "data/companies.csv,companies.csv"
	DefaultExportDir      = "exports"
	DefaultChartLimit     = 15
	DefaultTopNodes       = 10

	// Analysis
	DefaultMaxAnalyses = 2

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Timeouts
	DefaultRequestTimeout  = 60 * time.Second
	DefaultAnalysisTimeout = 30 * time.Second
	WebSocketPingPeriod    = 30 * time.Second
	WebSocketPongWait      = 60 * time.Second

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// API Endpoints
const (
	APIBasePath       = "/api"
	DataEndpoint      = "/api/data"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
