// Package config loads the dashboard configuration.
//
// # Configuration Sources
//
// Configuration is layered in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BIZ_<SECTION>_<FIELD>:
//
//	BIZ_SERVER_PORT=8080
//	BIZ_DATASET_CANDIDATES=data/companies.csv,companies.csv
//	BIZ_LOGGING_LEVEL=debug
//	BIZ_TELEMETRY_TRACE_EXPORTER=none
//
// The config file is taken from BIZ_CONFIG_FILE, or the first of config.yaml
// and configs/config.yaml that exists.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For tests, Default() returns a valid configuration without touching the
// environment.
package config
