// Package app wires the dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, BIZ_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Open the dataset cache; a missing data file is fatal
//	4. Start the WebSocket hub and subscribe it to dataset reloads
//	5. Build the data and health services
//	6. Mount handlers behind the middleware chain and create the server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests, stops
// the hub, closes the dataset cache and flushes telemetry. The package never
// calls os.Exit; main decides the exit code.
package app
