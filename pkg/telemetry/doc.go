// Package telemetry provides observability for Meridian.
//
// # Components
//
//   - logging: structured log/slog loggers with context-carried identifiers
//   - metrics: Prometheus metrics collection and the /metrics handler
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	m := metrics.New()
//	http.Handle("/metrics", metrics.Handler())
//
// Components accept a nil *metrics.Metrics and skip recording, so
// telemetry stays optional in tests and embedded use.
package telemetry
