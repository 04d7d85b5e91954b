// Package observability provides structured logging, Prometheus metrics,
// health checks and OpenTelemetry tracing for the userdeck service.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("uid", uid).Info("profile created")
//
// Request-scoped loggers carry the request and user IDs placed in the
// context by the HTTP middleware:
//
//	observability.FromContext(r.Context()).Warn("handle already taken")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// Profile population gauges are refreshed by a GaugeRefresher on a cron
// schedule.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	observability.RegisterHealthRoutes(healthMux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "userdeck",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
