// Package storage selects and opens the profile store backend.
//
// Three backends are available:
//
//   - memory: profiles.MemoryStore, for development and tests
//   - postgres: sqlstore over lib/pq, with optional read replicas
//   - sqlite: sqlstore over mattn/go-sqlite3, for single-node deployments
//
// Open returns a Backend whose Store can be wrapped with Instrument to emit
// Prometheus metrics and OpenTelemetry spans for every call:
//
//	backend, err := storage.Open(ctx, cfg, logger)
//	store := storage.Instrument(backend.Store, backend.Name, metrics)
//	svc := profiles.NewService(store)
//
// NewRedisClient builds the shared Redis client used by the distributed rate
// limiter and the health checker.
package storage
