package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/userdeck/pkg/api"
	"github.com/platinummonkey/userdeck/pkg/auth"
	"github.com/platinummonkey/userdeck/pkg/config"
	"github.com/platinummonkey/userdeck/pkg/middleware"
	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/profiles"
	"github.com/platinummonkey/userdeck/pkg/rbac"
	"github.com/platinummonkey/userdeck/pkg/storage"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", "userdeck")

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.WithError(err).Error("userdeck exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	cleanup := &cleanupStack{}
	defer cleanup.release(logger)
	cleanup.push(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	backend, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Type, err)
	}
	cleanup.push(func(context.Context) error { return backend.Close() })
	logger.WithField("backend", backend.Name).Info("profile store ready")
	if backend.Conns != nil && len(cfg.Storage.PostgresReplicaURLs) > 0 {
		backend.Conns.StartHealthCheckRoutine(ctx, 30*time.Second)
	}

	store := backend.Store
	if cfg.Observability.MetricsEnabled {
		store = storage.Instrument(store, backend.Name, metrics)
	}
	service := profiles.NewService(store)

	var redisClient *redis.Client
	if cfg.Storage.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		cleanup.push(func(context.Context) error { return redisClient.Close() })
	}

	verifier, err := buildVerifier(ctx, cfg.Identity)
	if err != nil {
		return err
	}

	gate := rbac.NewGate(store,
		rbac.WithEnforceActive(cfg.Authz.EnforceActive),
		rbac.WithGateLogger(logger),
		rbac.WithGateMetrics(metrics))

	server := api.NewServer(api.Dependencies{
		Profiles:          service,
		Verifier:          verifier,
		Gate:              gate,
		SignupLimiter:     buildLimiter(cfg.RateLimit, redisClient),
		SignupWindow:      cfg.RateLimit.Window,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		CORSOrigins:       cfg.Server.CORSOrigins,
		Metrics:           metrics,
		Logger:            logger,
		Tracing:           cfg.Observability.OTelEnabled,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           healthMux(backend, redisClient, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	refresher := observability.NewGaugeRefresher(metrics, profileSnapshot(service, backend, metrics), logger)
	if err := refresher.Start(cfg.Observability.StatsSchedule); err != nil {
		return err
	}
	cleanup.push(refresher.Stop)

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	cleanup.handOff(shutdown)

	eg, egCtx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{apiServer, healthServer} {
		srv := srv
		eg.Go(func() error {
			logger.WithField("addr", srv.Addr).Info("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s failed: %w", srv.Addr, err)
			}
			return nil
		})
	}
	eg.Go(func() error {
		return shutdown.WaitForShutdown(egCtx)
	})

	return eg.Wait()
}

// cleanupStack holds startup resources. release closes them newest first when
// run fails; handOff moves them to the shutdown manager once serving starts.
type cleanupStack struct {
	fns []observability.ShutdownFunc
}

func (c *cleanupStack) push(fn observability.ShutdownFunc) {
	c.fns = append(c.fns, fn)
}

func (c *cleanupStack) release(logger *observability.Logger) {
	if len(c.fns) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](ctx); err != nil {
			logger.WithError(err).Warn("startup cleanup failed")
		}
	}
	c.fns = nil
}

func (c *cleanupStack) handOff(shutdown *observability.ShutdownManager) {
	for i := len(c.fns) - 1; i >= 0; i-- {
		shutdown.RegisterShutdownFunc(c.fns[i])
	}
	c.fns = nil
}

// buildVerifier selects the bearer token verifier for the identity mode
func buildVerifier(ctx context.Context, cfg config.IdentityConfig) (auth.Verifier, error) {
	switch cfg.Mode {
	case config.IdentityHS256:
		return auth.NewHMACVerifier([]byte(cfg.Secret), cfg.Issuer)
	case config.IdentityFirebase:
		projectID := cfg.ProjectID
		if cfg.CredentialsFile != "" {
			creds, err := auth.LoadCredentials(ctx, cfg.CredentialsFile, cfg.ProjectID)
			if err != nil {
				return nil, err
			}
			projectID = creds.ProjectID
		}
		if projectID == "" {
			return nil, errors.New("firebase project id is not configured")
		}
		return auth.NewFirebaseVerifier(ctx, projectID), nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Mode)
	}
}

// buildLimiter returns the signup limiter for the configured backend
func buildLimiter(cfg config.RateLimitConfig, client *redis.Client) middleware.Limiter {
	limits := middleware.RateLimitConfig{
		Limit:   cfg.Limit,
		Window:  cfg.Window,
		MaxKeys: cfg.MaxKeys,
	}
	if cfg.Backend == config.RateLimitRedis && client != nil {
		return middleware.NewDistributedRateLimiter(client, limits, "userdeck:signup")
	}
	return middleware.NewRateLimiter(limits)
}

func healthMux(backend *storage.Backend, client *redis.Client, registry *prometheus.Registry) *http.ServeMux {
	db := backend.Primary()
	checker := observability.NewHealthChecker(db, client, version)

	mux := http.NewServeMux()
	observability.RegisterHealthRoutes(mux, checker)
	observability.RegisterMetricsEndpoint(mux, registry)
	return mux
}

// profileSnapshot samples the profile population and, for SQL backends, the
// connection pool.
func profileSnapshot(service *profiles.Service, backend *storage.Backend, metrics *observability.Metrics) observability.SnapshotFunc {
	return func(ctx context.Context) (observability.ProfileSnapshot, error) {
		if db := backend.Primary(); db != nil {
			metrics.RecordDBStats(db.Stats())
		}

		counts, err := service.Counts(ctx)
		if err != nil {
			return observability.ProfileSnapshot{}, err
		}
		snapshot := observability.ProfileSnapshot{
			Total:  counts.Total,
			Active: counts.Active,
			ByRole: make(map[string]int, len(counts.ByRole)),
		}
		for role, n := range counts.ByRole {
			snapshot.ByRole[string(role)] = n
		}
		return snapshot, nil
	}
}
