package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// SnapshotFunc samples the current profile population
type SnapshotFunc func(ctx context.Context) (ProfileSnapshot, error)

// GaugeRefresher keeps the profile gauges current on a cron schedule
type GaugeRefresher struct {
	cron     *cron.Cron
	metrics  *Metrics
	snapshot SnapshotFunc
	logger   *Logger
	timeout  time.Duration
}

// NewGaugeRefresher creates a refresher; call Start to schedule it
func NewGaugeRefresher(metrics *Metrics, snapshot SnapshotFunc, logger *Logger) *GaugeRefresher {
	if logger == nil {
		logger = NewLogger(InfoLevel, nil)
	}
	return &GaugeRefresher{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		metrics:  metrics,
		snapshot: snapshot,
		logger:   logger.WithField("component", "gauge_refresher"),
		timeout:  30 * time.Second,
	}
}

// Start samples once immediately and then on every tick of schedule, which
// accepts standard cron expressions and descriptors such as "@every 1m".
func (g *GaugeRefresher) Start(schedule string) error {
	if _, err := g.cron.AddFunc(schedule, g.run); err != nil {
		return fmt.Errorf("invalid stats schedule %q: %w", schedule, err)
	}
	g.run()
	g.cron.Start()
	return nil
}

// Stop halts scheduling and waits for an in-flight refresh or ctx expiry
func (g *GaugeRefresher) Stop(ctx context.Context) error {
	select {
	case <-g.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *GaugeRefresher) run() {
	defer RecoverPanic(g.logger, "profile gauge refresh")

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	if err := g.Refresh(ctx); err != nil {
		g.logger.WithError(err).Warn("Failed to refresh profile gauges")
	}
}

// Refresh samples the population once and updates the gauges
func (g *GaugeRefresher) Refresh(ctx context.Context) error {
	snap, err := g.snapshot(ctx)
	if err != nil {
		return err
	}
	g.metrics.RecordProfiles(snap)
	return nil
}
