package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/config"
)

// Checker runs periodic alert checks in the background.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.AlertsConfig
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.AlertsConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting alert checker",
		zap.Duration("interval", interval),
		zap.String("min_severity", c.cfg.MinSeverity),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx, log)
		}
	}
}

// Check runs one collection and delivery round. It returns the number of
// notifications sent.
func (c *Checker) Check(ctx context.Context, log *zap.Logger) int {
	digest, err := c.collector.Collect(ctx)
	if err != nil {
		log.Error("monitoring: failed to collect alerts", zap.Error(err))
		return c.alerter.SendAlerts(ctx, []Notification{c.alerter.Unavailable(err)})
	}

	notes := c.alerter.Evaluate(digest)
	if len(notes) == 0 {
		log.Debug("monitoring: no new alerts")
		return 0
	}

	sent := c.alerter.SendAlerts(ctx, notes)
	log.Info("monitoring: alert check complete",
		zap.Int("operations", digest.Operations),
		zap.Int("alerts_triggered", len(notes)),
		zap.Int("alerts_sent", sent),
	)
	return sent
}
