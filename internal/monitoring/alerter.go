package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/tradeflow/internal/config"
	"github.com/sells-group/tradeflow/internal/metrics"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/resilience"
)

// NotificationType identifies the kind of notification.
type NotificationType string

const (
	NotifyOperationAlert    NotificationType = "operation_alert"
	NotifySourceUnavailable NotificationType = "source_unavailable"
)

// dedupWindow is how long a delivered notification is remembered.
const dedupWindow = 24 * time.Hour

// Notification represents a single notification to be sent.
type Notification struct {
	Type      NotificationType `json:"type"`
	Severity  model.Severity   `json:"severity"`
	Message   string           `json:"message"`
	Details   map[string]any   `json:"details,omitempty"`
	Timestamp time.Time        `json:"timestamp"`

	key string
}

// Alerter turns a Digest into notifications and delivers them via webhook.
// Delivered notifications are not repeated within dedupWindow.
type Alerter struct {
	cfg     config.AlertsConfig
	minSev  int
	client  *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
	sent    *cache.Cache
}

// NewAlerter creates a new Alerter with the given alerts config.
func NewAlerter(cfg config.AlertsConfig) *Alerter {
	limit := rate.Inf
	burst := 1
	if cfg.PerMinute > 0 {
		limit = rate.Limit(float64(cfg.PerMinute) / 60)
		burst = cfg.PerMinute
	}
	return &Alerter{
		cfg:     cfg,
		minSev:  severityRank(model.Severity(strings.ToLower(cfg.MinSeverity))),
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(limit, burst),
		retry:   retryPolicy(cfg),
		sent:    cache.New(dedupWindow, time.Hour),
	}
}

func retryPolicy(cfg config.AlertsConfig) resilience.Policy {
	p := resilience.NewPolicy(cfg.RetryAttempts, cfg.RetryBackoffMs)
	p.OnRetry = resilience.LogRetries("webhook")
	return p
}

// severityRank orders severities; unknown values rank as low.
func severityRank(s model.Severity) int {
	switch s {
	case model.SeverityHigh:
		return 2
	case model.SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Evaluate returns a notification for each digest item at or above the
// configured severity that has not been delivered yet.
func (a *Alerter) Evaluate(d *Digest) []Notification {
	var out []Notification
	now := time.Now().UTC()

	for _, item := range d.Items {
		al := item.Alert
		if severityRank(al.Severity) < a.minSev {
			continue
		}
		key := itemKey(item)
		if _, seen := a.sent.Get(key); seen {
			continue
		}
		details := map[string]any{
			"operation_id": item.OperationID,
			"source_key":   item.SourceKey,
			"client":       item.Client,
			"country":      item.Country,
			"kind":         al.Kind,
			"item":         al.Item,
			"label":        al.Label,
		}
		if al.DueDate != nil {
			details["due_date"] = al.DueDate.Format("2006-01-02")
			details["days_delta"] = al.DaysDelta
		}
		out = append(out, Notification{
			Type:      NotifyOperationAlert,
			Severity:  al.Severity,
			Message:   fmt.Sprintf("%s (%s): %s", item.Client, item.SourceKey, al.Message),
			Details:   details,
			Timestamp: now,
			key:       key,
		})
	}
	return out
}

// Unavailable builds the notification sent when no source could be read.
func (a *Alerter) Unavailable(err error) Notification {
	return Notification{
		Type:      NotifySourceUnavailable,
		Severity:  model.SeverityHigh,
		Message:   fmt.Sprintf("Operation sources unavailable: %v", err),
		Timestamp: time.Now().UTC(),
		key:       string(NotifySourceUnavailable),
	}
}

func itemKey(item DigestItem) string {
	due := ""
	if item.Alert.DueDate != nil {
		due = item.Alert.DueDate.Format("2006-01-02")
	}
	return strings.Join([]string{item.OperationID, string(item.Alert.Kind), item.Alert.Label, due}, "|")
}

// SendAlerts delivers notifications to the configured webhook URL.
// Returns the number of notifications successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, notes []Notification) int {
	if a.cfg.WebhookURL == "" || len(notes) == 0 {
		return 0
	}

	sent := 0
	for _, n := range notes {
		if err := a.limiter.Wait(ctx); err != nil {
			zap.L().Warn("monitoring: delivery throttled, stopping", zap.Error(err))
			break
		}
		err := resilience.Do(ctx, a.retry, func(ctx context.Context) error {
			return a.sendWebhook(ctx, n)
		})
		if err != nil {
			metrics.RecordNotification("failed")
			zap.L().Error("monitoring: failed to send notification",
				zap.String("type", string(n.Type)),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordNotification("sent")
		zap.L().Info("monitoring: notification sent",
			zap.String("type", string(n.Type)),
			zap.String("severity", string(n.Severity)),
		)
		if n.key != "" {
			a.sent.SetDefault(n.key, struct{}{})
		}
		sent++
	}
	return sent
}

// sendWebhook posts a single notification to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		err := eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}
	return nil
}
