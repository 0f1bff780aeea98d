package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/domain"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	EventHeader     = "X-Webhook-Event"

	maxStoredResponse = 2000
)

// Store is the persistence the dispatcher needs.
type Store interface {
	ListActiveForEvent(ctx context.Context, event domain.WebhookEvent) ([]domain.WebhookSubscription, error)
	CreateLog(ctx context.Context, log *domain.WebhookLog) error
}

// DeliveryRecorder counts delivery outcomes.
type DeliveryRecorder interface {
	RecordWebhookDelivery(event string, success bool)
}

// FailureHook is told about deliveries that failed after every retry.
type FailureHook func(ctx context.Context, sub domain.WebhookSubscription, log domain.WebhookLog)

// Envelope is the JSON body posted to subscribers.
type Envelope struct {
	Event     domain.WebhookEvent `json:"event"`
	Timestamp string              `json:"timestamp"`
	Data      map[string]any      `json:"data"`
}

// Dispatcher signs and posts domain events to subscribed endpoints.
type Dispatcher struct {
	client    *resty.Client
	store     Store
	logger    *zap.Logger
	metrics   DeliveryRecorder
	onFailure FailureHook
	now       func() time.Time
}

// NewDispatcher builds a dispatcher whose HTTP client retries 5xx responses and
// network errors with exponential backoff starting at one second.
func NewDispatcher(cfg config.WebhookConfig, store Store, logger *zap.Logger, metrics DeliveryRecorder) *Dispatcher {
	return newDispatcher(cfg, store, logger, metrics, time.Second)
}

func newDispatcher(cfg config.WebhookConfig, store Store, logger *zap.Logger, metrics DeliveryRecorder, wait time.Duration) *Dispatcher {
	retries := cfg.RetryCount
	if retries < 0 {
		retries = 0
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "Andorinha-Webhooks/1.0"
	}

	client := resty.New().
		SetTimeout(cfg.Timeout()).
		SetRetryCount(retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(wait<<retries).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", userAgent).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r == nil || r.StatusCode() >= 500
		})

	return &Dispatcher{
		client:  client,
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// OnFailure registers a hook run after a delivery exhausts its retries.
func (d *Dispatcher) OnFailure(hook FailureHook) {
	d.onFailure = hook
}

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Dispatch delivers event to every active subscription concurrently and logs
// each outcome. occurredAt becomes the envelope timestamp; zero means now.
// Only a failure to load subscriptions is returned; per-endpoint failures are
// recorded in the webhook log.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.WebhookEvent, data map[string]any, occurredAt time.Time) error {
	subs, err := d.store.ListActiveForEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("load subscriptions for %s: %w", event, err)
	}
	if len(subs) == 0 {
		d.logger.Debug("no active webhooks for event", zap.String("event", string(event)))
		return nil
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub domain.WebhookSubscription) {
			defer wg.Done()
			if _, err := d.deliver(ctx, sub, event, data, occurredAt); err != nil {
				d.logger.Error("failed to store webhook log",
					zap.String("subscription_id", sub.ID),
					zap.String("event", string(event)),
					zap.Error(err))
			}
		}(sub)
	}
	wg.Wait()

	d.logger.Info("webhooks dispatched", zap.String("event", string(event)), zap.Int("subscriptions", len(subs)))
	return nil
}

// Deliver posts one event to one subscription and persists the log entry.
// The returned error concerns the log write only; delivery failures are in the log.
func (d *Dispatcher) Deliver(ctx context.Context, sub domain.WebhookSubscription, event domain.WebhookEvent, data map[string]any) (domain.WebhookLog, error) {
	return d.deliver(ctx, sub, event, data, time.Time{})
}

func (d *Dispatcher) deliver(ctx context.Context, sub domain.WebhookSubscription, event domain.WebhookEvent, data map[string]any, occurredAt time.Time) (domain.WebhookLog, error) {
	if occurredAt.IsZero() {
		occurredAt = d.now()
	}
	body, err := json.Marshal(Envelope{
		Event:     event,
		Timestamp: occurredAt.UTC().Format(time.RFC3339Nano),
		Data:      data,
	})
	if err != nil {
		return domain.WebhookLog{}, fmt.Errorf("encode webhook body: %w", err)
	}

	entry := domain.WebhookLog{
		SubscriptionID: sub.ID,
		Event:          string(event),
		Payload:        string(body),
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader(SignatureHeader, Sign(body, sub.Secret)).
		SetHeader(EventHeader, string(event)).
		SetBody(body).
		Post(sub.URL)

	if resp != nil && resp.Request != nil && resp.Request.Attempt > 1 {
		entry.RetriesCount = resp.Request.Attempt - 1
	}

	switch {
	case err != nil:
		msg := err.Error()
		entry.Error = &msg
	default:
		status := resp.StatusCode()
		text := truncate(resp.String(), maxStoredResponse)
		entry.StatusCode = &status
		entry.Response = &text
		entry.Success = resp.IsSuccess()
		if !entry.Success {
			msg := fmt.Sprintf("HTTP %d: %s", status, resp.Status())
			entry.Error = &msg
		}
	}

	if d.metrics != nil {
		d.metrics.RecordWebhookDelivery(string(event), entry.Success)
	}
	if entry.Success {
		d.logger.Info("webhook delivered",
			zap.String("subscription", sub.Name),
			zap.String("url", sub.URL),
			zap.String("event", string(event)))
	} else {
		d.logger.Warn("webhook delivery failed",
			zap.String("subscription", sub.Name),
			zap.String("url", sub.URL),
			zap.String("event", string(event)),
			zap.Int("retries", entry.RetriesCount),
			zap.Stringp("error", entry.Error))
	}

	logErr := d.store.CreateLog(ctx, &entry)
	if !entry.Success && d.onFailure != nil {
		d.onFailure(ctx, sub, entry)
	}
	return entry, logErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
