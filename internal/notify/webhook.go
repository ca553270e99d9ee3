// Package notify pushes export lifecycle events to an operator-configured
// webhook.
package notify

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/qbexport/internal/config"
	"github.com/timmy/qbexport/internal/logger"
	"github.com/timmy/qbexport/internal/soap"
)

// Webhook posts a JSON summary whenever the Web Connector closes a
// session. Delivery is best effort; failures are logged and dropped.
type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook creates a Webhook, or nil when no URL is configured so
// callers can wire it straight into an optional dependency.
func NewWebhook(cfg config.NotifyConfig) *Webhook {
	if cfg.WebhookURL == "" {
		return nil
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2)
	return &Webhook{client: client, url: cfg.WebhookURL}
}

// SessionClosed delivers the end-of-session summary.
func (w *Webhook) SessionClosed(ctx context.Context, summary soap.ExportSummary) {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(summary).
		Post(w.url)
	if err != nil {
		logger.CtxError(ctx, "webhook delivery failed: %v", err)
		return
	}
	if resp.IsError() {
		logger.CtxWarn(ctx, "webhook answered %d", resp.StatusCode())
	}
}
