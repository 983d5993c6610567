package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"hotelprices/logger"
)

// ErrDeliveryFailed is returned when the webhook does not accept a message.
var ErrDeliveryFailed = errors.New("alert delivery failed")

// Notifier delivers a text message to people.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// WebhookNotifier posts {"text": ...} to a chat webhook. It makes a single
// attempt per message.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	log    *logger.Log
}

var _ Notifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(url string, timeout time.Duration, log *logger.Log) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	return &WebhookNotifier{client: client, url: url, log: log}
}

type webhookPayload struct {
	Text string `json:"text"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, text string) error {
	if n.url == "" {
		return fmt.Errorf("%w: webhook url not configured", ErrDeliveryFailed)
	}

	res, err := n.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{Text: text}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("%w: webhook responded %s: %s", ErrDeliveryFailed, res.Status(), res.String())
	}

	n.log.WithComponent("notifier").WithFields(logger.Fields{
		"status": res.StatusCode(),
		"bytes":  len(text),
	}).Info("alert delivered")
	return nil
}
