package alerts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client delivers operational notifications to an external channel.
type Client interface {
	Send(ctx context.Context, title, message string) error
}

// WebhookClient is a resty-backed implementation of Client posting to a
// generic incoming-webhook URL.
type WebhookClient struct {
	httpClient *resty.Client
	webhookURL string
}

// NewWebhookClient builds an alert client for the given webhook URL.
func NewWebhookClient(webhookURL string) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &WebhookClient{
		httpClient: restyClient,
		webhookURL: webhookURL,
	}
}

// Send posts the alert. Delivery is best effort; callers log and move on.
func (c *WebhookClient) Send(ctx context.Context, title, message string) error {
	payload := map[string]any{
		"title": title,
		"text":  message,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("alert webhook error: code=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
