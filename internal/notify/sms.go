package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SMSGateway posts messages to an HTTP SMS provider.
type SMSGateway struct {
	client *resty.Client
}

func NewSMSGateway(baseURL, apiKey string) *SMSGateway {
	if baseURL == "" {
		return nil
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &SMSGateway{client: client}
}

type smsPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

func (g *SMSGateway) Send(ctx context.Context, to, from, body string) error {
	if g == nil {
		return fmt.Errorf("sms gateway disabled")
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(smsPayload{To: to, From: from, Body: body}).
		Post("/v1/messages")
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway status %d", resp.StatusCode())
	}
	return nil
}

var _ Notifier = (*SMSGateway)(nil)
