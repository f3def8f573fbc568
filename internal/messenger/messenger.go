// Package messenger delivers outbound text messages through an SMS
// gateway's REST API.
package messenger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Messenger sends one text message to a destination address.
type Messenger interface {
	Send(ctx context.Context, to, from, body string) error
}

// Config holds the SMS gateway settings.
type Config struct {
	BaseURL    string `yaml:"base_url"`
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	Number     string `yaml:"number"`
}

// SMSGateway is a Twilio-compatible REST messenger.
type SMSGateway struct {
	cfg    Config
	client *http.Client
}

// NewSMSGateway creates a messenger for the configured gateway account.
func NewSMSGateway(cfg Config) *SMSGateway {
	return &SMSGateway{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts one message to the gateway. A non-2xx answer is a delivery
// failure; the caller decides how to surface it.
func (g *SMSGateway) Send(ctx context.Context, to, from, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.AccountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(g.cfg.AccountSID, g.cfg.AuthToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// The gateway answers with a JSON error document; keep the start
		// of it for the log.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("gateway rejected message: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return nil
}
