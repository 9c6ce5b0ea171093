package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DiscordAlerter posts alerts to a Discord channel webhook.
type DiscordAlerter struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordAlerter creates a Discord webhook alerter.
func NewDiscordAlerter(webhookURL string, timeout time.Duration) *DiscordAlerter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiscordAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

type discordPayload struct {
	Content string `json:"content"`
}

// Alert sends the message to the webhook. Severity and fields are
// folded into the message text.
func (d *DiscordAlerter) Alert(ctx context.Context, severity Severity, message string, fields map[string]string) error {
	content := fmt.Sprintf("[%s] %s", severity, message)
	if extra := FormatFields(fields); extra != "" {
		content += "\n" + extra
	}

	body, err := json.Marshal(discordPayload{Content: content})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
