// Package notify delivers best-effort SMS messages through an HTTP gateway.
// Failures never propagate into the booking transaction; callers log and
// degrade their response message.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"eskan/internal/config"

	"github.com/rs/zerolog"
)

type SMSNotifier struct {
	cfg    config.SMSConfig
	client *http.Client
	logger *zerolog.Logger
}

func NewSMSNotifier(cfg config.SMSConfig, logger *zerolog.Logger) *SMSNotifier {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

// SendSMS posts one message to the gateway. A disabled notifier succeeds
// silently so the orchestrator does not need a nil check.
func (n *SMSNotifier) SendSMS(ctx context.Context, phone, message string) error {
	if !n.cfg.Enabled {
		n.logger.Debug().Str("phone", phone).Msg("sms disabled, skipping")
		return nil
	}
	if phone == "" {
		return fmt.Errorf("phone number is empty")
	}

	body, err := json.Marshal(smsPayload{To: phone, From: n.cfg.Sender, Message: message})
	if err != nil {
		return fmt.Errorf("encode sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	n.logger.Debug().Str("phone", phone).Msg("sms sent")
	return nil
}
