package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.NotificationPort = (*HTTPSender)(nil)

// HTTPSender posts notifications to an email service.
type HTTPSender struct {
	baseURL string
	client  *http.Client
}

// HTTPOption customizes the sender.
type HTTPOption func(*HTTPSender)

// WithHTTPClient overrides the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSender) {
		if c != nil {
			s.client = c
		}
	}
}

// NewHTTPSender builds a sender posting to {baseURL}/notifications/email.
func NewHTTPSender(baseURL string, opts ...HTTPOption) *HTTPSender {
	s := &HTTPSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Send delivers n; any non-2xx response is treated as a failed delivery.
func (s *HTTPSender) Send(ctx context.Context, n ports.Notification) error {
	id := uuid.NewString()
	body, err := json.Marshal(toMessage(id, n, time.Now()))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/notifications/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", id)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: email service returned %d: %s", ports.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
