package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"github.com/google/uuid"
)

// WebhookTransport entrega o payload como JSON via POST numa URL.
// Respostas 2xx confirmam; o corpo pode trazer {"id": "..."}.
type WebhookTransport struct {
	url    string
	client *http.Client
	header http.Header
}

type WebhookOption func(*WebhookTransport)

func WithWebhookClient(c *http.Client) WebhookOption {
	return func(t *WebhookTransport) { t.client = c }
}

func WithWebhookHeader(k, v string) WebhookOption {
	return func(t *WebhookTransport) { t.header.Set(k, v) }
}

func NewWebhookTransport(url string, timeout time.Duration, opts ...WebhookOption) (*WebhookTransport, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("webhook url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	t := &WebhookTransport{
		url:    url,
		client: &http.Client{Timeout: timeout},
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *WebhookTransport) Name() string { return "webhook" }

type webhookPayload struct {
	ID string `json:"id"`
	domain.FormDraft
}

func (t *WebhookTransport) Send(ctx context.Context, payload domain.FormDraft) (domain.Ack, error) {
	id := uuid.NewString()
	body, err := json.Marshal(webhookPayload{ID: id, FormDraft: payload})
	if err != nil {
		return domain.Ack{}, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return domain.Ack{}, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Ack{}, fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Ack{}, fmt.Errorf("webhook responded %d", resp.StatusCode)
	}

	var ack struct {
		ID string `json:"id"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &ack) == nil && ack.ID != "" {
		id = ack.ID
	}
	return domain.Ack{ID: id, Transport: t.Name(), ReceivedAt: time.Now()}, nil
}
