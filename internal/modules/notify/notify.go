package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Notification is a rendered message for the hosted notification sender.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a notification to one address.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// ── Webhook sender ────────────────────────────────────────────────────────────

type webhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender posts notifications as JSON to the hosted sender.
func NewWebhookSender(url string) Sender {
	return &webhookSender{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *webhookSender) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification sender returned %d", resp.StatusCode)
	}
	return nil
}

// NopSender discards notifications. Used in dev and tests.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, n Notification) error { return nil }

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Dispatcher renders and sends order notifications asynchronously.
// Delivery is fire-and-forget: failures are logged and never returned, so a
// broken sender can never block order creation or pickup.
type Dispatcher struct {
	sender Sender
}

func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// OrderCreated tells the customer their pickup token.
func (d *Dispatcher) OrderCreated(email, name, tokenValue string, amount float64) {
	d.dispatch(Notification{
		To:      email,
		Subject: "Order confirmed",
		Body:    fmt.Sprintf("Hi %s, your order (%.2f) is confirmed. Pickup token: %s.", name, amount, tokenValue),
	})
}

// OrderReady tells the customer their order can be collected.
func (d *Dispatcher) OrderReady(email, name, tokenValue string) {
	d.dispatch(Notification{
		To:      email,
		Subject: "Order ready for pickup",
		Body:    fmt.Sprintf("Hi %s, your order is ready. Show token %s at the counter.", name, tokenValue),
	})
}

func (d *Dispatcher) dispatch(n Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := d.sender.Send(ctx, n); err != nil {
			log.Printf("notify: failed to deliver %q to %s: %v", n.Subject, n.To, err)
		}
	}()
}
