package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Notification
	err  error
	done chan struct{}
}

func (r *recordingSender) Send(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	if r.done != nil {
		close(r.done)
		r.done = nil
	}
	return r.err
}

func TestDispatcherDeliversAsync(t *testing.T) {
	sender := &recordingSender{done: make(chan struct{})}
	done := sender.done
	d := NewDispatcher(sender)

	d.OrderReady("alice@campus.edu", "Alice", "T-017")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never dispatched")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "alice@campus.edu", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Body, "T-017")
}

func TestDispatcherSwallowsSenderFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down"), done: make(chan struct{})}
	done := sender.done
	d := NewDispatcher(sender)

	// Must not panic or block the caller.
	d.OrderCreated("bob@campus.edu", "Bob", "T-001", 120.50)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never attempted")
	}
}
