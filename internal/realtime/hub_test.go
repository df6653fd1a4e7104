package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func runningHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	return h
}

func addClient(t *testing.T, h *Hub, userID uuid.UUID, buf int) *Client {
	t.Helper()
	c := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, buf),
	}
	before := h.clientCount()
	h.RegisterClient(c)
	require.Eventually(t, func() bool {
		return h.clientCount() == before+1
	}, time.Second, 5*time.Millisecond)
	return c
}

func TestHubSendToUser(t *testing.T) {
	h := runningHub(t)
	userA := uuid.New()
	userB := uuid.New()

	// user A has two open connections, user B one
	a1 := addClient(t, h, userA, 4)
	a2 := addClient(t, h, userA, 4)
	b := addClient(t, h, userB, 4)

	h.SendToUser(userA, map[string]string{"type": "bid_received"})

	for _, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.Send:
			assert.Contains(t, string(msg), "bid_received")
		case <-time.After(time.Second):
			t.Fatal("expected event on every connection of the user")
		}
	}

	select {
	case msg := <-b.Send:
		t.Fatalf("user B should not receive user A's event, got %s", msg)
	default:
	}
}

func TestHubSendToUsers(t *testing.T) {
	h := runningHub(t)
	userA := uuid.New()
	userB := uuid.New()
	a := addClient(t, h, userA, 4)
	b := addClient(t, h, userB, 4)

	h.SendToUsers([]uuid.UUID{userA, userB}, map[string]string{"type": "bid_rejected"})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			assert.Contains(t, string(msg), "bid_rejected")
		case <-time.After(time.Second):
			t.Fatal("expected event for both users")
		}
	}
}

func TestHubSlowConsumerDoesNotBlock(t *testing.T) {
	h := runningHub(t)
	userID := uuid.New()
	c := addClient(t, h, userID, 1)

	// nobody drains c.Send; extra events must be dropped, not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.SendToUser(userID, map[string]int{"seq": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendToUser blocked on a slow consumer")
	}

	assert.Len(t, c.Send, 1)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := runningHub(t)
	c := addClient(t, h, uuid.New(), 4)

	h.UnregisterClient(c)
	require.Eventually(t, func() bool {
		return h.clientCount() == 0
	}, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open, "send channel should be closed on unregister")

	// events after unregister go nowhere, and must not panic
	h.SendToUser(c.UserID, map[string]string{"type": "noop"})
}
