package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   nil,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(1); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(1); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestSendReachesOnlyOwner(t *testing.T) {
	hub := NewHub(slog.Default())

	owner := mockClient(hub, 1)
	ownerTab := mockClient(hub, 1)
	stranger := mockClient(hub, 2)
	hub.Register(owner)
	hub.Register(ownerTab)
	hub.Register(stranger)

	hub.Send(1, NewMessage("note", "created", "title-for-note"))

	for _, c := range []*Client{owner, ownerTab} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "note_created" {
				t.Errorf("expected type note_created, got %s", got.Type)
			}
			if got.Slug != "title-for-note" {
				t.Errorf("expected slug title-for-note, got %s", got.Slug)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case <-stranger.send:
		t.Fatal("stranger received another user's message")
	default:
	}

	hub.Unregister(owner)
	hub.Unregister(ownerTab)
	hub.Unregister(stranger)
}

func TestSendEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Send(1, NewMessage("note", "deleted", "gone"))
}

func TestSendFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 1)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Send(1, NewMessage("note", "updated", "fill"))
	}

	// This should drop the message, not panic or block
	hub.Send(1, NewMessage("note", "updated", "dropped"))

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("note", "updated", "some-slug")
	if msg.Type != "note_updated" {
		t.Errorf("expected type note_updated, got %s", msg.Type)
	}
	if msg.Entity != "note" {
		t.Errorf("expected entity note, got %s", msg.Entity)
	}
	if msg.Action != "updated" {
		t.Errorf("expected action updated, got %s", msg.Action)
	}
	if msg.Slug != "some-slug" {
		t.Errorf("expected slug some-slug, got %s", msg.Slug)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, send, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			c := mockClient(hub, userID)
			hub.Register(c)
			hub.Send(userID, NewMessage("note", "created", "concurrent"))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(int64(i % 4))
	}

	wg.Wait()

	for userID := int64(0); userID < 4; userID++ {
		if got := hub.ClientCount(userID); got != 0 {
			t.Errorf("expected 0 clients for user %d, got %d", userID, got)
		}
	}
}
