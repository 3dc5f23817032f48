package live

import (
	"context"
	"testing"
	"time"

	"github.com/datapilot-ai/backend/internal/model/chat"
)

func waitForClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count never reached %d, at %d", want, h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	fast := &Client{hub: h, Send: make(chan []byte, 16)}
	// Zero-capacity channel that nothing drains: every broadcast finds it full.
	slow := &Client{hub: h, Send: make(chan []byte)}
	h.register <- fast
	h.register <- slow
	waitForClientCount(t, h, 2)

	h.ChatUpdated(chat.Summary{SessionID: "abc123", Title: "Chat abc123", Preview: "hi"})

	select {
	case <-fast.Send:
	case <-time.After(2 * time.Second):
		t.Fatal("fast client never received the update")
	}

	// The slow client must be dropped rather than block the broadcast.
	waitForClientCount(t, h, 1)

	select {
	case _, ok := <-slow.Send:
		if ok {
			t.Fatal("expected slow client channel to be closed, got a message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slow client channel never closed")
	}
}

func TestHubAttachAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := NewHub()
	go h.Run(ctx)

	cancel()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub never shut down")
	}

	// Attach must not block once Run has exited.
	attached := make(chan *Client, 1)
	go func() { attached <- h.Attach(nil) }()

	select {
	case client := <-attached:
		if client != nil {
			t.Fatal("expected nil client after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Attach blocked after shutdown")
	}

	// Detach paths must not block either.
	released := make(chan struct{})
	go func() {
		h.detach(&Client{hub: h, Send: make(chan []byte)})
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("detach blocked after shutdown")
	}
}
