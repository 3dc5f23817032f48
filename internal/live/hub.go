// Package live pushes chat-list updates to connected websocket clients.
package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/datapilot-ai/backend/internal/model/chat"
)

// Hub tracks connected clients and fans session updates out to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	// done is closed when Run exits so attach/detach paths cannot block
	// after shutdown.
	done chan struct{}
}

// NewHub creates an empty hub. Run must be called before clients attach.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes client registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			log.Debug().Str("component", "live").Msg("client registered")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Debug().Str("component", "live").Msg("client unregistered")
		}
	}
}

// detach hands a client to the hub goroutine, giving up once Run has exited.
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount reports how many clients are currently attached.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ChatUpdated broadcasts a session's refreshed summary. Clients whose send
// buffer is full are dropped rather than blocking the turn that triggered the
// update.
func (h *Hub) ChatUpdated(summary chat.Summary) {
	data, err := json.Marshal(map[string]any{
		"event": "chat_updated",
		"chat":  summary,
	})
	if err != nil {
		log.Warn().Err(err).Str("component", "live").Msg("failed to marshal update")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			go func(c *Client) { h.detach(c) }(client)
		}
	}
}
