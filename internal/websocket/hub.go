// Package websocket mirrors streaming chat events to every open socket of a
// scope, locally and across instances through redis.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// StreamEvent is the wire envelope for chat stream updates. Type is one of
// "fragment", "done" or "stopped".
type StreamEvent struct {
	Type           string    `json:"type"`
	ConversationId uuid.UUID `json:"conversation_id"`
	Delta          string    `json:"delta,omitempty"`
	Content        string    `json:"content,omitempty"`
}

type Hub struct {
	// Connected clients per scope key (multi-device)
	clients map[entity.ScopeKey][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance delivery, nil when running
	// single-instance
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[entity.ScopeKey][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Scope] = append(h.clients[client.Scope], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"scope": client.Scope.String()})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.Scope]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.Scope] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.Scope]) == 0 {
					delete(h.clients, client.Scope)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers a stream event to every socket the scope has open, here and
// on other instances.
func (h *Hub) Send(scope entity.ScopeKey, event StreamEvent) {
	data, _ := json.Marshal(event)

	h.mu.RLock()
	clients, localFound := h.clients[scope]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Run closes the Send channel once the client is unregistered.
				h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"scope": scope.String()})
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		payload := map[string]interface{}{
			"target_scope": scope.String(),
			"message":      json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), clusterChannel, jsonPayload)
	}
}

// subscribeToRedis relays cluster events published by other instances to the
// scopes connected locally.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetScope string          `json:"target_scope"`
			Message     json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Malformed cluster event", map[string]interface{}{"error": err.Error()})
			continue
		}

		scope := entity.ScopeKey(payload.TargetScope)

		h.mu.RLock()
		clients, ok := h.clients[scope]
		h.mu.RUnlock()

		if !ok {
			continue
		}
		for _, client := range clients {
			select {
			case client.Send <- payload.Message:
			default:
				h.unregister <- client
			}
		}
	}
}
