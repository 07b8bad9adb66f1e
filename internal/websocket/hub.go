package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"citation-assist-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub tracks live suggestion connections. Suggestion results always go back
// on the requesting connection; the hub's fan-out carries corpus events
// (paper indexed/failed) to every editor of the affected user, across
// instances via Redis.
type Hub struct {
	// UserID -> connections (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out, nil for single instance
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
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
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"user_id": client.UserID,
				"session": client.SessionID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(c.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
				"user_id": client.UserID,
				"session": client.SessionID,
			})
		}
	}
}

// Broadcast pushes a corpus event to every connected editor so open
// documents can refresh their suggestion state.
func (h *Hub) Broadcast(eventType string, payload map[string]interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": payload,
	})

	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				close(client.Send)
				h.unregister <- client
			}
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		wire, _ := json.Marshal(map[string]interface{}{
			"target_user_id": "*",
			"message":        json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), "cluster_events", wire)
	}
}

// Send pushes a frame to one user's connections on this instance and
// relays it through Redis for the others.
func (h *Hub) Send(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients, localFound := h.clients[userID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client send buffer full, dropping frame", map[string]interface{}{
					"user_id": userID,
				})
				close(client.Send)
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		wire, _ := json.Marshal(map[string]interface{}{
			"target_user_id": userID.String(),
			"message":        json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), "cluster_events", wire)
	}
}

// subscribeToRedis delivers frames published by other instances to clients
// connected here. Every instance subscribes to the one channel and filters
// by local presence.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.TargetUserID == "*" {
			h.mu.RLock()
			for _, clients := range h.clients {
				for _, client := range clients {
					select {
					case client.Send <- payload.Message:
					default:
						close(client.Send)
						h.unregister <- client
					}
				}
			}
			h.mu.RUnlock()
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[uid]
		h.mu.RUnlock()
		if !ok {
			continue
		}
		for _, client := range clients {
			select {
			case client.Send <- payload.Message:
			default:
				close(client.Send)
				h.unregister <- client
			}
		}
	}
}
