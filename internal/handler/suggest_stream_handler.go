package handler

import (
	"context"

	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/internal/service"
	internalWS "citation-assist-be/internal/websocket"
	"citation-assist-be/pkg/events"
	"citation-assist-be/pkg/index"
	pktNats "citation-assist-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// SuggestStreamHandler owns the websocket surface for suggestion sessions
// and relays corpus events from the bus to connected editors.
type SuggestStreamHandler struct {
	suggestService service.ISuggestService
	subscriber     *pktNats.Subscriber
	hub            *internalWS.Hub
	indexes        *index.Manager
	logger         logger.ILogger
}

func NewSuggestStreamHandler(
	suggestService service.ISuggestService,
	sub *pktNats.Subscriber,
	hub *internalWS.Hub,
	indexes *index.Manager,
	log logger.ILogger,
) *SuggestStreamHandler {
	return &SuggestStreamHandler{
		suggestService: suggestService,
		subscriber:     sub,
		hub:            hub,
		indexes:        indexes,
		logger:         log,
	}
}

// Start subscribes to corpus events. Another instance finishing an ingest
// means our in-memory snapshot is stale, so a rebuild runs in the
// background while editors get notified immediately.
func (h *SuggestStreamHandler) Start() {
	if h.subscriber == nil {
		return
	}
	err := h.subscriber.Subscribe("events.>", "suggest-stream-worker", h.handleEvent)
	if err != nil {
		h.logger.Error("SuggestStreamHandler", "Failed to start corpus event subscriber", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.logger.Info("SuggestStreamHandler", "Corpus event subscriber started", nil)
}

func (h *SuggestStreamHandler) handleEvent(ctx context.Context, event events.Event) error {
	h.hub.Broadcast(event.EventType(), event.Payload())

	if event.EventType() == "events.PAPER_INDEXED" {
		go func() {
			if err := h.indexes.Rebuild(context.Background()); err != nil {
				h.logger.Warn("SuggestStreamHandler", "Index rebuild after corpus event failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}
	return nil
}

// ServeWs upgrades a connection into a suggestion session. Identity comes
// from the gateway header, with a query fallback for browser clients that
// cannot set headers on websocket handshakes.
func (h *SuggestStreamHandler) ServeWs(c *fiber.Ctx) error {
	raw := c.Get("X-User-Id")
	if raw == "" {
		raw = c.Query("user_id")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or malformed user id"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("SuggestStreamHandler", "Starting suggestion stream", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID, h.suggestService)
			h.logger.Info("SuggestStreamHandler", "Suggestion stream ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *SuggestStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/suggest", h.ServeWs)
}
