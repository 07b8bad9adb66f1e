package websocket

import (
	"citation-assist-be/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs binds a websocket connection to a fresh suggestion session and
// runs its pumps. The read pump owns the handler goroutine.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID, suggest service.ISuggestService) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		UserID:    userID,
		SessionID: uuid.NewString(),
		suggest:   suggest,
		Send:      make(chan []byte, 256),
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
