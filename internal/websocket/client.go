package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"citation-assist-be/internal/dto"
	"citation-assist-be/internal/service"
	"citation-assist-be/pkg/retrieval/pipeline"
	"citation-assist-be/pkg/retrieval/query"
	"citation-assist-be/pkg/retrieval/session"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // suggestion frames carry paragraph context
)

// Client is a middleman between one websocket connection and the hub. Each
// connection owns one suggestion session; frames the client sends are
// suggestion requests, frames it receives are results or corpus events.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	UserID uuid.UUID

	// SessionID names the suggestion session bound to this connection.
	SessionID string

	suggest service.ISuggestService

	// Buffered channel of outbound frames.
	Send chan []byte
}

type resultFrame struct {
	Type       string               `json:"type"`
	Generation int64                `json:"generation,omitempty"`
	Data       *dto.SuggestResponse `json:"data,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// readPump consumes suggestion requests. Each frame starts a new pipeline
// generation; the session machinery drops superseded results, so a slow
// frame never overtakes a newer one.
func (c *Client) readPump() {
	defer func() {
		c.suggest.CloseSession(c.SessionID)
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			break
		}

		var req dto.SuggestRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.deliver(resultFrame{Type: "error", Error: "malformed suggestion request"})
			continue
		}
		req.SessionId = c.SessionID

		go c.runSuggestion(&req)
	}
}

func (c *Client) runSuggestion(req *dto.SuggestRequest) {
	res, err := c.suggest.Suggest(context.Background(), c.UserID, req)
	if err != nil {
		// Superseded work vanishes without a frame; the newer generation
		// already owns the connection's attention.
		if errors.Is(err, session.ErrSuperseded) {
			return
		}
		frame := resultFrame{Type: "error", Generation: req.Generation, Error: err.Error()}
		if errors.Is(err, pipeline.ErrTimeout) {
			frame.Error = "timeout"
		} else if errors.Is(err, query.ErrEmptyQuery) {
			frame.Error = "empty_query"
		}
		c.deliver(frame)
		return
	}

	c.deliver(resultFrame{Type: "suggestions", Generation: res.Generation, Data: res})
}

func (c *Client) deliver(frame resultFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		// Buffer full; the write pump is stuck and the read pump will
		// tear the connection down.
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any queued frames into the same write.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
