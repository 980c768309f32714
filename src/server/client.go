package server

import (
	"encoding/json"
	"time"

	"stock-watchlist/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one websocket UI. The hub owns send: only the hub loop writes to
// or closes it.
type Client struct {
	hub  *APIServer
	conn *websocket.Conn
	send chan *models.MServerMessage
}

// -----------------------------------------------------------------------------
// readPump - reads commands and watches the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.Logger.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		if !c.handleCommand(message) {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// handleCommand - client to server commands
// -----------------------------------------------------------------------------

// handleCommand answers {"command": "snapshot"} with the current watchlist
// state, for a UI that missed pushes. Unknown commands are ignored; malformed
// JSON returns false and the client is dropped.
func (c *Client) handleCommand(message []byte) bool {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.hub.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		return false
	}

	switch cmd.Command {
	case "snapshot":
		c.requestSnapshot()
	default:
		c.hub.Logger.Debug("Ignoring client command %q", cmd.Command)
	}
	return true
}

// requestSnapshot asks the hub to send the core's current snapshot to c.
func (c *Client) requestSnapshot() {
	select {
	case c.hub.resync <- c:
	case <-c.hub.done:
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
