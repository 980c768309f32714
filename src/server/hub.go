package server

import (
	"net/http"

	"stock-watchlist/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub owns the client set until Shutdown.
func (s *APIServer) runHub() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				close(client.send)
			}
			s.clients = map[*Client]struct{}{}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.setConnected(len(s.clients))
			// Replay the current state on connect
			s.stateMutex.RLock()
			client.send <- s.latest
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.setConnected(len(s.clients))
			}

		case client := <-s.resync:
			if _, ok := s.clients[client]; ok {
				snap := s.Core.Snapshot()
				select {
				case client.send <- &models.MServerMessage{Type: models.MessageSnapshot, Snapshot: &snap}:
				default:
				}
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it rather than block the hub
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.setConnected(len(s.clients))
		}
	}
}

func (s *APIServer) setConnected(n int) {
	s.stateMutex.Lock()
	s.connected = n
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------
// Publishing
// -----------------------------------------------------------------------------

// PublishSnapshot is a watchlist.Observer: it caches snap for new clients and
// pushes it to connected ones.
func (s *APIServer) PublishSnapshot(snap models.MWatchlistSnapshot) {
	msg := &models.MServerMessage{Type: models.MessageSnapshot, Snapshot: &snap}

	s.stateMutex.Lock()
	if s.latest.Snapshot == nil || snap.Version >= s.latest.Snapshot.Version {
		s.latest = msg
	}
	s.stateMutex.Unlock()

	s.enqueue(msg)
}

// Notify implements helpers.Notifier.
func (s *APIServer) Notify(n models.MNotification) {
	s.enqueue(&models.MServerMessage{Type: models.MessageNotification, Notification: &n})
}

// enqueue never blocks: it runs on the core's commit path.
func (s *APIServer) enqueue(msg *models.MServerMessage) {
	select {
	case s.broadcast <- msg:
	default:
		s.Logger.Warning("Broadcast queue full, dropping %s message", msg.Type)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan *models.MServerMessage, 64),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
