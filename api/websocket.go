package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/flightdesk/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware already restricts browser origins
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// ════════════════════════════════════════════════════════════════════
// Hub
// ════════════════════════════════════════════════════════════════════

// WSMessage is a frame on the booking event stream.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSClient is one connected browser. send is closed by the hub only,
// through close; everyone else queues frames with trySend.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage

	mu     sync.Mutex
	closed bool
}

// trySend queues msg without blocking. It reports false when the buffer
// is full or the hub has already dropped the client.
func (c *WSClient) trySend(msg WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WSClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// WSHub fans booking events out to connected clients. It is also a
// notify.Notifier, so confirmed bookings reach the stream.
type WSHub struct {
	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	broadcast  chan WSMessage

	mu    sync.RWMutex
	count int
}

// NewWSHub creates a hub. Call Run to start delivering.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		broadcast:  make(chan WSMessage, 256),
	}
}

// Run processes registrations and broadcasts until the process exits.
func (h *WSHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.setCount(len(h.clients))
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				c.close()
				h.setCount(len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				if !c.trySend(msg) {
					// slow client
					delete(h.clients, c)
					c.close()
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

func (h *WSHub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Register adds a client.
func (h *WSHub) Register(c *WSClient) { h.register <- c }

// Unregister removes a client and closes its send channel.
func (h *WSHub) Unregister(c *WSClient) { h.unregister <- c }

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Broadcast queues msg for every client.
func (h *WSHub) Broadcast(ctx context.Context, msg WSMessage) error {
	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name implements notify.Notifier.
func (h *WSHub) Name() string { return "websocket" }

// Notify implements notify.Notifier.
func (h *WSHub) Notify(ctx context.Context, ev notify.Event) error {
	return h.Broadcast(ctx, WSMessage{Type: ev.Type, Data: ev})
}

// ════════════════════════════════════════════════════════════════════
// Connections
// ════════════════════════════════════════════════════════════════════

// handleWebSocket upgrades the connection and streams booking events.
// Clients may send {"type":"ping"} or {"type":"recent"} to fetch the last
// few bookings.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api/ws: upgrade error: %v", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 256),
	}
	s.wsHub.Register(client)

	go wsWritePump(conn, client)
	go wsReadPump(conn, client, s)
}

// wsReadPump reads client requests until the connection drops.
func wsReadPump(conn *websocket.Conn, client *WSClient, s *Server) {
	defer func() {
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("api/ws: read error: %v", err)
			}
			return
		}

		s.replyWS(client, message)
	}
}

// replyWS answers one client request. Replies to a client the hub has
// dropped are discarded.
func (s *Server) replyWS(client *WSClient, message []byte) {
	var msg WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	var reply WSMessage
	switch msg.Type {
	case "ping":
		reply = WSMessage{Type: "pong"}
	case "recent":
		reply = WSMessage{Type: "recent", Data: s.app.Ledger.Recent(10)}
	default:
		return
	}
	client.trySend(reply)
}

// wsWritePump writes queued frames and keeps the connection alive.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
