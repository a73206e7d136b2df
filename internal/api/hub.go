package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBuffer   = 16
	broadcastQueue = 256
)

var _ interfaces.SnapshotPublisher = (*Hub)(nil)

// Message is the envelope of every frame sent to viewers
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Sender  string      `json:"sender"`
}

// Client is one viewer connection of a session
type Client struct {
	hub       *Hub
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

type broadcast struct {
	sessionID string
	data      []byte
}

// Hub fans session snapshots out to websocket viewers
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan broadcast
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewHub creates a hub; Run must be started before clients connect
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan broadcast, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run is the hub loop. It returns when ctx is cancelled, closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, viewers := range h.clients {
				for client := range viewers {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			viewers, ok := h.clients[client.sessionID]
			if !ok {
				viewers = make(map[*Client]bool)
				h.clients[client.sessionID] = viewers
			}
			viewers[client] = true
			h.logger.Debug("Viewer connected", zap.String("session_id", client.sessionID))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			for client := range h.clients[msg.sessionID] {
				select {
				case client.send <- msg.data:
				default:
					// Slow viewer
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	viewers, ok := h.clients[client.sessionID]
	if !ok || !viewers[client] {
		return
	}
	delete(viewers, client)
	close(client.send)
	if len(viewers) == 0 {
		delete(h.clients, client.sessionID)
	}
}

// Publish queues a snapshot for the viewers of a session. It never blocks
// the caller; snapshots are dropped when the queue is full.
func (h *Hub) Publish(sessionID string, state types.GameState) {
	h.send(sessionID, Message{Type: "snapshot", Payload: state, Sender: sessionID})
}

// Closed tells viewers a session has ended
func (h *Hub) Closed(sessionID string) {
	h.send(sessionID, Message{Type: "closed", Sender: sessionID})
}

func (h *Hub) send(sessionID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- broadcast{sessionID: sessionID, data: data}:
	default:
		h.logger.Warn("Broadcast queue full, dropping message", zap.String("session_id", sessionID))
	}
}

// ServeWs upgrades the request and registers a viewer. initial, when not
// nil, is sent before any broadcast.
func (h *Hub) ServeWs(sessionID string, initial *types.GameState, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{hub: h, sessionID: sessionID, conn: conn, send: make(chan []byte, clientBuffer)}
	if initial != nil {
		if data, err := json.Marshal(Message{Type: "snapshot", Payload: initial, Sender: sessionID}); err == nil {
			client.send <- data
		}
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for the close frame; viewers do not send commands
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("Viewer read error", zap.String("session_id", c.sessionID), zap.Error(err))
			}
			return
		}
	}
}

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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
