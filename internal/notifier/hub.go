package notifier

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is one live websocket subscriber.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// Hub tracks connected users and pushes them in-app notices. One connection
// per user; a newer connection replaces the older one.
type Hub struct {
	clients      map[uint]*Client
	clientsMutex sync.RWMutex
	register     chan *Client
	unregister   chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.clientsMutex.Unlock()
		case client := <-h.unregister:
			h.clientsMutex.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.clientsMutex.Unlock()
		}
	}
}

// Attach registers a fresh websocket connection for a user and starts its
// pumps. The connection is owned by the hub from here on.
func (h *Hub) Attach(conn *websocket.Conn, userID uint) {
	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

// Push delivers a notice to a user if they are connected. Offline users are
// skipped silently; the mail and chat channels carry the durable copy.
func (h *Hub) Push(userID uint, notice interface{}) {
	payload, err := json.Marshal(notice)
	if err != nil {
		zap.L().Error("failed to marshal notice", zap.Error(err))
		return
	}

	h.clientsMutex.RLock()
	client, ok := h.clients[userID]
	h.clientsMutex.RUnlock()
	if !ok {
		return
	}

	select {
	case client.send <- payload:
	default:
		// Slow consumer, drop the notice rather than block the caller.
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump drains the connection so pings and close frames are processed.
// Subscribers never send application data.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket read failed", zap.Error(err))
			}
			break
		}
	}
}
