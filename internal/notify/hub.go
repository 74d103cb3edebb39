package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"elapor/internal/cooldown"

	"github.com/gorilla/websocket"
)

// Message types pushed to dashboards
const (
	TypeCooldown = "cooldown"
	TypeRoster   = "roster"
)

// Config WebSocket timings
type Config struct {
	PingInterval   time.Duration
	WriteWait      time.Duration
	ReadWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultConfig 30 s pings, 60 s read deadline
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		WriteWait:      10 * time.Second,
		ReadWait:       60 * time.Second,
		MaxMessageSize: 1024,
		SendBuffer:     64,
	}
}

// Message envelope written to every client
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// CooldownPayload one cooldown tick
type CooldownPayload struct {
	UserID      string `json:"user_id"`
	RemainingMs int64  `json:"remaining_ms"`
	Expired     bool   `json:"expired"`
}

// RosterPayload a roster mutation other dashboards should reload for
type RosterPayload struct {
	Action string `json:"action"` // invited, resent, saved, deleted, verified
	UserID string `json:"user_id,omitempty"`
	By     string `json:"by,omitempty"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans messages out to connected admin dashboards
type Hub struct {
	mu        sync.RWMutex
	clients   map[*client]struct{}
	broadcast chan Message
	cfg       Config
}

// NewHub creates a hub
func NewHub(cfg Config) *Hub {
	def := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.ReadWait <= 0 {
		cfg.ReadWait = def.ReadWait
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	return &Hub{
		clients:   make(map[*client]struct{}),
		broadcast: make(chan Message, 256),
		cfg:       cfg,
	}
}

// Run delivers broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Publish queues a message; it is dropped when the queue is full
func (h *Hub) Publish(msgType string, payload interface{}) {
	select {
	case h.broadcast <- Message{Type: msgType, Payload: payload}:
	default:
		log.Printf("[WARN] [Notify] Broadcast queue full, dropping %s message", msgType)
	}
}

// CooldownListener forwards cooldown events to the hub
func (h *Hub) CooldownListener() cooldown.Listener {
	return func(ev cooldown.Event) {
		h.Publish(TypeCooldown, CooldownPayload{
			UserID:      ev.UserID,
			RemainingMs: ev.Remaining.Milliseconds(),
			Expired:     ev.Expired,
		})
	}
}

// Register attaches an upgraded connection for userID and starts its pumps
func (h *Hub) Register(conn *websocket.Conn, userID string) {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, h.cfg.SendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.Printf("[DEBUG] [Notify] %s connected", userID)
	go h.writePump(c)
	go h.readPump(c)
}

// unregister is idempotent
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// deliver queues msg on every client; slow clients are dropped
func (h *Hub) deliver(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ERROR] [Notify] Failed to marshal message: %v", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("[WARN] [Notify] Dropping slow client %s", c.userID)
		h.unregister(c)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readPump only watches for disconnects and pongs
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WARN] [Notify] WebSocket error for %s: %v", c.userID, err)
			}
			return
		}
	}
}

// ClientCount number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
