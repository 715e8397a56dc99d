package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/domain/user"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

const EventSnapshot = "appointments.snapshot"

var activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "salon_ws_connections",
	Help: "Open appointment websocket connections.",
})

// WSEvent is pushed to clients. Payload always carries the full set the
// client may see, never a delta.
type WSEvent struct {
	Type    string                    `json:"type"`
	Version uint64                    `json:"version"`
	Payload []appointment.Appointment `json:"payload"`
}

type connection struct {
	userID string
	role   string
	conn   *websocket.Conn
	send   chan []byte
}

// sees reports whether the connection receives every appointment.
func (c *connection) sees() bool {
	return c.role == string(user.RoleAdmin) || c.role == string(user.RoleStaff)
}

// Hub pushes cache snapshots to every open websocket. Staff and admins
// get the whole set, customers only their own appointments.
type Hub struct {
	cache *Cache
	log   *zap.Logger

	mu          sync.RWMutex
	connections map[*connection]struct{}
}

func NewHub(cache *Cache, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		cache:       cache,
		log:         log,
		connections: make(map[*connection]struct{}),
	}
	cache.OnChange(h.broadcast)
	return h
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	h.connections[c] = struct{}{}
	h.mu.Unlock()
	activeConnections.Inc()
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
		activeConnections.Dec()
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) broadcast(d Diff) {
	snapshot := h.cache.Snapshot()
	version := h.cache.Version()

	h.mu.RLock()
	defer h.mu.RUnlock()

	var all []byte
	for c := range h.connections {
		if c.sees() {
			if all == nil {
				all = h.encode(version, snapshot)
			}
			h.enqueue(c, all)
			continue
		}
		if d.Touches(c.userID) {
			h.enqueue(c, h.encode(version, ownedBy(snapshot, c.userID)))
		}
	}
}

func (h *Hub) enqueue(c *connection, msg []byte) {
	if msg == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.log.Warn("websocket client too slow, dropping snapshot", zap.String("user_id", c.userID))
	}
}

func (h *Hub) encode(version uint64, appts []appointment.Appointment) []byte {
	if appts == nil {
		appts = []appointment.Appointment{}
	}
	data, err := json.Marshal(WSEvent{Type: EventSnapshot, Version: version, Payload: appts})
	if err != nil {
		h.log.Error("encode websocket snapshot", zap.Error(err))
		return nil
	}
	return data
}

func ownedBy(appts []appointment.Appointment, customerID string) []appointment.Appointment {
	out := make([]appointment.Appointment, 0)
	for _, a := range appts {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out
}

// ServeWS registers the connection, sends the current snapshot and
// blocks until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, userID, role string) {
	c := &connection{
		userID: userID,
		role:   role,
		conn:   conn,
		send:   make(chan []byte, 16),
	}

	h.register(c)

	// Registered first so no change falls between this snapshot and the
	// next broadcast. Clients keep the highest version they have seen.
	snapshot := h.cache.Snapshot()
	if !c.sees() {
		snapshot = ownedBy(snapshot, userID)
	}
	h.enqueue(c, h.encode(h.cache.Version(), snapshot))

	h.log.Debug("websocket connected", zap.String("user_id", userID), zap.String("role", role))

	go h.writePump(c)
	h.readPump(c)
}

// readPump only drains control frames; clients never send commands.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Debug("websocket disconnected", zap.String("user_id", c.userID))
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read failed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
