package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type wsSnapshot struct {
	Type    string           `json:"type"`
	Version uint64           `json:"version"`
	Payload []map[string]any `json:"payload"`
}

type hubFixture struct {
	store  *appointment.MemoryStore
	hub    *Hub
	tokens *jwt.Service
	server *httptest.Server
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := appointment.NewMemoryStore(zap.NewNop())
	cache := NewCache()
	unsubscribe, err := store.Subscribe(context.Background(), cache.Apply)
	require.NoError(t, err)
	t.Cleanup(unsubscribe)

	hub := NewHub(cache, zap.NewNop())
	tokens := jwt.New("test-secret", time.Hour)

	r := gin.New()
	r.GET("/ws/appointments", NewWSHandler(hub, tokens, nil, zap.NewNop()).HandleWebSocket)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &hubFixture{store: store, hub: hub, tokens: tokens, server: server}
}

func (f *hubFixture) dial(t *testing.T, userID, role string) *websocket.Conn {
	t.Helper()
	token, err := f.tokens.GenerateToken(userID, role)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/appointments?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wsSnapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsSnapshot
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventSnapshot, msg.Type)
	return msg
}

func (f *hubFixture) create(t *testing.T, customerID, tm string) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), &appointment.Appointment{
		CustomerID: customerID,
		StaffID:    "A",
		Date:       "2025-06-10",
		Time:       tm,
		Status:     appointment.StatusConfirmed,
	}))
}

func TestHub_StaffReceivesEverySnapshot(t *testing.T) {
	f := newHubFixture(t)
	f.create(t, "c1", "10:00")

	conn := f.dial(t, "staff-1", "STAFF")
	initial := read(t, conn)
	assert.Len(t, initial.Payload, 1)

	f.create(t, "c2", "10:30")

	next := read(t, conn)
	assert.Len(t, next.Payload, 2)
	assert.Greater(t, next.Version, initial.Version)
}

func TestHub_CustomerOnlySeesOwnAppointments(t *testing.T) {
	f := newHubFixture(t)
	f.create(t, "c2", "10:00")

	conn := f.dial(t, "c1", "CUSTOMER")
	initial := read(t, conn)
	assert.Empty(t, initial.Payload)

	// someone else's booking is not pushed to c1
	f.create(t, "c2", "10:30")
	f.create(t, "c1", "11:00")

	next := read(t, conn)
	require.Len(t, next.Payload, 1)
	assert.Equal(t, "c1", next.Payload[0]["customerId"])
	assert.Equal(t, "11:00", next.Payload[0]["time"])
}

func TestHub_UnregistersOnClose(t *testing.T) {
	f := newHubFixture(t)

	conn := f.dial(t, "staff-1", "ADMIN")
	read(t, conn)
	assert.Equal(t, 1, f.hub.Count())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return f.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWSHandler_RequiresValidToken(t *testing.T) {
	f := newHubFixture(t)

	resp, err := http.Get(f.server.URL + "/ws/appointments")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp2, err := http.Get(f.server.URL + "/ws/appointments?token=garbage")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
}
