package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"salonbooking/internal/domain/appointment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func notice(t *testing.T, origin string) string {
	t.Helper()
	data, err := json.Marshal(changeNotice{Origin: origin, At: time.Now()})
	require.NoError(t, err)
	return string(data)
}

func TestBridge_RefreshesOnlyForForeignNotices(t *testing.T) {
	ctx := context.Background()
	store := appointment.NewMemoryStore(zap.NewNop())

	deliveries := 0
	unsubscribe, err := store.Subscribe(ctx, func([]appointment.Appointment) { deliveries++ })
	require.NoError(t, err)
	defer unsubscribe()
	require.Equal(t, 1, deliveries)

	b := NewBridge(nil, "appointments", store, zap.NewNop())

	assert.False(t, b.handle(ctx, notice(t, b.instanceID)))
	assert.Equal(t, 1, deliveries)

	assert.True(t, b.handle(ctx, notice(t, "other-instance")))
	assert.Equal(t, 2, deliveries)

	assert.False(t, b.handle(ctx, "not json"))
	assert.Equal(t, 2, deliveries)
}

func TestBridge_RemoteRefreshDoesNotReannounce(t *testing.T) {
	ctx := context.Background()
	store := appointment.NewMemoryStore(zap.NewNop())

	hooks := 0
	store.OnWrite(func() { hooks++ })

	b := NewBridge(nil, "appointments", store, zap.NewNop())
	b.handle(ctx, notice(t, "other-instance"))
	assert.Zero(t, hooks)

	require.NoError(t, store.Create(ctx, &appointment.Appointment{StaffID: "A", Date: "2025-06-10", Time: "10:00"}))
	assert.Equal(t, 1, hooks)
}

func TestConnectRedis_RejectsBadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}
