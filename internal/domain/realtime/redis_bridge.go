package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"salonbooking/internal/domain/appointment"
)

const publishTimeout = 2 * time.Second

// changeNotice is what instances announce on the channel after a write.
type changeNotice struct {
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// Bridge fans appointment writes out across API instances. Each local
// write is announced on a redis channel; a notice from another instance
// makes the local store re-read and redeliver its snapshot.
type Bridge struct {
	rdb        *redis.Client
	channel    string
	instanceID string
	store      appointment.Store
	log        *zap.Logger
}

// ConnectRedis parses a redis:// URL and checks the server answers.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func NewBridge(rdb *redis.Client, channel string, store appointment.Store, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{
		rdb:        rdb,
		channel:    channel,
		instanceID: uuid.NewString(),
		store:      store,
		log:        log,
	}
}

// Attach announces every local write from now on.
func (b *Bridge) Attach() {
	b.store.OnWrite(b.announce)
}

func (b *Bridge) announce() {
	payload, err := json.Marshal(changeNotice{Origin: b.instanceID, At: time.Now().UTC()})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.Warn("announce appointment change failed", zap.String("channel", b.channel), zap.Error(err))
	}
}

// Run listens for notices until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("listening for appointment changes", zap.String("channel", b.channel), zap.String("instance", b.instanceID))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, msg.Payload)
		}
	}
}

// handle refreshes the local store for notices from other instances and
// reports whether it did.
func (b *Bridge) handle(ctx context.Context, payload string) bool {
	var n changeNotice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		b.log.Warn("malformed change notice", zap.String("payload", payload))
		return false
	}
	if n.Origin == b.instanceID {
		return false
	}

	if err := b.store.Refresh(ctx); err != nil {
		b.log.Warn("refresh after remote change failed", zap.String("origin", n.Origin), zap.Error(err))
		return false
	}
	return true
}
