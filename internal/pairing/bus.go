package pairing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

// Bus fans thread messages out to live subscribers
type Bus interface {
	Publish(ctx context.Context, userID string, msg models.Message) error
	// Subscribe streams the messages appended to a user's thread until
	// cancel is called or ctx ends; the channel is closed afterwards.
	Subscribe(ctx context.Context, userID string) (msgs <-chan models.Message, cancel func(), err error)
}

const subscriberBuffer = 16

// MemoryBus delivers messages within one process.
// Slow subscribers miss messages instead of blocking publishers.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string]map[chan models.Message]struct{}
}

// NewMemoryBus creates an in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[chan models.Message]struct{})}
}

func (b *MemoryBus) Publish(ctx context.Context, userID string, msg models.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[userID] {
		select {
		case ch <- msg:
		default:
			slog.Warn("dropping thread message for slow subscriber", "user_id", userID)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, userID string) (<-chan models.Message, func(), error) {
	ch := make(chan models.Message, subscriberBuffer)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan models.Message]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[userID], ch)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}

// RedisBus delivers messages through Redis pub/sub so every API
// instance can stream a thread regardless of which one wrote it
type RedisBus struct {
	client *redis.Client
	prefix string
}

// NewRedisBus creates a bus on an existing client
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client, prefix: "academy:thread:"}
}

func (b *RedisBus) channel(userID string) string {
	return b.prefix + userID
}

func (b *RedisBus) Publish(ctx context.Context, userID string, msg models.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(userID), raw).Err(); err != nil {
		return fmt.Errorf("%w: redis publish: %w", models.ErrExternalService, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, userID string) (<-chan models.Message, func(), error) {
	sub := b.client.Subscribe(ctx, b.channel(userID))

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("%w: redis subscribe: %w", models.ErrExternalService, err)
	}

	ctx, stop := context.WithCancel(ctx)
	out := make(chan models.Message, subscriberBuffer)

	go func() {
		defer close(out)
		defer sub.Close()

		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok || m == nil {
					return
				}
				var msg models.Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					slog.Warn("bad thread payload", "user_id", userID, "error", err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, stop, nil
}
