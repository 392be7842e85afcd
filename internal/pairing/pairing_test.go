package pairing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

type echoReplier struct{}

func (echoReplier) Reply(partner *models.Partner, text string) string {
	return partner.Name + " read: " + text
}

func newTestService(t *testing.T, seed int64) (*Service, *MemoryBus) {
	t.Helper()
	pool, err := DefaultPool()
	require.NoError(t, err)
	bus := NewMemoryBus()
	return NewService(storage.NewMemoryStore(), pool, NewRand(seed), echoReplier{}, bus), bus
}

func TestDefaultPool(t *testing.T) {
	pool, err := DefaultPool()
	require.NoError(t, err)
	require.Len(t, pool.Partners, 4)
	assert.Equal(t, "James Rodriguez", pool.Partners[0].Name)
	assert.Equal(t, []string{"Creative Writing", "Philosophy"}, pool.Partners[1].Interests)
}

func TestLoadPool(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("partners:\n  - id: 7\n    name: Solo\n"), 0o644))
	pool, err := LoadPool(path)
	require.NoError(t, err)
	require.Len(t, pool.Partners, 1)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("partners: []\n"), 0o644))
	_, err = LoadPool(empty)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestAssignIfAbsentIsDeterministicForSeed(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestService(t, 42)
	b, _ := newTestService(t, 42)

	for _, uid := range []string{"u1", "u2", "u3"} {
		first, _, err := a.AssignIfAbsent(ctx, uid)
		require.NoError(t, err)
		second, _, err := b.AssignIfAbsent(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, first.Partner.ID, second.Partner.ID)
	}
}

func TestAssignIfAbsentHappensOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, 7)

	first, created, err := s.AssignIfAbsent(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, created)

	for i := 0; i < 5; i++ {
		again, created, err := s.AssignIfAbsent(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.Partner, again.Partner)
	}

	thread, err := s.Thread(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	greeting := thread.Messages[0]
	assert.True(t, greeting.IsPartner)
	assert.Equal(t, first.Partner.Name, greeting.Author)
	assert.Equal(t, "Hi! I'm "+first.Partner.Name+", your accountability partner. Looking forward to supporting you through your learning journey!", greeting.Text)

	_, _, err = s.AssignIfAbsent(ctx, "")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestAssignmentIsReadOnly(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, 3)

	none, err := s.Assignment(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	thread, err := s.Thread(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, thread.Messages, "looking up must not match a partner")

	assigned, _, err := s.AssignIfAbsent(ctx, "u1")
	require.NoError(t, err)
	got, err := s.Assignment(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, assigned.Partner, got.Partner)
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, 1)

	_, err := s.SendMessage(ctx, "u1", "   ")
	assert.ErrorIs(t, err, models.ErrMissingFields)

	msgs, err := s.SendMessage(ctx, "u1", "I finished chapter two")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, UserAuthor, msgs[0].Author)
	assert.False(t, msgs[0].IsPartner)
	assert.True(t, msgs[1].IsPartner)
	assert.Contains(t, msgs[1].Text, "I finished chapter two")

	thread, err := s.Thread(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, thread.Messages, 3)
	assert.Equal(t, "I finished chapter two", thread.Messages[1].Text)
	assert.Equal(t, msgs[1].ID, thread.Messages[2].ID)
}

func TestNotifyAndPost(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, 1)

	note, err := s.Notify(ctx, "u1", "I'll review your essay \"Dust\" and give you feedback!")
	require.NoError(t, err)
	assert.True(t, note.IsPartner)

	ack, err := s.Post(ctx, "u1", "Thanks!")
	require.NoError(t, err)
	assert.False(t, ack.IsPartner)

	thread, err := s.Thread(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, thread.Messages, 3)
	assert.Equal(t, "Thanks!", thread.Messages[2].Text)
}

func TestThreadOfUnknownUser(t *testing.T) {
	s, _ := newTestService(t, 1)
	thread, err := s.Thread(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, thread.Messages)
}

func TestCannedReplier(t *testing.T) {
	r := NewCannedReplier(NewRand(3))
	for i := 0; i < 20; i++ {
		assert.Contains(t, CannedReplies, r.Reply(&models.Partner{Name: "Alex Chen"}, "hello"))
	}
}

func TestConcurrentMatchingAndReplies(t *testing.T) {
	ctx := context.Background()
	pool, err := DefaultPool()
	require.NoError(t, err)

	// wired like cmd/academy
	replier := NewCannedReplier(NewRand(1))
	s := NewService(storage.NewMemoryStore(), pool, NewRand(1), replier, NewMemoryBus())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			s.pick()
		}()
		go func() {
			defer wg.Done()
			replier.Reply(&pool.Partners[0], "hello")
		}()
		go func() {
			defer wg.Done()
			_, err := s.SendMessage(ctx, fmt.Sprintf("u%d", i), "hello")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	thread, err := s.Thread(ctx, "u7")
	require.NoError(t, err)
	assert.Len(t, thread.Messages, 3)
}

func TestMemoryBusStreamsThread(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, _ := newTestService(t, 1)

	msgs, stop, err := s.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer stop()

	_, err = s.SendMessage(ctx, "u1", "hello")
	require.NoError(t, err)

	var texts []string
	for i := 0; i < 3; i++ {
		select {
		case m := <-msgs:
			texts = append(texts, m.Text)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
	assert.Equal(t, "hello", texts[1])

	stop()
	_, open := <-msgs
	assert.False(t, open)
}

func TestRedisBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewRedisBus(client)
	msgs, stop, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer stop()

	require.NoError(t, bus.Publish(ctx, "u2", models.Message{ID: "other", Text: "not for u1"}))
	require.NoError(t, bus.Publish(ctx, "u1", models.Message{ID: "m1", Text: "hi", IsPartner: true}))

	select {
	case m := <-msgs:
		assert.Equal(t, "m1", m.ID)
		assert.True(t, m.IsPartner)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
