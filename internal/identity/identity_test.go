package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestProvider(t *testing.T) (*Provider, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewProvider(store, NewMemorySessionStore(), testSecret, time.Hour), store
}

func TestSignUpCreatesProfile(t *testing.T) {
	ctx := context.Background()
	p, store := newTestProvider(t)

	grant, err := p.SignUp(ctx, " Ada@Example.com ", "secret1", "Ada")
	require.NoError(t, err)
	require.NotEmpty(t, grant.Token)
	assert.Equal(t, "ada@example.com", grant.User.Email)

	var profile models.Profile
	found, err := store.Get(ctx, storage.CollectionUsers, grant.User.UID, &profile)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ada", profile.Name)
	assert.Empty(t, profile.EnrolledChallenges)
	assert.NotNil(t, profile.PublishedEssays)
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	_, err := p.SignUp(ctx, "ada@example.com", "secret1", "")
	assert.ErrorIs(t, err, models.ErrMissingFields)

	_, err = p.SignUp(ctx, "not-an-email", "secret1", "Ada")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = p.SignUp(ctx, "ada@example.com", "12345", "Ada")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = p.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)
	_, err = p.SignUp(ctx, "ADA@example.com", "secret2", "Other")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	signedUp, err := p.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	grant, err := p.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	principal, err := p.Authenticate(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, signedUp.User.UID, principal.UID)
	assert.Equal(t, "Ada", principal.Name)

	_, err = p.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	p, store := newTestProvider(t)
	other := NewProvider(store, NewMemorySessionStore(), []byte("ffffffffffffffffffffffffffffffff"), time.Hour)

	grant, err := other.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)

	_, err = p.Authenticate(ctx, grant.Token)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestSignOutEndsSession(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	var events []*models.Principal
	p.OnChange(func(ctx context.Context, principal *models.Principal) {
		events = append(events, principal)
	})

	grant, err := p.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)
	principal, err := p.Authenticate(ctx, grant.Token)
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, principal))
	_, err = p.Authenticate(ctx, grant.Token)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	require.Len(t, events, 2)
	assert.Equal(t, principal.UID, events[0].UID)
	assert.Nil(t, events[1])

	assert.ErrorIs(t, p.SignOut(ctx, nil), models.ErrNotAuthenticated)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	grant, err := p.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)

	name := "Ada Lovelace"
	profile, err := p.UpdateProfile(ctx, grant.User.UID, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)

	blank := " "
	_, err = p.UpdateProfile(ctx, grant.User.UID, ProfileUpdate{Name: &blank})
	assert.ErrorIs(t, err, models.ErrMissingFields)

	_, err = p.Profile(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemorySessionStoreSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 11, 18, 12, 0, 0, 0, time.UTC)
	s := NewMemorySessionStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, &Session{ID: "live", UID: "u1", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, s.Save(ctx, &Session{ID: "dead", UID: "u2", ExpiresAt: now.Add(-time.Minute)}))

	dead, err := s.Get(ctx, "dead")
	require.NoError(t, err)
	assert.Nil(t, dead)

	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	live, err := s.Get(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, "u1", live.UID)
}

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisSessionStore(client)
	sess := &Session{ID: "s1", UID: "u1", Email: "ada@example.com", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, s.Save(ctx, sess))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UID)

	mr.FastForward(2 * time.Minute)
	got, err = s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(ctx, &Session{ID: "s2", UID: "u2", ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, s.Delete(ctx, "s2"))
	got, err = s.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProviderWithRedisSessions(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewProvider(storage.NewMemoryStore(), NewRedisSessionStore(client), testSecret, time.Hour)
	grant, err := p.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)

	principal, err := p.Authenticate(ctx, grant.Token)
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx, principal))

	_, err = p.Authenticate(ctx, grant.Token)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}
