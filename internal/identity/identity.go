package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Listener is notified when the signed-in user changes; principal is nil on sign-out
type Listener func(ctx context.Context, principal *models.Principal)

// Grant is handed to a client after signing in
type Grant struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      *models.Principal `json:"user"`
}

// Claims are the JWT claims of an access token
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type account struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Provider is the identity provider: accounts, sessions and user profiles
type Provider struct {
	store    storage.Store
	sessions SessionStore
	secret   []byte
	ttl      time.Duration

	mu        sync.RWMutex
	listeners []Listener
}

// NewProvider creates an identity provider
func NewProvider(store storage.Store, sessions SessionStore, secret []byte, ttl time.Duration) *Provider {
	return &Provider{
		store:    store,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
	}
}

// OnChange registers a listener for sign-in, sign-up and sign-out
func (p *Provider) OnChange(fn Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Provider) notify(ctx context.Context, principal *models.Principal) {
	p.mu.RLock()
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, principal)
	}
}

// SignUp creates an account and its profile document, then signs the user in
func (p *Provider) SignUp(ctx context.Context, email, password, name string) (*Grant, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || password == "" || name == "" {
		return nil, models.ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	acct := account{
		UID:          uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	err = p.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		var existing account
		found, err := tx.Get(ctx, storage.CollectionAccounts, email, &existing)
		if err != nil {
			return err
		}
		if found {
			return ErrEmailTaken
		}

		if err := tx.Put(ctx, storage.CollectionAccounts, email, acct); err != nil {
			return err
		}
		return tx.Put(ctx, storage.CollectionUsers, acct.UID, models.Profile{
			UID:                acct.UID,
			Email:              email,
			Name:               name,
			CreatedAt:          now,
			EnrolledChallenges: []string{},
			PublishedEssays:    []string{},
			LikedSubmissions:   []string{},
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("account created", "uid", acct.UID)
	return p.openSession(ctx, &acct)
}

// SignIn checks the password and opens a new session
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Grant, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.ErrMissingFields
	}

	var acct account
	found, err := p.store.Get(ctx, storage.CollectionAccounts, email, &acct)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.openSession(ctx, &acct)
}

// SignOut ends the principal's session
func (p *Provider) SignOut(ctx context.Context, principal *models.Principal) error {
	if principal == nil {
		return models.ErrNotAuthenticated
	}
	if err := p.sessions.Delete(ctx, principal.SessionID); err != nil {
		return err
	}

	slog.Info("signed out", "uid", principal.UID)
	p.notify(ctx, nil)
	return nil
}

// Authenticate resolves an access token to the principal behind a live session
func (p *Provider) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", models.ErrNotAuthenticated)
	}

	sess, err := p.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UID != claims.Subject {
		return nil, fmt.Errorf("%w: session ended", models.ErrNotAuthenticated)
	}

	return &models.Principal{
		UID:       sess.UID,
		Email:     sess.Email,
		Name:      sess.Name,
		SessionID: sess.ID,
	}, nil
}

// Profile returns the profile document of a user
func (p *Provider) Profile(ctx context.Context, uid string) (*models.Profile, error) {
	var profile models.Profile
	found, err := p.store.Get(ctx, storage.CollectionUsers, uid, &profile)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("profile %s: %w", uid, models.ErrNotFound)
	}
	if profile.UID == "" {
		profile.UID = uid
	}
	return &profile, nil
}

// ProfileUpdate lists the profile fields a user may change
type ProfileUpdate struct {
	Name *string `json:"name"`
}

// UpdateProfile merges the given fields into the user's profile
func (p *Provider) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) (*models.Profile, error) {
	patch := map[string]any{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, models.ErrMissingFields
		}
		patch["name"] = name
	}

	if len(patch) > 0 {
		if err := p.store.Update(ctx, storage.CollectionUsers, uid, patch, true); err != nil {
			return nil, err
		}
	}
	return p.Profile(ctx, uid)
}

func (p *Provider) openSession(ctx context.Context, acct *account) (*Grant, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		UID:       acct.UID,
		Email:     acct.Email,
		Name:      acct.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}
	if err := p.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	claims := &Claims{
		Email: acct.Email,
		Name:  acct.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   acct.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	principal := &models.Principal{
		UID:       acct.UID,
		Email:     acct.Email,
		Name:      acct.Name,
		SessionID: sess.ID,
	}
	p.notify(ctx, principal)

	return &Grant{Token: token, ExpiresAt: sess.ExpiresAt, User: principal}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
