package pairing

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

// UserAuthor is the author shown on messages written by the user
const UserAuthor = "You"

// Greeting is the first message of every thread
func Greeting(partner *models.Partner) string {
	return fmt.Sprintf("Hi! I'm %s, your accountability partner. Looking forward to supporting you through your learning journey!", partner.Name)
}

// Service matches users with a partner and keeps their conversation
type Service struct {
	store   storage.Store
	pool    *Pool
	replier Replier
	bus     Bus
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a pairing service. rng drives partner selection
// and must not be shared with another owner.
func NewService(store storage.Store, pool *Pool, rng *rand.Rand, replier Replier, bus Bus) *Service {
	return &Service{
		store:   store,
		pool:    pool,
		replier: replier,
		bus:     bus,
		now:     time.Now,
		rng:     rng,
	}
}

// NewRand returns a generator seeded with seed, or randomly when seed is 0
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// Assignment returns the user's partner assignment, or nil when there is none
func (s *Service) Assignment(ctx context.Context, uid string) (*models.PartnerAssignment, error) {
	var a models.PartnerAssignment
	found, err := s.store.Get(ctx, storage.CollectionPartners, uid, &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// AssignIfAbsent returns the user's partner, matching one uniformly at
// random from the pool on first call. The bool reports a new match.
func (s *Service) AssignIfAbsent(ctx context.Context, uid string) (*models.PartnerAssignment, bool, error) {
	if uid == "" {
		return nil, false, models.ErrNotAuthenticated
	}

	var (
		assignment models.PartnerAssignment
		greeting   models.Message
		created    bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		found, err := tx.Get(ctx, storage.CollectionPartners, uid, &assignment)
		if err != nil || found {
			return err
		}

		partner := s.pick()
		now := s.now().UTC()
		assignment = models.PartnerAssignment{
			UserID:     uid,
			Partner:    partner,
			AssignedAt: now,
		}
		if err := tx.Put(ctx, storage.CollectionPartners, uid, assignment); err != nil {
			return err
		}

		greeting = s.message(partner.Name, Greeting(&partner), true)
		created = true
		return tx.Put(ctx, storage.CollectionThreads, uid, models.Thread{
			UserID:   uid,
			Messages: []models.Message{greeting},
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to assign partner: %w", err)
	}

	if created {
		slog.Info("partner assigned", "user_id", uid, "partner", assignment.Partner.Name)
		s.publish(ctx, uid, greeting)
	}
	return &assignment, created, nil
}

// SendMessage appends the user's message followed by the partner's reply
func (s *Service) SendMessage(ctx context.Context, uid, text string) ([]models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ErrMissingFields
	}

	assignment, _, err := s.AssignIfAbsent(ctx, uid)
	if err != nil {
		return nil, err
	}

	sent := s.message(UserAuthor, text, false)
	reply := s.message(assignment.Partner.Name, s.replier.Reply(&assignment.Partner, text), true)
	if err := s.appendMessages(ctx, uid, sent, reply); err != nil {
		return nil, err
	}
	return []models.Message{sent, reply}, nil
}

// Notify appends a message written by the user's partner
func (s *Service) Notify(ctx context.Context, uid, text string) (*models.Message, error) {
	assignment, _, err := s.AssignIfAbsent(ctx, uid)
	if err != nil {
		return nil, err
	}

	msg := s.message(assignment.Partner.Name, text, true)
	if err := s.appendMessages(ctx, uid, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Post appends a message written by the user without asking for a reply
func (s *Service) Post(ctx context.Context, uid, text string) (*models.Message, error) {
	if _, _, err := s.AssignIfAbsent(ctx, uid); err != nil {
		return nil, err
	}

	msg := s.message(UserAuthor, text, false)
	if err := s.appendMessages(ctx, uid, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Thread returns the user's conversation in the order it was written
func (s *Service) Thread(ctx context.Context, uid string) (*models.Thread, error) {
	thread := models.Thread{UserID: uid}
	if _, err := s.store.Get(ctx, storage.CollectionThreads, uid, &thread); err != nil {
		return nil, err
	}
	if thread.Messages == nil {
		thread.Messages = []models.Message{}
	}
	return &thread, nil
}

// Subscribe streams new messages of the user's thread
func (s *Service) Subscribe(ctx context.Context, uid string) (<-chan models.Message, func(), error) {
	return s.bus.Subscribe(ctx, uid)
}

func (s *Service) appendMessages(ctx context.Context, uid string, msgs ...models.Message) error {
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		thread := models.Thread{UserID: uid}
		if _, err := tx.Get(ctx, storage.CollectionThreads, uid, &thread); err != nil {
			return err
		}
		thread.Messages = append(thread.Messages, msgs...)
		return tx.Put(ctx, storage.CollectionThreads, uid, thread)
	})
	if err != nil {
		return fmt.Errorf("failed to append to thread: %w", err)
	}

	for _, m := range msgs {
		s.publish(ctx, uid, m)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, uid string, msg models.Message) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, uid, msg); err != nil {
		slog.Warn("failed to publish thread message", "user_id", uid, "error", err)
	}
}

func (s *Service) pick() models.Partner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Partners[s.rng.IntN(len(s.pool.Partners))]
}

func (s *Service) message(author, text string, isPartner bool) models.Message {
	return models.Message{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      text,
		IsPartner: isPartner,
		SentAt:    s.now().UTC(),
	}
}
