package pairing

import (
	"math/rand/v2"
	"sync"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

// CannedReplies are the answers a partner picks from when replying
var CannedReplies = []string{
	"That's great insight!",
	"I totally agree with you on that.",
	"Have you thought about...?",
	"This reminds me of something I read recently.",
	"Keep up the great work!",
}

// Replier produces the partner's answer to a user message
type Replier interface {
	Reply(partner *models.Partner, text string) string
}

// CannedReplier answers with a random canned reply
type CannedReplier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCannedReplier creates a replier drawing from rng.
// rng must not be shared with another owner.
func NewCannedReplier(rng *rand.Rand) *CannedReplier {
	return &CannedReplier{rng: rng}
}

func (r *CannedReplier) Reply(partner *models.Partner, text string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return CannedReplies[r.rng.IntN(len(CannedReplies))]
}
