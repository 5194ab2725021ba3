package memory

import (
	"sync"
	"time"

	"rag-assistant-be/pkg/rag/session"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds live conversations in process memory. Entries
// expire after the configured TTL of inactivity; an expired session id
// simply starts a fresh conversation on next use.
type SessionRepository struct {
	mu             sync.Mutex
	cache          *cache.Cache
	window         int
	defaultPersona string
}

func NewSessionRepository(ttl time.Duration, window int, defaultPersona string) *SessionRepository {
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache:          c,
		window:         window,
		defaultPersona: defaultPersona,
	}
}

// GetOrCreate returns the conversation for the session id, creating it
// when absent. Access refreshes the TTL. The mutex makes check-then-set
// atomic: concurrent first requests for one session id must all land on
// the same conversation, or its exchange gate serializes nothing.
func (r *SessionRepository) GetOrCreate(sessionID string) *session.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionID); found {
		conv := x.(*session.Conversation)
		r.cache.Set(sessionID, conv, cache.DefaultExpiration)
		return conv
	}
	conv := session.NewConversation(r.window, r.defaultPersona)
	r.cache.Set(sessionID, conv, cache.DefaultExpiration)
	return conv
}

func (r *SessionRepository) Get(sessionID string) (*session.Conversation, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*session.Conversation), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
