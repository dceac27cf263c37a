package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when Redis is not configured.
// Entries expire lazily on read; sessions are copied on the way in and out
// so callers never share state through the map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get loads the session for a (shop, sender) pair, or (nil, nil) when none
// exists or the entry has expired.
func (s *MemoryStore) Get(_ context.Context, shopID, sender string) (*Session, error) {
	key := Key(shopID, sender)

	s.mu.RLock()
	entry, ok := s.sessions[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		s.evictIfExpired(key)
		return nil, nil
	}

	sess := entry.sess
	sess.Slots = append(sess.Slots[:0:0], entry.sess.Slots...)
	return &sess, nil
}

// evictIfExpired removes the entry only if it is still expired. A write
// that refreshed the entry after the caller read its stale copy must
// survive.
func (s *MemoryStore) evictIfExpired(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[key]
	if ok && s.now().After(entry.expiresAt) {
		delete(s.sessions, key)
	}
}

// Put stores the session and refreshes its expiry.
func (s *MemoryStore) Put(_ context.Context, shopID, sender string, sess *Session) error {
	if sess == nil {
		return s.Delete(nil, shopID, sender)
	}

	stored := *sess
	stored.Slots = append(stored.Slots[:0:0], sess.Slots...)

	s.mu.Lock()
	s.sessions[Key(shopID, sender)] = memoryEntry{
		sess:      stored,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()
	return nil
}

// Delete removes the session, if present.
func (s *MemoryStore) Delete(_ context.Context, shopID, sender string) error {
	s.mu.Lock()
	delete(s.sessions, Key(shopID, sender))
	s.mu.Unlock()
	return nil
}
