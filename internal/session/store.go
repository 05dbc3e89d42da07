package session

import (
	"context"
	"sync"
)

// Repository owns all per-session conversational state. Sessions are
// created lazily by the first write; reads of an unknown session return
// empty results. Every mutation is append-then-trim.
type Repository interface {
	GetHistory(ctx context.Context, sessionID string) ([]Turn, error)
	// PushHistory appends turns as one step, so a user turn and its reply
	// are never split by another writer.
	PushHistory(ctx context.Context, sessionID string, turns ...Turn) error
	GetLatestImage(ctx context.Context, sessionID string) (*Image, error)
	GetDescriptions(ctx context.Context, sessionID string) ([]string, error)
	AddImageAndDescription(ctx context.Context, sessionID string, img Image, description string) error
	Reset(ctx context.Context, sessionID string) error
}

type state struct {
	history      []Turn
	images       []Image
	descriptions []string
}

type MemoryStore struct {
	limits Limits

	mu       sync.RWMutex
	sessions map[string]*state
}

func NewMemoryStore(limits Limits) *MemoryStore {
	return &MemoryStore{
		limits:   limits.normalize(),
		sessions: make(map[string]*state),
	}
}

func (s *MemoryStore) GetHistory(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return []Turn{}, nil
	}
	out := make([]Turn, len(st.history))
	copy(out, st.history)
	return out, nil
}

func (s *MemoryStore) PushHistory(_ context.Context, sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(sessionID)
	st.history = trimFront(append(st.history, turns...), s.limits.MaxHistory())
	return nil
}

func (s *MemoryStore) GetLatestImage(_ context.Context, sessionID string) (*Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok || len(st.images) == 0 {
		return nil, nil
	}
	img := st.images[len(st.images)-1]
	return &img, nil
}

func (s *MemoryStore) GetDescriptions(_ context.Context, sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, len(st.descriptions))
	copy(out, st.descriptions)
	return out, nil
}

func (s *MemoryStore) AddImageAndDescription(_ context.Context, sessionID string, img Image, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(sessionID)
	st.images = trimFront(append(st.images, img), s.limits.MaxImages)
	st.descriptions = trimFront(append(st.descriptions, description), s.limits.MaxImages)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) getOrCreateLocked(sessionID string) *state {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &state{}
		s.sessions[sessionID] = st
	}
	return st
}

// trimFront drops the oldest entries so at most limit remain. The result
// never aliases the dropped prefix.
func trimFront[T any](items []T, limit int) []T {
	if len(items) <= limit {
		return items
	}
	out := make([]T, limit)
	copy(out, items[len(items)-limit:])
	return out
}
