package session

import (
	"context"
	"sync"
	"time"
)

// memoryStore keeps sessions in a capacity-bounded map. When full, the
// least-recently-updated session is evicted to make room.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*ChatSession
	capacity int
}

func (s *memoryStore) Create(ctx context.Context, sess *ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.capacity {
		s.evictOldestLocked()
	}

	now := time.Now()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	sess.Version = 1

	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.sessions[id]
	if !exists {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (s *memoryStore) Update(ctx context.Context, sess *ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.sessions[sess.ID]
	if !exists {
		return ErrNotFound
	}
	if stored.Version != sess.Version {
		return ErrConflict
	}

	sess.Version++
	sess.UpdatedAt = time.Now()

	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	return nil
}

func (s *memoryStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		if oldestID == "" || sess.UpdatedAt.Before(oldest) {
			oldestID = id
			oldest = sess.UpdatedAt
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
