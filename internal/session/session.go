// Package session maps opaque session tokens to user identities for the
// presentation layer. The sales core only asks whether a token is valid.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyIdentity = errors.New("session identity is required")

// Lookup resolves a token to the identity it was issued for.
type Lookup interface {
	Lookup(ctx context.Context, token string) (string, bool)
}

type Store interface {
	Lookup
	Issue(ctx context.Context, identity string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type memoryEntry struct {
	identity  string
	expiresAt time.Time
}

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Issue(_ context.Context, identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", ErrEmptyIdentity
	}
	token := newToken()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{identity: identity}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[token] = entry
	return token, nil
}

func (s *MemoryStore) Lookup(_ context.Context, token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return "", false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, token)
		return "", false
	}
	return entry.identity, true
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
