package infra

import (
	"crypto/subtle"
	"fmt"
	"maps"
	"slices"
	"sync"

	"tally-service/tally/domain"

	"github.com/google/uuid"
)

var _ domain.TallyStore = (*MemoryStore)(nil)

// MemoryStore é o TallyStore do processo. O estado vive só enquanto o
// processo vive.
//
// O mapa é protegido por um único RWMutex: Update/Reset escrevem,
// Snapshot/Lookup leem. O lock token é fixado na construção e nunca muda,
// então é lido sem lock.
type MemoryStore struct {
	scheme domain.Scheme
	token  uuid.NullUUID

	mu      sync.RWMutex
	tallies domain.Tallies
}

type MemoryStoreOption func(*MemoryStore)

// WithLockToken exige o token em todo Reset.
func WithLockToken(token uuid.UUID) MemoryStoreOption {
	return func(s *MemoryStore) { s.token = uuid.NullUUID{UUID: token, Valid: true} }
}

// NewMemoryStore valida o scheme antes de montar o roster: um roster fora da
// faixa geraria ids que Scheme.Identifier nunca produz.
func NewMemoryStore(scheme domain.Scheme, opts ...MemoryStoreOption) (*MemoryStore, error) {
	if err := scheme.Validate(); err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	scheme.Roster = slices.Clone(scheme.Roster)

	s := &MemoryStore{
		scheme:  scheme,
		tallies: scheme.DefaultTallies(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *MemoryStore) Scheme() domain.Scheme {
	sc := s.scheme
	sc.Roster = slices.Clone(sc.Roster)
	return sc
}

func (s *MemoryStore) Locked() bool { return s.token.Valid }

func (s *MemoryStore) Update(id domain.Identifier, value uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tallies[id] = value
}

func (s *MemoryStore) Snapshot() domain.Tallies {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.tallies)
}

func (s *MemoryStore) Lookup(id domain.Identifier) (uint8, error) {
	s.mu.RLock()
	v, ok := s.tallies[id]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: no tally for %s", domain.ErrNotFound, id)
	}
	return v, nil
}

func (s *MemoryStore) Reset(token uuid.NullUUID) error {
	if !s.authorized(token) {
		return fmt.Errorf("%w: the UUID supplied does not match the UUID supplied at server start", domain.ErrUnauthorized)
	}

	fresh := s.scheme.DefaultTallies()

	s.mu.Lock()
	s.tallies = fresh
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) authorized(token uuid.NullUUID) bool {
	if !s.token.Valid {
		return true
	}
	if !token.Valid {
		return false
	}
	return subtle.ConstantTimeCompare(s.token.UUID[:], token.UUID[:]) == 1
}
