package infra

import (
	"context"
	"maps"
	"sync"

	"tally-service/tally/domain"
)

var _ domain.StatsStore = (*MemoryStatsStore)(nil)

type Counters struct {
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

type StatsReport struct {
	ByOp         map[domain.Op]Counters `json:"by_op"`
	ByIdentifier map[string]Counters    `json:"by_identifier,omitempty"`
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento; não faz expiração.
type MemoryStatsStore struct {
	mu           sync.Mutex
	byOp         map[domain.Op]Counters
	byIdentifier map[string]Counters

	trackIdentifiers bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackIdentifiers(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackIdentifiers = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byOp:         make(map[domain.Op]Counters),
		byIdentifier: make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOp[ev.Op] = bump(s.byOp[ev.Op], ev.Accepted)
	if s.trackIdentifiers && ev.Identifier != "" {
		s.byIdentifier[ev.Identifier] = bump(s.byIdentifier[ev.Identifier], ev.Accepted)
	}
	return nil
}

func bump(c Counters, accepted bool) Counters {
	if accepted {
		c.Accepted++
	} else {
		c.Rejected++
	}
	return c
}

func (s *MemoryStatsStore) Report() StatsReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsReport{
		ByOp:         maps.Clone(s.byOp),
		ByIdentifier: maps.Clone(s.byIdentifier),
	}
}
