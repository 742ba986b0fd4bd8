package infra

import (
	"sync"
	"time"

	"tally-service/tally/domain"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// LimiterStore é um token bucket (x/time/rate) por cliente.
//
// Os limiters ficam num go-cache com expiração deslizante: cada Get renova o
// TTL, e clientes inativos por mais de idleTTL são descartados pelo janitor
// do próprio cache.
type LimiterStore struct {
	mu           sync.Mutex
	entries      *cache.Cache
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type LimiterStoreOption func(*LimiterStore)

func WithIdleTTL(d time.Duration) LimiterStoreOption {
	return func(s *LimiterStore) { s.idleTTL = d }
}

// WithCleanupEvery <= 0 desliga o janitor; entradas expiradas continuam
// invisíveis para Get, só não são removidas da memória.
func WithCleanupEvery(d time.Duration) LimiterStoreOption {
	return func(s *LimiterStore) { s.cleanupEvery = d }
}

func NewLimiterStore(rps float64, burst int, opts ...LimiterStoreOption) *LimiterStore {
	s := &LimiterStore{
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = cache.New(s.idleTTL, s.cleanupEvery)
	return s
}

func (s *LimiterStore) RPS() float64 { return float64(s.rps) }
func (s *LimiterStore) Burst() int   { return s.burst }

// Get implementa domain.LimiterStore.
func (s *LimiterStore) Get(key domain.ClientKey) domain.Limiter {
	return s.limiter(string(key))
}

func (s *LimiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.entries.Get(key); ok {
		lim := v.(*rate.Limiter)
		s.entries.SetDefault(key, lim)
		return lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries.SetDefault(key, lim)
	return lim
}

// Len conta entradas ainda não removidas (inclui expiradas antes do janitor).
func (s *LimiterStore) Len() int { return s.entries.ItemCount() }

func (s *LimiterStore) Cleanup() { s.entries.DeleteExpired() }
