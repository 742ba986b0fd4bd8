package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tally-service/tally/domain"

	"github.com/redis/go-redis/v9"
)

var _ domain.StatsStore = (*RedisStatsStore)(nil)

// RedisStatsStore grava contadores em hashes:
//
//	<prefix>:op                 campo "<op>:<accepted|rejected>"
//	<prefix>:minute:<yyyymmddhhmm>  idem, com TTL
//	<prefix>:identifier         campo "<id>:<op>" (só aceitos)
type RedisStatsStore struct {
	rdb redis.UniversalClient

	prefix string
	// ttl aplica apenas nos buckets por minuto; o resto é cumulativo.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "tally:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := opField(ev)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":op", field, 1)

	if s.bucket == "minute" {
		bucketKey := s.minuteKey(at)
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if ev.Accepted && ev.Identifier != "" {
		pipe.HIncrBy(ctx, s.prefix+":identifier", ev.Identifier+":"+string(ev.Op), 1)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStatsStore) minuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}

func opField(ev domain.StatsEvent) string {
	if ev.Accepted {
		return string(ev.Op) + ":accepted"
	}
	return string(ev.Op) + ":rejected"
}
