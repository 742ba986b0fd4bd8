// Package config lê a configuração do tally-server a partir de variáveis de
// ambiente (caarlos0/env). O .env, se existir, é carregado pelo main antes.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"tally-service/tally/domain"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`

	// zone | team
	Scheme string `env:"TALLY_SCHEME" envDefault:"zone"`
	Min    *int   `env:"TALLY_MIN"`
	Max    *int   `env:"TALLY_MAX"`
	Roster []int  `env:"TALLY_ROSTER" envSeparator:","`
	// ResetUUID vazio = reset liberado.
	ResetUUID string `env:"RESET_UUID"`

	RateEnabled   bool          `env:"RATE_ENABLED" envDefault:"true"`
	RateRPS       float64       `env:"RATE_RPS" envDefault:"10"`
	RateBurst     int           `env:"RATE_BURST" envDefault:"20"`
	RateKeyHeader string        `env:"RATE_KEY_HEADER"`
	TrustXFF      bool          `env:"TRUST_XFF" envDefault:"false"`
	RetryAfter    time.Duration `env:"RETRY_AFTER" envDefault:"1s"`
	RateIdleTTL   time.Duration `env:"RATE_IDLE_TTL" envDefault:"15m"`
	AddHeaders    bool          `env:"ADD_RATELIMIT_HEADERS" envDefault:"false"`

	// Vagas simultâneas por classe; 0 = sem limite.
	ConcurrencyMaxReads  int           `env:"CONCURRENCY_MAX_READS" envDefault:"100"`
	ConcurrencyMaxWrites int           `env:"CONCURRENCY_MAX_WRITES" envDefault:"20"`
	ConcurrencyTimeout   time.Duration `env:"CONCURRENCY_TIMEOUT" envDefault:"0s"`

	// none | memory | redis
	StatsBackend          string        `env:"STATS_BACKEND" envDefault:"memory"`
	StatsRedisAddr        string        `env:"STATS_REDIS_ADDR"`
	StatsRedisPassword    string        `env:"STATS_REDIS_PASSWORD"`
	StatsRedisDB          int           `env:"STATS_REDIS_DB" envDefault:"0"`
	StatsPrefix           string        `env:"STATS_PREFIX" envDefault:"tally:stats"`
	StatsTTL              time.Duration `env:"STATS_TTL" envDefault:"24h"`
	StatsBucket           string        `env:"STATS_BUCKET" envDefault:"minute"`
	StatsTrackIdentifiers bool          `env:"STATS_TRACK_IDENTIFIERS" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StatsBackend = strings.ToLower(strings.TrimSpace(cfg.StatsBackend))

	switch cfg.StatsBackend {
	case "none", "memory":
	case "redis":
		if strings.TrimSpace(cfg.StatsRedisAddr) == "" {
			return Config{}, errors.New("STATS_REDIS_ADDR is required when STATS_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("STATS_BACKEND must be none, memory or redis, got %q", cfg.StatsBackend)
	}
	if cfg.RateEnabled && cfg.RateRPS <= 0 {
		return Config{}, errors.New("RATE_RPS must be > 0")
	}
	if cfg.RateEnabled && cfg.RateBurst <= 0 {
		return Config{}, errors.New("RATE_BURST must be > 0")
	}
	if cfg.ConcurrencyMaxReads < 0 {
		return Config{}, errors.New("CONCURRENCY_MAX_READS must be >= 0")
	}
	if cfg.ConcurrencyMaxWrites < 0 {
		return Config{}, errors.New("CONCURRENCY_MAX_WRITES must be >= 0")
	}
	if _, err := cfg.TallyScheme(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.LockToken(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// TallyScheme parte do preset escolhido e aplica TALLY_MIN/MAX/ROSTER.
func (c Config) TallyScheme() (domain.Scheme, error) {
	var s domain.Scheme
	switch strings.ToLower(strings.TrimSpace(c.Scheme)) {
	case "zone", "zones", "loading_zone":
		s = domain.LoadingZones()
	case "team", "teams":
		s = domain.Teams()
	default:
		return domain.Scheme{}, fmt.Errorf("TALLY_SCHEME must be zone or team, got %q", c.Scheme)
	}

	if c.Min != nil {
		v, err := toUint8("TALLY_MIN", *c.Min)
		if err != nil {
			return domain.Scheme{}, err
		}
		s.Min = v
	}
	if c.Max != nil {
		v, err := toUint8("TALLY_MAX", *c.Max)
		if err != nil {
			return domain.Scheme{}, err
		}
		s.Max = v
	}
	if len(c.Roster) > 0 {
		roster := make([]uint8, 0, len(c.Roster))
		for _, n := range lo.Uniq(c.Roster) {
			v, err := toUint8("TALLY_ROSTER", n)
			if err != nil {
				return domain.Scheme{}, err
			}
			roster = append(roster, v)
		}
		s.Roster = roster
	}

	if err := s.Validate(); err != nil {
		return domain.Scheme{}, fmt.Errorf("tally scheme: %w", err)
	}
	return s, nil
}

func toUint8(name string, v int) (uint8, error) {
	if v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("%s must be between 0 and %d, got %d", name, math.MaxUint8, v)
	}
	return uint8(v), nil
}

func (c Config) LockToken() (uuid.NullUUID, error) {
	raw := strings.TrimSpace(c.ResetUUID)
	if raw == "" {
		return uuid.NullUUID{}, nil
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("RESET_UUID: %w", err)
	}
	return uuid.NullUUID{UUID: u, Valid: true}, nil
}
