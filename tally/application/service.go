package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"tally-service/tally/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// TallyService concentra as regras de aplicação em volta do TallyStore.
//
// O store é a única instância do processo e é injetado aqui; o service em si
// não guarda estado. O Scheme vem sempre do Store.
type TallyService struct {
	Store  domain.TallyStore
	Stats  domain.StatsStore
	Logger *zap.Logger
}

// Submit grava a última contagem de um id. rawID e value chegam crus do
// adapter; os dois são validados aqui.
func (s TallyService) Submit(ctx context.Context, rawID, value int) error {
	id, err := s.Store.Scheme().Identifier(rawID)
	if err != nil {
		s.record(ctx, domain.OpSubmit, "", false)
		return err
	}
	if value < 0 || value > math.MaxUint8 {
		s.record(ctx, domain.OpSubmit, id.String(), false)
		return fmt.Errorf("%w: number_of_merchandise must be between 0 and %d, got %d",
			domain.ErrInvalidValue, math.MaxUint8, value)
	}

	s.Store.Update(id, uint8(value))
	s.logger().Debug("tally updated", zap.Stringer("id", id), zap.Int("value", value))
	s.record(ctx, domain.OpSubmit, id.String(), true)
	return nil
}

// Tallies devolve o snapshot com as chaves já no formato de exibição
// ("zone1", "team3"...).
func (s TallyService) Tallies(_ context.Context) map[string]uint8 {
	return lo.MapKeys(s.Store.Snapshot(), func(_ uint8, id domain.Identifier) string {
		return id.String()
	})
}

func (s TallyService) Lookup(ctx context.Context, rawID int) (domain.Identifier, uint8, error) {
	id, err := s.Store.Scheme().Identifier(rawID)
	if err != nil {
		s.record(ctx, domain.OpLookup, "", false)
		return domain.Identifier{}, 0, err
	}
	v, err := s.Store.Lookup(id)
	if err != nil {
		s.record(ctx, domain.OpLookup, id.String(), false)
		return id, 0, err
	}
	s.record(ctx, domain.OpLookup, id.String(), true)
	return id, v, nil
}

func (s TallyService) Reset(ctx context.Context, token uuid.NullUUID) error {
	if err := s.Store.Reset(token); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.logger().Warn("reset refused", zap.Bool("token_supplied", token.Valid))
		}
		s.record(ctx, domain.OpReset, "", false)
		return err
	}
	s.logger().Info("tallies reset to default roster", zap.Int("roster", len(s.Store.Scheme().Roster)))
	s.record(ctx, domain.OpReset, "", true)
	return nil
}

func (s TallyService) record(ctx context.Context, op domain.Op, id string, accepted bool) {
	if s.Stats == nil {
		return
	}
	err := s.Stats.Record(ctx, domain.StatsEvent{
		Op:         op,
		Identifier: id,
		Accepted:   accepted,
		At:         time.Now(),
	})
	if err != nil {
		s.logger().Debug("stats record failed", zap.String("op", string(op)), zap.Error(err))
	}
}

func (s TallyService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
