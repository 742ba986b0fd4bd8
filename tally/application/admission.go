package application

import (
	"context"
	"time"

	"tally-service/tally/domain"
)

// Admission decide se uma requisição entra, sem saber nada sobre HTTP.
//
// Escritas (submit, reset) consomem token do cliente; leituras do placar só
// consomem com LimitReads. Cada classe tem vagas próprias em Slots.
// Limiters nil desliga o rate limit; Slots nil desliga o limite de
// concorrência.
type Admission struct {
	Limiters       domain.LimiterStore
	Slots          domain.SlotPool
	RetryAfter     time.Duration
	AcquireTimeout time.Duration
	LimitReads     bool
}

// Metered diz se a classe passa pelo rate limit.
func (a Admission) Metered(class domain.Class) bool {
	return a.Limiters != nil && (class == domain.ClassWrite || a.LimitReads)
}

func (a Admission) Decide(key domain.ClientKey, class domain.Class) domain.Decision {
	if !a.Metered(class) {
		return domain.Decision{Allowed: true}
	}
	if lim := a.Limiters.Get(key); lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}

	retry := a.RetryAfter
	if retry <= 0 {
		retry = time.Second
	}
	return domain.Decision{RetryAfter: retry}
}

// Enter reserva uma vaga da classe. Com AcquireTimeout > 0 a espera é
// limitada a ele; senão dura até o ctx da requisição. Em erro (ErrBusy)
// nada foi reservado.
func (a Admission) Enter(ctx context.Context, class domain.Class) (func(), error) {
	if a.Slots == nil {
		return func() {}, nil
	}
	if a.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.AcquireTimeout)
		defer cancel()
	}
	return a.Slots.Acquire(ctx, class)
}
