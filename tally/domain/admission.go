package domain

// Contratos de admissão das requisições (rate limit e concorrência).

import (
	"context"
	"errors"
	"time"
)

// ErrBusy: nenhuma vaga livre na classe dentro do prazo.
var ErrBusy = errors.New("busy")

// ClientKey identifica quem está chamando (IP, header de API key...).
type ClientKey string

// Class separa leituras do placar (GET /vehicle, GET /grue/{id}) das escritas
// (POST /grue, POST /reset). Cada classe tem orçamento próprio.
type Class uint8

const (
	ClassRead Class = iota
	ClassWrite
)

func (c Class) String() string {
	if c == ClassWrite {
		return "write"
	}
	return "read"
}

// ClassOf diz a classe de cada operação do TallyService.
func ClassOf(op Op) Class {
	switch op {
	case OpSubmit, OpReset:
		return ClassWrite
	default:
		return ClassRead
	}
}

// Limiter decide se uma ação é permitida agora.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave de cliente.
// A implementação pode manter cache com expiração.
type LimiterStore interface {
	Get(ClientKey) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor para o header Retry-After quando bloquear.
	RetryAfter time.Duration
}

// SlotPool limita quantas requisições de cada classe rodam ao mesmo tempo.
//
// Acquire espera uma vaga da classe até o ctx encerrar; em erro nada foi
// reservado. O release retornado pode ser chamado mais de uma vez.
type SlotPool interface {
	Acquire(ctx context.Context, class Class) (release func(), err error)
}
