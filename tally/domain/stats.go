package domain

import (
	"context"
	"time"
)

type Op string

const (
	OpSubmit Op = "submit"
	OpReset  Op = "reset"
	OpLookup Op = "lookup"
)

// StatsEvent representa uma operação aplicada (ou recusada) no store.
//
// Identifier vem vazio para operações sem id (reset) ou quando o id era
// inválido; nesse caso Accepted é false.
type StatsEvent struct {
	Op         Op
	Identifier string
	Accepted   bool

	At time.Time
}

// StatsStore persiste estatísticas de uso. Best-effort: erro aqui nunca
// derruba a operação.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
