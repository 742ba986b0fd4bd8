package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized: token ausente ou diferente do configurado no start.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound: id nunca escrito e fora do roster.
	ErrNotFound = errors.New("not found")
	// ErrInvalidValue: contagem fora de 0..255.
	ErrInvalidValue = errors.New("invalid value")
)

// Tallies é o mapa id -> contagem.
type Tallies map[Identifier]uint8

// TallyStore guarda a última contagem por Identifier.
//
// Todas as operações devem ser seguras para uso concorrente. Leitores nunca
// observam um mapa no meio de uma escrita.
type TallyStore interface {
	// Scheme é o esquema de ids do store; quem monta Identifiers para ele
	// deve usar este, nunca uma cópia própria.
	Scheme() Scheme
	Update(id Identifier, value uint8)
	Snapshot() Tallies
	// Reset troca o mapa inteiro pelo roster padrão. Com lock token
	// configurado, exige token.Valid e igualdade.
	Reset(token uuid.NullUUID) error
	Lookup(id Identifier) (uint8, error)
}
