package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidIdentifier indica um valor fora da faixa configurada do Scheme.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Scheme descreve uma variante de identificador: prefixo de exibição,
// faixa fechada [Min, Max] e o roster padrão (ids criados com 0 no reset).
type Scheme struct {
	Prefix string
	Min    uint8
	Max    uint8
	Roster []uint8
}

// LoadingZones devolve o preset de zonas de carga: 0..99, roster
// zone1..zone6. Cada chamada monta um Scheme novo com Roster próprio.
func LoadingZones() Scheme {
	return Scheme{
		Prefix: "zone",
		Min:    0,
		Max:    99,
		Roster: []uint8{1, 2, 3, 4, 5, 6},
	}
}

// Teams devolve o preset de times 1..6, todos no roster.
func Teams() Scheme {
	return Scheme{
		Prefix: "team",
		Min:    1,
		Max:    6,
		Roster: []uint8{1, 2, 3, 4, 5, 6},
	}
}

func (s Scheme) Validate() error {
	if s.Prefix == "" {
		return errors.New("scheme prefix must not be empty")
	}
	if s.Min > s.Max {
		return fmt.Errorf("scheme range inverted: min=%d max=%d", s.Min, s.Max)
	}
	for _, n := range s.Roster {
		if n < s.Min || n > s.Max {
			return fmt.Errorf("roster id %d outside range %d..%d", n, s.Min, s.Max)
		}
	}
	return nil
}

// Identifier é o único caminho de construção de um Identifier.
// Valores fora de [Min, Max] são rejeitados, nunca ajustados.
func (s Scheme) Identifier(raw int) (Identifier, error) {
	if raw < int(s.Min) || raw > int(s.Max) {
		return Identifier{}, fmt.Errorf("%w: %s id must be between %d and %d, got %d",
			ErrInvalidIdentifier, s.Prefix, s.Min, s.Max, raw)
	}
	return Identifier{prefix: s.Prefix, n: uint8(raw)}, nil
}

// DefaultTallies monta um mapa novo com todo o roster em 0.
// Usado na criação do store e em cada reset.
func (s Scheme) DefaultTallies() Tallies {
	out := make(Tallies, len(s.Roster))
	for _, n := range s.Roster {
		out[Identifier{prefix: s.Prefix, n: n}] = 0
	}
	return out
}

// Identifier é imutável e comparável (pode ser chave de map).
type Identifier struct {
	prefix string
	n      uint8
}

func (id Identifier) Value() uint8 { return id.n }

func (id Identifier) String() string {
	return id.prefix + strconv.Itoa(int(id.n))
}
