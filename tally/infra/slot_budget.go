package infra

import (
	"context"
	"fmt"
	"sync"

	"tally-service/tally/domain"

	"golang.org/x/sync/semaphore"
)

var _ domain.SlotPool = (*SlotBudget)(nil)

// SlotBudget guarda um semaphore.Weighted por classe. Leituras do placar e
// escritas no store não disputam as mesmas vagas: uma rajada de polling em
// /vehicle não segura um POST /grue.
//
// Limite <= 0 numa classe deixa a classe sem limite.
type SlotBudget struct {
	limits [2]int64
	sems   [2]*semaphore.Weighted
}

func NewSlotBudget(maxReads, maxWrites int) *SlotBudget {
	b := &SlotBudget{}
	b.set(domain.ClassRead, maxReads)
	b.set(domain.ClassWrite, maxWrites)
	return b
}

func (b *SlotBudget) set(class domain.Class, n int) {
	if n <= 0 {
		return
	}
	b.limits[class] = int64(n)
	b.sems[class] = semaphore.NewWeighted(int64(n))
}

// Limit devolve o teto da classe (0 = sem limite).
func (b *SlotBudget) Limit(class domain.Class) int64 { return b.limits[class] }

func (b *SlotBudget) Acquire(ctx context.Context, class domain.Class) (func(), error) {
	sem := b.sems[class]
	if sem == nil {
		return func() {}, nil
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: all %d %s slots taken: %v", domain.ErrBusy, b.limits[class], class, err)
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}
