package status

import (
	"context"
	"sync"
	"time"

	"gigscout-engine/internal/domain"
)

// Memory keeps status in process. Readers in other processes cannot see it.
type Memory struct {
	mu   sync.RWMutex
	snap Snapshot
	last *domain.RunResult
}

func NewMemory() *Memory {
	return &Memory{snap: Initial()}
}

func (m *Memory) Begin(_ context.Context, runID string, trigger domain.Trigger, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ApplyBegin(&m.snap, runID, trigger, at)
	return nil
}

func (m *Memory) Finish(_ context.Context, res domain.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ApplyFinish(&m.snap, res)
	m.last = &res
	return nil
}

func (m *Memory) Get(context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap, nil
}

func (m *Memory) LastResult(context.Context) (domain.RunResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return domain.RunResult{}, ErrNotFound
	}
	return *m.last, nil
}

func (m *Memory) Abandon(_ context.Context, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ApplyAbandon(&m.snap, at), nil
}
