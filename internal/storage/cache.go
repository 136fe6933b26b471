package storage

import (
	"context"
	"sync"
)

// MemoryHistory keeps recent batches in memory. Used when no database is
// configured; bounded so a long-running process does not grow forever.
type MemoryHistory struct {
	mu      sync.RWMutex
	batches []BatchRecord
	max     int
}

func NewMemoryHistory(max int) *MemoryHistory {
	if max <= 0 {
		max = 100
	}
	return &MemoryHistory{max: max}
}

func (m *MemoryHistory) SaveBatch(_ context.Context, batch BatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
	if len(m.batches) > m.max {
		m.batches = m.batches[len(m.batches)-m.max:]
	}
	return nil
}

func (m *MemoryHistory) RecentBatches(_ context.Context, limit int) ([]BatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.batches) {
		limit = len(m.batches)
	}
	// newest first
	out := make([]BatchRecord, 0, limit)
	for i := len(m.batches) - 1; i >= len(m.batches)-limit; i-- {
		out = append(out, m.batches[i])
	}
	return out, nil
}
