package store

import (
	"context"
	"sync"
)

// Memory keeps records in process, newest first.
type Memory struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
	opts     options
}

// NewMemory creates an in-memory store holding at most capacity records.
func NewMemory(capacity int, opts ...Option) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{capacity: capacity, opts: buildOptions(opts)}
}

func (m *Memory) Append(ctx context.Context, rec Record) (Record, error) {
	rec, err := m.opts.prepare(rec)
	if err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append([]Record{rec}, m.records...)
	if len(m.records) > m.capacity {
		m.records = m.records[:m.capacity]
	}
	return rec, nil
}

func (m *Memory) Query(ctx context.Context, f Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := f.limit()
	out := make([]Record, 0, min(limit, len(m.records)))
	for _, r := range m.records {
		if f.SessionType != "" && r.SessionType != f.SessionType {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) Close() error { return nil }
