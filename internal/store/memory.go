package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

// MemStore is a mutex-guarded in-memory Store. Writes stamp UpdatedAt.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]types.Curriculum
	now     func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]types.Curriculum), now: time.Now}
}

// Create inserts a new record. An empty ID gets a generated UUID. Status
// defaults to draft. Returns the stored record.
func (m *MemStore) Create(_ context.Context, c types.Curriculum) (types.Curriculum, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = types.StatusDraft
	}
	c.UpdatedAt = m.now()
	m.records[c.ID] = c
	return c, nil
}

func (m *MemStore) Get(_ context.Context, id string) (types.Curriculum, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.records[id]
	if !ok {
		return types.Curriculum{}, ErrNotFound(id)
	}
	return c, nil
}

func (m *MemStore) Update(_ context.Context, id string, p Patch) (types.Curriculum, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[id]
	if !ok {
		return types.Curriculum{}, ErrNotFound(id)
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.ProgressPercent != nil {
		c.ProgressPercent = *p.ProgressPercent
	}
	if p.CurrentStep != nil {
		c.CurrentStep = *p.CurrentStep
	}
	if p.GraphData != nil {
		c.GraphData = p.GraphData
	}
	if p.NodeCount != nil {
		c.NodeCount = *p.NodeCount
	}
	if p.EstimatedHours != nil {
		c.EstimatedHours = *p.EstimatedHours
	}
	c.UpdatedAt = m.now()
	m.records[id] = c
	return c, nil
}

func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound(id)
	}
	delete(m.records, id)
	return nil
}
