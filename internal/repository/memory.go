package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Clark-Hu/trimscore/internal/domain"
)

// MemoryScores keeps records in process memory. Contents are lost on exit.
type MemoryScores struct {
	mu       sync.RWMutex
	records  map[string]domain.ScoreRecord
	attempts map[string]time.Time
	now      func() time.Time
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *MemoryScores {
	return &MemoryScores{
		records:  make(map[string]domain.ScoreRecord),
		attempts: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemoryScores) Get(_ context.Context, id string) (domain.ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return domain.ScoreRecord{}, ErrNotFound
	}
	return cloneRecord(record), nil
}

func (m *MemoryScores) Create(_ context.Context, id string) (domain.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record, ok := m.records[id]; ok {
		return cloneRecord(record), nil
	}
	record := domain.ScoreRecord{ID: id, CreatedAt: m.now()}
	m.records[id] = record
	return cloneRecord(record), nil
}

func (m *MemoryScores) Update(_ context.Context, id string, score float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		record = domain.ScoreRecord{ID: id, CreatedAt: m.now()}
	}
	record.TrimmedScore = &score
	record.LastUpdated = &at
	m.records[id] = record
	return nil
}

func (m *MemoryScores) ListStale(_ context.Context, before time.Time, limit int) ([]string, error) {
	m.mu.RLock()
	stale := make([]staleCandidate, 0)
	for id, record := range m.records {
		if record.LastUpdated != nil && !record.LastUpdated.Before(before) {
			continue
		}
		candidate := staleCandidate{id: id, lastUpdated: record.LastUpdated}
		if at, ok := m.attempts[id]; ok {
			candidate.attemptedAt = &at
		}
		stale = append(stale, candidate)
	}
	m.mu.RUnlock()

	return orderStale(stale, limit), nil
}

func (m *MemoryScores) MarkRefreshAttempt(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return nil
	}
	m.attempts[id] = at
	return nil
}

func (m *MemoryScores) HealthCheck(context.Context) error {
	return nil
}

func cloneRecord(r domain.ScoreRecord) domain.ScoreRecord {
	if r.TrimmedScore != nil {
		v := *r.TrimmedScore
		r.TrimmedScore = &v
	}
	if r.LastUpdated != nil {
		t := *r.LastUpdated
		r.LastUpdated = &t
	}
	return r
}
