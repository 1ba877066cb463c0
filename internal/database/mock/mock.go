// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/attendance-check/internal/database"
)

// MockAuditWriter is an in-memory implementation of database.AuditWriter.
type MockAuditWriter struct {
	mu       sync.RWMutex
	runs     map[uuid.UUID]*database.AuditRun
	verdicts map[uuid.UUID][]database.AuditVerdict
	batches  int

	// Error injection
	StartRunError       error
	RecordVerdictsError error
	FinishRunError      error
}

// NewMockAuditWriter creates a new mock audit writer.
func NewMockAuditWriter() *MockAuditWriter {
	return &MockAuditWriter{
		runs:     make(map[uuid.UUID]*database.AuditRun),
		verdicts: make(map[uuid.UUID][]database.AuditVerdict),
	}
}

// StartRun stores a copy of the run.
func (m *MockAuditWriter) StartRun(ctx context.Context, run *database.AuditRun) error {
	if m.StartRunError != nil {
		return m.StartRunError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	r := *run
	m.runs[run.ID] = &r
	return nil
}

// RecordVerdicts appends verdicts to a known run.
func (m *MockAuditWriter) RecordVerdicts(ctx context.Context, runID uuid.UUID, verdicts []database.AuditVerdict) error {
	if m.RecordVerdictsError != nil {
		return m.RecordVerdictsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	m.verdicts[runID] = append(m.verdicts[runID], verdicts...)
	m.batches++
	return nil
}

// FinishRun updates totals of a known run.
func (m *MockAuditWriter) FinishRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, total, fake int) error {
	if m.FinishRunError != nil {
		return m.FinishRunError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	r.FinishedAt = finishedAt
	r.Total = total
	r.Fake = fake
	return nil
}

// Run returns a copy of a stored run, or nil.
func (m *MockAuditWriter) Run(runID uuid.UUID) *database.AuditRun {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[runID]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

// Verdicts returns the verdicts stored for a run.
func (m *MockAuditWriter) Verdicts(runID uuid.UUID) []database.AuditVerdict {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.AuditVerdict(nil), m.verdicts[runID]...)
}

// Batches returns how many RecordVerdicts calls succeeded.
func (m *MockAuditWriter) Batches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batches
}
