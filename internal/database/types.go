package database

import (
	"time"

	"github.com/google/uuid"
)

// AuditRun is one detect invocation.
type AuditRun struct {
	ID         uuid.UUID
	Source     string // input file
	Provider   string // oracle model name, empty when the oracle is disabled
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Fake       int
}

// AuditVerdict is the stored outcome of one record.
type AuditVerdict struct {
	RunID      uuid.UUID
	Line       int
	RiderID    string
	RiderName  string
	ImageURL   string
	Reason     string
	Detail     string
	Fake       bool
	Confidence float64
	BlurScore  float64
	Brightness float64
}
