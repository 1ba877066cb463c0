package database

import (
	"context"
	"errors"
	"sync"
)

// ErrNotInitialized is returned when no audit backend has been registered.
var ErrNotInitialized = errors.New("audit store not initialized: DATABASE_URL is required")

var (
	backendMu           sync.RWMutex
	postgresAuditWriter func() AuditWriter
)

// RegisterPostgresBackend registers the PostgreSQL audit writer constructor.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(writer func() AuditWriter) {
	backendMu.Lock()
	defer backendMu.Unlock()
	postgresAuditWriter = writer
}

// IsInitialized returns whether an audit backend has been registered.
func IsInitialized() bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return postgresAuditWriter != nil
}

// GetAuditWriter returns the registered AuditWriter.
func GetAuditWriter(ctx context.Context) (AuditWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if postgresAuditWriter == nil {
		return nil, ErrNotInitialized
	}
	return postgresAuditWriter(), nil
}
