package cmd

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/database"
	"github.com/kozaktomas/attendance-check/internal/database/postgres"
)

// auditTimeout bounds storing one run, independent of the scan context.
const auditTimeout = 30 * time.Second

// recordAudit stores the run when DATABASE_URL is set. Failures are logged
// and never affect the run outcome.
func recordAudit(ctx context.Context, cfg *config.Config, logger *zap.Logger, run *database.AuditRun, result *attendance.ScanResult) {
	if cfg.Database.URL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	pool, err := postgres.Initialize(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Warn("audit store unavailable", zap.Error(err))
		return
	}
	defer pool.Close()

	w, err := database.GetAuditWriter(ctx)
	if err != nil {
		logger.Warn("audit store unavailable", zap.Error(err))
		return
	}

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if err := database.RecordScan(ctx, w, run, result); err != nil {
		logger.Warn("failed to record audit run", zap.Stringer("run_id", run.ID), zap.Error(err))
		return
	}
	logger.Info("audit run recorded", zap.Stringer("run_id", run.ID), zap.Int("verdicts", len(result.Entries)))
}
