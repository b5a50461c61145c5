package queue

import (
	"context"
	"fmt"

	"github.com/isEarth/earth-api/internal/db"
	"github.com/isEarth/earth-api/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecoverStaleRuns fails runs left in processing by a worker that died
// before reporting back. Their source payload travels only in the queue
// message, so they surface as failed for resubmission instead of being
// republished.
func RecoverStaleRuns(ctx context.Context, conn *pgxpool.Pool) error {
	q := db.New(conn)

	recovered, err := q.RecoverStaleTranscriptRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover stale runs: %w", err)
	}

	if recovered == 0 {
		logger.Debug("[Queue] No stale runs found")
		return nil
	}

	logger.Info("[Queue] Marked stale runs as failed", "count", recovered)
	return nil
}
