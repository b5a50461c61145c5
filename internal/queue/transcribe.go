package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/isEarth/earth-api/internal/db"
	"github.com/isEarth/earth-api/internal/storage"
	"github.com/isEarth/earth-api/internal/util"
	"github.com/isEarth/earth-api/pkg/leaselock"
	"github.com/isEarth/earth-api/pkg/logger"
	"github.com/isEarth/earth-api/pkg/pipeline"
	"github.com/isEarth/earth-api/pkg/transcript"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkoukk/tiktoken-go"
	"github.com/rabbitmq/amqp091-go"
)

// TranscriptRunMsg is the payload published to the transcript queue. The
// submission travels with the message; S3-keyed submissions are fetched by
// the worker.
type TranscriptRunMsg struct {
	RunID      string                `json:"run_id"`
	Submission transcript.Submission `json:"submission"`
}

func ProcessTranscript(
	ctx context.Context,
	s3Client *awss3.Client,
	pl *pipeline.Pipeline,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	var data TranscriptRunMsg
	if err = json.Unmarshal([]byte(msg), &data); err != nil {
		return err
	}

	q := db.New(conn)
	runClaimed := false
	defer func() {
		if err == nil || !runClaimed {
			return
		}
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if updateErr := q.FailTranscriptRun(updateCtx, db.FailTranscriptRunParams{
			ID:           data.RunID,
			ErrorMessage: pgtype.Text{String: util.SanitizePostgresText(err.Error()), Valid: true},
		}); updateErr != nil {
			logger.Warn("[Queue] Failed to mark transcript run as failed", "run_id", data.RunID, "err", updateErr)
		}
	}()

	_, err = q.TryStartTranscriptRun(ctx, data.RunID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Info("[Queue] Skipping transcript run: already claimed or not runnable", "run_id", data.RunID)
			return nil
		}
		return err
	}
	runClaimed = true
	start := time.Now()

	fetch := func(ctx context.Context, key string) ([]byte, error) {
		return storage.GetFile(ctx, s3Client, key)
	}
	rawText, err := transcript.Resolve(ctx, fetch, data.Submission)
	if err != nil {
		return fmt.Errorf("resolve transcript for run %s: %w", data.RunID, err)
	}

	// Graph writes match nodes by sentence text, so two runs of the same
	// video must not interleave their writes.
	logger.Debug("[Queue] Acquiring video mutex", "run_id", data.RunID, "video_id", data.Submission.VideoID)
	lockClient := leaselock.New(conn)
	lease, err := lockClient.Acquire(ctx, fmt.Sprintf("video:%s", data.Submission.VideoID), leaselock.Options{
		TTL:         10 * time.Minute,
		RenewEvery:  4 * time.Minute,
		Wait:        true,
		TokenPrefix: fmt.Sprintf("transcript-run/%s/", data.RunID),
	})
	if err != nil {
		return fmt.Errorf("acquire video mutex for run %s: %w", data.RunID, err)
	}
	releaseLease := func() error {
		if lease == nil {
			return nil
		}
		if err := lease.Release(context.Background()); err != nil {
			return err
		}
		lease = nil
		return nil
	}
	defer func() {
		if err := releaseLease(); err != nil {
			logger.Warn("[Queue] Failed to release video mutex", "run_id", data.RunID, "err", err)
		}
	}()

	result, err := pl.Run(lease.Context, rawText)
	if err != nil {
		return fmt.Errorf("process transcript for run %s: %w", data.RunID, err)
	}

	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return err
	}
	tokenCount := len(enc.Encode(result.CleanedText, nil, nil))

	if result.CleanedText != "" {
		archivePath := fmt.Sprintf("runs/%s", data.RunID)
		content := bytes.NewReader([]byte(result.CleanedText))
		if _, err = storage.PutFile(ctx, s3Client, archivePath, "cleaned.txt", "cleaned", content); err != nil {
			return fmt.Errorf("archive cleaned transcript for run %s: %w", data.RunID, err)
		}
	}

	err = q.FinishTranscriptRun(ctx, db.FinishTranscriptRunParams{
		ID:            data.RunID,
		Topics:        result.Topics,
		SentenceCount: int32(result.Causal.Sentences + result.General.Sentences),
		NodeCount:     int32(result.Causal.Nodes + result.General.Nodes),
		EdgeCount:     int32(result.Causal.Edges + result.General.Edges),
		TokenCount:    int32(tokenCount),
		DegradedCount: int32(result.Degraded),
		DurationMs:    time.Since(start).Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("finish transcript run %s: %w", data.RunID, err)
	}

	logger.Info("[Queue] Transcript run complete",
		"run_id", data.RunID,
		"video_id", data.Submission.VideoID,
		"topics", result.Topics,
		"nodes", result.Causal.Nodes+result.General.Nodes,
		"edges", result.Causal.Edges+result.General.Edges,
		"tokens", tokenCount,
		"degraded", result.Degraded,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
