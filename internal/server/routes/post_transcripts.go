package routes

import (
	"encoding/json"
	"net/http"

	"github.com/isEarth/earth-api/internal/db"
	"github.com/isEarth/earth-api/internal/queue"
	"github.com/isEarth/earth-api/internal/server/middleware"
	"github.com/isEarth/earth-api/pkg/logger"
	"github.com/isEarth/earth-api/pkg/transcript"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SubmitTranscriptHandler accepts a transcript submission, records a queued
// run, and publishes it for the worker.
func SubmitTranscriptHandler(c echo.Context) error {
	type submitTranscriptBody struct {
		VideoID string `json:"video_id" validate:"required"`
		Title   string `json:"title"`
		Text    string `json:"text"`
		VTT     string `json:"vtt"`
		S3Key   string `json:"s3_key"`
	}

	type submitTranscriptResponse struct {
		Message string            `json:"message"`
		Run     *db.TranscriptRun `json:"run,omitempty"`
	}

	data := new(submitTranscriptBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, submitTranscriptResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, submitTranscriptResponse{
			Message: "Invalid request body",
		})
	}
	if data.Text == "" && data.VTT == "" && data.S3Key == "" {
		return c.JSON(http.StatusBadRequest, submitTranscriptResponse{
			Message: "One of text, vtt or s3_key is required",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, submitTranscriptResponse{
			Message: "Unauthorized",
		})
	}

	runID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, submitTranscriptResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := db.New(conn)

	run, err := q.CreateTranscriptRun(ctx, db.CreateTranscriptRunParams{
		ID:      runID,
		VideoID: data.VideoID,
		Title:   pgtype.Text{String: data.Title, Valid: data.Title != ""},
	})
	if err != nil {
		logger.Error("Failed to create transcript run", "err", err)
		return c.JSON(http.StatusInternalServerError, submitTranscriptResponse{
			Message: "Internal server error",
		})
	}

	queueData := queue.TranscriptRunMsg{
		RunID: run.ID,
		Submission: transcript.Submission{
			VideoID: data.VideoID,
			Title:   data.Title,
			Text:    data.Text,
			VTT:     data.VTT,
			S3Key:   data.S3Key,
		},
	}
	payload, err := json.Marshal(queueData)
	if err != nil {
		logger.Error("Failed to encode queue message", "run_id", run.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, submitTranscriptResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.TranscriptQueue, payload); err != nil {
		logger.Error("Failed to publish to transcript_queue", "run_id", run.ID, "err", err)
		_ = q.FailTranscriptRun(ctx, db.FailTranscriptRunParams{
			ID:           run.ID,
			ErrorMessage: pgtype.Text{String: "failed to enqueue run", Valid: true},
		})
		return c.JSON(http.StatusInternalServerError, submitTranscriptResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, submitTranscriptResponse{
		Message: "Transcript accepted",
		Run:     &run,
	})
}
