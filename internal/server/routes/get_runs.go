package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/isEarth/earth-api/internal/db"
	"github.com/isEarth/earth-api/internal/server/middleware"
	"github.com/isEarth/earth-api/internal/storage"
	"github.com/isEarth/earth-api/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

func GetRunHandler(c echo.Context) error {
	type getRunParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getRunResponse struct {
		Message string            `json:"message"`
		Run     *db.TranscriptRun `json:"run,omitempty"`
	}

	params := new(getRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := db.New(conn)

	run, err := q.GetTranscriptRun(ctx, params.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, getRunResponse{
				Message: "Run not found",
			})
		}
		logger.Error("Failed to load transcript run", "run_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getRunResponse{
		Message: "OK",
		Run:     &run,
	})
}

func ListRunsHandler(c echo.Context) error {
	type listRunsQuery struct {
		Limit int32 `query:"limit"`
	}

	type listRunsResponse struct {
		Message string             `json:"message"`
		Runs    []db.TranscriptRun `json:"runs"`
	}

	query := new(listRunsQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, listRunsResponse{
			Message: "Invalid request body",
		})
	}
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := db.New(conn)

	runs, err := q.ListRecentTranscriptRuns(ctx, limit)
	if err != nil {
		logger.Error("Failed to list transcript runs", "err", err)
		return c.JSON(http.StatusInternalServerError, listRunsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, listRunsResponse{
		Message: "OK",
		Runs:    runs,
	})
}

// GetRunTranscriptHandler returns a time-limited download link for the
// archived cleaned transcript of a finished run.
func GetRunTranscriptHandler(c echo.Context) error {
	type getRunTranscriptParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getRunTranscriptResponse struct {
		Message string `json:"message"`
		URL     string `json:"url,omitempty"`
	}

	params := new(getRunTranscriptParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunTranscriptResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunTranscriptResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := db.New(conn)

	run, err := q.GetTranscriptRun(ctx, params.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, getRunTranscriptResponse{
				Message: "Run not found",
			})
		}
		logger.Error("Failed to load transcript run", "run_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunTranscriptResponse{
			Message: "Internal server error",
		})
	}

	// Degenerate runs skip archival, so a token count of zero means there is
	// no object to link.
	if run.Status != "done" || run.TokenCount == 0 {
		return c.JSON(http.StatusNotFound, getRunTranscriptResponse{
			Message: "No archived transcript for this run",
		})
	}

	s3Client := c.(*middleware.AppContext).App.S3
	key := fmt.Sprintf("runs/%s/cleaned.txt", run.ID)
	url, err := storage.PresignDownload(ctx, s3Client, key)
	if err != nil {
		logger.Error("Failed to presign transcript download", "run_id", run.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunTranscriptResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getRunTranscriptResponse{
		Message: "OK",
		URL:     url,
	})
}
