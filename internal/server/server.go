package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isEarth/earth-api/internal/db"
	"github.com/isEarth/earth-api/internal/queue"
	mid "github.com/isEarth/earth-api/internal/server/middleware"
	"github.com/isEarth/earth-api/internal/storage"
	"github.com/isEarth/earth-api/internal/util"
	"github.com/isEarth/earth-api/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "file://internal/db/migrations")
	if err := db.Migrate(databaseURL, migrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	queue.SetupQueues(ch, []string{queue.TranscriptQueue})

	s3 := storage.NewS3Client(ctx)

	jwtSecret := util.GetEnv("JWT_SECRET")
	masterAPIKey := util.GetEnv("MASTER_API_KEY")

	e.Use(mid.AppContextMiddleware(conn, ch, s3, jwtSecret, masterAPIKey))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("32M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
