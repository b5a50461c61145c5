package server

import (
	"net/http"

	"github.com/isEarth/earth-api/internal/server/middleware"
	"github.com/isEarth/earth-api/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := c.(*middleware.AppContext).App.DBConn.Ping(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "DB DOWN")
		}
		return c.String(http.StatusOK, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Transcript routes
	apiRoutes.POST("/transcripts", routes.SubmitTranscriptHandler, middleware.RequirePermission("transcript.create"))

	// Run routes
	apiRoutes.GET("/runs", routes.ListRunsHandler, middleware.RequirePermission("run.view:all"))
	apiRoutes.GET("/runs/:id", routes.GetRunHandler, middleware.RequirePermission("run.view"))
	apiRoutes.GET("/runs/:id/transcript", routes.GetRunTranscriptHandler, middleware.RequireAnyPermission("run.view", "run.view:all"))
}
