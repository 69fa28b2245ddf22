package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gamehubio/gamehub-backend/internal/service"
)

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

func New(
	logger *slog.Logger,
	tokens service.TokenManager,
	users service.UserService,
	blogs service.BlogService,
	scores service.ScoreService,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/ping", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "pong")
	})

	auth := newAuthHandler(logger, users)
	blog := newBlogHandler(logger, blogs)
	score := newScoreHandler(logger, scores)

	authorized := requireAuth(tokens)

	api := e.Group("/api")
	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)

	api.GET("/blogs/public", blog.ListPublished)
	api.GET("/blogs/:id", blog.GetByID)
	api.POST("/blogs", blog.Create, authorized)
	api.GET("/blogs", blog.ListMine, authorized)
	api.PUT("/blogs/:id", blog.Update, authorized)
	api.DELETE("/blogs/:id", blog.Delete, authorized)

	api.GET("/scores/:game", score.Leaderboard)
	api.GET("/scores/:game/:username", score.Best)
	api.POST("/scores/:game", score.Submit, authorized)

	return &Server{
		logger: logger.With("component", "restServer"),
		echo:   e,
	}
}

// Start - starts the REST server and shuts it down when ctx ends.
func (that *Server) Start(ctx context.Context, port string) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = that.echo.Shutdown(shutdownCtx)
	}()

	that.logger.Info("REST server listening", "port", port)

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
