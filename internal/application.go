package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamehubio/gamehub-backend/internal/config"
	"github.com/gamehubio/gamehub-backend/internal/repository"
	"github.com/gamehubio/gamehub-backend/internal/repository/storage"
	"github.com/gamehubio/gamehub-backend/internal/repository/storage/sqlite"
	"github.com/gamehubio/gamehub-backend/internal/service"
	"github.com/gamehubio/gamehub-backend/transport/rest"
	"github.com/gamehubio/gamehub-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if closeErr := redisStorage.Close(); closeErr != nil {
			log.Error("could not close redis storage", "error", closeErr)
		}
	}()

	sqliteStorage, err := sqlite.New(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if closeErr := sqliteStorage.Close(); closeErr != nil {
			log.Error("could not close sqlite storage", "error", closeErr)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	matchRepo := repository.NewMatchRepository(redisStorage.Connection)
	ticketRepo := repository.NewTicketRepository(redisStorage.Connection)
	scoreRepo := repository.NewScoreRepository(redisStorage.Connection)
	userRepo := repository.NewUserRepository(sqliteStorage.Connection)
	blogRepo := repository.NewBlogRepository(sqliteStorage.Connection)

	hub := websocket.NewHub(logger)

	turnTimer := service.NewTurnTimer(logger, hub)

	matchmakingService := service.NewMatchmakingService(
		logger, ticketRepo, matchRepo, playerRepo, hub, turnTimer, conf.TurnTimeout.Duration(), nil,
	)
	coordinatorService := service.NewCoordinatorService(
		logger, matchRepo, playerRepo, hub, turnTimer, conf.TurnTimeout.Duration(),
	)

	// expired turn timers resolve through the coordinator
	turnTimer.OnExpire(coordinatorService.HandleTimeout)

	tokenManager := service.NewTokenManager(conf.JWTSecretKey)
	userService := service.NewUserService(logger, userRepo, tokenManager)
	blogService := service.NewBlogService(logger, blogRepo)
	scoreService := service.NewScoreService(logger, scoreRepo)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, tokenManager, userService, blogService, scoreService)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, hub, matchmakingService, coordinatorService)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
