package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gameon-esports/gameon-rooms/config"
	"github.com/gameon-esports/gameon-rooms/db"
	"github.com/gameon-esports/gameon-rooms/handlers"
	"github.com/gameon-esports/gameon-rooms/live"
	"github.com/gameon-esports/gameon-rooms/repositories"
	api "github.com/gameon-esports/gameon-rooms/routes"
	"github.com/gameon-esports/gameon-rooms/services"
	"github.com/gameon-esports/gameon-rooms/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const (
	lockSweepInterval    = 30 * time.Second
	archiveSweepInterval = 5 * time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("websocket hub started")

	roomRepo := repositories.NewPostgresRoomRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	auditRepo := repositories.NewPostgresAuditRepository(dbConn)
	logger.Info("repositories initialized")

	roomService := services.NewRoomService(
		dbConn,
		roomRepo,
		tournamentRepo,
		participantRepo,
		auditRepo,
		hub,
		logger,
	)

	lockScheduler := services.NewLockScheduler(
		roomService,
		roomRepo,
		services.NewRealClock(),
		cfg.LockWindow,
		logger,
	)
	roomService.SetLockScheduler(lockScheduler)
	logger.Info("services initialized", slog.Duration("lock_window", cfg.LockWindow))

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go lockScheduler.Run(rootCtx, lockSweepInterval)
	logger.Info("lock scheduler started", slog.Duration("sweep_interval", lockSweepInterval))

	if cfg.ArchivingEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiveService := services.NewArchiveService(roomRepo, uploader, logger)
		go archiveService.Run(rootCtx, archiveSweepInterval)
		logger.Info("room archiver started", slog.Duration("sweep_interval", archiveSweepInterval))
	} else {
		logger.Info("room archiver disabled: R2 not configured")
	}

	roomHandler := handlers.NewRoomHandler(roomService)
	adminRoomHandler := handlers.NewAdminRoomHandler(roomService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.JWTSecretKey, roomHandler, adminRoomHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopBackground()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
