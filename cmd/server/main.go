package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/agrifield/be-fs-liquidations/internal/client"
	"github.com/agrifield/be-fs-liquidations/internal/flow"
	"github.com/agrifield/be-fs-liquidations/internal/handler"
	"github.com/agrifield/be-fs-liquidations/internal/hierarchy"
	"github.com/agrifield/be-fs-liquidations/internal/repository"
	"github.com/agrifield/be-fs-liquidations/internal/service"
	"github.com/agrifield/be-fs-liquidations/pkg/config"
	"github.com/agrifield/be-fs-liquidations/pkg/database"
	"github.com/agrifield/be-fs-liquidations/pkg/logger"
	"github.com/agrifield/be-fs-liquidations/pkg/middleware"
	"github.com/agrifield/be-fs-liquidations/pkg/natsclient"
)

func main() {
	// Load .env if present, then configuration from the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Liquidation Approvals Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the status flow and org chart
	flowCfg, err := flow.LoadFile(cfg.Flow.FlowFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load status flow configuration")
	}
	log.Info().
		Int("stages", len(flowCfg.Statuses)).
		Str("fast_track", string(flowCfg.FastTrack)).
		Msg("Status flow loaded")

	hierTable, err := hierarchy.Load(cfg.Flow.HierarchyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load hierarchy table")
	}

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
		HealthCheck: cfg.Database.HealthCheck,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Notification publisher is optional: no NATS URL, no events
	var notifier service.Notifier
	if cfg.NATS.URL != "" {
		nc, err := natsclient.Connect(cfg.NATS.URL, cfg.Service.Name)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nc.Close()
		notifier = client.NewNotificationPublisher(nc, log.Logger)
		log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
	}

	// Initialize repositories and services
	recordRepo := repository.NewRecordRepository(db, flowCfg)
	approvalService := service.NewApprovalService(flowCfg, recordRepo, hierTable, notifier, log)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(approvalService, log)
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/api/v1/records", httpHandler.ListRecords)
	mux.HandleFunc("/api/v1/records/get", httpHandler.GetRecord)
	mux.HandleFunc("/api/v1/records/approve", httpHandler.ApproveRecord)
	mux.HandleFunc("/api/v1/records/edit", httpHandler.EditRecord)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(cfg.Server.WriteTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
