package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/qbexport/internal/api"
	"github.com/timmy/qbexport/internal/config"
	"github.com/timmy/qbexport/internal/exporter"
	"github.com/timmy/qbexport/internal/logger"
	"github.com/timmy/qbexport/internal/notify"
	"github.com/timmy/qbexport/internal/repository"
	"github.com/timmy/qbexport/internal/schedule"
	"github.com/timmy/qbexport/internal/soap"
	"github.com/timmy/qbexport/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	lg := logger.New(logger.LoadFromEnv())
	logger.SetDefaultLogger(lg)

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		lg.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	rowRepo := repository.NewRowRepository(db)
	commerceRepo := repository.NewCommerceRepository(db)

	ctx := context.Background()
	seedExportUser(ctx, lg, userRepo)

	// Initialize the optional audit archive
	var archive soap.Archiver
	if cfg.Audit.Enabled {
		objectStorage, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Audit.Endpoint,
			AccessKey: cfg.Audit.AccessKey,
			SecretKey: cfg.Audit.SecretKey,
			UseSSL:    cfg.Audit.UseSSL,
			Bucket:    cfg.Audit.Bucket,
			Region:    cfg.Audit.Region,
		})
		if err != nil {
			lg.Fatalf("Failed to initialize audit storage: %v", err)
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			lg.Fatalf("Failed to ensure audit bucket: %v", err)
		}
		archive = storage.NewAuditArchive(objectStorage, cfg.Audit.Prefix)
	}

	// Initialize the protocol service
	registry := exporter.DefaultRegistry(&exporter.Env{
		Commerce: commerceRepo,
		Mappings: mappingRepo,
		QB:       &cfg.QuickBooks,
	})

	var notifier soap.Notifier
	if w := notify.NewWebhook(cfg.Notify); w != nil {
		notifier = w
	}

	svc := soap.NewService(soap.Deps{
		Sessions:      soap.NewSessionManager(sessionRepo),
		Auth:          userRepo,
		Users:         userRepo,
		Registry:      registry,
		Queue:         soap.NewQueue(commerceRepo, mappingRepo),
		Mappings:      mappingRepo,
		Rows:          rowRepo,
		Archive:       archive,
		Notifier:      notifier,
		ServerVersion: cfg.QuickBooks.ServerVersion,
	})

	// Schedule the failed-row requeue
	if cfg.Schedule.RequeueEnabled {
		requeuer, err := schedule.NewRequeuer(cfg.Schedule.RequeueCron, svc)
		if err != nil {
			lg.Fatalf("Failed to schedule requeue job: %v", err)
		}
		requeuer.Start()
		defer requeuer.Stop()
	}

	// Setup router
	router := api.SetupRouter(svc, mappingRepo, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		lg.Infof("Starting server on port %d (%s mode)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Fatalf("Server forced to shutdown: %v", err)
	}

	lg.Info("Server exited")
}

// seedExportUser creates the Web Connector account from the environment
// on first boot, so a fresh deployment is usable without a shell into the
// database. Existing accounts are left alone.
func seedExportUser(ctx context.Context, lg *logger.Logger, users *repository.UserRepository) {
	username := os.Getenv("QBWC_USERNAME")
	password := os.Getenv("QBWC_PASSWORD")
	if username == "" || password == "" {
		return
	}

	existing, err := users.GetByUsername(ctx, username)
	if err != nil {
		lg.Errorf("Export user lookup failed: %v", err)
		return
	}
	if existing != nil {
		return
	}
	if _, err := users.Create(ctx, username, password, true); err != nil {
		lg.Errorf("Export user creation failed: %v", err)
		return
	}
	lg.Infof("Created export user %q", username)
}
