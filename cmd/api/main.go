package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/afyalink/afya-platform/cmd/mainconfig"
	"github.com/afyalink/afya-platform/internal/api/router"
	"github.com/afyalink/afya-platform/internal/app/bootstrap"
	"github.com/afyalink/afya-platform/internal/appointments"
	"github.com/afyalink/afya-platform/internal/assistant"
	"github.com/afyalink/afya-platform/internal/chat"
	appconfig "github.com/afyalink/afya-platform/internal/config"
	"github.com/afyalink/afya-platform/internal/demo"
	"github.com/afyalink/afya-platform/internal/directory"
	"github.com/afyalink/afya-platform/internal/notify"
	"github.com/afyalink/afya-platform/internal/observability/metrics"
	"github.com/afyalink/afya-platform/internal/timetable"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// directoryContacts adapts the directory service to the notification
// worker's contact lookup.
type directoryContacts struct {
	dir *directory.Service
}

func (d directoryContacts) Contact(ctx context.Context, userID string) (*notify.Contact, error) {
	name, email, err := d.dir.ContactByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &notify.Contact{Name: name, Email: email}, nil
}

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting afya-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Storage. Postgres when DATABASE_URL is set, in-memory otherwise so
	// the binary runs standalone for demos and local development.
	var (
		timetableRepo timetable.Repository
		apptRepo      appointments.Repository
		notifyRepo    notify.Repository
		chatStore     chat.Store
		dirRepo       directory.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		timetableRepo = timetable.NewPostgresRepository(pool)
		apptRepo = appointments.NewPostgresRepository(pool)
		notifyRepo = notify.NewPostgresRepository(pool)
		chatStore = chat.NewPostgresStore(pool)
		dirRepo = directory.NewPostgresRepository(pool)
		logger.Info("using postgres storage")
	} else {
		timetableRepo = timetable.NewInMemoryRepository()
		apptRepo = appointments.NewInMemoryRepository()
		notifyRepo = notify.NewInMemoryRepository()
		chatStore = chat.NewInMemoryStore()
		dirRepo = directory.NewInMemoryRepository()
		logger.Warn("DATABASE_URL empty; using in-memory storage")
		if err := demo.Seed(ctx, dirRepo, timetableRepo, logger); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	// Redis-backed chat transcript cache; nil when Redis is unavailable.
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	transcriptCache := bootstrap.BuildTranscriptCache(redisClient, cfg)

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Notification fan-out: in-app rows plus an email queue drained by a
	// worker pool inside this binary.
	queue := bootstrap.BuildQueue(cfg, awsCfg, logger)
	emailSender, emailProvider, reason := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if emailSender == nil {
		logger.Warn("email delivery inactive", "provider", emailProvider, "reason", reason)
	} else {
		logger.Info("email delivery active", "provider", emailProvider)
	}

	dirService := directory.NewService(dirRepo)
	notifyService := notify.NewService(notifyRepo, queue, logger)

	bookingMetrics := metrics.NewBookingMetrics(nil)
	apptService := appointments.NewService(apptRepo, timetableRepo, notifyService, bookingMetrics, logger, cfg.MaxAlternativeSlots)

	chatService := chat.NewService(chatStore, transcriptCache, apptRepo, logger)
	chatService.SetNotifier(notifyService)
	chatHub := chat.NewHub(chatService, logger)

	assistantService := assistant.NewService(dirService, apptService, apptService, logger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	dispatchWorker := notify.NewWorker(queue, emailSender, directoryContacts{dir: dirService}, notify.WorkerConfig{
		Workers:         cfg.WorkerCount,
		ReceiveWaitSecs: int(cfg.QueuePollInterval.Seconds()),
	}, logger)
	dispatchWorker.Start(workerCtx)

	// Initialize handlers
	apptHandler := appointments.NewHandler(apptService, logger)
	timetableHandler := timetable.NewHandler(timetableRepo, logger)
	directoryHandler := directory.NewHandler(dirService, logger)
	notifyHandler := notify.NewHandler(notifyRepo, logger)
	chatHandler := chat.NewHandler(chatService, chatHub, logger)
	assistantHandler := assistant.NewHandler(assistantService, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: apptHandler,
		TimetableHandler:    timetableHandler,
		DirectoryHandler:    directoryHandler,
		NotifyHandler:       notifyHandler,
		ChatHandler:         chatHandler,
		AssistantHandler:    assistantHandler,
		MetricsHandler:      promhttp.Handler(),
		AuthJWTSecret:       cfg.AuthJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Drain the dispatch workers after the HTTP surface stops accepting
	// new bookings.
	stopWorker()
	dispatchWorker.Wait()

	logger.Info("server stopped")
}
