package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/afyalink/afya-platform/cmd/mainconfig"
	"github.com/afyalink/afya-platform/internal/app/bootstrap"
	appconfig "github.com/afyalink/afya-platform/internal/config"
	"github.com/afyalink/afya-platform/internal/directory"
	"github.com/afyalink/afya-platform/internal/notify"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// directoryContacts resolves notification recipients from the directory.
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

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.UseMemoryQueue {
		logger.Error("standalone worker requires USE_MEMORY_QUEUE=false; the memory queue only exists inside the API binary")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	dirService := directory.NewService(directory.NewPostgresRepository(pool))

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := bootstrap.BuildQueue(cfg, awsConfig, logger)
	sender, provider, reason := bootstrap.BuildEmailSender(cfg, awsConfig, logger)
	if sender == nil {
		logger.Error("no email sender configured", "provider", provider, "reason", reason)
		os.Exit(1)
	}

	worker := notify.NewWorker(queue, sender, directoryContacts{dir: dirService}, notify.WorkerConfig{
		Workers:         cfg.WorkerCount,
		ReceiveWaitSecs: int(cfg.QueuePollInterval.Seconds()),
	}, logger)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker.Start(workerCtx)
	logger.Info("notification worker started", "workers", cfg.WorkerCount, "email_provider", provider)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down notification worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("notification worker stopped")
	case <-doneCtx.Done():
		logger.Error("notification worker shutdown timed out", "error", doneCtx.Err())
	}
}
