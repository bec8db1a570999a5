package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/afyalink/afya-platform/pkg/logging"
)

// WorkerConfig tunes the dispatch worker pool.
type WorkerConfig struct {
	Workers          int
	ReceiveBatchSize int
	ReceiveWaitSecs  int
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.ReceiveBatchSize <= 0 {
		c.ReceiveBatchSize = 5
	}
	if c.ReceiveWaitSecs < 0 {
		c.ReceiveWaitSecs = 0
	}
	return c
}

// Worker drains the dispatch queue and sends queued emails.
type Worker struct {
	queue    Queue
	sender   EmailSender
	contacts ContactResolver
	logger   *logging.Logger
	cfg      WorkerConfig
	wg       sync.WaitGroup
}

// NewWorker creates a dispatch worker pool over the given queue.
func NewWorker(queue Queue, sender EmailSender, contacts ContactResolver, cfg WorkerConfig, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("notify: worker requires a queue")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:    queue,
		sender:   sender,
		contacts: contacts,
		logger:   logger,
		cfg:      cfg.withDefaults(),
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("notification worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("notification worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.ReceiveBatchSize, w.cfg.ReceiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive email jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var job emailJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		w.logger.Error("failed to decode email job", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	if w.sender == nil {
		// Email disabled; drop the job so it does not loop forever.
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	contact, err := w.resolveContact(ctx, job.UserID)
	if err != nil {
		w.logger.Warn("email job skipped: no contact for recipient", "error", err, "user_id", job.UserID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	email := EmailMessage{
		To:      contact.Email,
		ToName:  contact.Name,
		Subject: job.Subject,
		Body:    job.Body,
	}
	if err := w.sender.Send(ctx, email); err != nil {
		// Leave the message on the queue; redelivery retries the send.
		w.logger.Error("email send failed", "error", err, "notification_id", job.NotificationID)
		return
	}

	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *Worker) resolveContact(ctx context.Context, userID string) (*Contact, error) {
	if w.contacts == nil {
		return nil, errors.New("notify: contact resolver not configured")
	}
	contact, err := w.contacts.Contact(ctx, userID)
	if err != nil {
		return nil, err
	}
	if contact == nil || contact.Email == "" {
		return nil, errors.New("notify: recipient has no email address")
	}
	return contact, nil
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "error", err)
	}
}
