package notify

import (
	"context"
	"time"

	"github.com/afyalink/afya-platform/pkg/logging"
)

// RetryingSender retries transient email send failures with exponential
// backoff before giving up. A message that exhausts its attempts is
// returned to the caller as an error, which leaves the job on the queue
// for redelivery.
type RetryingSender struct {
	inner       EmailSender
	logger      *logging.Logger
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRetryingSender wraps sender with retry behavior. Returns nil when
// sender is nil so disabled email stays disabled.
func NewRetryingSender(sender EmailSender, logger *logging.Logger) *RetryingSender {
	if sender == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetryingSender{
		inner:       sender,
		logger:      logger,
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
		sleep:       sleepCtx,
	}
}

// WithMaxAttempts overrides the attempt limit.
func (r *RetryingSender) WithMaxAttempts(n int) *RetryingSender {
	if r != nil && n > 0 {
		r.maxAttempts = n
	}
	return r
}

// WithBaseDelay overrides the first backoff delay.
func (r *RetryingSender) WithBaseDelay(d time.Duration) *RetryingSender {
	if r != nil && d > 0 {
		r.baseDelay = d
	}
	return r
}

// Send delivers msg, retrying failures until the attempt limit.
func (r *RetryingSender) Send(ctx context.Context, msg EmailMessage) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, r.nextDelay(attempt)); err != nil {
				return err
			}
		}
		lastErr = r.inner.Send(ctx, msg)
		if lastErr == nil {
			return nil
		}
		r.logger.Warn("email send attempt failed",
			"attempt", attempt+1,
			"max_attempts", r.maxAttempts,
			"to", msg.To,
			"error", lastErr,
		)
	}
	return lastErr
}

func (r *RetryingSender) nextDelay(attempt int) time.Duration {
	delay := r.baseDelay * time.Duration(1<<(attempt-1))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ EmailSender = (*RetryingSender)(nil)
