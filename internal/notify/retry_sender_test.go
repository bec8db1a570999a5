package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afyalink/afya-platform/pkg/logging"
)

type flakySender struct {
	failures int
	calls    int
}

func (f *flakySender) Send(ctx context.Context, msg EmailMessage) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("temporary outage")
	}
	return nil
}

func newTestRetrySender(inner EmailSender) *RetryingSender {
	r := NewRetryingSender(inner, logging.New("error"))
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return r
}

func TestRetryingSenderSucceedsAfterTransientFailure(t *testing.T) {
	inner := &flakySender{failures: 2}
	sender := newTestRetrySender(inner)

	if err := sender.Send(context.Background(), EmailMessage{To: "amani@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryingSenderGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakySender{failures: 10}
	sender := newTestRetrySender(inner).WithMaxAttempts(3)

	if err := sender.Send(context.Background(), EmailMessage{To: "amani@example.com"}); err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryingSenderStopsOnCancelledContext(t *testing.T) {
	inner := &flakySender{failures: 10}
	sender := NewRetryingSender(inner, logging.New("error"))
	sender.sleep = sleepCtx
	sender = sender.WithBaseDelay(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.Send(ctx, EmailMessage{To: "amani@example.com"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single attempt before the backoff, got %d", inner.calls)
	}
}

func TestNewRetryingSenderNilInner(t *testing.T) {
	if sender := NewRetryingSender(nil, nil); sender != nil {
		t.Fatalf("expected nil wrapper for nil sender")
	}
}

func TestRetryingSenderBackoffCaps(t *testing.T) {
	sender := newTestRetrySender(&flakySender{}).WithBaseDelay(20 * time.Second)

	if d := sender.nextDelay(1); d != 20*time.Second {
		t.Fatalf("unexpected first delay: %v", d)
	}
	if d := sender.nextDelay(4); d != 30*time.Second {
		t.Fatalf("expected capped delay, got %v", d)
	}
}
