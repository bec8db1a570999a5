package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturingSender struct {
	mu   sync.Mutex
	sent []EmailMessage
	done chan struct{}
}

func newCapturingSender() *capturingSender {
	return &capturingSender{done: make(chan struct{}, 16)}
}

func (s *capturingSender) Send(_ context.Context, msg EmailMessage) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func (s *capturingSender) messages() []EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EmailMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

type staticResolver map[string]Contact

func (r staticResolver) Contact(_ context.Context, userID string) (*Contact, error) {
	c, ok := r[userID]
	if !ok {
		return nil, errors.New("unknown user")
	}
	return &c, nil
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker")
	}
}

func TestWorkerDeliversQueuedEmail(t *testing.T) {
	queue := NewMemoryQueue(8)
	sender := newCapturingSender()
	resolver := staticResolver{"doctor-1": {Name: "Dr. Amani", Email: "amani@example.org"}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorker(queue, sender, resolver, WorkerConfig{Workers: 1}, nil)
	worker.Start(ctx)

	job := emailJob{NotificationID: "n-1", UserID: "doctor-1", Subject: "New appointment request", Body: "hello"}
	body, _ := json.Marshal(job)
	if err := queue.Send(context.Background(), string(body)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	waitFor(t, sender.done)
	cancel()
	worker.Wait()

	sent := sender.messages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sent))
	}
	if sent[0].To != "amani@example.org" {
		t.Errorf("to = %q, want amani@example.org", sent[0].To)
	}
	if sent[0].Subject != "New appointment request" {
		t.Errorf("subject = %q", sent[0].Subject)
	}
}

func TestWorkerDropsJobForUnknownRecipient(t *testing.T) {
	queue := NewMemoryQueue(8)
	sender := newCapturingSender()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorker(queue, sender, staticResolver{}, WorkerConfig{Workers: 1}, nil)
	worker.Start(ctx)

	body, _ := json.Marshal(emailJob{NotificationID: "n-2", UserID: "ghost", Subject: "x", Body: "y"})
	if err := queue.Send(context.Background(), string(body)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Give the worker a moment to pull and discard the job.
	time.Sleep(100 * time.Millisecond)
	cancel()
	worker.Wait()

	if got := sender.messages(); len(got) != 0 {
		t.Errorf("expected no emails for unknown recipient, got %d", len(got))
	}
}

func TestWorkerSkipsMalformedJob(t *testing.T) {
	queue := NewMemoryQueue(8)
	sender := newCapturingSender()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorker(queue, sender, staticResolver{}, WorkerConfig{Workers: 1}, nil)
	worker.Start(ctx)

	if err := queue.Send(context.Background(), "not json"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	cancel()
	worker.Wait()

	if got := sender.messages(); len(got) != 0 {
		t.Errorf("expected no emails for malformed job, got %d", len(got))
	}
}
