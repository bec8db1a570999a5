package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.MaxAlternativeSlots != 3 {
		t.Errorf("expected default max alternatives 3, got %d", cfg.MaxAlternativeSlots)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue enabled by default")
	}
	if cfg.QueuePollInterval != 5*time.Second {
		t.Errorf("expected default poll interval 5s, got %s", cfg.QueuePollInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_ALTERNATIVE_SLOTS", "5")
	t.Setenv("USE_MEMORY_QUEUE", "false")
	t.Setenv("QUEUE_POLL_INTERVAL", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.afyalink.io, https://staging.afyalink.io")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.MaxAlternativeSlots != 5 {
		t.Errorf("expected max alternatives 5, got %d", cfg.MaxAlternativeSlots)
	}
	if cfg.UseMemoryQueue {
		t.Error("expected memory queue disabled")
	}
	if cfg.QueuePollInterval != 250*time.Millisecond {
		t.Errorf("expected poll interval 250ms, got %s", cfg.QueuePollInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %d", len(cfg.CORSAllowedOrigins))
	}
	if cfg.CORSAllowedOrigins[1] != "https://staging.afyalink.io" {
		t.Errorf("unexpected second origin: %s", cfg.CORSAllowedOrigins[1])
	}
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected fallback worker count 2, got %d", cfg.WorkerCount)
	}
}
