package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Engagement.WindowSeconds != 300 {
		t.Fatalf("window = %d, want 300", cfg.Engagement.WindowSeconds)
	}
	if cfg.Engagement.NudgeCooldown != 240*time.Second {
		t.Fatalf("cooldown = %s, want 240s", cfg.Engagement.NudgeCooldown)
	}
	if cfg.Engagement.Window() != 5*time.Minute {
		t.Fatalf("window duration = %s, want 5m", cfg.Engagement.Window())
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WINDOW_SECONDS", "120")
	t.Setenv("NUDGE_THRESHOLD", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Engagement.WindowSeconds != 120 {
		t.Fatalf("window = %d, want 120", cfg.Engagement.WindowSeconds)
	}
	if cfg.Engagement.NudgeThreshold != 5 {
		t.Fatalf("threshold = %d, want 5", cfg.Engagement.NudgeThreshold)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	t.Setenv("WINDOW_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero window")
	}
}

func TestValidate_ProductionSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	if _, err := Load(); err == nil {
		t.Fatalf("default panel secret must be rejected in production")
	}

	t.Setenv("PANEL_TOKEN_SECRET", "real-secret")
	if _, err := Load(); err != nil {
		t.Fatalf("load failed with real secret: %v", err)
	}
}

func TestGetAddr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "127.0.0.1", Port: "9090"}}
	if got := cfg.GetAddr(); got != "127.0.0.1:9090" {
		t.Fatalf("addr = %q", got)
	}
}
