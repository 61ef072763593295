package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.Auth.DevMode {
		t.Error("DevMode should default to false")
	}
	if cfg.Auth.DevFakeOTP != "4242" {
		t.Errorf("DevFakeOTP = %q, want 4242", cfg.Auth.DevFakeOTP)
	}
	if cfg.Auth.CodeLength != 4 {
		t.Errorf("CodeLength = %d, want 4", cfg.Auth.CodeLength)
	}
	if cfg.Stage.SubmitDelay != 2*time.Second {
		t.Errorf("SubmitDelay = %v, want 2s", cfg.Stage.SubmitDelay)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_DEV_MODE", "true")
	t.Setenv("OTP_LENGTH", "6")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Auth.DevMode {
		t.Error("DevMode = false, want true")
	}
	if cfg.Auth.CodeLength != 6 {
		t.Errorf("CodeLength = %d, want 6", cfg.Auth.CodeLength)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.CORSOrigins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "non numeric length", key: "OTP_LENGTH", val: "four", want: "parsing environment"},
		{name: "zero length", key: "OTP_LENGTH", val: "0", want: "OTP_LENGTH must be positive"},
		{name: "bad duration", key: "OTP_TTL", val: "soon", want: "parsing environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}
