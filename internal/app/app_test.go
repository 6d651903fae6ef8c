package app

import (
	"testing"

	"github.com/rs/zerolog"

	"ai-speech-coach-service/internal/config"
)

func TestApplication_Lifecycle(t *testing.T) {
	cfg := config.Defaults()
	cfg.Observability.LogLevel = "warn"

	a := New(cfg)
	if a.Ready() {
		t.Error("expected application to be not ready before Start")
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("expected global level warn, got %s", zerolog.GlobalLevel())
	}

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !a.Ready() {
		t.Error("expected application to be ready after Start")
	}
	if a.StartupTime.IsZero() {
		t.Error("expected startup time to be set")
	}

	a.Shutdown()
	if a.Ready() {
		t.Error("expected application to be not ready after Shutdown")
	}
}
