package service

import (
	"context"
	"testing"

	"github.com/Ankita19Rathore/QUEUEASE/internal/events"
	apperrors "github.com/Ankita19Rathore/QUEUEASE/pkg/util"
)

func intPtr(v int) *int { return &v }

func TestUpdateCapacities(t *testing.T) {
	f := newFixture(t)
	svc := NewQueueConfigService(f.configs, f.dispatcher)
	ctx := context.Background()

	cfg, err := svc.UpdateCapacities(ctx, CapacityUpdate{
		MaxTokensMorning: intPtr(40),
	})
	if err != nil {
		t.Fatalf("UpdateCapacities: %v", err)
	}
	if cfg.MaxTokensMorning != 40 {
		t.Errorf("morning capacity = %d, want 40", cfg.MaxTokensMorning)
	}
	// Untouched columns keep their defaults.
	if cfg.MaxTokensEvening != 30 {
		t.Errorf("evening capacity = %d, want default 30", cfg.MaxTokensEvening)
	}

	types := f.dispatcher.typesSeen()
	if len(types) != 1 || types[0] != events.EventConfigurationChanged {
		t.Errorf("events = %v, want [configuration_changed]", types)
	}
}

func TestUpdateCapacities_Invalid(t *testing.T) {
	f := newFixture(t)
	svc := NewQueueConfigService(f.configs, f.dispatcher)
	ctx := context.Background()

	_, err := svc.UpdateCapacities(ctx, CapacityUpdate{MaxTokensEvening: intPtr(0)})
	if !apperrors.HasCode(err, apperrors.CodeInvalidCapacity) {
		t.Fatalf("err = %v, want INVALID_CAPACITY", err)
	}

	_, err = svc.UpdateCapacities(ctx, CapacityUpdate{})
	if !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED for empty update", err)
	}
}

func TestTogglePause(t *testing.T) {
	f := newFixture(t)
	svc := NewQueueConfigService(f.configs, f.dispatcher)
	ctx := context.Background()

	cfg, err := svc.TogglePause(ctx)
	if err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	if !cfg.IsPaused {
		t.Errorf("paused = false, want true after first toggle")
	}

	cfg, err = svc.TogglePause(ctx)
	if err != nil {
		t.Fatalf("second TogglePause: %v", err)
	}
	if cfg.IsPaused {
		t.Errorf("paused = true, want false after second toggle")
	}

	types := f.dispatcher.typesSeen()
	if len(types) != 2 || types[0] != events.EventPauseStateChanged || types[1] != events.EventPauseStateChanged {
		t.Errorf("events = %v, want two pause_state_changed", types)
	}
}

func TestPauseDoesNotGateIssuance(t *testing.T) {
	f := newFixture(t)
	svc := NewQueueConfigService(f.configs, f.dispatcher)
	ctx := context.Background()

	if _, err := svc.TogglePause(ctx); err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	if _, err := f.allocation.IssueToken(ctx, "patient-a", "morning", false); err != nil {
		t.Fatalf("issue while paused: %v", err)
	}
}
