package service

import (
	"context"
	"fmt"

	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/events"
	"github.com/Ankita19Rathore/QUEUEASE/internal/repository"
	apperrors "github.com/Ankita19Rathore/QUEUEASE/pkg/util"
)

// QueueConfigService applies the doctor's configuration changes. Capacity
// changes only constrain future allocation; tokens already issued above a
// lowered cap are never renumbered or invalidated. Pause is advisory state
// for observers and gates nothing.
type QueueConfigService struct {
	configs    repository.ConfigRepository
	dispatcher events.Dispatcher
}

// NewQueueConfigService constructs the service.
func NewQueueConfigService(configs repository.ConfigRepository, dispatcher events.Dispatcher) *QueueConfigService {
	return &QueueConfigService{configs: configs, dispatcher: dispatcher}
}

// Get returns the configuration, creating it with defaults on first access.
func (s *QueueConfigService) Get(ctx context.Context) (*domain.QueueConfig, error) {
	return s.configs.Get(ctx)
}

// CapacityUpdate carries the doctor's new limits; nil fields are untouched.
type CapacityUpdate struct {
	MaxTokensMorning *int
	MaxTokensEvening *int
}

// UpdateCapacities sets per-shift capacity limits.
func (s *QueueConfigService) UpdateCapacities(ctx context.Context, update CapacityUpdate) (*domain.QueueConfig, error) {
	if err := validateCapacity(domain.ShiftMorning, update.MaxTokensMorning); err != nil {
		return nil, err
	}
	if err := validateCapacity(domain.ShiftEvening, update.MaxTokensEvening); err != nil {
		return nil, err
	}
	if update.MaxTokensMorning == nil && update.MaxTokensEvening == nil {
		return nil, apperrors.NewValidationError("no capacity values provided", nil)
	}

	// Ensure the singleton exists before the column updates.
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, err
	}
	if update.MaxTokensMorning != nil {
		if cfg, err = s.configs.SetCapacity(ctx, domain.ShiftMorning, *update.MaxTokensMorning); err != nil {
			return nil, err
		}
	}
	if update.MaxTokensEvening != nil {
		if cfg, err = s.configs.SetCapacity(ctx, domain.ShiftEvening, *update.MaxTokensEvening); err != nil {
			return nil, err
		}
	}

	if s.dispatcher != nil {
		publish(ctx, s.dispatcher, events.Event{
			Type: events.EventConfigurationChanged,
			Payload: events.ConfigurationChangedPayload{
				MaxTokensMorning: cfg.MaxTokensMorning,
				MaxTokensEvening: cfg.MaxTokensEvening,
			},
		})
	}
	return cfg, nil
}

// TogglePause flips the advisory pause flag and reports the new state.
func (s *QueueConfigService) TogglePause(ctx context.Context) (*domain.QueueConfig, error) {
	// Ensure the singleton exists before the toggle.
	if _, err := s.configs.Get(ctx); err != nil {
		return nil, err
	}
	cfg, err := s.configs.TogglePause(ctx)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		message := "Doctor has resumed checkups"
		if cfg.IsPaused {
			message = "Doctor has paused checkups"
		}
		publish(ctx, s.dispatcher, events.Event{
			Type: events.EventPauseStateChanged,
			Payload: events.PauseStateChangedPayload{
				IsPaused: cfg.IsPaused,
				Message:  message,
			},
		})
	}
	return cfg, nil
}

func validateCapacity(shift domain.Shift, value *int) error {
	if value != nil && *value < 1 {
		return apperrors.NewRuleViolation(apperrors.CodeInvalidCapacity,
			fmt.Sprintf("max tokens for %s shift must be at least 1", shift), map[string]any{
				"shift": shift,
				"value": *value,
			})
	}
	return nil
}
