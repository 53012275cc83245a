package service

import (
	"context"
	"errors"
	"time"

	"github.com/Ankita19Rathore/QUEUEASE/internal/clock"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/events"
	"github.com/Ankita19Rathore/QUEUEASE/internal/repository"
	apperrors "github.com/Ankita19Rathore/QUEUEASE/pkg/util"
	"github.com/jackc/pgx/v5"
)

// LifecycleService owns every token status transition after creation:
// pending -> serving -> completed on the happy path, pending -> missed for
// tokens the queue moved past. Nothing leaves completed or missed.
type LifecycleService struct {
	tokens     repository.TokenRepository
	configs    repository.ConfigRepository
	dispatcher events.Dispatcher
	clock      clock.Clock
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	TokenRepo  repository.TokenRepository
	ConfigRepo repository.ConfigRepository
	Dispatcher events.Dispatcher
	Clock      clock.Clock
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	return &LifecycleService{
		tokens:     deps.TokenRepo,
		configs:    deps.ConfigRepo,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
	}
}

// CompletionResult is the full observable outcome of a completion: the
// completed token, every token the missed cascade demoted, and the token
// promoted to serving next (nil when the shift's queue is drained).
type CompletionResult struct {
	Completed *domain.Token
	Missed    []domain.Token
	Promoted  *domain.Token
}

// CompleteCurrent finalizes the token, cascades missed status over pending
// tokens it skipped, and advances the serving pointer. Every step is
// idempotent, so re-running after an interrupted attempt converges to the
// same end state.
func (s *LifecycleService) CompleteCurrent(ctx context.Context, tokenID string) (*CompletionResult, error) {
	token, err := s.tokens.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("token", map[string]any{"token_id": tokenID})
		}
		return nil, err
	}
	if err := rejectFinalized(token); err != nil {
		return nil, err
	}

	servedAt := s.clock.Now()
	if err := s.tokens.MarkCompleted(ctx, token.ID, servedAt); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			// Lost a race with another completion; re-read to classify.
			current, readErr := s.tokens.GetByID(ctx, token.ID)
			if readErr != nil {
				return nil, readErr
			}
			return nil, rejectFinalized(current)
		}
		return nil, err
	}
	token.Status = domain.TokenStatusCompleted
	token.ServedAt = &servedAt

	missed, err := s.cascadeMissed(ctx, token)
	if err != nil {
		return nil, err
	}
	promoted, total, err := s.advance(ctx, token.Day, token.Shift)
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{Completed: token, Missed: missed, Promoted: promoted}
	s.publishCompleted(ctx, result, total)
	return result, nil
}

// cascadeMissed demotes pending tokens the completed one overtook: tokens
// of the same partition with a lower sequence number. Emergency tokens are
// never cascade victims when a regular token completes; they were not
// skipped, they preempt, and the advance step serves them next.
func (s *LifecycleService) cascadeMissed(ctx context.Context, completed *domain.Token) ([]domain.Token, error) {
	partition := completed.IsEmergency
	all, err := s.tokens.ListForDay(ctx, completed.Day, completed.Shift, repository.TokenFilter{
		Statuses:    []domain.TokenStatus{domain.TokenStatusPending},
		IsEmergency: &partition,
	})
	if err != nil {
		return nil, err
	}

	missedAt := s.clock.Now()
	var missed []domain.Token
	var ids []string
	for i := range all {
		if all[i].SequenceNumber >= completed.SequenceNumber {
			continue
		}
		all[i].Status = domain.TokenStatusMissed
		all[i].MissedAt = &missedAt
		missed = append(missed, all[i])
		ids = append(ids, all[i].ID)
	}
	if err := s.tokens.MarkMissed(ctx, ids, missedAt); err != nil {
		return nil, err
	}
	return missed, nil
}

// advance moves the serving pointer. A token still serving anywhere in the
// shift keeps the pointer (completing a pending token out of order must not
// displace it); otherwise the first pending token in policy order is
// promoted, and the pointer is cleared when the queue is drained. Returns
// the serving token and the day's total for the snapshot event.
func (s *LifecycleService) advance(ctx context.Context, day time.Time, shift domain.Shift) (*domain.Token, int, error) {
	for {
		all, err := s.tokens.ListForDay(ctx, day, shift, repository.TokenFilter{})
		if err != nil {
			return nil, 0, err
		}
		total := len(all)
		domain.OrderTokens(all)

		// At most one token serves per shift. If one exists it stays
		// current regardless of policy order; pointing the config at it is
		// a no-op write that repairs a stale pointer.
		if idx := domain.FirstWithStatus(all, domain.TokenStatusServing); idx >= 0 {
			current := all[idx]
			if err := s.configs.SetCurrentToken(ctx, &current.ID); err != nil {
				return nil, 0, err
			}
			return &current, total, nil
		}

		idx := domain.FirstWithStatus(all, domain.TokenStatusPending)
		if idx < 0 {
			if err := s.configs.SetCurrentToken(ctx, nil); err != nil {
				return nil, 0, err
			}
			return nil, total, nil
		}
		next := all[idx]

		err = s.tokens.MarkServing(ctx, next.ID)
		switch {
		case err == nil:
			next.Status = domain.TokenStatusServing
			if err := s.configs.SetCurrentToken(ctx, &next.ID); err != nil {
				return nil, 0, err
			}
			return &next, total, nil
		case errors.Is(err, repository.ErrServingExists), errors.Is(err, repository.ErrStatusConflict):
			// Someone else advanced the queue first; the re-read resolves
			// to their serving token.
			continue
		default:
			return nil, 0, err
		}
	}
}

func (s *LifecycleService) publishCompleted(ctx context.Context, result *CompletionResult, total int) {
	if s.dispatcher == nil {
		return
	}
	shift := result.Completed.Shift
	publish(ctx, s.dispatcher, events.Event{
		Type:  events.EventTokenCompleted,
		Shift: shift,
		Payload: events.TokenCompletedPayload{
			Completed:   *events.Ref(result.Completed),
			Promoted:    events.Ref(result.Promoted),
			MissedCount: len(result.Missed),
		},
	})
	publish(ctx, s.dispatcher, events.Event{
		Type:  events.EventQueueSnapshotChanged,
		Shift: shift,
		Payload: events.QueueSnapshotChangedPayload{
			TotalTokens: total,
			Serving:     events.Ref(result.Promoted),
		},
	})
}

// rejectFinalized refuses work on tokens in a terminal state; nil for
// tokens still in flight.
func rejectFinalized(token *domain.Token) error {
	if !token.Status.Terminal() {
		return nil
	}
	if token.Status == domain.TokenStatusMissed {
		return apperrors.NewRuleViolation(apperrors.CodeAlreadyCompleted,
			"token was marked missed and cannot be completed", map[string]any{"token_number": token.DisplayNumber()})
	}
	return apperrors.NewRuleViolation(apperrors.CodeAlreadyCompleted,
		"token already completed", map[string]any{"token_number": token.DisplayNumber()})
}
