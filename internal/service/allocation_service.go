package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ankita19Rathore/QUEUEASE/internal/clock"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/events"
	"github.com/Ankita19Rathore/QUEUEASE/internal/repository"
	apperrors "github.com/Ankita19Rathore/QUEUEASE/pkg/util"
)

const defaultRetryAttempts = 5

// AllocationService issues tokens: it validates the per-patient and
// capacity rules, allocates the next sequence number in the partition, and
// promotes the first pending token when nothing is serving. All writes are
// optimistic; unique-index conflicts trigger a re-read and retry up to the
// configured budget.
type AllocationService struct {
	tokens     repository.TokenRepository
	configs    repository.ConfigRepository
	dispatcher events.Dispatcher
	clock      clock.Clock
	retries    int
}

// AllocationDependencies bundles collaborators for the allocation service.
type AllocationDependencies struct {
	TokenRepo  repository.TokenRepository
	ConfigRepo repository.ConfigRepository
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Retries    int
}

// NewAllocationService constructs the service.
func NewAllocationService(deps AllocationDependencies) *AllocationService {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Retries <= 0 {
		deps.Retries = defaultRetryAttempts
	}
	return &AllocationService{
		tokens:     deps.TokenRepo,
		configs:    deps.ConfigRepo,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		retries:    deps.Retries,
	}
}

// IssueResult reports a successful issuance and, when the queue was idle,
// the token promoted to serving (possibly the issued one).
type IssueResult struct {
	Token    *domain.Token
	Promoted *domain.Token
}

// IssueToken draws a token for the patient in today's queue for the shift.
//
// The insert commits before the promotion step, so an error after that
// point can leave the token persisted while the caller sees a failure.
// This converges rather than corrupts: a client retry is rejected with
// DuplicateTokenError carrying the already-issued token number, and the
// stalled promotion is repaired by the next issuance or completion for the
// shift.
func (s *AllocationService) IssueToken(ctx context.Context, patientID string, shift domain.Shift, isEmergency bool) (*IssueResult, error) {
	if !shift.Valid() {
		return nil, apperrors.NewValidationError("valid shift (morning/evening) is required", nil)
	}
	day := clock.DayOf(s.clock.Now())

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		result, err := s.tryIssue(ctx, patientID, shift, isEmergency, day)
		if err == nil {
			s.publishIssued(ctx, result, patientID, shift)
			return result, nil
		}
		if errors.Is(err, repository.ErrSequenceConflict) {
			// Another caller took the candidate number; re-read and retry.
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, apperrors.NewTransientFailure(lastErr)
}

func (s *AllocationService) tryIssue(ctx context.Context, patientID string, shift domain.Shift, isEmergency bool, day time.Time) (*IssueResult, error) {
	existing, err := s.tokens.FindPatientToken(ctx, patientID, day, shift)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, patientTokenRejection(existing)
	}

	if isEmergency {
		emergency, err := s.tokens.FindPatientEmergency(ctx, patientID, day)
		if err != nil {
			return nil, err
		}
		if emergency != nil {
			return nil, apperrors.NewRuleViolation(apperrors.CodeDuplicateEmergency,
				"you already have an emergency token today", map[string]any{
					"token_number": emergency.DisplayNumber(),
				})
		}
	}

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, err
	}

	// The candidate number is the partition count + 1: failed inserts leave
	// no row behind, so numbering stays dense.
	count, err := s.tokens.CountPartition(ctx, day, shift, isEmergency)
	if err != nil {
		return nil, err
	}
	if !isEmergency {
		if maxTokens := cfg.MaxTokens(shift); count >= maxTokens {
			return nil, apperrors.NewRuleViolation(apperrors.CodeCapacityExceeded,
				fmt.Sprintf("maximum tokens (%d) for %s shift reached", maxTokens, shift), map[string]any{
					"shift":    shift,
					"capacity": maxTokens,
				})
		}
	}

	token := &domain.Token{
		PatientID:      patientID,
		Shift:          shift,
		Day:            day,
		IsEmergency:    isEmergency,
		SequenceNumber: count + 1,
		Status:         domain.TokenStatusPending,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		switch {
		case errors.Is(err, repository.ErrPatientHasToken):
			// Lost a race with the patient's own concurrent request;
			// re-read to report the precise rule.
			existing, readErr := s.tokens.FindPatientToken(ctx, patientID, day, shift)
			if readErr == nil && existing != nil {
				return nil, patientTokenRejection(existing)
			}
			return nil, apperrors.NewRuleViolation(apperrors.CodeDuplicateToken,
				"you already have a token for this shift today", nil)
		case errors.Is(err, repository.ErrEmergencyExists):
			return nil, apperrors.NewRuleViolation(apperrors.CodeDuplicateEmergency,
				"you already have an emergency token today", nil)
		default:
			return nil, err
		}
	}

	promoted, err := s.promoteIfIdle(ctx, day, shift)
	if err != nil {
		return nil, err
	}
	return &IssueResult{Token: token, Promoted: promoted}, nil
}

// promoteIfIdle promotes the first pending token when no token is serving
// for the shift. A lost promotion race resolves to a no-op: the winner
// already established a valid serving token.
func (s *AllocationService) promoteIfIdle(ctx context.Context, day time.Time, shift domain.Shift) (*domain.Token, error) {
	for {
		all, err := s.tokens.ListForDay(ctx, day, shift, repository.TokenFilter{})
		if err != nil {
			return nil, err
		}
		domain.OrderTokens(all)
		if idx := domain.FirstWithStatus(all, domain.TokenStatusServing); idx >= 0 {
			return nil, nil
		}
		idx := domain.FirstWithStatus(all, domain.TokenStatusPending)
		if idx < 0 {
			return nil, nil
		}
		candidate := all[idx]
		err = s.tokens.MarkServing(ctx, candidate.ID)
		switch {
		case err == nil:
			candidate.Status = domain.TokenStatusServing
			if err := s.configs.SetCurrentToken(ctx, &candidate.ID); err != nil {
				return nil, err
			}
			return &candidate, nil
		case errors.Is(err, repository.ErrServingExists):
			return nil, nil
		case errors.Is(err, repository.ErrStatusConflict):
			// The candidate moved on under us; re-scan.
			continue
		default:
			return nil, err
		}
	}
}

func (s *AllocationService) publishIssued(ctx context.Context, result *IssueResult, patientID string, shift domain.Shift) {
	if s.dispatcher == nil {
		return
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:  events.EventTokenIssued,
		Shift: shift,
		Payload: events.TokenIssuedPayload{
			Token:     *events.Ref(result.Token),
			PatientID: patientID,
		},
	})
	if result.Promoted != nil {
		publish(ctx, s.dispatcher, events.Event{
			Type:  events.EventQueueAdvanced,
			Shift: shift,
			Payload: events.QueueAdvancedPayload{
				Serving: events.Ref(result.Promoted),
			},
		})
	}
}

// patientTokenRejection names the exact rule barring a new issuance for a
// patient who already holds a token for the shift.
func patientTokenRejection(existing *domain.Token) error {
	if existing.Status == domain.TokenStatusMissed {
		return apperrors.NewRuleViolation(apperrors.CodeMissedToken,
			"you missed your token for this shift and cannot generate a new one", map[string]any{
				"token_number": existing.DisplayNumber(),
			})
	}
	return apperrors.NewRuleViolation(apperrors.CodeDuplicateToken,
		"you already have a token for this shift today", map[string]any{
			"token_number": existing.DisplayNumber(),
			"status":       existing.Status,
		})
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
