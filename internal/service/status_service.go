package service

import (
	"context"
	"fmt"

	"github.com/Ankita19Rathore/QUEUEASE/internal/clock"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/repository"
)

// StatusService projects the publicly visible queue state. Pure reads; it
// never mutates the ledger or the configuration.
type StatusService struct {
	tokens            repository.TokenRepository
	configs           repository.ConfigRepository
	clock             clock.Clock
	avgServiceMinutes int
}

// StatusDependencies bundles collaborators for the status service.
type StatusDependencies struct {
	TokenRepo         repository.TokenRepository
	ConfigRepo        repository.ConfigRepository
	Clock             clock.Clock
	AvgServiceMinutes int
}

// NewStatusService constructs the service.
func NewStatusService(deps StatusDependencies) *StatusService {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.AvgServiceMinutes <= 0 {
		deps.AvgServiceMinutes = 5
	}
	return &StatusService{
		tokens:            deps.TokenRepo,
		configs:           deps.ConfigRepo,
		clock:             deps.Clock,
		avgServiceMinutes: deps.AvgServiceMinutes,
	}
}

// QueueSnapshot is the public queue view for one shift, optionally enriched
// with a specific patient token's position and estimated wait.
type QueueSnapshot struct {
	CurrentServing  *domain.Token
	TotalTokens     int
	WaitingPosition *int
	EstimatedWait   string
}

// Snapshot computes the queue view for today's shift. When patientToken is
// non-nil the snapshot carries that token's position and ETA.
func (s *StatusService) Snapshot(ctx context.Context, shift domain.Shift, patientToken *domain.Token) (*QueueSnapshot, error) {
	day := clock.DayOf(s.clock.Now())
	all, err := s.tokens.ListForDay(ctx, day, shift, repository.TokenFilter{})
	if err != nil {
		return nil, err
	}
	domain.OrderTokens(all)

	snapshot := &QueueSnapshot{
		CurrentServing: currentServing(all),
		TotalTokens:    len(all),
		EstimatedWait:  "Queue not started",
	}
	if patientToken != nil {
		s.fillPosition(snapshot, all, patientToken)
	}
	return snapshot, nil
}

// fillPosition computes position and ETA for one token. Emergency tokens
// are never queued behind anything except a token already being served, so
// they always report position 1 and an immediate ETA.
func (s *StatusService) fillPosition(snapshot *QueueSnapshot, ordered []domain.Token, token *domain.Token) {
	if token.IsEmergency {
		position := 1
		snapshot.WaitingPosition = &position
		snapshot.EstimatedWait = "Immediate"
		return
	}
	idx := domain.IndexOf(ordered, token.ID)
	if idx < 0 {
		return
	}
	ahead := 0
	for i := 0; i < idx; i++ {
		if ordered[i].Status == domain.TokenStatusPending || ordered[i].Status == domain.TokenStatusServing {
			ahead++
		}
	}
	position := ahead + 1
	snapshot.WaitingPosition = &position
	snapshot.EstimatedWait = fmt.Sprintf("%d minutes", ahead*s.avgServiceMinutes)
}

// currentServing resolves who the queue shows as "now serving": the serving
// token, else the first pending token in policy order (which is an
// emergency token whenever one is waiting).
func currentServing(ordered []domain.Token) *domain.Token {
	if idx := domain.FirstWithStatus(ordered, domain.TokenStatusServing); idx >= 0 {
		return &ordered[idx]
	}
	if idx := domain.FirstWithStatus(ordered, domain.TokenStatusPending); idx >= 0 {
		return &ordered[idx]
	}
	return nil
}

// MyTokenView is a patient's latest token for today plus its queue context.
type MyTokenView struct {
	Token    *domain.Token
	Snapshot *QueueSnapshot
}

// MyToken returns the patient's most recent token for today with queue
// status, or an empty view when the patient drew no token.
func (s *StatusService) MyToken(ctx context.Context, patientID string) (*MyTokenView, error) {
	day := clock.DayOf(s.clock.Now())
	tokens, err := s.tokens.ListForPatientDay(ctx, patientID, day)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return &MyTokenView{}, nil
	}
	current := &tokens[0]
	snapshot, err := s.Snapshot(ctx, current.Shift, current)
	if err != nil {
		return nil, err
	}
	return &MyTokenView{Token: current, Snapshot: snapshot}, nil
}

// DashboardStats aggregates per-status counts for the doctor dashboard.
type DashboardStats struct {
	Total     int
	Pending   int
	Serving   int
	Completed int
	Missed    int
	Emergency int
}

// DashboardView is the doctor's operational view of a day.
type DashboardView struct {
	Tokens         []domain.Token
	Config         *domain.QueueConfig
	CurrentServing *domain.Token
	Stats          DashboardStats
}

// Dashboard lists today's tokens in policy order with counts and the
// configuration. A nil shift covers both shifts.
func (s *StatusService) Dashboard(ctx context.Context, shift *domain.Shift) (*DashboardView, error) {
	day := clock.DayOf(s.clock.Now())

	var tokens []domain.Token
	if shift != nil {
		listed, err := s.tokens.ListForDay(ctx, day, *shift, repository.TokenFilter{})
		if err != nil {
			return nil, err
		}
		tokens = listed
	} else {
		for _, sh := range []domain.Shift{domain.ShiftMorning, domain.ShiftEvening} {
			listed, err := s.tokens.ListForDay(ctx, day, sh, repository.TokenFilter{})
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, listed...)
		}
	}
	domain.OrderTokens(tokens)

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, err
	}

	view := &DashboardView{Tokens: tokens, Config: cfg}
	for i := range tokens {
		view.Stats.Total++
		switch tokens[i].Status {
		case domain.TokenStatusPending:
			view.Stats.Pending++
		case domain.TokenStatusServing:
			view.Stats.Serving++
			view.CurrentServing = &tokens[i]
		case domain.TokenStatusCompleted:
			view.Stats.Completed++
		case domain.TokenStatusMissed:
			view.Stats.Missed++
		}
		if tokens[i].IsEmergency {
			view.Stats.Emergency++
		}
	}
	return view, nil
}
