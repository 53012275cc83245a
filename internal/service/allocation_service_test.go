package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Ankita19Rathore/QUEUEASE/internal/clock"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/events"
	apperrors "github.com/Ankita19Rathore/QUEUEASE/pkg/util"
)

var testDay = time.Date(2026, 9, 1, 10, 30, 0, 0, time.Local)

type fixture struct {
	ledger     *memoryLedger
	configs    *memoryConfig
	dispatcher *captureDispatcher
	allocation *AllocationService
	lifecycle  *LifecycleService
	status     *StatusService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledger := newMemoryLedger()
	configs := newMemoryConfig()
	dispatcher := &captureDispatcher{}
	fixed := clock.Fixed{T: testDay}
	return &fixture{
		ledger:     ledger,
		configs:    configs,
		dispatcher: dispatcher,
		allocation: NewAllocationService(AllocationDependencies{
			TokenRepo:  ledger,
			ConfigRepo: configs,
			Dispatcher: dispatcher,
			Clock:      fixed,
			Retries:    30,
		}),
		lifecycle: NewLifecycleService(LifecycleDependencies{
			TokenRepo:  ledger,
			ConfigRepo: configs,
			Dispatcher: dispatcher,
			Clock:      fixed,
		}),
		status: NewStatusService(StatusDependencies{
			TokenRepo:         ledger,
			ConfigRepo:        configs,
			Clock:             fixed,
			AvgServiceMinutes: 5,
		}),
	}
}

func TestIssueToken_FirstTokenIsPromoted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if result.Token.DisplayNumber() != "1" {
		t.Errorf("display number = %q, want %q", result.Token.DisplayNumber(), "1")
	}
	if result.Promoted == nil || result.Promoted.ID != result.Token.ID {
		t.Fatalf("first token should be auto-promoted to serving")
	}

	stored, err := f.ledger.GetByID(ctx, result.Token.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.TokenStatusServing {
		t.Errorf("status = %s, want serving", stored.Status)
	}

	cfg, _ := f.configs.Get(ctx)
	if cfg.CurrentTokenID == nil || *cfg.CurrentTokenID != result.Token.ID {
		t.Errorf("config current token not updated")
	}
}

func TestIssueToken_SecondTokenStaysPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	result, err := f.allocation.IssueToken(ctx, "patient-b", domain.ShiftMorning, false)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if result.Token.DisplayNumber() != "2" {
		t.Errorf("display number = %q, want %q", result.Token.DisplayNumber(), "2")
	}
	if result.Promoted != nil {
		t.Errorf("second token should not trigger a promotion")
	}
	stored, _ := f.ledger.GetByID(ctx, result.Token.ID)
	if stored.Status != domain.TokenStatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
}

func TestIssueToken_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	_, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false)
	if !apperrors.HasCode(err, apperrors.CodeDuplicateToken) {
		t.Fatalf("err = %v, want DUPLICATE_TOKEN", err)
	}

	// Same patient may still draw for the other shift.
	if _, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftEvening, false); err != nil {
		t.Fatalf("evening issue: %v", err)
	}
}

func TestIssueToken_NoReissueAfterMissed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false); err != nil {
		t.Fatalf("issue a: %v", err)
	}
	// The second token stays pending and can be marked missed.
	second, err := f.allocation.IssueToken(ctx, "patient-b", domain.ShiftMorning, false)
	if err != nil {
		t.Fatalf("issue b: %v", err)
	}
	if err := f.ledger.MarkMissed(ctx, []string{second.Token.ID}, testDay); err != nil {
		t.Fatalf("mark missed: %v", err)
	}

	_, err = f.allocation.IssueToken(ctx, "patient-b", domain.ShiftMorning, false)
	if !apperrors.HasCode(err, apperrors.CodeMissedToken) {
		t.Fatalf("err = %v, want MISSED_TOKEN", err)
	}
}

func TestIssueToken_EmergencyNumberingIsIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false); err != nil {
		t.Fatalf("regular issue: %v", err)
	}
	result, err := f.allocation.IssueToken(ctx, "patient-b", domain.ShiftMorning, true)
	if err != nil {
		t.Fatalf("emergency issue: %v", err)
	}
	if result.Token.DisplayNumber() != "E-1" {
		t.Errorf("display number = %q, want %q", result.Token.DisplayNumber(), "E-1")
	}
}

func TestIssueToken_SecondEmergencySameDayRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, true); err != nil {
		t.Fatalf("first emergency: %v", err)
	}
	// Other shift, same day: still rejected.
	_, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftEvening, true)
	if !apperrors.HasCode(err, apperrors.CodeDuplicateEmergency) {
		t.Fatalf("err = %v, want DUPLICATE_EMERGENCY", err)
	}
}

func TestIssueToken_CapacityEnforcedAndRaisable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.configs.SetCapacity(ctx, domain.ShiftMorning, 2); err != nil {
		t.Fatalf("set capacity: %v", err)
	}
	for i := 0; i < 2; i++ {
		patient := fmt.Sprintf("patient-%d", i)
		if _, err := f.allocation.IssueToken(ctx, patient, domain.ShiftMorning, false); err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
	}

	_, err := f.allocation.IssueToken(ctx, "patient-c", domain.ShiftMorning, false)
	if !apperrors.HasCode(err, apperrors.CodeCapacityExceeded) {
		t.Fatalf("err = %v, want CAPACITY_EXCEEDED", err)
	}

	// Emergency tokens are not capacity-bound.
	if _, err := f.allocation.IssueToken(ctx, "patient-c", domain.ShiftMorning, true); err != nil {
		t.Fatalf("emergency above capacity: %v", err)
	}

	// Raising the cap immediately admits the next patient.
	if _, err := f.configs.SetCapacity(ctx, domain.ShiftMorning, 3); err != nil {
		t.Fatalf("raise capacity: %v", err)
	}
	if _, err := f.allocation.IssueToken(ctx, "patient-d", domain.ShiftMorning, false); err != nil {
		t.Fatalf("issue after raise: %v", err)
	}
}

func TestIssueToken_ConcurrentAllocationsAreDense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const patients = 25

	var wg sync.WaitGroup
	errs := make([]error, patients)
	for i := 0; i < patients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			patient := fmt.Sprintf("patient-%d", i)
			_, errs[i] = f.allocation.IssueToken(ctx, patient, domain.ShiftMorning, false)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
	}

	seen := make(map[int]bool)
	serving := 0
	for _, token := range f.ledger.snapshot() {
		if seen[token.SequenceNumber] {
			t.Errorf("duplicate sequence number %d", token.SequenceNumber)
		}
		seen[token.SequenceNumber] = true
		if token.Status == domain.TokenStatusServing {
			serving++
		}
	}
	for n := 1; n <= patients; n++ {
		if !seen[n] {
			t.Errorf("sequence gap: missing %d", n)
		}
	}
	if serving != 1 {
		t.Errorf("serving count = %d, want exactly 1", serving)
	}
}

func TestIssueToken_EmitsEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false); err != nil {
		t.Fatalf("issue: %v", err)
	}
	types := f.dispatcher.typesSeen()
	if len(types) != 2 || types[0] != events.EventTokenIssued || types[1] != events.EventQueueAdvanced {
		t.Errorf("events = %v, want [token_issued queue_advanced]", types)
	}
}

// faultyConfig injects a SetCurrentToken failure to exercise the path
// where the token insert committed but the promotion step did not.
type faultyConfig struct {
	*memoryConfig
	setCurrentErr error
}

func (f *faultyConfig) SetCurrentToken(ctx context.Context, tokenID *string) error {
	if f.setCurrentErr != nil {
		return f.setCurrentErr
	}
	return f.memoryConfig.SetCurrentToken(ctx, tokenID)
}

func TestIssueToken_PromotionFailureLeavesTokenRecoverable(t *testing.T) {
	ledger := newMemoryLedger()
	configs := &faultyConfig{memoryConfig: newMemoryConfig(), setCurrentErr: errors.New("connection reset")}
	allocation := NewAllocationService(AllocationDependencies{
		TokenRepo:  ledger,
		ConfigRepo: configs,
		Clock:      clock.Fixed{T: testDay},
	})
	ctx := context.Background()

	if _, err := allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false); err == nil {
		t.Fatalf("expected the promotion failure to surface")
	}
	if len(ledger.snapshot()) != 1 {
		t.Fatalf("token count = %d, want the insert to have committed", len(ledger.snapshot()))
	}

	// The client's retry is rejected with the token it already holds.
	configs.setCurrentErr = nil
	_, err := allocation.IssueToken(ctx, "patient-a", domain.ShiftMorning, false)
	if !apperrors.HasCode(err, apperrors.CodeDuplicateToken) {
		t.Fatalf("err = %v, want DUPLICATE_TOKEN on retry", err)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Details["token_number"] != "1" {
		t.Errorf("details = %+v, want token_number %q", domainErr.Details, "1")
	}

	// Only the pointer write was lost; the promotion itself committed.
	stored := ledger.snapshot()[0]
	if stored.Status != domain.TokenStatusServing {
		t.Fatalf("status = %s, want serving despite the surfaced error", stored.Status)
	}

	// Completing the token runs the advance, which repairs the pointer.
	lifecycle := NewLifecycleService(LifecycleDependencies{
		TokenRepo:  ledger,
		ConfigRepo: configs,
		Clock:      clock.Fixed{T: testDay},
	})
	if _, err := lifecycle.CompleteCurrent(ctx, stored.ID); err != nil {
		t.Fatalf("CompleteCurrent: %v", err)
	}
	cfg, _ := configs.Get(ctx)
	if cfg.CurrentTokenID != nil {
		t.Errorf("current token = %v, want cleared on drained queue", *cfg.CurrentTokenID)
	}
}

func TestIssueToken_InvalidShift(t *testing.T) {
	f := newFixture(t)
	_, err := f.allocation.IssueToken(context.Background(), "patient-a", domain.Shift("night"), false)
	if !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}
