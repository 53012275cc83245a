package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/events"
	"github.com/Ankita19Rathore/QUEUEASE/internal/repository"
)

// memoryLedger implements repository.TokenRepository with the same conflict
// semantics the Postgres unique indexes provide, so the services exercise
// their retry paths exactly as they would in production.
type memoryLedger struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
	seq    int
	base   time.Time
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		tokens: make(map[string]*domain.Token),
		base:   time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local),
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (m *memoryLedger) Create(_ context.Context, token *domain.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tokens {
		if !sameDay(existing.Day, token.Day) {
			continue
		}
		if existing.Shift == token.Shift && existing.IsEmergency == token.IsEmergency &&
			existing.SequenceNumber == token.SequenceNumber {
			return repository.ErrSequenceConflict
		}
		if existing.PatientID == token.PatientID && existing.Shift == token.Shift {
			return repository.ErrPatientHasToken
		}
		if existing.PatientID == token.PatientID && existing.IsEmergency && token.IsEmergency {
			return repository.ErrEmergencyExists
		}
	}
	m.seq++
	token.ID = uuid.NewString()
	token.CreatedAt = m.base.Add(time.Duration(m.seq) * time.Millisecond)
	clone := *token
	m.tokens[token.ID] = &clone
	return nil
}

func (m *memoryLedger) GetByID(_ context.Context, id string) (*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *token
	return &clone, nil
}

func (m *memoryLedger) ListForDay(_ context.Context, day time.Time, shift domain.Shift, filter repository.TokenFilter) ([]domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Token
	for _, token := range m.tokens {
		if !sameDay(token.Day, day) || token.Shift != shift {
			continue
		}
		if filter.IsEmergency != nil && token.IsEmergency != *filter.IsEmergency {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if token.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, *token)
	}
	return result, nil
}

func (m *memoryLedger) ListForPatientDay(_ context.Context, patientID string, day time.Time) ([]domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Token
	for _, token := range m.tokens {
		if token.PatientID == patientID && sameDay(token.Day, day) {
			result = append(result, *token)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *memoryLedger) FindPatientToken(_ context.Context, patientID string, day time.Time, shift domain.Shift) (*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.tokens {
		if token.PatientID == patientID && sameDay(token.Day, day) && token.Shift == shift {
			clone := *token
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memoryLedger) FindPatientEmergency(_ context.Context, patientID string, day time.Time) (*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.tokens {
		if token.PatientID == patientID && sameDay(token.Day, day) && token.IsEmergency {
			clone := *token
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memoryLedger) CountPartition(_ context.Context, day time.Time, shift domain.Shift, isEmergency bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, token := range m.tokens {
		if sameDay(token.Day, day) && token.Shift == shift && token.IsEmergency == isEmergency {
			count++
		}
	}
	return count, nil
}

func (m *memoryLedger) MarkServing(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[id]
	if !ok || token.Status != domain.TokenStatusPending {
		return repository.ErrStatusConflict
	}
	for _, other := range m.tokens {
		if other.ID != id && sameDay(other.Day, token.Day) && other.Shift == token.Shift &&
			other.Status == domain.TokenStatusServing {
			return repository.ErrServingExists
		}
	}
	token.Status = domain.TokenStatusServing
	return nil
}

func (m *memoryLedger) MarkCompleted(_ context.Context, id string, servedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[id]
	if !ok {
		return repository.ErrStatusConflict
	}
	if token.Status != domain.TokenStatusPending && token.Status != domain.TokenStatusServing {
		return repository.ErrStatusConflict
	}
	token.Status = domain.TokenStatusCompleted
	token.ServedAt = &servedAt
	return nil
}

func (m *memoryLedger) MarkMissed(_ context.Context, ids []string, missedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		token, ok := m.tokens[id]
		if !ok || token.Status != domain.TokenStatusPending {
			continue
		}
		token.Status = domain.TokenStatusMissed
		token.MissedAt = &missedAt
	}
	return nil
}

// snapshot returns copies of all stored tokens for assertions.
func (m *memoryLedger) snapshot() []domain.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Token, 0, len(m.tokens))
	for _, token := range m.tokens {
		result = append(result, *token)
	}
	return result
}

// memoryConfig implements repository.ConfigRepository.
type memoryConfig struct {
	mu  sync.Mutex
	cfg *domain.QueueConfig
}

func newMemoryConfig() *memoryConfig {
	return &memoryConfig{}
}

func (m *memoryConfig) ensure() *domain.QueueConfig {
	if m.cfg == nil {
		m.cfg = &domain.QueueConfig{
			MaxTokensMorning: domain.DefaultMaxTokens,
			MaxTokensEvening: domain.DefaultMaxTokens,
			LastUpdated:      time.Now(),
		}
	}
	return m.cfg
}

func (m *memoryConfig) Get(_ context.Context) (*domain.QueueConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *m.ensure()
	return &clone, nil
}

func (m *memoryConfig) SetCapacity(_ context.Context, shift domain.Shift, value int) (*domain.QueueConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.ensure()
	if shift == domain.ShiftEvening {
		cfg.MaxTokensEvening = value
	} else {
		cfg.MaxTokensMorning = value
	}
	cfg.LastUpdated = time.Now()
	clone := *cfg
	return &clone, nil
}

func (m *memoryConfig) TogglePause(_ context.Context) (*domain.QueueConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.ensure()
	cfg.IsPaused = !cfg.IsPaused
	cfg.LastUpdated = time.Now()
	clone := *cfg
	return &clone, nil
}

func (m *memoryConfig) SetCurrentToken(_ context.Context, tokenID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.ensure()
	cfg.CurrentTokenID = tokenID
	cfg.LastUpdated = time.Now()
	return nil
}

// captureDispatcher records published events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

func (d *captureDispatcher) typesSeen() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		types = append(types, event.Type)
	}
	return types
}
