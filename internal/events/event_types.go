package events

import (
	"time"

	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTokenIssued          EventType = "token_issued"
	EventTokenCompleted       EventType = "token_completed"
	EventQueueAdvanced        EventType = "queue_advanced"
	EventQueueSnapshotChanged EventType = "queue_snapshot_changed"
	EventConfigurationChanged EventType = "configuration_changed"
	EventPauseStateChanged    EventType = "pause_state_changed"
)

// Event is a plain data record emitted by the queue engine. Delivery and
// fan-out are the notification transport's responsibility; the engine does
// not retry or guarantee it.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	Shift     domain.Shift `json:"shift,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// TokenRef is the minimal token projection carried in payloads.
type TokenRef struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	IsEmergency bool   `json:"is_emergency"`
}

// Ref projects a token for event payloads.
func Ref(t *domain.Token) *TokenRef {
	if t == nil {
		return nil
	}
	return &TokenRef{ID: t.ID, Number: t.DisplayNumber(), IsEmergency: t.IsEmergency}
}

// TokenIssuedPayload payload.
type TokenIssuedPayload struct {
	Token     TokenRef `json:"token"`
	PatientID string   `json:"patient_id"`
}

// TokenCompletedPayload payload.
type TokenCompletedPayload struct {
	Completed   TokenRef  `json:"completed"`
	Promoted    *TokenRef `json:"promoted,omitempty"`
	MissedCount int       `json:"missed_count"`
}

// QueueAdvancedPayload payload.
type QueueAdvancedPayload struct {
	Serving *TokenRef `json:"serving"`
}

// QueueSnapshotChangedPayload payload.
type QueueSnapshotChangedPayload struct {
	TotalTokens int       `json:"total_tokens"`
	Serving     *TokenRef `json:"serving,omitempty"`
}

// ConfigurationChangedPayload payload.
type ConfigurationChangedPayload struct {
	MaxTokensMorning int `json:"max_tokens_morning"`
	MaxTokensEvening int `json:"max_tokens_evening"`
}

// PauseStateChangedPayload payload.
type PauseStateChangedPayload struct {
	IsPaused bool   `json:"is_paused"`
	Message  string `json:"message"`
}
