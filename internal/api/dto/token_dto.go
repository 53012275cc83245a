package dto

import "time"

// GenerateTokenRequest is the patient's issuance payload.
type GenerateTokenRequest struct {
	Shift       string `json:"shift"`
	IsEmergency bool   `json:"is_emergency"`
}

// TokenResponse is the public projection of a token.
type TokenResponse struct {
	ID          string     `json:"id"`
	TokenNumber string     `json:"token_number"`
	Shift       string     `json:"shift"`
	Date        string     `json:"date"`
	Status      string     `json:"status"`
	IsEmergency bool       `json:"is_emergency"`
	CreatedAt   time.Time  `json:"created_at"`
	ServedAt    *time.Time `json:"served_at,omitempty"`
	MissedAt    *time.Time `json:"missed_at,omitempty"`
}

// ServingResponse identifies the token at the head of the queue.
type ServingResponse struct {
	TokenNumber string `json:"token_number"`
	IsEmergency bool   `json:"is_emergency"`
}

// QueueStatusResponse is the public queue view for a shift.
type QueueStatusResponse struct {
	CurrentServing  *ServingResponse `json:"current_serving"`
	TotalTokens     int              `json:"total_tokens"`
	WaitingPosition *int             `json:"waiting_position,omitempty"`
	EstimatedWait   string           `json:"estimated_wait,omitempty"`
}

// MyTokenResponse pairs the patient's token with its queue context.
type MyTokenResponse struct {
	Token       *TokenResponse       `json:"token"`
	QueueStatus *QueueStatusResponse `json:"queue_status"`
}

// IssueTokenResponse reports a successful issuance.
type IssueTokenResponse struct {
	Message string        `json:"message"`
	Token   TokenResponse `json:"token"`
}
