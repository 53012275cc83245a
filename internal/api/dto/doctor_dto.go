package dto

import "time"

// CompleteTokenRequest identifies the token the doctor finished serving.
type CompleteTokenRequest struct {
	TokenID string `json:"token_id"`
}

// UpdateConfigRequest carries new capacity limits; omitted fields are untouched.
type UpdateConfigRequest struct {
	MaxTokensMorning *int `json:"max_tokens_morning"`
	MaxTokensEvening *int `json:"max_tokens_evening"`
}

// QueueConfigResponse is the doctor-facing configuration view.
type QueueConfigResponse struct {
	MaxTokensMorning int       `json:"max_tokens_morning"`
	MaxTokensEvening int       `json:"max_tokens_evening"`
	IsPaused         bool      `json:"is_paused"`
	CurrentTokenID   *string   `json:"current_token_id"`
	LastUpdated      time.Time `json:"last_updated"`
}

// DashboardStatsResponse aggregates token counts for a day.
type DashboardStatsResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Serving   int `json:"serving"`
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
	Emergency int `json:"emergency"`
}

// DashboardResponse is the doctor's operational queue view.
type DashboardResponse struct {
	Tokens         []TokenResponse        `json:"tokens"`
	Config         QueueConfigResponse    `json:"config"`
	CurrentServing *TokenResponse         `json:"current_serving"`
	Stats          DashboardStatsResponse `json:"stats"`
}

// CompleteTokenResponse reports the full outcome of a completion.
type CompleteTokenResponse struct {
	Message   string          `json:"message"`
	Token     TokenResponse   `json:"token"`
	NextToken *TokenResponse  `json:"next_token"`
	Missed    []TokenResponse `json:"missed_tokens"`
}

// PauseResponse reports the new pause state.
type PauseResponse struct {
	Message  string `json:"message"`
	IsPaused bool   `json:"is_paused"`
}
