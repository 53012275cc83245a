package handlers

import (
	"github.com/Ankita19Rathore/QUEUEASE/internal/api/dto"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/service"
)

const dayFormat = "2006-01-02"

func tokenResponse(t *domain.Token) *dto.TokenResponse {
	if t == nil {
		return nil
	}
	return &dto.TokenResponse{
		ID:          t.ID,
		TokenNumber: t.DisplayNumber(),
		Shift:       string(t.Shift),
		Date:        t.Day.Format(dayFormat),
		Status:      string(t.Status),
		IsEmergency: t.IsEmergency,
		CreatedAt:   t.CreatedAt,
		ServedAt:    t.ServedAt,
		MissedAt:    t.MissedAt,
	}
}

func tokenResponses(tokens []domain.Token) []dto.TokenResponse {
	items := make([]dto.TokenResponse, 0, len(tokens))
	for i := range tokens {
		items = append(items, *tokenResponse(&tokens[i]))
	}
	return items
}

func queueStatusResponse(snapshot *service.QueueSnapshot) *dto.QueueStatusResponse {
	if snapshot == nil {
		return nil
	}
	resp := &dto.QueueStatusResponse{
		TotalTokens:     snapshot.TotalTokens,
		WaitingPosition: snapshot.WaitingPosition,
		EstimatedWait:   snapshot.EstimatedWait,
	}
	if snapshot.CurrentServing != nil {
		resp.CurrentServing = &dto.ServingResponse{
			TokenNumber: snapshot.CurrentServing.DisplayNumber(),
			IsEmergency: snapshot.CurrentServing.IsEmergency,
		}
	}
	return resp
}

func configResponse(cfg *domain.QueueConfig) dto.QueueConfigResponse {
	return dto.QueueConfigResponse{
		MaxTokensMorning: cfg.MaxTokensMorning,
		MaxTokensEvening: cfg.MaxTokensEvening,
		IsPaused:         cfg.IsPaused,
		CurrentTokenID:   cfg.CurrentTokenID,
		LastUpdated:      cfg.LastUpdated,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  string(u.Role),
	}
}
