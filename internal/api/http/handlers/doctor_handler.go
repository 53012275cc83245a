package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ankita19Rathore/QUEUEASE/internal/api/dto"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/service"
	apperrors "github.com/Ankita19Rathore/QUEUEASE/pkg/util"
)

// DoctorHandler manages the doctor's queue operation endpoints.
type DoctorHandler struct {
	lifecycle *service.LifecycleService
	status    *service.StatusService
	config    *service.QueueConfigService
}

// NewDoctorHandler constructs handler.
func NewDoctorHandler(lifecycle *service.LifecycleService, status *service.StatusService, config *service.QueueConfigService) *DoctorHandler {
	return &DoctorHandler{lifecycle: lifecycle, status: status, config: config}
}

// Dashboard GET /api/doctor/dashboard.
func (h *DoctorHandler) Dashboard(c *fiber.Ctx) error {
	var shift *domain.Shift
	if raw := strings.TrimSpace(c.Query("shift")); raw != "" {
		parsed := domain.Shift(raw)
		if !parsed.Valid() {
			return apperrors.NewValidationError("valid shift (morning/evening) is required", nil)
		}
		shift = &parsed
	}

	view, err := h.status.Dashboard(c.UserContext(), shift)
	if err != nil {
		return err
	}
	return c.JSON(dto.DashboardResponse{
		Tokens:         tokenResponses(view.Tokens),
		Config:         configResponse(view.Config),
		CurrentServing: tokenResponse(view.CurrentServing),
		Stats: dto.DashboardStatsResponse{
			Total:     view.Stats.Total,
			Pending:   view.Stats.Pending,
			Serving:   view.Stats.Serving,
			Completed: view.Stats.Completed,
			Missed:    view.Stats.Missed,
			Emergency: view.Stats.Emergency,
		},
	})
}

// Complete POST /api/doctor/complete.
func (h *DoctorHandler) Complete(c *fiber.Ctx) error {
	var req dto.CompleteTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TokenID) == "" {
		return apperrors.NewValidationError("token_id is required", nil)
	}

	result, err := h.lifecycle.CompleteCurrent(c.UserContext(), req.TokenID)
	if err != nil {
		return err
	}
	return c.JSON(dto.CompleteTokenResponse{
		Message:   "Token marked as completed",
		Token:     *tokenResponse(result.Completed),
		NextToken: tokenResponse(result.Promoted),
		Missed:    tokenResponses(result.Missed),
	})
}

// TogglePause POST /api/doctor/pause.
func (h *DoctorHandler) TogglePause(c *fiber.Ctx) error {
	cfg, err := h.config.TogglePause(c.UserContext())
	if err != nil {
		return err
	}
	message := "Checkups resumed"
	if cfg.IsPaused {
		message = "Checkups paused"
	}
	return c.JSON(dto.PauseResponse{Message: message, IsPaused: cfg.IsPaused})
}

// UpdateConfig PUT /api/doctor/config.
func (h *DoctorHandler) UpdateConfig(c *fiber.Ctx) error {
	var req dto.UpdateConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	cfg, err := h.config.UpdateCapacities(c.UserContext(), service.CapacityUpdate{
		MaxTokensMorning: req.MaxTokensMorning,
		MaxTokensEvening: req.MaxTokensEvening,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Configuration updated",
		"config":  configResponse(cfg),
	})
}
