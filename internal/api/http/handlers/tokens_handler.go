package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ankita19Rathore/QUEUEASE/internal/api/dto"
	"github.com/Ankita19Rathore/QUEUEASE/internal/auth"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/service"
	apperrors "github.com/Ankita19Rathore/QUEUEASE/pkg/util"
)

// TokensHandler manages patient-facing token endpoints.
type TokensHandler struct {
	allocation *service.AllocationService
	status     *service.StatusService
}

// NewTokensHandler constructs handler.
func NewTokensHandler(allocation *service.AllocationService, status *service.StatusService) *TokensHandler {
	return &TokensHandler{allocation: allocation, status: status}
}

// Generate POST /api/tokens.
func (h *TokensHandler) Generate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("patient required")
	}
	var req dto.GenerateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.allocation.IssueToken(c.UserContext(), principal.User.ID, domain.Shift(req.Shift), req.IsEmergency)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.IssueTokenResponse{
		Message: "Token generated successfully",
		Token:   *tokenResponse(result.Token),
	})
}

// MyToken GET /api/tokens/mine.
func (h *TokensHandler) MyToken(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("patient required")
	}
	view, err := h.status.MyToken(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.MyTokenResponse{
		Token:       tokenResponse(view.Token),
		QueueStatus: queueStatusResponse(view.Snapshot),
	})
}

// QueueStatus GET /api/tokens/status. Public, no authentication.
func (h *TokensHandler) QueueStatus(c *fiber.Ctx) error {
	shift := domain.Shift(c.Query("shift"))
	if !shift.Valid() {
		return apperrors.NewValidationError("valid shift (morning/evening) is required", nil)
	}
	snapshot, err := h.status.Snapshot(c.UserContext(), shift, nil)
	if err != nil {
		return err
	}
	return c.JSON(queueStatusResponse(snapshot))
}
