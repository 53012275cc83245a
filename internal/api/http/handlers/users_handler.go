package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ankita19Rathore/QUEUEASE/internal/api/dto"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
	"github.com/Ankita19Rathore/QUEUEASE/internal/service"
	apperrors "github.com/Ankita19Rathore/QUEUEASE/pkg/util"
)

// UsersHandler manages registration and login.
type UsersHandler struct {
	authService *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{authService: authService}
}

// Register POST /api/auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, token, expiresAt, err := h.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{
		User:      userResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Login POST /api/auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, expiresAt, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{
		User:      userResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
