package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/damage-service/internal/api/dto"
	"github.com/roadwatch/damage-service/internal/service"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

// UsersHandler exposes registration, login and token verification.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /api/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.FullName == "" {
		return apperrors.NewValidationError("username, email, password, full_name required", nil)
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"user_id": user.ID},
	})
}

// Login handles POST /api/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	user, session, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
			User:      user.Profile(),
		},
	})
}

// Verify handles POST /api/verify.
func (h *UsersHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewAuthMissing("no token provided")
	}

	user, err := h.auth.Verify(c.UserContext(), req.Token)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"user": user.Profile()}})
}
