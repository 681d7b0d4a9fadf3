package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exeat-service/internal/api/dto"
	"github.com/spec-kit/exeat-service/internal/service"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

// AuthHandler serves login and two-factor enrollment endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	twoFactor *service.TwoFactorService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, twoFactor *service.TwoFactorService) *AuthHandler {
	return &AuthHandler{auth: authService, twoFactor: twoFactor}
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, expiresAt, err := h.auth.Login(c.UserContext(), strings.TrimSpace(req.Email), req.Password, c.IP())
	if err != nil {
		return err
	}
	return success(c, dto.LoginResponse{
		User:      userResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// TwoFactorSetup POST /api/admin/2fa/setup.
func (h *AuthHandler) TwoFactorSetup(c *fiber.Ctx) error {
	user, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	setup, err := h.twoFactor.Setup(c.UserContext(), user)
	if err != nil {
		return err
	}
	return success(c, dto.TwoFactorSetupResponse{Secret: setup.Secret, QRCode: setup.QRCode})
}

// TwoFactorVerify POST /api/admin/2fa/verify.
func (h *AuthHandler) TwoFactorVerify(c *fiber.Ctx) error {
	user, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TwoFactorVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.twoFactor.Verify(c.UserContext(), user, req.Code, c.IP()); err != nil {
		return err
	}
	return successMessage(c, "two-factor authentication enabled")
}

// TwoFactorDisable POST /api/admin/2fa/disable.
func (h *AuthHandler) TwoFactorDisable(c *fiber.Ctx) error {
	user, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.twoFactor.Disable(c.UserContext(), user, c.IP()); err != nil {
		return err
	}
	return successMessage(c, "two-factor authentication disabled")
}
