package dto

import "time"

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the sanitized user, the bearer token and its expiry.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// TwoFactorVerifyRequest carries a TOTP code.
type TwoFactorVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFactorSetupResponse returns the enrollment material.
type TwoFactorSetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qrCode"`
}
