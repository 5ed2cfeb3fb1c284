package http

import (
	"errors"
	"net/mail"
	"strings"
)

// Request DTOs are validated before any domain logic runs; validation
// failures map to 400 at the controller.

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type LoginRequest struct {
	Email string `json:"email"`
}

func (r *LoginRequest) Validate() error {
	return validateEmail(r.Email)
}

type TokenRequest struct {
	AuthCode int64  `json:"auth_code"`
	Email    string `json:"email"`
}

func (r *TokenRequest) Validate() error {
	if r.AuthCode < 1_000_000_000 || r.AuthCode > 9_999_999_999 {
		return errors.New("auth_code must contain 10 digits")
	}
	return validateEmail(r.Email)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshRequest) Validate() error {
	return validateRefreshToken(r.RefreshToken)
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *LogoutRequest) Validate() error {
	return validateRefreshToken(r.RefreshToken)
}

type ConfirmRequest struct {
	ConfirmCode string `json:"confirm_code"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

func (r *ConfirmRequest) Validate() error {
	if len(r.ConfirmCode) != 32 {
		return errors.New("confirm_code must contain 32 characters")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type RequestConfirmRequest struct {
	Email string `json:"email"`
}

func (r *RequestConfirmRequest) Validate() error {
	return validateEmail(r.Email)
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email is not a valid address")
	}
	return nil
}

func validateRefreshToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("refresh_token is required")
	}
	if len(token) < 20 {
		return errors.New("refresh_token is too short")
	}
	return nil
}
