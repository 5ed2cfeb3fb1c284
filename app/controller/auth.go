package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	dto "github.com/vibast-solutions/ms-go-shop-auth/app/dto/http"
	"github.com/vibast-solutions/ms-go-shop-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-shop-auth/app/service"
	"github.com/vibast-solutions/ms-go-shop-auth/app/token"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Register(ctx echo.Context) error {
	var req dto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	result, err := c.authService.Register(ctx.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Register failed: user already exists")
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "user already exists"})
		}
		if errors.Is(err, service.ErrInvalidUsername) || errors.Is(err, service.ErrWeakPassword) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrDeliveryFailed) {
			logrus.WithError(err).WithField("email", req.Email).Error("Register failed: confirm email not delivered")
			return ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "confirmation email could not be delivered"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": result.User.ID,
		"email":   result.User.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, dto.RegisterResponse{
		UserID:   result.User.ID,
		Username: result.User.Username,
		Email:    result.User.Email,
		Message:  "registration successful, a confirmation code was sent to your email",
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Login code requested")
	if err := c.authService.RequestLoginCode(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		if errors.Is(err, service.ErrAccountInactive) {
			logrus.WithField("email", req.Email).Warn("Login failed: account inactive")
			return ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "activate your account"})
		}
		if errors.Is(err, service.ErrCodeAlreadyIssued) {
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "code already issued"})
		}
		if errors.Is(err, service.ErrDeliveryFailed) {
			logrus.WithError(err).WithField("email", req.Email).Error("Login failed: code not delivered")
			return ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "login code could not be delivered"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "a login code was sent to your email"})
}

func (c *AuthController) Token(ctx echo.Context) error {
	var req dto.TokenRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	pair, err := c.authService.ExchangeAuthCode(ctx.Request().Context(), req.AuthCode, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			logrus.WithField("email", req.Email).Warn("Token exchange failed: code not found")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "auth code not found"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Token exchange failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Token pair issued")
	return ctx.JSON(http.StatusOK, dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (c *AuthController) Refresh(ctx echo.Context) error {
	var req dto.RefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	pair, err := c.authService.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrTokenBlacklisted) {
			logrus.Warn("Refresh failed: token blacklisted")
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "refresh_token blacklisted"})
		}
		if errors.Is(err, token.ErrExpired) || errors.Is(err, token.ErrInvalid) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired refresh token"})
		}
		logrus.WithError(err).Error("Refresh failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	var req dto.LogoutRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err := c.authService.Logout(ctx.Request().Context(), req.RefreshToken); err != nil {
		logrus.WithError(err).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out successfully"})
}

func (c *AuthController) Confirm(ctx echo.Context) error {
	var req dto.ConfirmRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	err := c.authService.ConfirmAccount(ctx.Request().Context(), req.ConfirmCode, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Confirm failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		}
		if errors.Is(err, service.ErrCodeNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "confirm code not found"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Confirm failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Account confirmed")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "account confirmed successfully"})
}

func (c *AuthController) RequestConfirm(ctx echo.Context) error {
	var req dto.RequestConfirmRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err := c.authService.RequestConfirmCode(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		if errors.Is(err, service.ErrAccountAlreadyConfirmed) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "account is already confirmed"})
		}
		if errors.Is(err, service.ErrCodeAlreadyIssued) {
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "code already issued"})
		}
		if errors.Is(err, service.ErrDeliveryFailed) {
			logrus.WithError(err).WithField("email", req.Email).Error("Request confirm failed: code not delivered")
			return ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "confirmation email could not be delivered"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Request confirm failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "a confirmation code was sent to your email"})
}

func (c *AuthController) Me(ctx echo.Context) error {
	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	return ctx.JSON(http.StatusOK, dto.MeResponse{
		Username: identity.Username,
		Email:    identity.Email,
	})
}
