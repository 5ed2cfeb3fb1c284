package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibast-solutions/ms-go-shop-auth/app/dto"
	"github.com/vibast-solutions/ms-go-shop-auth/app/entity"
	"github.com/vibast-solutions/ms-go-shop-auth/app/mailer"
	"github.com/vibast-solutions/ms-go-shop-auth/app/repository"
	"github.com/vibast-solutions/ms-go-shop-auth/app/token"
	"github.com/vibast-solutions/ms-go-shop-auth/config"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserExists              = errors.New("user already exists")
	ErrAccountInactive         = errors.New("account is not activated")
	ErrAccountAlreadyConfirmed = errors.New("account is already confirmed")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidUsername         = errors.New("username may contain only latin letters")
	ErrWeakPassword            = errors.New("password does not meet policy requirements")
	ErrCodeAlreadyIssued       = errors.New("code already issued")
	ErrCodeNotFound            = errors.New("code not found")
	ErrTokenBlacklisted        = errors.New("refresh token is blacklisted")
	ErrDeliveryFailed          = errors.New("email delivery failed")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z]+$`)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}

type authCodeRepository interface {
	Create(ctx context.Context, code *entity.AuthCode) error
	DeleteByUserID(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

type confirmCodeRepository interface {
	Create(ctx context.Context, code *entity.ConfirmCode) error
	DeleteByUserID(ctx context.Context, userID uint64) error
}

type revocationList interface {
	Revoke(ctx context.Context, refreshToken string) error
	IsRevoked(ctx context.Context, refreshToken string) (bool, error)
}

// AuthService drives the login/confirm/refresh/logout state machine. All
// cross-request state lives in MySQL rows and the Redis revocation list;
// nothing is cached in memory between requests.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*dto.RegisterResult, error)
	RequestLoginCode(ctx context.Context, email string) error
	ExchangeAuthCode(ctx context.Context, code int64, email string) (*dto.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ConfirmAccount(ctx context.Context, confirmCode, email, password string) error
	RequestConfirmCode(ctx context.Context, email string) error
	ValidateAccessToken(tokenString string) (*token.Claims, error)
}

type authService struct {
	db           *sql.DB
	userRepo     userRepository
	authCodes    authCodeRepository
	confirmCodes confirmCodeRepository
	codec        *token.Codec
	blacklist    revocationList
	sender       mailer.Sender
	cfg          *config.Config
}

func NewAuthService(
	db *sql.DB,
	userRepo userRepository,
	authCodes authCodeRepository,
	confirmCodes confirmCodeRepository,
	codec *token.Codec,
	blacklist revocationList,
	sender mailer.Sender,
	cfg *config.Config,
) AuthService {
	return &authService{
		db:           db,
		userRepo:     userRepo,
		authCodes:    authCodes,
		confirmCodes: confirmCodes,
		codec:        codec,
		blacklist:    blacklist,
		sender:       sender,
		cfg:          cfg,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*dto.RegisterResult, error) {
	email = NormalizeEmail(email)

	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if err := s.cfg.PasswordPolicy.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	existing, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
		IsConfirmed:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	// The user row survives a delivery failure; only the confirm code is
	// compensated. A fresh code can be requested later.
	if err = s.issueAndSendConfirmCode(ctx, user); err != nil {
		return nil, err
	}

	return &dto.RegisterResult{User: user}, nil
}

func (s *authService) RequestLoginCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	s.sweepExpiredAuthCodes(ctx)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.IsActive {
		return ErrAccountInactive
	}

	code, err := generateAuthCode()
	if err != nil {
		return err
	}

	now := time.Now()
	authCode := &entity.AuthCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.cfg.AuthCodeTTL),
		CreatedAt: now,
	}
	if err = s.authCodes.Create(ctx, authCode); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return ErrCodeAlreadyIssued
		}
		return err
	}

	msg, err := mailer.Render(mailer.KindAuthCode, user.Email, mailer.Context{
		Username:   user.Username,
		AuthCode:   code,
		TTLMinutes: int(s.cfg.AuthCodeTTL.Minutes()),
	})
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		// Never leave an undeliverable code lingering.
		if delErr := s.authCodes.DeleteByUserID(ctx, user.ID); delErr != nil {
			logrus.WithError(delErr).WithField("user_id", user.ID).Error("failed to delete undelivered auth code")
		}
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, err.Error())
	}

	return nil
}

func (s *authService) ExchangeAuthCode(ctx context.Context, code int64, email string) (*dto.TokenPair, error) {
	email = NormalizeEmail(email)
	s.sweepExpiredAuthCodes(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txAuthCodes := repository.NewAuthCodeRepository(tx)
	authCode, err := txAuthCodes.FindByCodeAndEmailForUpdate(ctx, code, email)
	if err != nil {
		return nil, err
	}
	if authCode == nil {
		return nil, ErrCodeNotFound
	}

	rowsDeleted, err := txAuthCodes.DeleteByID(ctx, authCode.ID)
	if err != nil {
		return nil, err
	}
	if rowsDeleted == 0 {
		return nil, ErrCodeNotFound
	}

	txUsers := repository.NewUserRepository(tx)
	user, err := txUsers.FindByID(ctx, authCode.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrCodeNotFound
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	access, refresh, err := s.codec.IssuePair(user.Username, user.Email)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	revoked, err := s.blacklist.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenBlacklisted
	}

	claims, err := s.codec.DecodeAs(refreshToken, token.KindRefresh)
	if err != nil {
		return nil, err
	}

	// Rotation on use: the presented token is dead before the new pair
	// exists, so a replayed token can never win a race against its successor.
	if err = s.blacklist.Revoke(ctx, refreshToken); err != nil {
		return nil, err
	}

	access, refresh, err := s.codec.IssuePair(claims.Username, claims.Email)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	// No decode: even a malformed or expired token gets blacklisted.
	return s.blacklist.Revoke(ctx, refreshToken)
}

func (s *authService) ConfirmAccount(ctx context.Context, confirmCode, email, password string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txConfirmCodes := repository.NewConfirmCodeRepository(tx)
	cc, err := txConfirmCodes.FindByCodeAndUserIDForUpdate(ctx, confirmCode, user.ID)
	if err != nil {
		return err
	}
	if cc == nil {
		return ErrCodeNotFound
	}

	rowsDeleted, err := txConfirmCodes.DeleteByID(ctx, cc.ID)
	if err != nil {
		return err
	}
	if rowsDeleted == 0 {
		return ErrCodeNotFound
	}

	user.IsConfirmed = true
	txUsers := repository.NewUserRepository(tx)
	if err = txUsers.Update(ctx, user); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *authService) RequestConfirmCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsConfirmed {
		return ErrAccountAlreadyConfirmed
	}

	return s.issueAndSendConfirmCode(ctx, user)
}

func (s *authService) ValidateAccessToken(tokenString string) (*token.Claims, error) {
	return s.codec.DecodeAs(tokenString, token.KindAccess)
}

func (s *authService) issueAndSendConfirmCode(ctx context.Context, user *entity.User) error {
	code, err := generateConfirmCode()
	if err != nil {
		return err
	}

	confirmCode := &entity.ConfirmCode{
		UserID:    user.ID,
		Code:      code,
		CreatedAt: time.Now(),
	}
	if err = s.confirmCodes.Create(ctx, confirmCode); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return ErrCodeAlreadyIssued
		}
		return err
	}

	msg, err := mailer.Render(mailer.KindConfirm, user.Email, mailer.Context{
		Username:    user.Username,
		ConfirmCode: code,
	})
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		if delErr := s.confirmCodes.DeleteByUserID(ctx, user.ID); delErr != nil {
			logrus.WithError(delErr).WithField("user_id", user.ID).Error("failed to delete undelivered confirm code")
		}
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, err.Error())
	}

	return nil
}

// sweepExpiredAuthCodes lazily removes codes past expiry. Best effort: a
// sweep failure is logged and never fails the enclosing operation.
func (s *authService) sweepExpiredAuthCodes(ctx context.Context) {
	if err := s.authCodes.DeleteExpired(ctx, time.Now()); err != nil {
		logrus.WithError(err).Warn("failed to sweep expired auth codes")
	}
}

// generateAuthCode returns a random 10-digit code. Collisions between users
// are acceptable: redemption is scoped by (code, email), not code alone.
func generateAuthCode() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		return 0, err
	}
	return n.Int64() + 1_000_000_000, nil
}

func generateConfirmCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
