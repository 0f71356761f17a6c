package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode"

	"github.com/recipeplanner/recipeplanner-go/internal/crypto"
	"github.com/recipeplanner/recipeplanner-go/internal/mailer"
	"github.com/recipeplanner/recipeplanner-go/internal/model"
	"github.com/recipeplanner/recipeplanner-go/internal/repository"
)

var (
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotFound      = errors.New("no account found with this email")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and include an uppercase letter, a digit and a symbol")
)

// UserStore is the persistence surface AuthService needs for users.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	UpdatePassword(ctx context.Context, email, authHash string) error
}

// ResetStore is the persistence surface for password reset grants.
type ResetStore interface {
	Create(ctx context.Context, grant *model.PasswordResetGrant) error
	GetUsable(ctx context.Context, token string, now time.Time) (*model.PasswordResetGrant, error)
	MarkUsed(ctx context.Context, id int64) error
	DeleteByEmail(ctx context.Context, email string) error
}

// AuthService handles registration, login and the password reset flow.
type AuthService struct {
	users      UserStore
	resets     ResetStore
	mail       mailer.Mailer
	jwtSecret  string
	jwtExpiry  time.Duration
	resetTTL   time.Duration
	appBaseURL string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, resets ResetStore, mail mailer.Mailer, jwtSecret string, jwtExpiry, resetTTL time.Duration, appBaseURL string) *AuthService {
	return &AuthService{
		users:      users,
		resets:     resets,
		mail:       mail,
		jwtSecret:  jwtSecret,
		jwtExpiry:  jwtExpiry,
		resetTTL:   resetTTL,
		appBaseURL: appBaseURL,
	}
}

// Register creates a new user account. No session is issued; the client
// logs in afterwards.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) error {
	if req.Name == "" {
		return ErrNameRequired
	}
	if req.Email == "" {
		return ErrEmailRequired
	}
	if req.Password == "" {
		return ErrPasswordRequired
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		AuthHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return err
	}

	return nil
}

// Login authenticates a user and issues a session token carrying the
// public profile.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	if !crypto.VerifyPassword(req.Password, user.AuthHash) {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := crypto.GenerateToken(user.ID, user.Email, user.Name, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User: model.UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
	}, nil
}

// Profile retrieves a user's public profile by ID.
func (s *AuthService) Profile(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	return model.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}, nil
}

// ForgotPassword issues a fresh reset grant for the email and dispatches a
// reset link. Prior grants for the email are superseded. Email dispatch
// failures are logged but never surfaced, so the caller always sees the
// same generic outcome once a grant exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	token, err := crypto.GenerateResetToken()
	if err != nil {
		return err
	}

	if err := s.resets.DeleteByEmail(ctx, email); err != nil {
		return err
	}

	grant := &model.PasswordResetGrant{
		Email:     email,
		Token:     token,
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, grant); err != nil {
		return err
	}

	resetURL := s.appBaseURL + "/reset-password?token=" + token
	if err := s.mail.SendPasswordReset(email, resetURL); err != nil {
		slog.Error("failed to send password reset email", "error", err)
	}

	return nil
}

// ResetPassword redeems a grant for a new password. The grant must be
// unused and unexpired; on success every grant for the email is purged so
// the token cannot be replayed.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	if req.Token == "" {
		return ErrInvalidResetToken
	}
	if err := validatePasswordStrength(req.NewPassword); err != nil {
		return err
	}

	grant, err := s.resets.GetUsable(ctx, req.Token, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrGrantNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, grant.Email, hash); err != nil {
		return err
	}

	if err := s.resets.MarkUsed(ctx, grant.ID); err != nil {
		return err
	}

	return s.resets.DeleteByEmail(ctx, grant.Email)
}

// validatePasswordStrength enforces the reset-flow password policy:
// minimum length 8 with at least one uppercase letter, one digit and one
// symbol.
func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}

	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			hasSymbol = true
		}
	}

	if !hasUpper || !hasDigit || !hasSymbol {
		return ErrWeakPassword
	}
	return nil
}
