package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice-service/internal/auth"
	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// AuthService handles registration, login and password lifecycle.
type AuthService struct {
	users      repository.UserRepository
	clients    repository.ClientRepository
	resets     repository.PasswordResetRepository
	tx         repository.TxRunner
	tokens     *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies bundles the collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	ClientRepo repository.ClientRepository
	ResetRepo  repository.PasswordResetRepository
	Tx         repository.TxRunner
	Tokens     *auth.TokenManager
	Logger     *zap.Logger
	BcryptCost int
	ResetTTL   time.Duration
	Now        func() time.Time
}

// NewAuthService instantiates the auth service.
func NewAuthService(deps AuthDependencies) *AuthService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		clients:    deps.ClientRepo,
		resets:     deps.ResetRepo,
		tx:         deps.Tx,
		tokens:     deps.Tokens,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
		resetTTL:   deps.ResetTTL,
		now:        now,
	}
}

// RegisterInput describes a self-service client signup.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is an issued access token with its subject.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Register creates a client user account together with its client row.
// Staff accounts are never self-registered; administrators provision them
// separately.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors["name"] = "name is required"
	}
	if !strings.Contains(input.Email, "@") {
		fieldErrors["email"] = "a valid email is required"
	}
	if len(input.Password) < 8 {
		fieldErrors["password"] = "password must be at least 8 characters"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid registration payload", fieldErrors)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleClient,
		Status:       domain.UserStatusActive,
	}
	client := &domain.Client{
		ReferenceCode: generateReferenceCode("CLI"),
		Name:          user.Name,
		Email:         user.Email,
		Status:        domain.ClientStatusActive,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		client.OwnerUserID = user.ID
		return s.clients.Create(ctx, client)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.issueSession(user)
}

// Login authenticates by email and password. Credential failures are
// indistinguishable from unknown accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewForbidden("account suspended")
	}
	return s.issueSession(user)
}

func (s *AuthService) issueSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ChangePassword rotates the actor's own password after verifying the
// current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, current, next string) error {
	if len(next) < 8 {
		return apperrors.NewValidationError("invalid password payload", map[string]any{
			"new_password": "password must be at least 8 characters",
		})
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// RequestPasswordReset issues a single-use reset token. The response is
// identical whether or not the email exists; the token reaches the user
// out of band.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("password reset requested",
		zap.String("user_id", user.ID),
	)
	return nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, next string) error {
	if len(next) < 8 {
		return apperrors.NewValidationError("invalid password payload", map[string]any{
			"new_password": "password must be at least 8 characters",
		})
	}
	stored, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		return notFoundOr(err, "reset token")
	}
	if stored.UsedAt != nil || s.now().After(stored.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired")
	}
	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		return s.resets.MarkUsed(ctx, stored.ID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
