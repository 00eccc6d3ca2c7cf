package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-tracker/pkg/metrics"
	"github.com/frahmantamala/expense-tracker/pkg/tracing"
)

// RepositoryAPI stores accounts. Lookups return ErrUserNotFound when nothing
// matches and CreateAccount returns ErrEmailInUse on a duplicate address.
type RepositoryAPI interface {
	CreateAccount(ctx context.Context, user *userDatamodel.User) error
	GetAccountByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetAccountByID(ctx context.Context, id string) (*userDatamodel.User, error)
}

type ServiceAPI interface {
	SignUp(ctx context.Context, dto SignUpDTO) (*Account, error)
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type Service struct {
	repo              RepositoryAPI
	tokenGenerator    TokenGeneratorAPI
	bcryptCost        int
	minPasswordLength int
	logger            *slog.Logger
	now               func() time.Time
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, bcryptCost, minPasswordLength int, logger *slog.Logger) *Service {
	return &Service{
		repo:              repo,
		tokenGenerator:    tokenGen,
		bcryptCost:        bcryptCost,
		minPasswordLength: minPasswordLength,
		logger:            logger,
		now:               time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, dto SignUpDTO) (account *Account, err error) {
	span, ctx := tracing.StartSpan(ctx, "auth.SignUp")
	defer func() {
		metrics.ObserveAuthAttempt("signup", err)
		tracing.Finish(span, err)
	}()

	if appErr := dto.Validate(s.minPasswordLength); appErr != nil {
		return nil, appErr
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	account = &Account{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(dto.Email),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.repo.CreateAccount(ctx, ToDataModel(account)); err != nil {
		if errors.Is(err, apperrors.ErrEmailInUse) {
			s.logger.Warn("sign-up rejected: email in use", "email", account.Email)
			return nil, apperrors.ErrEmailInUse
		}
		s.logger.Error("failed to create account", "error", err, "email", account.Email)
		return nil, apperrors.NewInternalError("failed to create account", err)
	}

	s.logger.Info("account created", "user_id", account.ID, "email", account.Email)
	return account, nil
}

// Authenticate validates credentials and returns tokens. Unknown addresses
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (tokens AuthTokens, err error) {
	span, ctx := tracing.StartSpan(ctx, "auth.Authenticate")
	defer func() {
		metrics.ObserveAuthAttempt("login", err)
		tracing.Finish(span, err)
	}()

	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	email := NormalizeEmail(dto.Email)
	stored, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return AuthTokens{}, apperrors.ErrInvalidCredentials
		}
		s.logger.Error("failed to load account", "error", err, "email", email)
		return AuthTokens{}, apperrors.NewInternalError("failed to load account", err)
	}

	if err := VerifyPassword(stored.PasswordHash, dto.Password); err != nil {
		return AuthTokens{}, apperrors.ErrInvalidCredentials
	}

	return s.issueTokens(stored.ID, stored.Email)
}

// RefreshTokens exchanges a valid refresh token for a new token pair. The
// account must still exist.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (tokens AuthTokens, err error) {
	span, ctx := tracing.StartSpan(ctx, "auth.RefreshTokens")
	defer func() {
		metrics.ObserveAuthAttempt("refresh", err)
		tracing.Finish(span, err)
	}()

	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	stored, err := s.repo.GetAccountByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return AuthTokens{}, apperrors.ErrInvalidToken
		}
		return AuthTokens{}, apperrors.NewInternalError("failed to load account", err)
	}

	return s.issueTokens(stored.ID, stored.Email)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

func (s *Service) issueTokens(userID, email string) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, email)
	if err != nil {
		return AuthTokens{}, apperrors.NewInternalError("failed to issue access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, email)
	if err != nil {
		return AuthTokens{}, apperrors.NewInternalError("failed to issue refresh token", err)
	}

	return AuthTokens{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenGenerator.AccessTTL().Seconds()),
	}, nil
}
