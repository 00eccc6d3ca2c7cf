package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, userID string) (*userDatamodel.User, error)
	UpdateProfile(ctx context.Context, userID string, changes map[string]interface{}, at time.Time) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("failed to load profile", "error", err, "user_id", userID)
		return nil, apperrors.NewInternalError("failed to load profile", err)
	}
	return FromDataModel(u), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, dto UpdateProfileDTO) (*Profile, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	if err := s.repo.UpdateProfile(ctx, userID, dto.Changes(), at); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("failed to update profile", "error", err, "user_id", userID)
		return nil, apperrors.NewInternalError("failed to update profile", err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return s.GetProfile(ctx, userID)
}
