package category

import (
	"context"
	"log/slog"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
)

type RepositoryAPI interface {
	// UsedByUser returns each distinct category of userID's records with
	// its usage count, most used first.
	UsedByUser(ctx context.Context, userID string) ([]*Category, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Suggestions lists the caller's categories for autocompletion.
func (s *Service) Suggestions(ctx context.Context, userID string) ([]CategoryResponse, error) {
	if userID == "" {
		return nil, apperrors.ErrMissingToken
	}

	categories, err := s.repo.UsedByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err, "user_id", userID)
		return nil, apperrors.NewInternalError("failed to get categories", err)
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		if c.IsBlank() {
			continue
		}
		responses = append(responses, c.ToResponse())
	}

	s.logger.Debug("retrieved categories", "count", len(responses), "user_id", userID)
	return responses, nil
}
