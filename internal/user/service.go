package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/expense-approval/internal/core/common/query"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListUsers(ctx context.Context, params ListUsersParams) ([]*User, error) {
	page, err := query.ParsePage(params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, ListFilter{
		Page:       page,
		Search:     strings.TrimSpace(params.Search),
		Role:       strings.TrimSpace(params.Role),
		Department: strings.TrimSpace(params.Department),
	})
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

// EnsureUser creates u unless a user with the same email exists, and
// returns the stored row either way.
func (s *Service) EnsureUser(ctx context.Context, u User) (*User, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up user %s: %w", u.Email, err)
	}
	if existing != nil {
		return FromDataModel(existing), false, nil
	}

	row := ToDataModel(&u)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, false, fmt.Errorf("failed to create user %s: %w", u.Email, err)
	}
	s.logger.Info("user created", "user_id", row.ID, "email", row.Email, "role", row.Role)
	return FromDataModel(row), true, nil
}
