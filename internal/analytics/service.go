package analytics

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/query"
)

// Reader loads the expense rows inside a filter window, ordered by
// createdAt then id.
type Reader interface {
	Expenses(ctx context.Context, filter Filter) ([]Record, error)
}

// Params carries the raw query string values of GET /analytics.
type Params struct {
	StartDate string
	EndDate   string
	UserID    string
}

type Service struct {
	reader Reader
	logger *slog.Logger
}

func NewService(reader Reader, logger *slog.Logger) *Service {
	return &Service{
		reader: reader,
		logger: logger,
	}
}

func (s *Service) ComputeAnalytics(ctx context.Context, params Params) (*Report, error) {
	window, err := query.ParseDateRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}

	userID, err := query.ParseOptionalID(params.UserID, internal.ErrCodeInvalidUserID, "userId must be a positive integer")
	if err != nil {
		return nil, err
	}

	records, err := s.reader.Expenses(ctx, Filter{UserID: userID, Range: window})
	if err != nil {
		s.logger.Error("failed to load expenses for analytics", "error", err)
		return nil, internal.NewInternalError("failed to compute analytics", err)
	}

	report := Aggregate(records)
	s.logger.Debug("analytics computed",
		"rows", len(records),
		"total_spent", report.TotalSpent)

	return &report, nil
}
