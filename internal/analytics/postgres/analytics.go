package postgres

import (
	"context"
	"strings"

	"github.com/frahmantamala/expense-approval/internal/analytics"
	"github.com/jmoiron/sqlx"
)

// AnalyticsReader reads expense rows with plain SQL. It never locks.
type AnalyticsReader struct {
	db *sqlx.DB
}

func NewAnalyticsReader(db *sqlx.DB) analytics.Reader {
	return &AnalyticsReader{db: db}
}

func (r *AnalyticsReader) Expenses(ctx context.Context, filter analytics.Filter) ([]analytics.Record, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Range.Start != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.Range.Start)
	}
	if filter.Range.End != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.Range.End)
	}

	q := "SELECT id, status, category, currency, amount, created_at FROM expenses"
	if len(conditions) > 0 {
		q += " WHERE " + strings.Join(conditions, " AND ")
	}
	q += " ORDER BY created_at ASC, id ASC"

	records := make([]analytics.Record, 0)
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return records, nil
}
