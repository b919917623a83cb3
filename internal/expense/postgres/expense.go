package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/expense-approval/internal"
	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"gorm.io/gorm"
)

// ExpenseRepository implements the expense.Repository interface using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

var sortColumns = map[string]string{
	expense.SortTitle:     "title",
	expense.SortAmount:    "amount",
	expense.SortStatus:    "status",
	expense.SortCreatedAt: "created_at",
}

// Create saves a new expense to the database
func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	return r.db.WithContext(ctx).Omit("User").Create(exp).Error
}

// GetByID retrieves an expense with its owner
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, err
	}
	return &exp, nil
}

func (r *ExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expenseDatamodel.Expense, error) {
	q := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).Preload("User")

	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Currency != "" {
		q = q.Where("currency = ?", filter.Currency)
	}
	if filter.Range.Start != nil {
		q = q.Where("created_at >= ?", *filter.Range.Start)
	}
	if filter.Range.End != nil {
		q = q.Where("created_at <= ?", *filter.Range.End)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", pattern, pattern)
	}

	column, ok := sortColumns[filter.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	var expenses []*expenseDatamodel.Expense
	err := q.Order(fmt.Sprintf("%s %s", column, direction)).
		Order(fmt.Sprintf("id %s", direction)).
		Limit(filter.Page.Limit).
		Offset(filter.Page.Offset).
		Find(&expenses).Error
	return expenses, err
}

// UpdateIfStatus writes fields only when the row still has the expected
// status. The check and the write are a single statement.
func (r *ExpenseRepository) UpdateIfStatus(ctx context.Context, id int64, expected string, fields map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete removes an expense together with its approval history
func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", id).Delete(&approvalDatamodel.Approval{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&expenseDatamodel.Expense{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return internal.ErrExpenseNotFound
		}
		return nil
	})
}

func (r *ExpenseRepository) CreateApproval(ctx context.Context, approval *approvalDatamodel.Approval) error {
	return r.db.WithContext(ctx).Omit("Approver").Create(approval).Error
}

// ListApprovals returns the approval history of an expense, oldest first
func (r *ExpenseRepository) ListApprovals(ctx context.Context, expenseID int64) ([]*approvalDatamodel.Approval, error) {
	var approvals []*approvalDatamodel.Approval
	err := r.db.WithContext(ctx).
		Preload("Approver").
		Where("expense_id = ?", expenseID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&approvals).Error
	return approvals, err
}

func (r *ExpenseRepository) GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Transaction runs fn against a repository bound to a single database transaction.
func (r *ExpenseRepository) Transaction(ctx context.Context, fn func(repo expense.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ExpenseRepository{db: tx})
	})
}
