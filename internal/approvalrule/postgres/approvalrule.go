package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	approvalRuleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	"gorm.io/gorm"
)

type ApprovalRuleRepository struct {
	db *gorm.DB
}

func NewApprovalRuleRepository(db *gorm.DB) approvalrule.RepositoryAPI {
	return &ApprovalRuleRepository{db: db}
}

func (r *ApprovalRuleRepository) List(ctx context.Context) ([]*approvalRuleDatamodel.ApprovalRule, error) {
	var rules []*approvalRuleDatamodel.ApprovalRule
	err := r.db.WithContext(ctx).Order("min_amount ASC").Order("id ASC").Find(&rules).Error
	return rules, err
}

func (r *ApprovalRuleRepository) Create(ctx context.Context, rule *approvalRuleDatamodel.ApprovalRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// Lock takes a table lock that conflicts with itself but not with readers.
// sqlite already serializes writers, so it is a no-op there.
func (r *ApprovalRuleRepository) Lock(ctx context.Context) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).Exec("LOCK TABLE approval_rules IN SHARE ROW EXCLUSIVE MODE").Error
}

func (r *ApprovalRuleRepository) Transaction(ctx context.Context, fn func(repo approvalrule.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ApprovalRuleRepository{db: tx})
	})
}
