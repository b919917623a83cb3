package approvalrule

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApprovalRule struct {
	ID                int64               `gorm:"primaryKey"`
	MinAmount         decimal.Decimal     `gorm:"column:min_amount;type:numeric(14,2);not null"`
	MaxAmount         decimal.NullDecimal `gorm:"column:max_amount;type:numeric(14,2)"`
	RequiredApprovers int                 `gorm:"column:required_approvers;not null;default:0"`
	AutoApprove       bool                `gorm:"column:auto_approve;not null;default:false"`
	CreatedAt         time.Time           `gorm:"column:created_at"`
}

func (ApprovalRule) TableName() string {
	return "approval_rules"
}
