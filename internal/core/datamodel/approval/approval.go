package approval

import (
	"time"

	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
)

// Approval is an append-only decision row. Rows are never updated.
type Approval struct {
	ID         int64               `gorm:"primaryKey"`
	ExpenseID  int64               `gorm:"column:expense_id;not null;index"`
	ApproverID int64               `gorm:"column:approver_id;not null"`
	Approver   *userDatamodel.User `gorm:"foreignKey:ApproverID"`
	Status     string              `gorm:"column:status;not null"`
	Comments   *string             `gorm:"column:comments"`
	ApprovedAt time.Time           `gorm:"column:approved_at;not null"`
	CreatedAt  time.Time           `gorm:"column:created_at"`
}

func (Approval) TableName() string {
	return "approvals"
}
