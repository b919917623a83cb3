package expense

import (
	"time"

	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          int64               `gorm:"primaryKey"`
	UserID      int64               `gorm:"column:user_id;not null;index"`
	User        *userDatamodel.User `gorm:"foreignKey:UserID"`
	Title       string              `gorm:"column:title;not null"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency    string              `gorm:"column:currency;size:3;not null;default:USD"`
	Category    string              `gorm:"column:category;not null;index"`
	Description *string             `gorm:"column:description"`
	ReceiptURL  *string             `gorm:"column:receipt_url"`
	Status      string              `gorm:"column:status;not null;default:draft;index"`
	SubmittedAt *time.Time          `gorm:"column:submitted_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;index"`
	UpdatedAt   time.Time           `gorm:"column:updated_at"`
}

func (Expense) TableName() string {
	return "expenses"
}
