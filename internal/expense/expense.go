package expense

import (
	"time"

	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether s can only be reached through approve/reject.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

type Expense struct {
	ID          int64
	UserID      int64
	Title       string
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Description *string
	ReceiptURL  *string
	Status      Status
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Owner       *Person
}

// Person is the identity of an owner or approver as shown alongside an expense.
type Person struct {
	ID         int64
	Name       string
	Email      string
	Role       string
	Department string
}

type Approval struct {
	ID         int64
	ExpenseID  int64
	ApproverID int64
	Status     Status
	Comments   *string
	ApprovedAt time.Time
	CreatedAt  time.Time
	Approver   *Person
}

func (e *Expense) CanBeDecided() bool {
	return e.Status == StatusPending
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Category:    e.Category,
		Description: e.Description,
		ReceiptURL:  e.ReceiptURL,
		Status:      string(e.Status),
		SubmittedAt: e.SubmittedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	result := &Expense{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Category:    e.Category,
		Description: e.Description,
		ReceiptURL:  e.ReceiptURL,
		Status:      Status(e.Status),
		SubmittedAt: utcPtr(e.SubmittedAt),
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
	if e.User != nil {
		result.Owner = personFromDataModel(e.User)
	}
	return result
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}

func ApprovalFromDataModel(a *approvalDatamodel.Approval) *Approval {
	result := &Approval{
		ID:         a.ID,
		ExpenseID:  a.ExpenseID,
		ApproverID: a.ApproverID,
		Status:     Status(a.Status),
		Comments:   a.Comments,
		ApprovedAt: a.ApprovedAt.UTC(),
		CreatedAt:  a.CreatedAt.UTC(),
	}
	if a.Approver != nil {
		result.Approver = personFromDataModel(a.Approver)
	}
	return result
}

func personFromDataModel(u *userDatamodel.User) *Person {
	return &Person{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
