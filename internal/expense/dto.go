package expense

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NumericID accepts an identifier sent either as a JSON number or as a
// numeric string. Malformed values are kept so the service can report them.
type NumericID struct {
	Set   bool
	Valid bool
	Value int64
}

func (n *NumericID) UnmarshalJSON(b []byte) error {
	*n = NumericID{}
	raw := bytes.TrimSpace(b)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			n.Set = true
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		raw = []byte(s)
	}

	n.Set = true
	if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		n.Valid = true
		n.Value = v
	}
	return nil
}

// Missing treats absent, null, blank and zero identifiers alike.
func (n NumericID) Missing() bool {
	return !n.Set || (n.Valid && n.Value == 0)
}

// AmountInput distinguishes an absent amount from a malformed one.
type AmountInput struct {
	Set   bool
	Valid bool
	Value decimal.Decimal
}

func (a *AmountInput) UnmarshalJSON(b []byte) error {
	*a = AmountInput{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	a.Set = true
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return nil
	}
	a.Valid = true
	a.Value = d
	return nil
}

// Decimal returns the parsed amount, or zero when malformed or absent.
func (a AmountInput) Decimal() decimal.Decimal {
	if !a.Valid {
		return decimal.Zero
	}
	return a.Value
}

// OptionalString records whether a nullable field was sent at all.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type CreateExpenseDTO struct {
	UserID      NumericID   `json:"userId"`
	Title       *string     `json:"title"`
	Amount      AmountInput `json:"amount"`
	Category    *string     `json:"category"`
	Currency    *string     `json:"currency,omitempty"`
	Description *string     `json:"description,omitempty"`
	ReceiptURL  *string     `json:"receiptUrl,omitempty"`
}

// UpdateExpenseDTO is a partial update: only fields present in the body are written.
type UpdateExpenseDTO struct {
	Title       *string        `json:"title"`
	Amount      AmountInput    `json:"amount"`
	Category    *string        `json:"category"`
	Currency    *string        `json:"currency"`
	Description OptionalString `json:"description"`
	ReceiptURL  OptionalString `json:"receiptUrl"`
	Status      *string        `json:"status"`
}

type ApproveExpenseDTO struct {
	ApproverID NumericID `json:"approverId"`
	Comments   *string   `json:"comments,omitempty"`
}

type RejectExpenseDTO struct {
	ApproverID NumericID `json:"approverId"`
	Comments   *string   `json:"comments"`
}

// ListExpensesParams carries the raw query string values of GET /expenses.
type ListExpensesParams struct {
	Limit     string
	Offset    string
	Search    string
	UserID    string
	Status    string
	Category  string
	Currency  string
	StartDate string
	EndDate   string
	Sort      string
	Order     string
}

type UserSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

type ExpenseResponse struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"userId"`
	Title       string       `json:"title"`
	Amount      float64      `json:"amount"`
	Currency    string       `json:"currency"`
	Category    string       `json:"category"`
	Description *string      `json:"description"`
	ReceiptURL  *string      `json:"receiptUrl"`
	Status      string       `json:"status"`
	SubmittedAt *time.Time   `json:"submittedAt"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	User        *UserSummary `json:"user,omitempty"`
}

type ApprovalHistoryEntry struct {
	ID         int64        `json:"id"`
	Status     string       `json:"status"`
	Comments   *string      `json:"comments"`
	ApprovedAt time.Time    `json:"approvedAt"`
	CreatedAt  time.Time    `json:"createdAt"`
	Approver   *UserSummary `json:"approver"`
}

type ExpenseDetailResponse struct {
	ExpenseResponse
	ApprovalHistory []ApprovalHistoryEntry `json:"approvalHistory"`
}

type ApprovalDetail struct {
	ID            int64     `json:"id"`
	ApproverID    int64     `json:"approverId"`
	ApproverName  string    `json:"approverName"`
	ApproverEmail string    `json:"approverEmail"`
	Status        string    `json:"status"`
	Comments      *string   `json:"comments"`
	ApprovedAt    time.Time `json:"approvedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ApproveResponse struct {
	ExpenseResponse
	Approval ApprovalDetail `json:"approval"`
}

type RejectionDetail struct {
	ApprovalID int64       `json:"approvalId"`
	Approver   UserSummary `json:"approver"`
	Comments   string      `json:"comments"`
	RejectedAt time.Time   `json:"rejectedAt"`
}

type RejectResponse struct {
	ExpenseResponse
	Rejection RejectionDetail `json:"rejection"`
}

type DeleteResponse struct {
	Message        string          `json:"message"`
	DeletedExpense ExpenseResponse `json:"deletedExpense"`
}

func (e *Expense) ToResponse() ExpenseResponse {
	resp := ExpenseResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Amount:      e.Amount.Round(2).InexactFloat64(),
		Currency:    e.Currency,
		Category:    e.Category,
		Description: e.Description,
		ReceiptURL:  e.ReceiptURL,
		Status:      string(e.Status),
		SubmittedAt: e.SubmittedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Owner != nil {
		resp.User = e.Owner.summary()
	}
	return resp
}

func (p *Person) summary() *UserSummary {
	return &UserSummary{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       p.Role,
		Department: p.Department,
	}
}

func (a *Approval) toHistoryEntry() ApprovalHistoryEntry {
	entry := ApprovalHistoryEntry{
		ID:         a.ID,
		Status:     string(a.Status),
		Comments:   a.Comments,
		ApprovedAt: a.ApprovedAt,
		CreatedAt:  a.CreatedAt,
	}
	if a.Approver != nil {
		entry.Approver = &UserSummary{
			ID:         a.Approver.ID,
			Name:       a.Approver.Name,
			Email:      a.Approver.Email,
			Department: a.Approver.Department,
		}
	}
	return entry
}
