package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseSubmitted = "expense.submitted"
	EventTypeExpenseApproved  = "expense.approved"
	EventTypeExpenseRejected  = "expense.rejected"
)

// LifecycleEventTypes lists every event emitted by expense status changes.
var LifecycleEventTypes = []string{
	EventTypeExpenseSubmitted,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
}

type ExpenseLifecycleEvent struct {
	BaseEvent
	ExpenseID  int64  `json:"expense_id"`
	UserID     int64  `json:"user_id"`
	Status     string `json:"status"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	ApproverID int64  `json:"approver_id,omitempty"`
	ApprovalID int64  `json:"approval_id,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

type LifecycleChange struct {
	ExpenseID  int64
	UserID     int64
	Status     string
	Amount     string
	Currency   string
	ApproverID int64
	ApprovalID int64
	TraceID    string
	OccurredAt time.Time
}

func NewExpenseLifecycleEvent(eventType string, c LifecycleChange) *ExpenseLifecycleEvent {
	occurredAt := c.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	data := map[string]interface{}{
		"expense_id": c.ExpenseID,
		"user_id":    c.UserID,
		"status":     c.Status,
		"amount":     c.Amount,
		"currency":   c.Currency,
	}
	if c.ApproverID != 0 {
		data["approver_id"] = c.ApproverID
		data["approval_id"] = c.ApprovalID
	}
	if c.TraceID != "" {
		data["trace_id"] = c.TraceID
	}

	return &ExpenseLifecycleEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: occurredAt,
			Data:      data,
		},
		ExpenseID:  c.ExpenseID,
		UserID:     c.UserID,
		Status:     c.Status,
		Amount:     c.Amount,
		Currency:   c.Currency,
		ApproverID: c.ApproverID,
		ApprovalID: c.ApprovalID,
		TraceID:    c.TraceID,
	}
}
