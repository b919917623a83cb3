package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/expense-approval/internal/core/events"
)

// Notification is the message forwarded to the broker for every expense
// lifecycle event.
type Notification struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	ExpenseID  int64     `json:"expense_id"`
	UserID     int64     `json:"user_id"`
	Status     string    `json:"status"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	ApproverID int64     `json:"approver_id,omitempty"`
	ApprovalID int64     `json:"approval_id,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func FromEvent(event events.Event) (*Notification, error) {
	lifecycle, ok := event.(*events.ExpenseLifecycleEvent)
	if !ok {
		return nil, fmt.Errorf("expected ExpenseLifecycleEvent, got %T", event)
	}
	return &Notification{
		EventID:    lifecycle.EventID(),
		Type:       lifecycle.EventType(),
		ExpenseID:  lifecycle.ExpenseID,
		UserID:     lifecycle.UserID,
		Status:     lifecycle.Status,
		Amount:     lifecycle.Amount,
		Currency:   lifecycle.Currency,
		ApproverID: lifecycle.ApproverID,
		ApprovalID: lifecycle.ApprovalID,
		TraceID:    lifecycle.TraceID,
		OccurredAt: lifecycle.OccurredAt(),
	}, nil
}

func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

func NotificationFromJSON(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	if n.EventID == "" || n.ExpenseID == 0 {
		return nil, fmt.Errorf("notification missing event_id or expense_id")
	}
	return &n, nil
}
