package expense

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/query"
	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/frahmantamala/expense-approval/internal/setting"
	"github.com/shopspring/decimal"
)

// Repository interface defines the data access methods for expenses
type Repository interface {
	Create(ctx context.Context, expense *expenseDatamodel.Expense) error
	// GetByID loads the expense with its owner, or internal.ErrExpenseNotFound.
	GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error)
	List(ctx context.Context, filter ListFilter) ([]*expenseDatamodel.Expense, error)
	// UpdateIfStatus applies fields only while the stored status equals
	// expected, and reports whether a row was written.
	UpdateIfStatus(ctx context.Context, id int64, expected string, fields map[string]interface{}) (bool, error)
	// Delete removes the expense and its approval rows together.
	Delete(ctx context.Context, id int64) error
	CreateApproval(ctx context.Context, approval *approvalDatamodel.Approval) error
	ListApprovals(ctx context.Context, expenseID int64) ([]*approvalDatamodel.Approval, error)
	// GetUserByID returns nil without error when the user does not exist.
	GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

type ListFilter struct {
	Page       query.Page
	Search     string
	UserID     *int64
	Status     string
	Category   string
	Currency   string
	Range      query.DateRange
	Sort       string
	Descending bool
}

const (
	SortTitle     = "title"
	SortAmount    = "amount"
	SortStatus    = "status"
	SortCreatedAt = "createdAt"
)

// Service handles expense business logic
type Service struct {
	repo      Repository
	settings  setting.Settings
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new expense service. publisher may be nil.
func NewService(repo Repository, settings setting.Settings, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		settings:  settings,
		publisher: publisher,
		logger:    logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateExpense(ctx context.Context, dto CreateExpenseDTO) (*ExpenseResponse, error) {
	// rounded before validation: a sub-cent amount that rounds to 0.00 is not positive
	amount := dto.Amount.Decimal().Round(2)

	v := validation.NewValidator()
	v.Field("userId", dto.UserID).Required(internal.ErrCodeMissingUserID, "User ID is required")
	v.Field("title", dto.Title).Required(internal.ErrCodeMissingTitle, "Title is required")
	v.Field("amount", amount).
		Positive(internal.ErrCodeInvalidAmount, "Amount must be a positive number").
		AtMost(validation.MaxStoredAmount, internal.ErrCodeInvalidAmount, "Amount must not exceed "+validation.MaxStoredAmount.StringFixed(2))
	v.Field("category", dto.Category).Required(internal.ErrCodeMissingCategory, "Category is required")
	if err := v.Validate(); err != nil {
		s.logger.Warn("expense validation failed", "code", err.Code, "error", err.Message)
		return nil, err
	}

	if !dto.UserID.Valid {
		return nil, internal.ErrUserNotFound
	}
	owner, err := s.repo.GetUserByID(ctx, dto.UserID.Value)
	if err != nil {
		s.logger.Error("failed to look up expense owner", "error", err, "user_id", dto.UserID.Value)
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if owner == nil {
		s.logger.Warn("expense owner not found", "user_id", dto.UserID.Value)
		return nil, internal.ErrUserNotFound
	}

	now := s.now()
	expense := &Expense{
		UserID:      owner.ID,
		Title:       strings.TrimSpace(*dto.Title),
		Amount:      amount,
		Currency:    s.normalizeCurrency(dto.Currency),
		Category:    strings.TrimSpace(*dto.Category),
		Description: trimmedOrNil(dto.Description),
		ReceiptURL:  trimmedOrNil(dto.ReceiptURL),
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	row := ToDataModel(expense)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", owner.ID)
		return nil, internal.NewInternalError("failed to create expense", err)
	}
	row.User = owner

	expensesCreated.Inc()
	s.logger.Info("expense created successfully",
		"expense_id", row.ID,
		"user_id", owner.ID,
		"amount", amount.String(),
		"currency", row.Currency)

	resp := FromDataModel(row).ToResponse()
	return &resp, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id int64, dto UpdateExpenseDTO) (*ExpenseResponse, error) {
	existing, err := s.getExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	var amount *decimal.Decimal
	if dto.Amount.Set {
		a := dto.Amount.Decimal().Round(2)
		amount = &a
	}

	v := validation.NewValidator()
	v.Field("amount", amount).
		Positive(internal.ErrCodeInvalidAmount, "Amount must be a positive number").
		AtMost(validation.MaxStoredAmount, internal.ErrCodeInvalidAmount, "Amount must not exceed "+validation.MaxStoredAmount.StringFixed(2))
	v.Field("title", dto.Title).NotBlank(internal.ErrCodeMissingTitle, "Title is required")
	v.Field("category", dto.Category).NotBlank(internal.ErrCodeMissingCategory, "Category is required")
	v.Field("status", dto.Status).Custom(validateStatusChange)
	if err := v.Validate(); err != nil {
		s.logger.Warn("expense update validation failed", "expense_id", id, "code", err.Code, "error", err.Message)
		return nil, err
	}

	now := s.now()
	fields := map[string]interface{}{"updated_at": now}
	if dto.Title != nil {
		fields["title"] = strings.TrimSpace(*dto.Title)
	}
	if amount != nil {
		fields["amount"] = *amount
	}
	if dto.Category != nil {
		fields["category"] = strings.TrimSpace(*dto.Category)
	}
	if dto.Currency != nil {
		fields["currency"] = s.normalizeCurrency(dto.Currency)
	}
	if dto.Description.Set {
		fields["description"] = trimmedOrNil(dto.Description.Value)
	}
	if dto.ReceiptURL.Set {
		fields["receipt_url"] = trimmedOrNil(dto.ReceiptURL.Value)
	}

	var newStatus Status
	if dto.Status != nil {
		newStatus = Status(strings.TrimSpace(*dto.Status))
		fields["status"] = string(newStatus)
		if newStatus == StatusPending {
			fields["submitted_at"] = now
		}
	}

	written, err := s.repo.UpdateIfStatus(ctx, id, string(existing.Status), fields)
	if err != nil {
		s.logger.Error("failed to update expense", "error", err, "expense_id", id)
		return nil, internal.NewInternalError("failed to update expense", err)
	}
	if !written {
		if _, err := s.getExpense(ctx, id); err != nil {
			return nil, err
		}
		s.logger.Warn("expense changed during update", "expense_id", id, "expected_status", existing.Status)
		return nil, internal.ErrConcurrentModification
	}

	updated, err := s.getExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if newStatus != "" {
		expenseTransitions.WithLabelValues(string(newStatus)).Inc()
		if newStatus == StatusPending {
			s.publish(ctx, events.EventTypeExpenseSubmitted, updated, nil)
		}
	}

	s.logger.Info("expense updated successfully",
		"expense_id", id,
		"fields", len(fields)-1,
		"status", updated.Status)

	resp := updated.ToResponse()
	return &resp, nil
}

// validateStatusChange restricts generic updates to draft and pending.
// Decisions go through Approve and Reject so that an Approval row is written.
func validateStatusChange(value interface{}) *internal.AppError {
	raw, _ := value.(*string)
	if raw == nil {
		return nil
	}
	status := Status(strings.TrimSpace(*raw))
	if !status.IsValid() {
		return internal.ErrInvalidStatus
	}
	if status.IsDecision() {
		return internal.ErrInvalidStatusTransition
	}
	return nil
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) (*DeleteResponse, error) {
	existing, err := s.getExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete expense", "error", err, "expense_id", id)
		return nil, internal.NewInternalError("failed to delete expense", err)
	}

	s.logger.Info("expense deleted", "expense_id", id, "status", existing.Status)

	snapshot := existing.ToResponse()
	snapshot.User = nil
	return &DeleteResponse{
		Message:        "Expense deleted successfully",
		DeletedExpense: snapshot,
	}, nil
}

func (s *Service) GetExpenseDetail(ctx context.Context, id int64) (*ExpenseDetailResponse, error) {
	expense, err := s.getExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListApprovals(ctx, id)
	if err != nil {
		s.logger.Error("failed to get approval history", "error", err, "expense_id", id)
		return nil, internal.NewInternalError("failed to get approval history", err)
	}

	history := make([]ApprovalHistoryEntry, 0, len(rows))
	for _, row := range rows {
		history = append(history, ApprovalFromDataModel(row).toHistoryEntry())
	}

	resp := expense.ToResponse()
	if resp.User != nil {
		resp.User.Role = ""
	}
	return &ExpenseDetailResponse{
		ExpenseResponse: resp,
		ApprovalHistory: history,
	}, nil
}

func (s *Service) ListExpenses(ctx context.Context, params ListExpensesParams) ([]ExpenseResponse, error) {
	filter, err := parseListParams(params)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err)
		return nil, internal.NewInternalError("failed to list expenses", err)
	}

	result := make([]ExpenseResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, FromDataModel(row).ToResponse())
	}
	return result, nil
}

func parseListParams(params ListExpensesParams) (ListFilter, error) {
	page, err := query.ParsePage(params.Limit, params.Offset)
	if err != nil {
		return ListFilter{}, err
	}

	userID, err := query.ParseOptionalID(params.UserID, internal.ErrCodeInvalidUserID, "userId must be a positive integer")
	if err != nil {
		return ListFilter{}, err
	}

	window, err := query.ParseDateRange(params.StartDate, params.EndDate)
	if err != nil {
		return ListFilter{}, err
	}

	sort := SortCreatedAt
	switch params.Sort {
	case SortTitle, SortAmount, SortStatus:
		sort = params.Sort
	}

	return ListFilter{
		Page:       page,
		Search:     strings.TrimSpace(params.Search),
		UserID:     userID,
		Status:     strings.TrimSpace(params.Status),
		Category:   strings.TrimSpace(params.Category),
		Currency:   strings.ToUpper(strings.TrimSpace(params.Currency)),
		Range:      window,
		Sort:       sort,
		Descending: params.Order != "asc",
	}, nil
}

func (s *Service) Approve(ctx context.Context, expenseID int64, dto ApproveExpenseDTO) (*ApproveResponse, error) {
	if dto.ApproverID.Missing() {
		return nil, internal.ErrMissingApproverID
	}
	if !dto.ApproverID.Valid {
		return nil, internal.ErrInvalidApproverID
	}

	expense, approval, err := s.decide(ctx, expenseID, dto.ApproverID.Value, StatusApproved, trimmedOrNil(dto.Comments))
	if err != nil {
		return nil, err
	}

	return &ApproveResponse{
		ExpenseResponse: expense.ToResponse(),
		Approval: ApprovalDetail{
			ID:            approval.ID,
			ApproverID:    approval.ApproverID,
			ApproverName:  approval.Approver.Name,
			ApproverEmail: approval.Approver.Email,
			Status:        string(approval.Status),
			Comments:      approval.Comments,
			ApprovedAt:    approval.ApprovedAt,
			CreatedAt:     approval.CreatedAt,
		},
	}, nil
}

func (s *Service) Reject(ctx context.Context, expenseID int64, dto RejectExpenseDTO) (*RejectResponse, error) {
	if dto.ApproverID.Missing() {
		return nil, internal.ErrMissingApproverID
	}
	comments := trimmedOrNil(dto.Comments)
	if comments == nil {
		return nil, internal.ErrMissingComments
	}
	if !dto.ApproverID.Valid {
		return nil, internal.ErrInvalidApproverID
	}

	expense, approval, err := s.decide(ctx, expenseID, dto.ApproverID.Value, StatusRejected, comments)
	if err != nil {
		return nil, err
	}

	return &RejectResponse{
		ExpenseResponse: expense.ToResponse(),
		Rejection: RejectionDetail{
			ApprovalID: approval.ID,
			Approver: UserSummary{
				ID:    approval.Approver.ID,
				Name:  approval.Approver.Name,
				Email: approval.Approver.Email,
			},
			Comments:   *comments,
			RejectedAt: approval.ApprovedAt,
		},
	}, nil
}

// decide moves a pending expense to a decision status and records the
// Approval row in the same transaction. The status write is conditional on
// the row still being pending, so concurrent decisions cannot both succeed.
func (s *Service) decide(ctx context.Context, expenseID, approverID int64, to Status, comments *string) (*Expense, *Approval, error) {
	var (
		updated  *expenseDatamodel.Expense
		approval *approvalDatamodel.Approval
		approver *userDatamodel.User
	)

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.GetByID(ctx, expenseID)
		if err != nil {
			return err
		}
		if current.Status != string(StatusPending) {
			return internal.ErrInvalidExpenseStatus
		}

		approver, err = tx.GetUserByID(ctx, approverID)
		if err != nil {
			return err
		}
		if approver == nil {
			return internal.ErrApproverNotFound
		}

		now := s.now()
		written, err := tx.UpdateIfStatus(ctx, expenseID, string(StatusPending), map[string]interface{}{
			"status":     string(to),
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if !written {
			return internal.ErrInvalidExpenseStatus
		}

		approval = &approvalDatamodel.Approval{
			ExpenseID:  expenseID,
			ApproverID: approverID,
			Status:     string(to),
			Comments:   comments,
			ApprovedAt: now,
			CreatedAt:  now,
		}
		if err := tx.CreateApproval(ctx, approval); err != nil {
			return err
		}

		updated, err = tx.GetByID(ctx, expenseID)
		return err
	})
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			if appErr.Code == internal.ErrCodeInvalidExpenseStatus {
				decisionConflicts.Inc()
			}
			s.logger.Warn("expense decision refused",
				"expense_id", expenseID,
				"approver_id", approverID,
				"decision", to,
				"code", appErr.Code)
			return nil, nil, appErr
		}
		s.logger.Error("expense decision failed", "error", err, "expense_id", expenseID, "decision", to)
		return nil, nil, internal.NewInternalError("failed to record decision", err)
	}

	approval.Approver = approver
	result := FromDataModel(updated)
	result.Owner = nil
	decision := ApprovalFromDataModel(approval)

	expenseTransitions.WithLabelValues(string(to)).Inc()
	s.logger.Info("expense decision recorded",
		"expense_id", expenseID,
		"approver_id", approverID,
		"approval_id", approval.ID,
		"decision", to,
		"amount", result.Amount.String())

	eventType := events.EventTypeExpenseApproved
	if to == StatusRejected {
		eventType = events.EventTypeExpenseRejected
	}
	s.publish(ctx, eventType, result, decision)

	return result, decision, nil
}

func (s *Service) getExpense(ctx context.Context, id int64) (*Expense, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to get expense", "error", err, "expense_id", id)
		return nil, internal.NewInternalError("failed to get expense", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) publish(ctx context.Context, eventType string, e *Expense, approval *Approval) {
	if s.publisher == nil {
		return
	}

	change := events.LifecycleChange{
		ExpenseID:  e.ID,
		UserID:     e.UserID,
		Status:     string(e.Status),
		Amount:     e.Amount.StringFixed(2),
		Currency:   e.Currency,
		TraceID:    internal.TraceIDFromContext(ctx),
		OccurredAt: e.UpdatedAt,
	}
	if approval != nil {
		change.ApproverID = approval.ApproverID
		change.ApprovalID = approval.ID
	}

	if err := s.publisher.Publish(ctx, events.NewExpenseLifecycleEvent(eventType, change)); err != nil {
		s.logger.Warn("failed to publish expense event", "error", err, "event_type", eventType, "expense_id", e.ID)
	}
}

func (s *Service) normalizeCurrency(currency *string) string {
	if currency != nil {
		if c := strings.ToUpper(strings.TrimSpace(*currency)); c != "" {
			return c
		}
	}
	if s.settings.DefaultCurrency != "" {
		return s.settings.DefaultCurrency
	}
	return "USD"
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
