package expense

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/query"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateExpense(ctx context.Context, dto CreateExpenseDTO) (*ExpenseResponse, error)
	UpdateExpense(ctx context.Context, id int64, dto UpdateExpenseDTO) (*ExpenseResponse, error)
	DeleteExpense(ctx context.Context, id int64) (*DeleteResponse, error)
	GetExpenseDetail(ctx context.Context, id int64) (*ExpenseDetailResponse, error)
	ListExpenses(ctx context.Context, params ListExpensesParams) ([]ExpenseResponse, error)
	Approve(ctx context.Context, expenseID int64, dto ApproveExpenseDTO) (*ApproveResponse, error)
	Reject(ctx context.Context, expenseID int64, dto RejectExpenseDTO) (*RejectResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ListExpenses handles GET /expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expenses, err := h.Service.ListExpenses(r.Context(), ListExpensesParams{
		Limit:     q.Get("limit"),
		Offset:    q.Get("offset"),
		Search:    q.Get("search"),
		UserID:    q.Get("userId"),
		Status:    q.Get("status"),
		Category:  q.Get("category"),
		Currency:  q.Get("currency"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Sort:      q.Get("sort"),
		Order:     q.Get("order"),
	})
	if err != nil {
		h.Logger.Warn("ListExpenses: request failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expenses)
}

// CreateExpense handles POST /expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var dto CreateExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("CreateExpense: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	expense, err := h.Service.CreateExpense(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, expense)
}

// UpdateExpenseByQuery handles PUT /expenses?id=
func (h *Handler) UpdateExpenseByQuery(w http.ResponseWriter, r *http.Request) {
	h.updateExpense(w, r, r.URL.Query().Get("id"))
}

// UpdateExpense handles PATCH /expenses/{id}
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	h.updateExpense(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request, rawID string) {
	id, ok := query.ParseID(rawID)
	if !ok {
		h.Logger.Warn("UpdateExpense: invalid expense ID", "id", rawID)
		h.HandleServiceError(w, internal.ErrInvalidID)
		return
	}

	var dto UpdateExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("UpdateExpense: invalid request body", "error", err, "expense_id", id)
		h.HandleServiceError(w, err)
		return
	}

	expense, err := h.Service.UpdateExpense(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

// DeleteExpense handles DELETE /expenses?id=
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("id")
	id, ok := query.ParseID(rawID)
	if !ok {
		h.Logger.Warn("DeleteExpense: invalid expense ID", "id", rawID)
		h.HandleServiceError(w, internal.ErrInvalidID)
		return
	}

	resp, err := h.Service.DeleteExpense(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// GetExpense handles GET /expenses/{id}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	id, ok := query.ParseID(rawID)
	if !ok {
		h.Logger.Warn("GetExpense: invalid expense ID", "id", rawID)
		h.HandleServiceError(w, internal.ErrInvalidID)
		return
	}

	expense, err := h.Service.GetExpenseDetail(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

// ApproveExpense handles POST /expenses/{id}/approve
func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	id, ok := query.ParseID(rawID)
	if !ok {
		h.Logger.Warn("ApproveExpense: invalid expense ID", "id", rawID)
		h.HandleServiceError(w, internal.ErrInvalidID)
		return
	}

	var dto ApproveExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("ApproveExpense: invalid request body", "error", err, "expense_id", id)
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Approve(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// RejectExpense handles POST /expenses/{id}/reject
func (h *Handler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	id, ok := query.ParseID(rawID)
	if !ok {
		h.Logger.Warn("RejectExpense: invalid expense ID", "id", rawID)
		h.HandleServiceError(w, internal.ErrInvalidID)
		return
	}

	var dto RejectExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("RejectExpense: invalid request body", "error", err, "expense_id", id)
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Reject(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
