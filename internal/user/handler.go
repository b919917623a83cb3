package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal/transport"
)

type ServiceAPI interface {
	ListUsers(ctx context.Context, params ListUsersParams) ([]*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.Service.ListUsers(r.Context(), ListUsersParams{
		Limit:      q.Get("limit"),
		Offset:     q.Get("offset"),
		Search:     q.Get("search"),
		Role:       q.Get("role"),
		Department: q.Get("department"),
	})
	if err != nil {
		h.Logger.Warn("ListUsers: request failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, users)
}
