package analytics

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal/transport"
)

type ServiceAPI interface {
	ComputeAnalytics(ctx context.Context, params Params) (*Report, error)
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

// GetAnalytics handles GET /analytics
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.Service.ComputeAnalytics(r.Context(), Params{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		UserID:    q.Get("userId"),
	})
	if err != nil {
		h.Logger.Warn("GetAnalytics: request failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}
