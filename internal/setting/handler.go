package setting

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]Setting, error)
	Load(ctx context.Context) (Settings, error)
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

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Load(r.Context())
	if err != nil {
		h.Logger.Error("GetSettings: failed to load settings", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	rows, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("GetSettings: failed to list settings", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, settings.ToResponse(rows))
}
