package approvalrule

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal/transport"
)

type ServiceAPI interface {
	ListRules(ctx context.Context) ([]RuleResponse, error)
	CreateRule(ctx context.Context, dto CreateRuleDTO) (*RuleResponse, error)
	MatchRule(ctx context.Context, rawAmount string) (*RuleResponse, error)
	Coverage(ctx context.Context) (*CoverageResponse, error)
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

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Service.ListRules(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rules)
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var dto CreateRuleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("CreateRule: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	rule, err := h.Service.CreateRule(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, rule)
}

// MatchRule handles GET /approval-rules/match?amount=
func (h *Handler) MatchRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.Service.MatchRule(r.Context(), r.URL.Query().Get("amount"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) Coverage(w http.ResponseWriter, r *http.Request) {
	coverage, err := h.Service.Coverage(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, coverage)
}
