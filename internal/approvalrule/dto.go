package approvalrule

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateRuleDTO struct {
	MinAmount         *decimal.Decimal `json:"minAmount"`
	MaxAmount         *decimal.Decimal `json:"maxAmount"`
	RequiredApprovers *int             `json:"requiredApprovers"`
	AutoApprove       bool             `json:"autoApprove"`
}

type RuleResponse struct {
	ID                int64     `json:"id"`
	MinAmount         float64   `json:"minAmount"`
	MaxAmount         *float64  `json:"maxAmount"`
	RequiredApprovers int       `json:"requiredApprovers"`
	AutoApprove       bool      `json:"autoApprove"`
	CreatedAt         time.Time `json:"createdAt"`
}

type GapResponse struct {
	From float64  `json:"from"`
	To   *float64 `json:"to"`
}

type CoverageResponse struct {
	Rules []RuleResponse `json:"rules"`
	Gaps  []GapResponse  `json:"gaps"`
}

func (r *Rule) ToResponse() RuleResponse {
	return RuleResponse{
		ID:                r.ID,
		MinAmount:         r.MinAmount.InexactFloat64(),
		MaxAmount:         floatPtr(r.MaxAmount),
		RequiredApprovers: r.RequiredApprovers,
		AutoApprove:       r.AutoApprove,
		CreatedAt:         r.CreatedAt,
	}
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
