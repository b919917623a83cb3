package approvalrule

import (
	"time"

	approvalRuleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	"github.com/shopspring/decimal"
)

// Rule maps an amount range to an approval requirement. The range is
// half-open: MinAmount is included, MaxAmount is not. A nil MaxAmount is
// unbounded.
type Rule struct {
	ID                int64
	MinAmount         decimal.Decimal
	MaxAmount         *decimal.Decimal
	RequiredApprovers int
	AutoApprove       bool
	CreatedAt         time.Time
}

func (r *Rule) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(r.MinAmount) {
		return false
	}
	return r.MaxAmount == nil || amount.LessThan(*r.MaxAmount)
}

func (r *Rule) Overlaps(other *Rule) bool {
	// [a, b) and [c, d) intersect when a < d and c < b
	if other.MaxAmount != nil && !r.MinAmount.LessThan(*other.MaxAmount) {
		return false
	}
	if r.MaxAmount != nil && !other.MinAmount.LessThan(*r.MaxAmount) {
		return false
	}
	return true
}

// Gap is an amount range no rule covers. A nil To is unbounded.
type Gap struct {
	From decimal.Decimal
	To   *decimal.Decimal
}

// FindGaps reports the parts of [0, ∞) left uncovered by rules, which must
// be sorted by MinAmount and non-overlapping.
func FindGaps(rules []*Rule) []Gap {
	gaps := make([]Gap, 0)
	cursor := decimal.Zero
	for _, r := range rules {
		if r.MinAmount.GreaterThan(cursor) {
			to := r.MinAmount
			gaps = append(gaps, Gap{From: cursor, To: &to})
		}
		if r.MaxAmount == nil {
			return gaps
		}
		if r.MaxAmount.GreaterThan(cursor) {
			cursor = *r.MaxAmount
		}
	}
	return append(gaps, Gap{From: cursor})
}

func ToDataModel(r *Rule) *approvalRuleDatamodel.ApprovalRule {
	row := &approvalRuleDatamodel.ApprovalRule{
		ID:                r.ID,
		MinAmount:         r.MinAmount,
		RequiredApprovers: r.RequiredApprovers,
		AutoApprove:       r.AutoApprove,
		CreatedAt:         r.CreatedAt,
	}
	if r.MaxAmount != nil {
		row.MaxAmount = decimal.NewNullDecimal(*r.MaxAmount)
	}
	return row
}

func FromDataModel(row *approvalRuleDatamodel.ApprovalRule) *Rule {
	r := &Rule{
		ID:                row.ID,
		MinAmount:         row.MinAmount,
		RequiredApprovers: row.RequiredApprovers,
		AutoApprove:       row.AutoApprove,
		CreatedAt:         row.CreatedAt.UTC(),
	}
	if row.MaxAmount.Valid {
		upper := row.MaxAmount.Decimal
		r.MaxAmount = &upper
	}
	return r
}

// DefaultRules is the policy table seeded into a fresh database.
func DefaultRules() []*Rule {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bound := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	return []*Rule{
		{MinAmount: decimal.Zero, MaxAmount: bound("99.99"), RequiredApprovers: 0, AutoApprove: true, CreatedAt: created},
		{MinAmount: decimal.NewFromInt(100), MaxAmount: bound("1000"), RequiredApprovers: 1, CreatedAt: created},
		{MinAmount: decimal.NewFromInt(1000), RequiredApprovers: 2, CreatedAt: created},
	}
}
