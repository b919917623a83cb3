package analytics

import (
	"sort"
	"time"

	"github.com/frahmantamala/expense-approval/internal/core/common/query"
	"github.com/shopspring/decimal"
)

const statusApproved = "approved"

// Record is the slice of an expense row the aggregator needs.
type Record struct {
	ID        int64           `db:"id"`
	Status    string          `db:"status"`
	Category  string          `db:"category"`
	Currency  string          `db:"currency"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
}

type Filter struct {
	UserID *int64
	Range  query.DateRange
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

type StatusTotal struct {
	Status string  `json:"status"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

type CurrencyTotal struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

type MonthlyTotal struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type Report struct {
	TotalSpent    float64         `json:"totalSpent"`
	ByCategory    []CategoryTotal `json:"byCategory"`
	ByStatus      []StatusTotal   `json:"byStatus"`
	ByCurrency    []CurrencyTotal `json:"byCurrency"`
	MonthlyTrends []MonthlyTotal  `json:"monthlyTrends"`
	AverageAmount float64         `json:"averageAmount"`
}

// group accumulates exact sums per key, remembering first-seen order.
type group struct {
	keys   []string
	sums   map[string]decimal.Decimal
	counts map[string]int
}

func newGroup() *group {
	return &group{
		sums:   make(map[string]decimal.Decimal),
		counts: make(map[string]int),
	}
}

func (g *group) add(key string, amount decimal.Decimal) {
	if _, seen := g.sums[key]; !seen {
		g.keys = append(g.keys, key)
		g.sums[key] = decimal.Zero
	}
	g.sums[key] = g.sums[key].Add(amount)
	g.counts[key]++
}

func (g *group) amount(key string) float64 {
	return round(g.sums[key])
}

// round reports a sum at cent precision. Amounts are non-negative, so
// decimal's half-away-from-zero rounding is half-up.
func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Aggregate computes the report over records. Every monetary figure except
// byStatus only counts approved expenses.
func Aggregate(records []Record) Report {
	total := decimal.Zero
	approved := 0

	byCategory := newGroup()
	byStatus := newGroup()
	byCurrency := newGroup()
	byMonth := newGroup()

	for _, r := range records {
		byStatus.add(r.Status, r.Amount)
		if r.Status != statusApproved {
			continue
		}
		approved++
		total = total.Add(r.Amount)
		byCategory.add(r.Category, r.Amount)
		byCurrency.add(r.Currency, r.Amount)
		byMonth.add(r.CreatedAt.UTC().Format("2006-01"), r.Amount)
	}

	report := Report{
		TotalSpent:    round(total),
		ByCategory:    make([]CategoryTotal, 0, len(byCategory.keys)),
		ByStatus:      make([]StatusTotal, 0, len(byStatus.keys)),
		ByCurrency:    make([]CurrencyTotal, 0, len(byCurrency.keys)),
		MonthlyTrends: make([]MonthlyTotal, 0, len(byMonth.keys)),
	}
	if approved > 0 {
		report.AverageAmount = round(total.Div(decimal.NewFromInt(int64(approved))))
	}

	for _, k := range byCategory.keys {
		report.ByCategory = append(report.ByCategory, CategoryTotal{Category: k, Amount: byCategory.amount(k), Count: byCategory.counts[k]})
	}
	for _, k := range byStatus.keys {
		report.ByStatus = append(report.ByStatus, StatusTotal{Status: k, Amount: byStatus.amount(k), Count: byStatus.counts[k]})
	}
	for _, k := range byCurrency.keys {
		report.ByCurrency = append(report.ByCurrency, CurrencyTotal{Currency: k, Amount: byCurrency.amount(k)})
	}

	months := append([]string(nil), byMonth.keys...)
	sort.Strings(months)
	for _, m := range months {
		report.MonthlyTrends = append(report.MonthlyTrends, MonthlyTotal{Month: m, Amount: byMonth.amount(m)})
	}

	return report
}
