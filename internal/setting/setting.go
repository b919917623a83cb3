package setting

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	settingDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/setting"
	"github.com/shopspring/decimal"
)

const (
	KeyDefaultCurrency          = "default_currency"
	KeyExpenseCategories        = "expense_categories"
	KeyMaxReceiptSizeMB         = "max_receipt_size_mb"
	KeyRequireReceiptOverAmount = "require_receipt_over_amount"
)

// Settings is the company configuration handed to the services at startup.
type Settings struct {
	DefaultCurrency          string
	ExpenseCategories        []string
	MaxReceiptSizeMB         int
	RequireReceiptOverAmount decimal.Decimal
}

func Defaults() Settings {
	return Settings{
		DefaultCurrency:          "USD",
		ExpenseCategories:        []string{"Travel", "Meals", "Office Supplies", "Software", "Other"},
		MaxReceiptSizeMB:         10,
		RequireReceiptOverAmount: decimal.NewFromInt(25),
	}
}

// DefaultRows is the seed content of company_settings.
func DefaultRows() []Setting {
	d := Defaults()
	categories, _ := json.Marshal(d.ExpenseCategories)
	return []Setting{
		{Key: KeyDefaultCurrency, Value: d.DefaultCurrency},
		{Key: KeyExpenseCategories, Value: string(categories)},
		{Key: KeyMaxReceiptSizeMB, Value: strconv.Itoa(d.MaxReceiptSizeMB)},
		{Key: KeyRequireReceiptOverAmount, Value: d.RequireReceiptOverAmount.String()},
	}
}

type Setting struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// apply overlays one stored row on s. It reports false when the value
// cannot be parsed, leaving s unchanged.
func (s *Settings) apply(key, value string) bool {
	value = strings.TrimSpace(value)
	switch key {
	case KeyDefaultCurrency:
		if value == "" {
			return false
		}
		s.DefaultCurrency = strings.ToUpper(value)
	case KeyExpenseCategories:
		var categories []string
		if err := json.Unmarshal([]byte(value), &categories); err != nil {
			return false
		}
		s.ExpenseCategories = categories
	case KeyMaxReceiptSizeMB:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return false
		}
		s.MaxReceiptSizeMB = n
	case KeyRequireReceiptOverAmount:
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			return false
		}
		s.RequireReceiptOverAmount = d
	}
	return true
}

func (s Settings) ToResponse(rows []Setting) SettingsResponse {
	if rows == nil {
		rows = []Setting{}
	}
	categories := s.ExpenseCategories
	if categories == nil {
		categories = []string{}
	}
	return SettingsResponse{
		DefaultCurrency:          s.DefaultCurrency,
		ExpenseCategories:        categories,
		MaxReceiptSizeMB:         s.MaxReceiptSizeMB,
		RequireReceiptOverAmount: s.RequireReceiptOverAmount.InexactFloat64(),
		Settings:                 rows,
	}
}

func ToDataModel(s *Setting) *settingDatamodel.CompanySetting {
	return &settingDatamodel.CompanySetting{
		ID:        s.ID,
		Key:       s.Key,
		Value:     s.Value,
		CreatedAt: s.CreatedAt,
	}
}

func FromDataModel(s *settingDatamodel.CompanySetting) *Setting {
	return &Setting{
		ID:        s.ID,
		Key:       s.Key,
		Value:     s.Value,
		CreatedAt: s.CreatedAt.UTC(),
	}
}
