package setting

type SettingsResponse struct {
	DefaultCurrency          string    `json:"defaultCurrency"`
	ExpenseCategories        []string  `json:"expenseCategories"`
	MaxReceiptSizeMB         int       `json:"maxReceiptSizeMb"`
	RequireReceiptOverAmount float64   `json:"requireReceiptOverAmount"`
	Settings                 []Setting `json:"settings"`
}
