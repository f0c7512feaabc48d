package models

import "time"

const (
	CategoryTypeExpense = "EXPENSE"
	CategoryTypeIncome  = "INCOME"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryWithCount is a Category plus the number of transactions that
// reference it, used by the settings screen and the deletion guard.
type CategoryWithCount struct {
	Category
	TransactionCount int `json:"transaction_count"`
}
