package models

import "time"

type Expense struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Amount          float64   `json:"amount"`
	Date            time.Time `json:"date"`
	Payee           string    `json:"payee"`
	Description     string    `json:"description"`
	CategoryID      string    `json:"category_id"`
	Category        *Category `json:"category,omitempty"`
	Labels          []Label   `json:"labels"`
	ReceiptURL      *string   `json:"receipt_url"`
	ReceiptPublicID *string   `json:"receipt_public_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
