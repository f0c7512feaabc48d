package models

import "time"

type Income struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
