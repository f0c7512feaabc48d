package models

import "time"

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Budget is a recurring spending ceiling. A nil CategoryID means the budget
// covers all expense categories ("overall").
type Budget struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Amount     float64   `json:"amount"`
	Period     string    `json:"period"`
	CategoryID *string   `json:"category_id"`
	Category   *Category `json:"category,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
