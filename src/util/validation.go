package util

import (
	"regexp"
	"time"
)

func ValidateEmail(email string) bool {
	re := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return re.MatchString(email)
}

func ValidateUsername(username string) bool {
	return len(username) >= 3 && len(username) <= 30
}

func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLower := regexp.MustCompile("[a-z]").MatchString(password)
	hasUpper := regexp.MustCompile("[A-Z]").MatchString(password)
	hasDigit := regexp.MustCompile("[0-9]").MatchString(password)
	hasSpecial := regexp.MustCompile(`[^A-Za-z0-9]`).MatchString(password)

	return hasLower && hasUpper && hasDigit && hasSpecial
}

func ValidateAmount(amount float64) bool {
	return amount > 0
}

func ValidatePeriod(period string) bool {
	switch period {
	case "weekly", "monthly", "yearly":
		return true
	}
	return false
}

func ValidateCategoryType(categoryType string) bool {
	return categoryType == "EXPENSE" || categoryType == "INCOME"
}

// ValidatePayee checks a payee against the configured allow-list. An empty
// allow-list accepts any non-empty payee.
func ValidatePayee(payee string, allowed []string) bool {
	if payee == "" {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == payee {
			return true
		}
	}
	return false
}

func ValidateColor(color string) bool {
	re := regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	return re.MatchString(color)
}

// ValidateReceiptPair enforces that a receipt URL and its storage public id
// are either both present or both absent.
func ValidateReceiptPair(url, publicID *string) bool {
	if url == nil && publicID == nil {
		return true
	}
	return url != nil && publicID != nil && *url != "" && *publicID != ""
}

// ParseDate accepts RFC 3339 timestamps and plain dates.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
