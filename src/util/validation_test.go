package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.example.co"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("user@"))
	assert.False(t, ValidateEmail("@example.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("Str0ng!pass"))
	assert.False(t, ValidatePassword("short1!"))
	assert.False(t, ValidatePassword("alllowercase1!"))
	assert.False(t, ValidatePassword("NoDigits!!"))
	assert.False(t, ValidatePassword("NoSpecial123"))
}

func TestValidateAmount(t *testing.T) {
	assert.True(t, ValidateAmount(0.01))
	assert.False(t, ValidateAmount(0))
	assert.False(t, ValidateAmount(-5))
}

func TestValidatePeriod(t *testing.T) {
	assert.True(t, ValidatePeriod("weekly"))
	assert.True(t, ValidatePeriod("monthly"))
	assert.True(t, ValidatePeriod("yearly"))
	assert.False(t, ValidatePeriod("daily"))
	assert.False(t, ValidatePeriod("MONTHLY"))
	assert.False(t, ValidatePeriod(""))
}

func TestValidateCategoryType(t *testing.T) {
	assert.True(t, ValidateCategoryType("EXPENSE"))
	assert.True(t, ValidateCategoryType("INCOME"))
	assert.False(t, ValidateCategoryType("expense"))
	assert.False(t, ValidateCategoryType(""))
}

func TestValidatePayee(t *testing.T) {
	allowed := []string{"ALICE", "BOB"}

	assert.True(t, ValidatePayee("ALICE", allowed))
	assert.False(t, ValidatePayee("CAROL", allowed))
	assert.False(t, ValidatePayee("", allowed))

	// Without an allow-list any non-empty payee passes.
	assert.True(t, ValidatePayee("anyone", nil))
	assert.False(t, ValidatePayee("", nil))
}

func TestValidateColor(t *testing.T) {
	assert.True(t, ValidateColor("#2ECC71"))
	assert.True(t, ValidateColor("#abcdef"))
	assert.False(t, ValidateColor("2ECC71"))
	assert.False(t, ValidateColor("#2EC"))
	assert.False(t, ValidateColor("#GGGGGG"))
}

func TestValidateReceiptPair(t *testing.T) {
	url := "https://res.example.com/receipt.png"
	id := "expense-1-123"
	empty := ""

	assert.True(t, ValidateReceiptPair(nil, nil))
	assert.True(t, ValidateReceiptPair(&url, &id))
	assert.False(t, ValidateReceiptPair(&url, nil))
	assert.False(t, ValidateReceiptPair(nil, &id))
	assert.False(t, ValidateReceiptPair(&empty, &id))
}

func TestParseDate(t *testing.T) {
	plain, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), plain)

	stamped, err := ParseDate("2024-03-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, stamped.Hour())

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)
}
