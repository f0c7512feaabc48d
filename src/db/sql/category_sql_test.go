package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorySlug(t *testing.T) {
	assert.Equal(t, "office-supplies", CategorySlug("Office Supplies"))
	assert.Equal(t, "software-subscriptions", CategorySlug("Software/Subscriptions"))
	assert.Equal(t, "rent", CategorySlug("  Rent  "))
	assert.Equal(t, "other-income", CategorySlug("Other Income"))
}
