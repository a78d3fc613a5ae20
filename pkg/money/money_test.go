package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsValidAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		valid  bool
	}{
		{"whole amount", "100", true},
		{"two decimal places", "99.99", true},
		{"one decimal place", "0.5", true},
		{"smallest unit", "0.01", true},
		{"zero", "0", false},
		{"negative", "-10.00", false},
		{"three decimal places", "10.001", false},
		{"sub-minor fraction", "0.005", false},
		{"trailing zeros beyond scale", "10.1000", true},
		{"large amount", "999999999999.99", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.amount)
			assert.NoError(t, err)
			assert.Equal(t, tt.valid, IsValidAmount(d))
		})
	}
}

func TestFromMajor(t *testing.T) {
	d, err := FromMajor("1250.75")
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1250.75")))

	_, err = FromMajor("not-a-number")
	assert.Error(t, err)
}

func TestZero(t *testing.T) {
	assert.True(t, Zero().IsZero())
}
