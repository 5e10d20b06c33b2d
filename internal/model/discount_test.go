package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPercentageRequest_Validate(t *testing.T) {
	pct := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name       string
		percentage *decimal.Decimal
		wantErr    bool
	}{
		{"Lower bound", pct("1"), false},
		{"Upper bound", pct("80"), false},
		{"Two decimal places", pct("12.35"), false},
		{"Trailing zeros", pct("12.3500"), false},
		{"Missing", nil, true},
		{"Below range", pct("0.99"), true},
		{"Above range", pct("80.01"), true},
		{"Three decimal places", pct("12.345"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ApplyPercentageRequest{Percentage: tt.percentage}).Validate()

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			de, ok := AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, KindInvalidInput, de.Kind)
			assert.Equal(t, ErrCodeInvalidPercentage, de.Code)
		})
	}
}

func TestProductDiscount_IsActive(t *testing.T) {
	d := &ProductDiscount{}
	assert.True(t, d.IsActive())

	removedAt := d.AppliedAt
	d.RemovedAt = &removedAt
	assert.False(t, d.IsActive())
}
