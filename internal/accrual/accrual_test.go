package accrual_test

import (
	"testing"

	"raffle-platform/internal/accrual"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRule_Available(t *testing.T) {
	rule := accrual.Rule{Threshold: decimal.NewFromInt(200), SpinsPerThreshold: 10}

	tests := []struct {
		name  string
		spent string
		used  int
		want  int
	}{
		{"partial threshold", "450", 3, 17},
		{"below threshold", "199.99", 0, 0},
		{"exact threshold", "200", 0, 10},
		{"all used", "400", 20, 0},
		{"overused clamps to zero", "200", 25, 0},
		{"no spend", "0", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Available(decimal.RequireFromString(tt.spent), tt.used))
		})
	}
}

func TestRule_InvalidConfig(t *testing.T) {
	assert.Equal(t, 0, accrual.Rule{Threshold: decimal.Zero, SpinsPerThreshold: 10}.Earned(decimal.NewFromInt(1000)))
	assert.Equal(t, 0, accrual.Rule{Threshold: decimal.NewFromInt(200), SpinsPerThreshold: 0}.Earned(decimal.NewFromInt(1000)))
}
