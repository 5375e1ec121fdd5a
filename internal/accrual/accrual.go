// Package accrual 由累計消費換算轉盤次數。
package accrual

import "github.com/shopspring/decimal"

// Rule 每滿 Threshold 可得 SpinsPerThreshold 次
type Rule struct {
	Threshold         decimal.Decimal
	SpinsPerThreshold int
}

// Earned floor(spent / threshold) * spinsPerThreshold
func (r Rule) Earned(spent decimal.Decimal) int {
	if !r.Threshold.IsPositive() || r.SpinsPerThreshold <= 0 || !spent.IsPositive() {
		return 0
	}
	steps := spent.Div(r.Threshold).Floor().IntPart()
	return int(steps) * r.SpinsPerThreshold
}

// Available max(0, earned - used)，used 包含輸與贏
func (r Rule) Available(spent decimal.Decimal, used int) int {
	return max(0, r.Earned(spent)-used)
}
