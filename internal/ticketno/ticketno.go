// Package ticketno 處理號碼的正規化、寬度與排序。
//
// 號碼以字串保存以保留前導零；任何比較前都要先補齊到 SortWidth，
// 否則 "10" 會排在 "2" 前面。
package ticketno

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// SortWidth 排序與比較時統一補齊的寬度，也是號碼的最大寬度
	SortWidth = 12
	// MinDefaultWidth 預設寬度下限
	MinDefaultWidth = 3
)

// DigitsFor 回傳表示 n 所需的位數
func DigitsFor(n int) int {
	if n <= 0 {
		return 1
	}
	return len(strconv.Itoa(n))
}

// DefaultWidth max(3, 表示 total-1 所需的位數)
func DefaultWidth(total int) int {
	return max(MinDefaultWidth, DigitsFor(total-1))
}

// ValidateWidth 檢查寬度足以容納 0..total-1
func ValidateWidth(total, width int) error {
	if total <= 0 {
		return fmt.Errorf("total tickets must be positive, got %d", total)
	}
	if width < DigitsFor(total-1) || width > SortWidth {
		return fmt.Errorf("width %d cannot hold %d tickets", width, total)
	}
	return nil
}

// Format 將序號補零到指定寬度
func Format(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// Normalize 去除非數字字元並補零到 width，去重後保持原順序。
// 清理後為空的項目會被丟棄；超過 width 的號碼原樣保留，交由查詢回報不存在。
func Normalize(raw []string, width int) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))

	for _, r := range raw {
		n, ok := normalizeOne(r, width)
		if !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out
}

func normalizeOne(raw string, width int) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", false
	}

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	if len(digits) >= width {
		return digits, true
	}
	return strings.Repeat("0", width-len(digits)) + digits, true
}

// SortKey 補齊到 SortWidth，用於數值順序比較
func SortKey(number string) string {
	if len(number) >= SortWidth {
		return number
	}
	return strings.Repeat("0", SortWidth-len(number)) + number
}

// Less 依數值大小比較兩個號碼
func Less(a, b string) bool {
	return SortKey(a) < SortKey(b)
}

// Sort 依數值大小原地排序
func Sort(numbers []string) {
	sort.Slice(numbers, func(i, j int) bool {
		return Less(numbers[i], numbers[j])
	})
}
