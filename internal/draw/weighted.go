package draw

// RollScale rtp 以整數百分比設定，與 0..9999 的擲骰比較，保留兩位小數精度
const RollScale = 10000

// Weighted 可依權重抽選的項目
type Weighted interface {
	SelectionWeight() int
}

// RollWin 擲出 [0, RollScale) 並與 rtp*100 比較
func RollWin(src RandomSource, rtp int) (bool, int64, error) {
	rtp = ClampRTP(rtp)
	roll, err := src.Intn(RollScale)
	if err != nil {
		return false, 0, err
	}
	return roll < int64(rtp*100), roll, nil
}

// ClampRTP 限制在 0..100
func ClampRTP(rtp int) int {
	return min(max(rtp, 0), 100)
}

// PickWeighted 只考慮正權重的項目，擲出 [0, total) 後沿累積權重找到對應項目
func PickWeighted[T Weighted](src RandomSource, items []T) (T, bool, error) {
	var zero T

	var total int64
	for _, it := range items {
		if w := it.SelectionWeight(); w > 0 {
			total += int64(w)
		}
	}
	if total == 0 {
		return zero, false, nil
	}

	roll, err := src.Intn(total)
	if err != nil {
		return zero, false, err
	}

	var cumulative int64
	for _, it := range items {
		w := it.SelectionWeight()
		if w <= 0 {
			continue
		}
		cumulative += int64(w)
		if roll < cumulative {
			return it, true, nil
		}
	}

	// 不會走到這裡
	return zero, false, nil
}
