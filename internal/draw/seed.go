// Package draw 包含開獎與轉盤的選擇演算法，不依賴資料庫。
package draw

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

const noDrawDate = "nodraw"

// SeedInput 決定性開獎的輸入
type SeedInput struct {
	CampaignID int
	Salt       string
	DrawDate   *time.Time
}

// Material 回傳雜湊前的字串 "{id}|{salt}|{YYYY-MM-DD|nodraw}"，日期以 UTC 計
func (in SeedInput) Material() string {
	date := noDrawDate
	if in.DrawDate != nil {
		date = in.DrawDate.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("%d|%s|%s", in.CampaignID, in.Salt, date)
}

// Seed sha256 摘要的前 4 bytes，以 big-endian 解讀為 uint32
func Seed(in SeedInput) uint32 {
	sum := sha256.Sum256([]byte(in.Material()))
	return binary.BigEndian.Uint32(sum[:4])
}

// WinningRank 回傳 1..n 的中獎名次；n 為 0 時沒有中獎者
func WinningRank(seed uint32, n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	return int(uint64(seed)%uint64(n)) + 1, true
}

// SelectWinner 從已依號碼數值排序的候選中選出中獎者
func SelectWinner[T any](seed uint32, ranked []T) (T, int, bool) {
	var zero T
	rank, ok := WinningRank(seed, len(ranked))
	if !ok {
		return zero, 0, false
	}
	return ranked[rank-1], rank, true
}
