package draw

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// RandomSource 產生 [0, n) 的均勻整數
type RandomSource interface {
	Intn(n int64) (int64, error)
}

// CryptoSource 以 crypto/rand 為來源，用於涉及實際價值的抽選
type CryptoSource struct{}

func NewCryptoSource() CryptoSource {
	return CryptoSource{}
}

func (CryptoSource) Intn(n int64) (int64, error) {
	if n <= 0 {
		return 0, errors.New("random bound must be positive")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}
