package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PrizeCategory string

const (
	PrizeCategoryCash  PrizeCategory = "cash"
	PrizeCategoryOther PrizeCategory = "other"
)

func (c PrizeCategory) IsValid() bool {
	return c == PrizeCategoryCash || c == PrizeCategoryOther
}

type SpinOutcome string

const (
	SpinOutcomeWin  SpinOutcome = "win"
	SpinOutcomeLose SpinOutcome = "lose"
)

// RoulettePrize 轉盤獎項
type RoulettePrize struct {
	ID        int             `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Category  PrizeCategory   `json:"category" db:"category"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Weight    int             `json:"weight" db:"weight"`
	Active    bool            `json:"active" db:"active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// SpinPlay 一次轉盤紀錄，amount 為當下獎項金額的快照
type SpinPlay struct {
	ID        int             `json:"id" db:"id"`
	UserID    int             `json:"user_id" db:"user_id"`
	Outcome   SpinOutcome     `json:"outcome" db:"outcome"`
	PrizeID   *int            `json:"prize_id,omitempty" db:"prize_id"`
	PrizeName *string         `json:"prize_name,omitempty" db:"prize_name"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// SpinResult 轉盤結果
type SpinResult struct {
	Outcome        SpinOutcome    `json:"outcome"`
	Prize          *RoulettePrize `json:"prize,omitempty"`
	Play           *SpinPlay      `json:"play"`
	AvailableSpins int            `json:"available_spins"`
}

// RouletteStatus 使用者的轉盤狀態
type RouletteStatus struct {
	AvailableSpins int             `json:"available_spins"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	UsedSpins      int             `json:"used_spins"`
	History        []*SpinPlay     `json:"history"`
}

type RouletteSettings struct {
	RTP       int       `json:"rtp" db:"rtp"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CreatePrizeRequest struct {
	Name     string          `json:"name" binding:"required"`
	Category PrizeCategory   `json:"category" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Weight   *int            `json:"weight" binding:"omitempty,min=0"`
	Active   *bool           `json:"active"`
}

type UpdatePrizeParams struct {
	Name     *string          `json:"name"`
	Category *PrizeCategory   `json:"category"`
	Amount   *decimal.Decimal `json:"amount"`
	Weight   *int             `json:"weight" binding:"omitempty,min=0"`
	Active   *bool            `json:"active"`
}

type UpdateSettingsRequest struct {
	RTP int `json:"rtp"`
}

// SelectionWeight 停用的獎項不參與抽選
func (p *RoulettePrize) SelectionWeight() int {
	if !p.Active {
		return 0
	}
	return p.Weight
}
