package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus 活動狀態類型
type CampaignStatus string

const (
	CampaignStatusActive  CampaignStatus = "active"
	CampaignStatusExpired CampaignStatus = "expired"
	CampaignStatusDeleted CampaignStatus = "deleted"
)

// IsValid 驗證狀態是否有效
func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusExpired, CampaignStatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s CampaignStatus) CanTransitionTo(target CampaignStatus) bool {
	transitions := map[CampaignStatus][]CampaignStatus{
		CampaignStatusActive:  {CampaignStatusExpired, CampaignStatusDeleted},
		CampaignStatusExpired: {CampaignStatusDeleted},
		CampaignStatusDeleted: {}, // 終態
	}

	for _, status := range transitions[s] {
		if status == target {
			return true
		}
	}
	return false
}

// Campaign 抽獎活動
type Campaign struct {
	ID           int             `json:"id" db:"id"`
	Title        string          `json:"title" db:"title"`
	Description  string          `json:"description" db:"description"`
	ImageURL     string          `json:"image_url" db:"image_url"`
	TicketPrice  decimal.Decimal `json:"ticket_price" db:"ticket_price"`
	TotalTickets int             `json:"total_tickets" db:"total_tickets"`
	DigitWidth   int             `json:"digit_width" db:"digit_width"`
	DrawDate     *time.Time      `json:"draw_date,omitempty" db:"draw_date"`
	Status       CampaignStatus  `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// IsDeleted 檢查活動是否已刪除
func (c *Campaign) IsDeleted() bool {
	return c.Status == CampaignStatusDeleted
}

// DrawDue 開獎時間已到
func (c *Campaign) DrawDue(now time.Time) bool {
	return c.DrawDate != nil && !c.DrawDate.After(now)
}

// CampaignStats 各狀態票數
type CampaignStats struct {
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Sold      int `json:"sold"`
}

func (s CampaignStats) Total() int {
	return s.Available + s.Reserved + s.Sold
}

// CampaignView 公開頁面使用的活動資訊
type CampaignView struct {
	Campaign
	Stats    CampaignStats `json:"stats"`
	Progress int           `json:"progress"`
	Winner   *Winner       `json:"winner,omitempty"`
}

// CreateCampaignRequest 建立活動請求
type CreateCampaignRequest struct {
	Title        string          `json:"title" binding:"required"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"image_url"`
	TicketPrice  decimal.Decimal `json:"ticket_price"`
	TotalTickets int             `json:"total_tickets" binding:"required,min=1"`
	DrawDate     *time.Time      `json:"draw_date"`
	Digits       int             `json:"digits" binding:"omitempty,min=1,max=12"`
}

type UpdateCampaignParams struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	ImageURL     *string          `json:"image_url"`
	TicketPrice  *decimal.Decimal `json:"ticket_price"`
	TotalTickets *int             `json:"total_tickets"`
	DrawDate     *time.Time       `json:"draw_date"`
	Status       *CampaignStatus  `json:"status"`
}
