package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus 購買狀態類型
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// IsValid 驗證狀態是否有效
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseStatusPending, PurchaseStatusCompleted, PurchaseStatusCancelled, PurchaseStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態，completed 之後不可回退
func (s PurchaseStatus) CanTransitionTo(target PurchaseStatus) bool {
	transitions := map[PurchaseStatus][]PurchaseStatus{
		PurchaseStatusPending:   {PurchaseStatusCompleted, PurchaseStatusCancelled, PurchaseStatusFailed},
		PurchaseStatusCompleted: {},
		PurchaseStatusCancelled: {},
		PurchaseStatusFailed:    {},
	}

	for _, status := range transitions[s] {
		if status == target {
			return true
		}
	}
	return false
}

// Purchase 購買紀錄
type Purchase struct {
	ID          int             `json:"id" db:"id"`
	UserID      int             `json:"user_id" db:"user_id"`
	CampaignID  int             `json:"campaign_id" db:"campaign_id"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	TicketCount int             `json:"ticket_count" db:"ticket_count"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status      PurchaseStatus  `json:"status" db:"status"`
	GatewayID   *string         `json:"gateway_id,omitempty" db:"gateway_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`

	Numbers []string `json:"numbers,omitempty" db:"-"`
}

// ReserveRequest 保留號碼請求
type ReserveRequest struct {
	CampaignID int      `json:"campaign_id" binding:"required"`
	Numbers    []string `json:"numbers" binding:"required,min=1"`
	// 未指定時使用預設保留時間
	TTLMinutes int `json:"ttl_minutes" binding:"omitempty,min=1,max=1440"`
}

// ReservationResult 保留成功的結果
type ReservationResult struct {
	PurchaseID      int             `json:"purchase_id"`
	ReservedNumbers []string        `json:"reserved_numbers"`
	ReservedUntil   time.Time       `json:"reserved_until"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// DirectPurchaseRequest 直接購買請求
type DirectPurchaseRequest struct {
	CampaignID int      `json:"campaign_id" binding:"required"`
	Numbers    []string `json:"numbers" binding:"required,min=1"`
}

// DirectPurchaseResult 直接購買的結果
type DirectPurchaseResult struct {
	PurchaseID     int             `json:"purchase_id"`
	Numbers        []string        `json:"numbers"`
	Total          decimal.Decimal `json:"total"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	AvailableSpins int             `json:"available_spins"`
}

// SettlementEvent 付款服務回報的結算狀態
type SettlementEvent struct {
	RequestID  string         `json:"request_id"`
	PurchaseID int            `json:"purchase_id" binding:"required"`
	Status     PurchaseStatus `json:"status" binding:"required"`
	GatewayID  string         `json:"gateway_id"`
}

// CampaignTitles 使用者在某活動中持有的號碼
type CampaignTitles struct {
	CampaignID    int            `json:"campaign_id"`
	CampaignTitle string         `json:"campaign_title"`
	Status        CampaignStatus `json:"status"`
	DrawDate      *time.Time     `json:"draw_date,omitempty"`
	Numbers       []string       `json:"numbers"`
}
