package model

import "time"

// TicketStatus 號碼狀態類型
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusSold      TicketStatus = "sold"
)

// Ticket 活動中的一個號碼
type Ticket struct {
	ID            int          `json:"id" db:"id"`
	CampaignID    int          `json:"campaign_id" db:"campaign_id"`
	TicketNumber  string       `json:"ticket_number" db:"ticket_number"`
	Status        TicketStatus `json:"status" db:"status"`
	ReservedUntil *time.Time   `json:"reserved_until,omitempty" db:"reserved_until"`
	CustomerName  *string      `json:"customer_name,omitempty" db:"customer_name"`
	CustomerPhone *string      `json:"customer_phone,omitempty" db:"customer_phone"`
	SoldBy        *int         `json:"sold_by,omitempty" db:"sold_by"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// NumberEntry 號碼列表的一列，含持有者資訊
type NumberEntry struct {
	TicketID       int          `json:"ticket_id"`
	TicketNumber   string       `json:"ticket_number"`
	Status         TicketStatus `json:"status"`
	ReservedUntil  *time.Time   `json:"reserved_until,omitempty"`
	PurchaseID     *int         `json:"purchase_id,omitempty"`
	PurchaseStatus *string      `json:"purchase_status,omitempty"`
	UserID         *int         `json:"user_id,omitempty"`
	CustomerName   *string      `json:"customer_name,omitempty"`
	CustomerPhone  *string      `json:"customer_phone,omitempty"`
}

// UnavailableNumbers 已被保留或售出的號碼
type UnavailableNumbers struct {
	Unavailable []string `json:"unavailable_numbers"`
	Reserved    []string `json:"reserved"`
	Sold        []string `json:"sold"`
}

type GenerateTicketsRequest struct {
	Digits int `json:"digits" binding:"omitempty,min=1,max=12"`
}

type AdminReserveRequest struct {
	Number  string `json:"number" binding:"required"`
	Minutes int    `json:"minutes" binding:"omitempty,min=1"`
}

type AdminReleaseRequest struct {
	Number string `json:"number" binding:"required"`
}

type AdminSellRequest struct {
	Number        string `json:"number" binding:"required"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}
