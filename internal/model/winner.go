package model

import "time"

// Winner 活動的中獎者，建立後不可修改
type Winner struct {
	ID           int       `json:"id" db:"id"`
	CampaignID   int       `json:"campaign_id" db:"campaign_id"`
	TicketID     int       `json:"ticket_id" db:"ticket_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	TicketNumber string    `json:"ticket_number" db:"ticket_number"`
	AnnouncedAt  time.Time `json:"announced_at" db:"announced_at"`

	CampaignTitle string `json:"campaign_title,omitempty" db:"-"`
}

// DrawCandidate 參與開獎的已售號碼
type DrawCandidate struct {
	TicketID     int
	TicketNumber string
	UserID       int
}

// WinnerPreview 開獎前的預覽
type WinnerPreview struct {
	CampaignID int       `json:"campaign_id"`
	Seed       uint32    `json:"seed"`
	Candidates int       `json:"candidates"`
	Rank       int       `json:"rank,omitempty"`
	Predicted  *Winner   `json:"predicted,omitempty"`
	Existing   *Winner   `json:"existing,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	PreviewAt  time.Time `json:"preview_at"`
}
