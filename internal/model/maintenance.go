package model

// MaintenanceReport 一次清理的結果
type MaintenanceReport struct {
	ExpiredReservations int `json:"expired_reservations"`
	ExpiredCampaigns    int `json:"expired_campaigns"`
	WinnersDrawn        int `json:"winners_drawn"`
}
