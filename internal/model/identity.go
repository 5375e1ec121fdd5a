package model

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Actor 已驗證的呼叫者身分，由外部驗證後傳入
type Actor struct {
	UserID   int    `json:"user_id"`
	Role     string `json:"role"`
	IsMaster bool   `json:"is_master"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
