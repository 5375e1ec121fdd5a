// Package auth 驗證外部簽發的 HS256 token，轉成 model.Actor。
package auth

import (
	"fmt"
	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenVerifier interface {
	Verify(token string) (model.Actor, error)
}

type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

// Sign 供測試與內部工具使用，正式環境由登入服務簽發
func (m *JWTManager) Sign(actor model.Actor) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   actor.UserID,
		"role":      actor.Role,
		"is_master": actor.IsMaster,
		"exp":       time.Now().Add(m.ttl).Unix(),
	})
	return token.SignedString(m.secret)
}

func (m *JWTManager) Verify(raw string) (model.Actor, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Actor{}, apperrors.ErrUnauthorized
	}

	// 數字欄位經 JSON 解析後為 float64
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return model.Actor{}, fmt.Errorf("%w: missing user_id", apperrors.ErrUnauthorized)
	}

	actor := model.Actor{UserID: int(userID), Role: model.RoleUser}
	if role, ok := claims["role"].(string); ok && role != "" {
		actor.Role = role
	}
	if master, ok := claims["is_master"].(bool); ok {
		actor.IsMaster = master
	}
	return actor, nil
}

