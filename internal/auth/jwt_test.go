package auth_test

import (
	"errors"
	"testing"
	"time"

	"raffle-platform/internal/auth"
	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := manager.Sign(model.Actor{UserID: 42, Role: model.RoleAdmin, IsMaster: true})
		require.NoError(t, err)

		actor, err := manager.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, 42, actor.UserID)
		assert.True(t, actor.IsAdmin())
		assert.True(t, actor.IsMaster)
	})

	t.Run("DefaultRole", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 7,
			"exp":     time.Now().Add(time.Minute).Unix(),
		})
		raw, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		actor, err := manager.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, model.RoleUser, actor.Role)
		assert.False(t, actor.IsMaster)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := auth.NewJWTManager("other", time.Hour).Sign(model.Actor{UserID: 1})
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("Expired", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 1,
			"exp":     time.Now().Add(-time.Minute).Unix(),
		})
		raw, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = manager.Verify(raw)
		assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("MissingUserID", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"role": model.RoleAdmin,
			"exp":  time.Now().Add(time.Minute).Unix(),
		})
		raw, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = manager.Verify(raw)
		assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	})
}
