package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"raffle-platform/internal/draw"
	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawWinner_Deterministic(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 100, 10)

	// 100 張全部售出
	for i := 0; i < 100; i += 20 {
		numbers := make([]string, 0, 20)
		for n := i; n < i+20; n++ {
			numbers = append(numbers, fmt.Sprint(n))
		}
		_, err := env.purchase.PurchaseImmediate(ctx, 100+i, campaign.ID, numbers)
		require.NoError(t, err)
	}

	drawDate := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.moveDrawDate(t, campaign.ID, drawDate)

	preview, err := env.draws.PeekWinner(ctx, testAdmin, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, preview.Predicted)

	seed := draw.Seed(draw.SeedInput{CampaignID: campaign.ID, Salt: testSalt, DrawDate: &drawDate})
	assert.Equal(t, seed, preview.Seed)
	assert.Equal(t, 100, preview.Candidates)
	assert.Equal(t, int(seed%100)+1, preview.Rank)
	// 號碼 000..099 依數值排序，名次 r 對應號碼 r-1
	assert.Equal(t, fmt.Sprintf("%03d", preview.Rank-1), preview.Predicted.TicketNumber)

	// 預覽兩次結果相同
	again, err := env.draws.PeekWinner(ctx, testAdmin, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, preview.Predicted.TicketID, again.Predicted.TicketID)

	expired, drawn, err := env.draws.AutoExpireAndDraw(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 1, drawn)

	winner, err := env.draws.DrawWinner(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, preview.Predicted.TicketID, winner.TicketID)
	assert.Equal(t, preview.Predicted.UserID, winner.UserID)

	// 已開獎後再跑一次不會產生新的中獎者
	_, drawn, err = env.draws.AutoExpireAndDraw(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, drawn)

	after, err := env.draws.PeekWinner(ctx, testAdmin, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "winner already drawn", after.Reason)
	require.NotNil(t, after.Existing)
	assert.Equal(t, winner.ID, after.Existing.ID)
}

func TestDrawWinner_ExcludesPendingAndWalkIn(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 100, 10)

	_, err := env.purchase.Reserve(ctx, 1, campaign.ID, []string{"1"}, 0)
	require.NoError(t, err)
	_, err = env.inventory.AdminSell(ctx, testAdmin, campaign.ID, model.AdminSellRequest{Number: "2", CustomerName: "Walk-in"})
	require.NoError(t, err)
	_, err = env.purchase.PurchaseImmediate(ctx, 3, campaign.ID, []string{"3"})
	require.NoError(t, err)

	env.moveDrawDate(t, campaign.ID, time.Now().UTC().Add(-time.Hour))

	preview, err := env.draws.PeekWinner(ctx, testAdmin, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.Candidates)
	require.NotNil(t, preview.Predicted)
	assert.Equal(t, "003", preview.Predicted.TicketNumber)
	assert.Equal(t, 3, preview.Predicted.UserID)
}

func TestDrawWinner_NoSoldTickets(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 10, 10)

	_, err := env.draws.DrawWinner(ctx, campaign.ID)
	assert.ErrorIs(t, err, apperrors.ErrDrawNotDue)

	env.moveDrawDate(t, campaign.ID, time.Now().UTC().Add(-time.Minute))

	expired, drawn, err := env.draws.AutoExpireAndDraw(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, drawn)

	winner, err := env.draws.DrawWinner(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, winner)

	view, err := env.campaigns.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusExpired, view.Status)
	assert.Nil(t, view.Winner)
}

func TestPeekWinner_RequiresMaster(t *testing.T) {
	env := setupEnv(t)
	campaign := env.createCampaign(t, 10, 10)

	_, err := env.draws.PeekWinner(context.Background(), model.Actor{UserID: 2, Role: model.RoleAdmin}, campaign.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.draws.PeekWinner(context.Background(), model.Actor{UserID: 3, Role: model.RoleUser, IsMaster: true}, campaign.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestExpiredCampaignRejectsPurchases(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 10, 10)

	env.moveDrawDate(t, campaign.ID, time.Now().UTC().Add(-time.Minute))

	_, err := env.purchase.PurchaseImmediate(ctx, 1, campaign.ID, []string{"1"})
	assert.ErrorIs(t, err, apperrors.ErrCampaignNotActive)
}
