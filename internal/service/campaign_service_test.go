package service_test

import (
	"context"
	"testing"

	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaign_GeneratesTickets(t *testing.T) {
	env := setupEnv(t)

	campaign := env.createCampaign(t, 10, 100)
	assert.Equal(t, 3, campaign.DigitWidth)
	assert.Equal(t, 10, campaign.Stats.Available)

	stats := env.stats(t, campaign.ID)
	assert.Equal(t, model.CampaignStats{Available: 10}, stats)

	numbers, err := env.inventory.ListNumbers(context.Background(), campaign.ID)
	require.NoError(t, err)
	require.Len(t, numbers, 10)
	assert.Equal(t, "000", numbers[0].TicketNumber)
	assert.Equal(t, "009", numbers[9].TicketNumber)
}

func TestCreateCampaign_Invalid(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *model.CreateCampaignRequest
		err  error
	}{
		{
			name: "BlankTitle",
			req:  &model.CreateCampaignRequest{Title: "  ", TotalTickets: 10},
			err:  apperrors.ErrInvalidInput,
		},
		{
			name: "NegativePrice",
			req:  &model.CreateCampaignRequest{Title: "x", TotalTickets: 10, TicketPrice: decimal.NewFromInt(-1)},
			err:  apperrors.ErrInvalidInput,
		},
		{
			name: "DigitsTooSmall",
			req:  &model.CreateCampaignRequest{Title: "x", TotalTickets: 1000, Digits: 2},
			err:  apperrors.ErrDigitWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.campaigns.CreateCampaign(ctx, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGenerateTickets_OnlyOnce(t *testing.T) {
	env := setupEnv(t)
	campaign := env.createCampaign(t, 10, 100)

	_, err := env.inventory.GenerateTickets(context.Background(), campaign.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrTicketsAlreadyGenerated)
	assert.Equal(t, 10, env.stats(t, campaign.ID).Total())
}

func TestListCampaigns_Progress(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 10, 100)

	_, err := env.purchase.PurchaseImmediate(ctx, 7, campaign.ID, []string{"1", "2"})
	require.NoError(t, err)
	_, err = env.purchase.Reserve(ctx, 8, campaign.ID, []string{"3"}, 0)
	require.NoError(t, err)

	views, err := env.campaigns.ListCampaigns(ctx, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.CampaignStats{Available: 7, Reserved: 1, Sold: 2}, views[0].Stats)
	assert.Equal(t, 30, views[0].Progress)

	invalid := model.CampaignStatus("archived")
	_, err = env.campaigns.ListCampaigns(ctx, &invalid)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateCampaign(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 10, 100)

	t.Run("Title", func(t *testing.T) {
		title := "Renamed"
		updated, err := env.campaigns.UpdateCampaign(ctx, campaign.ID, &model.UpdateCampaignParams{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
	})

	t.Run("TotalTicketsLocked", func(t *testing.T) {
		total := 20
		_, err := env.campaigns.UpdateCampaign(ctx, campaign.ID, &model.UpdateCampaignParams{TotalTickets: &total})
		assert.ErrorIs(t, err, apperrors.ErrTicketsAlreadyGenerated)
	})

	t.Run("StatusToDeletedRejected", func(t *testing.T) {
		status := model.CampaignStatusDeleted
		_, err := env.campaigns.UpdateCampaign(ctx, campaign.ID, &model.UpdateCampaignParams{Status: &status})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("ExpireThenNoReactivate", func(t *testing.T) {
		expired := model.CampaignStatusExpired
		updated, err := env.campaigns.UpdateCampaign(ctx, campaign.ID, &model.UpdateCampaignParams{Status: &expired})
		require.NoError(t, err)
		assert.Equal(t, model.CampaignStatusExpired, updated.Status)

		active := model.CampaignStatusActive
		_, err = env.campaigns.UpdateCampaign(ctx, campaign.ID, &model.UpdateCampaignParams{Status: &active})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestDeleteCampaign(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("Soft", func(t *testing.T) {
		campaign := env.createCampaign(t, 10, 100)
		require.NoError(t, env.campaigns.DeleteCampaign(ctx, campaign.ID, false))

		_, err := env.campaigns.GetCampaign(ctx, campaign.ID)
		assert.ErrorIs(t, err, apperrors.ErrCampaignNotFound)

		// 號碼保留，但不能再購買
		assert.Equal(t, 10, env.stats(t, campaign.ID).Total())
		_, err = env.purchase.Reserve(ctx, 7, campaign.ID, []string{"1"}, 0)
		assert.ErrorIs(t, err, apperrors.ErrCampaignNotFound)

		err = env.campaigns.DeleteCampaign(ctx, campaign.ID, false)
		assert.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
	})

	t.Run("Hard", func(t *testing.T) {
		campaign := env.createCampaign(t, 10, 100)
		bought, err := env.purchase.PurchaseImmediate(ctx, 7, campaign.ID, []string{"1"})
		require.NoError(t, err)

		require.NoError(t, env.campaigns.DeleteCampaign(ctx, campaign.ID, true))

		assert.Equal(t, 0, env.stats(t, campaign.ID).Total())
		_, err = env.purchases.FindByID(ctx, bought.PurchaseID)
		assert.ErrorIs(t, err, apperrors.ErrPurchaseNotFound)

		err = env.campaigns.DeleteCampaign(ctx, campaign.ID, true)
		assert.ErrorIs(t, err, apperrors.ErrCampaignNotFound)
	})
}
