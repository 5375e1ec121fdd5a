package service_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminReserveAndRelease(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 10, 100)

	ticket, err := env.inventory.AdminReserve(ctx, testAdmin, campaign.ID, model.AdminReserveRequest{Number: "4", Minutes: 5})
	require.NoError(t, err)
	assert.Equal(t, "004", ticket.TicketNumber)
	assert.Equal(t, model.TicketStatusReserved, ticket.Status)
	require.NotNil(t, ticket.ReservedUntil)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), *ticket.ReservedUntil, time.Minute)

	_, err = env.inventory.AdminReserve(ctx, testAdmin, campaign.ID, model.AdminReserveRequest{Number: "004"})
	assert.ErrorIs(t, err, apperrors.ErrTicketNotAvailable)

	released, err := env.inventory.AdminRelease(ctx, testAdmin, campaign.ID, model.AdminReleaseRequest{Number: "004"})
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusAvailable, released.Status)
	assert.Nil(t, released.ReservedUntil)
	assert.Equal(t, model.CampaignStats{Available: 10}, env.stats(t, campaign.ID))
}

func TestAdminRelease_CancelsPendingPurchase(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 10, 100)

	reserved, err := env.purchase.Reserve(ctx, 7, campaign.ID, []string{"1", "2"}, 0)
	require.NoError(t, err)

	_, err = env.inventory.AdminRelease(ctx, testAdmin, campaign.ID, model.AdminReleaseRequest{Number: "1"})
	require.NoError(t, err)

	purchase, err := env.purchases.FindByID(ctx, reserved.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusCancelled, purchase.Status)

	// 同一購買的其他號碼也一併放回
	assert.Equal(t, model.CampaignStats{Available: 10}, env.stats(t, campaign.ID))

	_, err = env.purchase.Confirm(ctx, reserved.PurchaseID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPurchaseStatus)
}

func TestAdminRelease_ConcurrentWithConfirm(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 50, 100)

	for round := 0; round < 10; round++ {
		base := round*3 + 1
		numbers := []string{strconv.Itoa(base), strconv.Itoa(base + 1), strconv.Itoa(base + 2)}

		reserved, err := env.purchase.Reserve(ctx, 7, campaign.ID, numbers, 0)
		require.NoError(t, err)

		var (
			wg                     sync.WaitGroup
			confirmErr, releaseErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, confirmErr = env.purchase.Confirm(ctx, reserved.PurchaseID)
		}()
		go func() {
			defer wg.Done()
			_, releaseErr = env.inventory.AdminRelease(ctx, testAdmin, campaign.ID, model.AdminReleaseRequest{Number: numbers[2]})
		}()
		wg.Wait()

		// 兩者依序執行：先確認則號碼已售出，先釋放則購買已取消
		if confirmErr == nil {
			assert.ErrorIs(t, releaseErr, apperrors.ErrTicketAlreadySold)
		} else {
			assert.ErrorIs(t, confirmErr, apperrors.ErrInvalidPurchaseStatus)
			assert.NoError(t, releaseErr)
		}
	}

	stats := env.stats(t, campaign.ID)
	assert.Zero(t, stats.Reserved)
	assert.Equal(t, campaign.TotalTickets, stats.Total())
}

func TestAdminSell(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 10, 100)

	sold, err := env.inventory.AdminSell(ctx, testAdmin, campaign.ID, model.AdminSellRequest{
		Number:        "9",
		CustomerName:  "Walk-in",
		CustomerPhone: "0912345678",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusSold, sold.Status)
	require.NotNil(t, sold.CustomerName)
	assert.Equal(t, "Walk-in", *sold.CustomerName)
	require.NotNil(t, sold.SoldBy)
	assert.Equal(t, testAdmin.UserID, *sold.SoldBy)

	_, err = env.inventory.AdminSell(ctx, testAdmin, campaign.ID, model.AdminSellRequest{Number: "9"})
	assert.ErrorIs(t, err, apperrors.ErrTicketAlreadySold)

	_, err = env.inventory.AdminRelease(ctx, testAdmin, campaign.ID, model.AdminReleaseRequest{Number: "9"})
	assert.ErrorIs(t, err, apperrors.ErrTicketAlreadySold)

	_, err = env.inventory.AdminSell(ctx, testAdmin, campaign.ID, model.AdminSellRequest{Number: "55"})
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	_, err = env.inventory.AdminSell(ctx, testAdmin, campaign.ID, model.AdminSellRequest{Number: "abc"})
	assert.ErrorIs(t, err, apperrors.ErrNoValidNumbers)
}

func TestUnavailableNumbers(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 20, 100)

	_, err := env.purchase.PurchaseImmediate(ctx, 7, campaign.ID, []string{"10", "2"})
	require.NoError(t, err)
	_, err = env.purchase.Reserve(ctx, 8, campaign.ID, []string{"15"}, 0)
	require.NoError(t, err)

	unavailable, err := env.inventory.UnavailableNumbers(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"002", "010", "015"}, unavailable.Unavailable)
	assert.Equal(t, []string{"015"}, unavailable.Reserved)
	assert.Equal(t, []string{"002", "010"}, unavailable.Sold)
}

func TestExpireReservations(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 10, 100)

	reserved, err := env.purchase.Reserve(ctx, 7, campaign.ID, []string{"1", "2"}, 0)
	require.NoError(t, err)

	n, err := env.inventory.ExpireReservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = env.pool.Exec(ctx, `UPDATE tickets SET reserved_until = NOW() - INTERVAL '1 minute' WHERE status = 'reserved'`)
	require.NoError(t, err)

	n, err = env.inventory.ExpireReservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	purchase, err := env.purchases.FindByID(ctx, reserved.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusCancelled, purchase.Status)
	assert.Equal(t, model.CampaignStats{Available: 10}, env.stats(t, campaign.ID))
}
