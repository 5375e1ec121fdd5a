package service_test

import (
	"context"
	"testing"
	"time"

	"raffle-platform/internal/accrual"
	"raffle-platform/internal/cache"
	"raffle-platform/internal/draw"
	"raffle-platform/internal/model"
	"raffle-platform/internal/repository"
	"raffle-platform/internal/service"
	"raffle-platform/internal/testutil"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSalt = "test-salt"

var (
	testAdmin = model.Actor{UserID: 1, Role: model.RoleAdmin, IsMaster: true}
)

type testEnv struct {
	pool        *pgxpool.Pool
	tickets     repository.TicketRepository
	purchases   repository.PurchaseRepository
	campaigns   service.CampaignService
	inventory   service.InventoryService
	draws       service.DrawService
	maintenance service.MaintenanceService
	roulette    service.RouletteService
	purchase    service.PurchaseService
}

// setupEnv 整合測試共用同一個資料庫，需以 -p 1 執行
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	pool := testutil.RequireDatabase(t)
	testutil.Truncate(t, pool)

	campaignRepository := repository.NewCampaignRepository(pool)
	ticketRepository := repository.NewTicketRepository(pool)
	purchaseRepository := repository.NewPurchaseRepository(pool)
	winnerRepository := repository.NewWinnerRepository(pool)
	rouletteRepository := repository.NewRouletteRepository(pool)

	inventory := service.NewInventoryService(pool, campaignRepository, ticketRepository, purchaseRepository, 30)
	draws := service.NewDrawService(pool, campaignRepository, ticketRepository, winnerRepository, testSalt)
	maintenance := service.NewMaintenanceService(inventory, draws, cache.NewLocalSweepGate(0))
	roulette := service.NewRouletteService(pool, purchaseRepository, rouletteRepository, accrual.Rule{
		Threshold:         decimal.NewFromInt(200),
		SpinsPerThreshold: 10,
	}, draw.NewCryptoSource())

	return &testEnv{
		pool:        pool,
		tickets:     ticketRepository,
		purchases:   purchaseRepository,
		campaigns:   service.NewCampaignService(pool, campaignRepository, ticketRepository, winnerRepository, maintenance),
		inventory:   inventory,
		draws:       draws,
		maintenance: maintenance,
		roulette:    roulette,
		purchase:    service.NewPurchaseService(pool, campaignRepository, ticketRepository, purchaseRepository, inventory, roulette, 10),
	}
}

func (e *testEnv) createCampaign(t *testing.T, total int, price int64) *model.CampaignView {
	t.Helper()

	drawDate := time.Now().UTC().Add(24 * time.Hour)
	campaign, err := e.campaigns.CreateCampaign(context.Background(), &model.CreateCampaignRequest{
		Title:        "Test Campaign",
		TicketPrice:  decimal.NewFromInt(price),
		TotalTickets: total,
		DrawDate:     &drawDate,
	})
	require.NoError(t, err)
	return campaign
}

func (e *testEnv) stats(t *testing.T, campaignID int) model.CampaignStats {
	t.Helper()

	stats, err := e.tickets.Stats(context.Background(), e.pool, campaignID)
	require.NoError(t, err)
	return stats
}

// moveDrawDate 把開獎日改到過去，模擬時間經過
func (e *testEnv) moveDrawDate(t *testing.T, campaignID int, drawDate time.Time) {
	t.Helper()

	_, err := e.pool.Exec(context.Background(), `UPDATE campaigns SET draw_date = $1 WHERE id = $2`, drawDate, campaignID)
	require.NoError(t, err)
}
