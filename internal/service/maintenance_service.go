package service

import (
	"context"
	"errors"
	"raffle-platform/internal/cache"
	"raffle-platform/internal/model"
	"raffle-platform/pkg/logger"

	"go.uber.org/zap"
)

// MaintenanceService 清理逾時保留、到期活動與自動開獎
type MaintenanceService interface {
	// 立即執行一次
	Run(ctx context.Context) (*model.MaintenanceReport, error)
	// 懶觸發：經 SweepGate 節流，錯誤只記錄不回傳
	Trigger(ctx context.Context)
}

type MaintenanceServiceImpl struct {
	inventory InventoryService
	draws     DrawService
	gate      cache.SweepGate
}

func NewMaintenanceService(inventory InventoryService, draws DrawService, gate cache.SweepGate) MaintenanceService {
	return &MaintenanceServiceImpl{
		inventory: inventory,
		draws:     draws,
		gate:      gate,
	}
}

func (s *MaintenanceServiceImpl) Run(ctx context.Context) (*model.MaintenanceReport, error) {
	report := &model.MaintenanceReport{}

	expired, err := s.inventory.ExpireReservations(ctx)
	if err != nil {
		return report, err
	}
	report.ExpiredReservations = expired

	campaigns, drawn, err := s.draws.AutoExpireAndDraw(ctx)
	report.ExpiredCampaigns = campaigns
	report.WinnersDrawn = drawn
	return report, err
}

func (s *MaintenanceServiceImpl) Trigger(ctx context.Context) {
	log := logger.WithComponent("sweeper")

	if s.gate != nil {
		ok, err := s.gate.Allow(ctx)
		if err != nil {
			// 節流失效時照常執行，清理本身可重複呼叫
			log.Warn("sweep gate unavailable", zap.Error(err))
		} else if !ok {
			return
		}
	}

	if _, err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("maintenance failed", zap.Error(err))
	}
}
