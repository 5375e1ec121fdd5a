package worker

import (
	"context"
	"raffle-platform/internal/service"
	"raffle-platform/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// SweepWorker 固定間隔執行清理與自動開獎，補足沒有請求進來時的空窗
type SweepWorker interface {
	Start(ctx context.Context) error
}

type SweepWorkerImpl struct {
	maintenance service.MaintenanceService
	interval    time.Duration
}

func NewSweepWorker(maintenance service.MaintenanceService, interval time.Duration) SweepWorker {
	return &SweepWorkerImpl{
		maintenance: maintenance,
		interval:    interval,
	}
}

func (w *SweepWorkerImpl) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}

	log := logger.WithComponent("worker")

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report, err := w.maintenance.Run(ctx)
				if err != nil {
					if ctx.Err() == nil {
						log.Error("sweep failed", zap.Error(err))
					}
					continue
				}
				if report.ExpiredReservations > 0 || report.ExpiredCampaigns > 0 || report.WinnersDrawn > 0 {
					log.Info("sweep finished",
						zap.Int("expired_reservations", report.ExpiredReservations),
						zap.Int("expired_campaigns", report.ExpiredCampaigns),
						zap.Int("winners_drawn", report.WinnersDrawn),
					)
				}
			}
		}
	}()
	return nil
}
