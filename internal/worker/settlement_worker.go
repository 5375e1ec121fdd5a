package worker

import (
	"context"
	"raffle-platform/internal/queue"
	"raffle-platform/internal/service"
	apperrors "raffle-platform/pkg/app_errors"
	"raffle-platform/pkg/logger"

	"go.uber.org/zap"
)

type SettlementWorker interface {
	// 訂閱付款結算隊列
	Start(ctx context.Context) error
}

type SettlementWorkerImpl struct {
	service service.PurchaseService
	queue   queue.SettlementQueue
}

func NewSettlementWorker(service service.PurchaseService, queue queue.SettlementQueue) SettlementWorker {
	return &SettlementWorkerImpl{
		service: service,
		queue:   queue,
	}
}

func (w *SettlementWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeSettlements(ctx)
	if err != nil {
		return err
	}

	log := logger.WithComponent("worker")

	go func() {
		for msg := range msgs {
			event := msg.Data
			_, err := w.service.ApplySettlement(ctx, event)

			switch {
			case err == nil:
				msg.Ack()
			case apperrors.KindOf(err) != apperrors.KindInternal:
				// 找不到購買、狀態衝突等重送也不會成功
				log.Warn("settlement rejected",
					zap.String("request_id", event.RequestID),
					zap.Int("purchase_id", event.PurchaseID),
					zap.Error(err),
				)
				msg.Ack()
			default:
				// 資料庫暫時連不上，放回隊列重試
				log.Error("settlement failed, requeue",
					zap.String("request_id", event.RequestID),
					zap.Int("purchase_id", event.PurchaseID),
					zap.Error(err),
				)
				msg.Nack(true)
			}
		}
	}()
	return nil
}
