package queue

import (
	"context"
	"raffle-platform/internal/model"
	"raffle-platform/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// 重送延遲最多加倍到 retryDelay 的 32 倍
const maxRetryShift = 5

type Delivery struct {
	Data *model.SettlementEvent
	Ack  func()
	Nack func(requeue bool)
}

type SettlementQueue interface {
	// 發送付款結算事件
	PublishSettlement(ctx context.Context, event *model.SettlementEvent) error
	// 訂閱付款結算事件
	SubscribeSettlements(ctx context.Context) (<-chan Delivery, error)
}

type queuedSettlement struct {
	event    *model.SettlementEvent
	attempts int
}

type SettlementQueueImpl struct {
	// 使用 Go channel 作為單一實例的隊列
	ch         chan queuedSettlement
	retryDelay time.Duration
}

func NewSettlementQueue(bufferSize int, retryDelay time.Duration) SettlementQueue {
	return &SettlementQueueImpl{
		ch:         make(chan queuedSettlement, bufferSize),
		retryDelay: retryDelay,
	}
}

func (q *SettlementQueueImpl) PublishSettlement(ctx context.Context, event *model.SettlementEvent) error {
	select {
	case q.ch <- queuedSettlement{event: event}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *SettlementQueueImpl) SubscribeSettlements(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery{
					Data: item.event,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if !requeue {
							return
						}
						// 不阻塞 worker；等待退避後放回隊列
						go q.requeue(ctx, queuedSettlement{event: item.event, attempts: item.attempts + 1})
					},
				}

				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (q *SettlementQueueImpl) backoff(attempts int) time.Duration {
	shift := attempts - 1
	if shift > maxRetryShift {
		shift = maxRetryShift
	}
	return q.retryDelay << shift
}

func (q *SettlementQueueImpl) requeue(ctx context.Context, item queuedSettlement) {
	timer := time.NewTimer(q.backoff(item.attempts))
	defer timer.Stop()

	select {
	case <-timer.C:
		select {
		case q.ch <- item:
			return
		case <-ctx.Done():
		}
	case <-ctx.Done():
	}

	// 只有在訂閱結束時才會走到這裡
	logger.WithComponent("mq").Error("settlement not requeued",
		zap.String("request_id", item.event.RequestID),
		zap.Int("purchase_id", item.event.PurchaseID),
		zap.Int("attempts", item.attempts),
		zap.Error(ctx.Err()),
	)
}
