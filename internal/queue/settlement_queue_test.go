package queue_test

import (
	"context"
	"testing"
	"time"

	"raffle-platform/internal/model"
	"raffle-platform/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ctx context.Context, ch <-chan queue.Delivery) queue.Delivery {
	t.Helper()

	select {
	case d, ok := <-ch:
		require.True(t, ok, "channel closed")
		require.NotNil(t, d.Data)
		return d
	case <-ctx.Done():
		t.Fatal("timeout waiting for delivery")
	}
	return queue.Delivery{}
}

func TestSettlementQueue_PublishAndSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewSettlementQueue(4, time.Millisecond)
	event := &model.SettlementEvent{RequestID: "req-1", PurchaseID: 3, Status: model.PurchaseStatusCompleted}
	require.NoError(t, q.PublishSettlement(ctx, event))

	ch, err := q.SubscribeSettlements(ctx)
	require.NoError(t, err)

	d := receive(t, ctx, ch)
	assert.Equal(t, event, d.Data)
	d.Ack()
}

func TestSettlementQueue_NackRequeue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewSettlementQueue(4, time.Millisecond)
	require.NoError(t, q.PublishSettlement(ctx, &model.SettlementEvent{PurchaseID: 5, Status: model.PurchaseStatusFailed}))

	ch, err := q.SubscribeSettlements(ctx)
	require.NoError(t, err)

	first := receive(t, ctx, ch)
	first.Nack(true)

	again := receive(t, ctx, ch)
	assert.Equal(t, 5, again.Data.PurchaseID)
	again.Nack(false)
}

func TestSettlementQueue_PublishBlocksUntilCancelled(t *testing.T) {
	q := queue.NewSettlementQueue(1, time.Millisecond)
	require.NoError(t, q.PublishSettlement(context.Background(), &model.SettlementEvent{PurchaseID: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := q.PublishSettlement(ctx, &model.SettlementEvent{PurchaseID: 2})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSettlementQueue_NackRequeueWhenBufferFull(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewSettlementQueue(1, time.Millisecond)
	require.NoError(t, q.PublishSettlement(ctx, &model.SettlementEvent{PurchaseID: 1}))

	ch, err := q.SubscribeSettlements(ctx)
	require.NoError(t, err)

	first := receive(t, ctx, ch)
	require.Equal(t, 1, first.Data.PurchaseID)

	require.NoError(t, q.PublishSettlement(ctx, &model.SettlementEvent{PurchaseID: 2}))
	require.NoError(t, q.PublishSettlement(ctx, &model.SettlementEvent{PurchaseID: 3}))

	// 隊列已滿時重送也不能遺失
	first.Nack(true)

	var got []int
	for range 3 {
		d := receive(t, ctx, ch)
		got = append(got, d.Data.PurchaseID)
		d.Ack()
	}
	assert.ElementsMatch(t, []int{1, 2, 3}, got)
}
