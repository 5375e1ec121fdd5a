package mocks

import (
	"context"
	"raffle-platform/internal/model"

	"github.com/stretchr/testify/mock"
)

type PurchaseServiceMock struct {
	mock.Mock
}

func NewPurchaseServiceMock() *PurchaseServiceMock {
	return &PurchaseServiceMock{}
}

func (m *PurchaseServiceMock) Reserve(ctx context.Context, userID int, campaignID int, numbers []string, ttlMinutes int) (*model.ReservationResult, error) {
	args := m.Called(ctx, userID, campaignID, numbers, ttlMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReservationResult), args.Error(1)
}

func (m *PurchaseServiceMock) PurchaseImmediate(ctx context.Context, userID int, campaignID int, numbers []string) (*model.DirectPurchaseResult, error) {
	args := m.Called(ctx, userID, campaignID, numbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DirectPurchaseResult), args.Error(1)
}

func (m *PurchaseServiceMock) Confirm(ctx context.Context, purchaseID int) (*model.Purchase, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *PurchaseServiceMock) ApplySettlement(ctx context.Context, event *model.SettlementEvent) (*model.Purchase, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *PurchaseServiceMock) GetPurchase(ctx context.Context, actor model.Actor, purchaseID int) (*model.Purchase, error) {
	args := m.Called(ctx, actor, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *PurchaseServiceMock) MyTitles(ctx context.Context, userID int, campaignID *int) ([]*model.CampaignTitles, error) {
	args := m.Called(ctx, userID, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CampaignTitles), args.Error(1)
}
