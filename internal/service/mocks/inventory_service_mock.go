package mocks

import (
	"context"
	"raffle-platform/internal/model"

	"github.com/stretchr/testify/mock"
)

type InventoryServiceMock struct {
	mock.Mock
}

func NewInventoryServiceMock() *InventoryServiceMock {
	return &InventoryServiceMock{}
}

func (m *InventoryServiceMock) ExpireReservations(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *InventoryServiceMock) ExpireReservationsFor(ctx context.Context, campaignID int, numbers []string) (int, error) {
	args := m.Called(ctx, campaignID, numbers)
	return args.Int(0), args.Error(1)
}

func (m *InventoryServiceMock) GenerateTickets(ctx context.Context, campaignID int, digits int) (int64, error) {
	args := m.Called(ctx, campaignID, digits)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryServiceMock) ListNumbers(ctx context.Context, campaignID int) ([]*model.NumberEntry, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.NumberEntry), args.Error(1)
}

func (m *InventoryServiceMock) UnavailableNumbers(ctx context.Context, campaignID int) (*model.UnavailableNumbers, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UnavailableNumbers), args.Error(1)
}

func (m *InventoryServiceMock) AdminReserve(ctx context.Context, actor model.Actor, campaignID int, req model.AdminReserveRequest) (*model.Ticket, error) {
	args := m.Called(ctx, actor, campaignID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *InventoryServiceMock) AdminRelease(ctx context.Context, actor model.Actor, campaignID int, req model.AdminReleaseRequest) (*model.Ticket, error) {
	args := m.Called(ctx, actor, campaignID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *InventoryServiceMock) AdminSell(ctx context.Context, actor model.Actor, campaignID int, req model.AdminSellRequest) (*model.Ticket, error) {
	args := m.Called(ctx, actor, campaignID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}
