package mocks

import (
	"context"
	"raffle-platform/internal/model"

	"github.com/stretchr/testify/mock"
)

type RouletteServiceMock struct {
	mock.Mock
}

func NewRouletteServiceMock() *RouletteServiceMock {
	return &RouletteServiceMock{}
}

func (m *RouletteServiceMock) AvailableSpins(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *RouletteServiceMock) Spin(ctx context.Context, userID int) (*model.SpinResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpinResult), args.Error(1)
}

func (m *RouletteServiceMock) Status(ctx context.Context, userID int) (*model.RouletteStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RouletteStatus), args.Error(1)
}

func (m *RouletteServiceMock) ListPrizes(ctx context.Context, activeOnly bool) ([]*model.RoulettePrize, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RoulettePrize), args.Error(1)
}

func (m *RouletteServiceMock) CreatePrize(ctx context.Context, req *model.CreatePrizeRequest) (*model.RoulettePrize, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RoulettePrize), args.Error(1)
}

func (m *RouletteServiceMock) UpdatePrize(ctx context.Context, id int, params *model.UpdatePrizeParams) (*model.RoulettePrize, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RoulettePrize), args.Error(1)
}

func (m *RouletteServiceMock) DeletePrize(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RouletteServiceMock) GetSettings(ctx context.Context) (*model.RouletteSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RouletteSettings), args.Error(1)
}

func (m *RouletteServiceMock) UpdateSettings(ctx context.Context, rtp int) (*model.RouletteSettings, error) {
	args := m.Called(ctx, rtp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RouletteSettings), args.Error(1)
}
