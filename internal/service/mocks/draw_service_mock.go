package mocks

import (
	"context"
	"raffle-platform/internal/model"

	"github.com/stretchr/testify/mock"
)

type DrawServiceMock struct {
	mock.Mock
}

func NewDrawServiceMock() *DrawServiceMock {
	return &DrawServiceMock{}
}

func (m *DrawServiceMock) DrawWinner(ctx context.Context, campaignID int) (*model.Winner, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Winner), args.Error(1)
}

func (m *DrawServiceMock) PeekWinner(ctx context.Context, actor model.Actor, campaignID int) (*model.WinnerPreview, error) {
	args := m.Called(ctx, actor, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WinnerPreview), args.Error(1)
}

func (m *DrawServiceMock) AutoExpireAndDraw(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *DrawServiceMock) ListWinners(ctx context.Context) ([]*model.Winner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Winner), args.Error(1)
}
