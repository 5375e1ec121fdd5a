package mocks

import (
	"context"
	"raffle-platform/internal/model"

	"github.com/stretchr/testify/mock"
)

type CampaignServiceMock struct {
	mock.Mock
}

func NewCampaignServiceMock() *CampaignServiceMock {
	return &CampaignServiceMock{}
}

func (m *CampaignServiceMock) CreateCampaign(ctx context.Context, req *model.CreateCampaignRequest) (*model.CampaignView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CampaignView), args.Error(1)
}

func (m *CampaignServiceMock) ListCampaigns(ctx context.Context, status *model.CampaignStatus) ([]*model.CampaignView, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CampaignView), args.Error(1)
}

func (m *CampaignServiceMock) GetCampaign(ctx context.Context, id int) (*model.CampaignView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CampaignView), args.Error(1)
}

func (m *CampaignServiceMock) UpdateCampaign(ctx context.Context, id int, params *model.UpdateCampaignParams) (*model.Campaign, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *CampaignServiceMock) DeleteCampaign(ctx context.Context, id int, hard bool) error {
	args := m.Called(ctx, id, hard)
	return args.Error(0)
}
