package mocks

import (
	"context"
	"raffle-platform/internal/model"

	"github.com/stretchr/testify/mock"
)

type MaintenanceServiceMock struct {
	mock.Mock
}

func NewMaintenanceServiceMock() *MaintenanceServiceMock {
	return &MaintenanceServiceMock{}
}

func (m *MaintenanceServiceMock) Run(ctx context.Context) (*model.MaintenanceReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MaintenanceReport), args.Error(1)
}

func (m *MaintenanceServiceMock) Trigger(ctx context.Context) {
	m.Called(ctx)
}
