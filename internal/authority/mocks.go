package authority

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
)

type ClientMock struct {
	mock.Mock
}

var _ ClientInterface = (*ClientMock)(nil)

func (m *ClientMock) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *ClientMock) GetTenantRealm(ctx context.Context, tenantID string) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

type testInterface interface {
	mock.TestingT
	Cleanup(func())
}

func NewClientMock(t testInterface) *ClientMock {
	mock := &ClientMock{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
