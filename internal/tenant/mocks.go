package tenant

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type TenantManagerMock struct {
	mock.Mock
}

var _ ManagerInterface = (*TenantManagerMock)(nil)

func (m *TenantManagerMock) GetAllTenants(ctx context.Context, queryParams *QueryParams) ([]Tenant, error) {
	args := m.Called(ctx, queryParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Tenant), args.Error(1)
}

func (m *TenantManagerMock) GetTenant(ctx context.Context, queryParams *QueryParams) (*Tenant, error) {
	args := m.Called(ctx, queryParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) GetTenantByID(ctx context.Context, id string) (*Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) GetTenantByIDOrName(ctx context.Context, arg string) (*Tenant, error) {
	args := m.Called(ctx, arg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) AddTenant(ctx context.Context, insert TenantInsert) (*Tenant, error) {
	args := m.Called(ctx, insert)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) UpdateTenant(ctx context.Context, tu *TenantUpdate) (*Tenant, error) {
	args := m.Called(ctx, tu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) ActivateTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) SuspendTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) DeactivateTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) ReactivateTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) SoftDeleteTenantByID(ctx context.Context, tenantID string) (*Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) SetSchemaProvisioned(ctx context.Context, tenantID string) (*Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *TenantManagerMock) GetTenantsPendingProvisioning(ctx context.Context) ([]Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Tenant), args.Error(1)
}

func (m *TenantManagerMock) GetDSNForTenant(ctx context.Context, tenantID string) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *TenantManagerMock) GetPendingOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OutboxEvent), args.Error(1)
}

func (m *TenantManagerMock) MarkOutboxEventsPublished(ctx context.Context, eventIDs []string) error {
	args := m.Called(ctx, eventIDs)
	return args.Error(0)
}

type SchemaEnsurerMock struct {
	mock.Mock
}

var _ SchemaEnsurer = (*SchemaEnsurerMock)(nil)

func (m *SchemaEnsurerMock) EnsureSchemaReady(ctx context.Context, schemaName string) error {
	args := m.Called(ctx, schemaName)
	return args.Error(0)
}

type testInterface interface {
	mock.TestingT
	Cleanup(func())
}

// NewTenantManagerMock creates a new instance of TenantManagerMock. It also
// registers a testing interface on the mock and a cleanup function to assert
// the mocks expectations.
func NewTenantManagerMock(t testInterface) *TenantManagerMock {
	mock := &TenantManagerMock{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

// NewSchemaEnsurerMock creates a new instance of SchemaEnsurerMock. It also
// registers a testing interface on the mock and a cleanup function to assert
// the mocks expectations.
func NewSchemaEnsurerMock(t testInterface) *SchemaEnsurerMock {
	mock := &SchemaEnsurerMock{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
