package idp

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ClientMock struct {
	mock.Mock
}

var _ ClientInterface = (*ClientMock)(nil)

func (m *ClientMock) Login(ctx context.Context, username, password string) (*Session, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *ClientMock) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *ClientMock) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

type testInterface interface {
	mock.TestingT
	Cleanup(func())
}

// NewClientMock creates a new instance of ClientMock. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewClientMock(t testInterface) *ClientMock {
	mock := &ClientMock{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
