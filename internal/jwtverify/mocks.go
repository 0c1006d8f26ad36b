package jwtverify

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type JWTVerifierMock struct {
	mock.Mock
}

var _ VerifierInterface = (*JWTVerifierMock)(nil)

func (m *JWTVerifierMock) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Claims), args.Error(1)
}

type testInterface interface {
	mock.TestingT
	Cleanup(func())
}

// NewJWTVerifierMock creates a new instance of JWTVerifierMock. It also
// registers a testing interface on the mock and a cleanup function to assert
// the mocks expectations.
func NewJWTVerifierMock(t testInterface) *JWTVerifierMock {
	mock := &JWTVerifierMock{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
