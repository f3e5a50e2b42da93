package gateway

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/taibogaston/admininmo-sub000/service/business"
)

// MockClient is a testify mock of the gateway used by handler and integration tests.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetPayment(ctx context.Context, id string) (*business.GatewayPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.GatewayPayment), args.Error(1)
}

func (m *MockClient) CreateCheckout(ctx context.Context, request business.CheckoutRequest) (*business.Checkout, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.Checkout), args.Error(1)
}
