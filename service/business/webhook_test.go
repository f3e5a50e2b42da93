package business

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) GetPayment(ctx context.Context, id string) (*GatewayPayment, error) {
	args := m.Called(ctx, id)
	payment, _ := args.Get(0).(*GatewayPayment)
	return payment, args.Error(1)
}

func (m *MockGatewayClient) CreateCheckout(ctx context.Context, request CheckoutRequest) (*Checkout, error) {
	args := m.Called(ctx, request)
	checkout, _ := args.Get(0).(*Checkout)
	return checkout, args.Error(1)
}

type MockDeduper struct {
	mock.Mock
}

func (m *MockDeduper) Seen(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeduper) Remember(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newWebhookProcessor(t *testing.T, f *fixture, gateway GatewayClient, deduper Deduper) GatewayWebhookProcessor {
	t.Helper()
	processor, err := NewGatewayWebhookProcessor(f.store, f.ledger, gateway, deduper, testLogger())
	require.NoError(t, err)
	return processor
}

func paymentEvent(id string) GatewayEvent {
	return GatewayEvent{Type: "payment", Data: GatewayEventData{ID: GatewayID(id)}}
}

func TestWebhookApprovesByExternalReference(t *testing.T) {
	f := newFixture(t, models.CollectionModeSplit)
	ctx := context.Background()
	payment := f.generate(t, "2024-01")

	gateway := new(MockGatewayClient)
	gateway.On("GetPayment", mock.Anything, "555").Return(&GatewayPayment{
		ID:                "555",
		Status:            "approved",
		ExternalReference: payment.ExternalRef,
		Amount:            payment.Amount,
	}, nil).Twice()

	processor := newWebhookProcessor(t, f, gateway, nil)

	result := processor.HandleEvent(ctx, paymentEvent("555"))
	assert.True(t, result.Handled)
	result = processor.HandleEvent(ctx, paymentEvent("555"))
	assert.True(t, result.Handled)

	stored, err := f.ledger.GetPayment(ctx, f.tenant, payment.GetID())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStateApproved, stored.State)
	assert.Equal(t, models.PaymentMethodGateway, stored.Method)
	assert.Equal(t, "555", stored.GatewayPaymentID)
	assert.Len(t, f.paymentMovements(t, payment.GetID(), models.MovementKindPayment), 1)
	assert.Equal(t, []NotificationKind{KindPaymentApproved}, f.kinds())
	gateway.AssertExpectations(t)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t, models.CollectionModeSplit)
	gateway := new(MockGatewayClient)
	processor := newWebhookProcessor(t, f, gateway, nil)

	assert.False(t, processor.HandleEvent(context.Background(), GatewayEvent{Type: "merchant_order"}).Handled)
	assert.False(t, processor.HandleEvent(context.Background(), paymentEvent("")).Handled)
	gateway.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
}

func TestWebhookSwallowsFailures(t *testing.T) {
	f := newFixture(t, models.CollectionModeSplit)
	ctx := context.Background()
	payment := f.generate(t, "2024-02")

	gateway := new(MockGatewayClient)
	gateway.On("GetPayment", mock.Anything, "1").Return(nil, errors.New("gateway down"))
	gateway.On("GetPayment", mock.Anything, "2").Return(&GatewayPayment{
		ID: "2", Status: "approved", ExternalReference: "RENT-000000-UNKNOWN",
	}, nil)
	gateway.On("GetPayment", mock.Anything, "3").Return(&GatewayPayment{
		ID: "3", Status: "in_process", ExternalReference: payment.ExternalRef,
	}, nil)
	processor := newWebhookProcessor(t, f, gateway, nil)

	assert.False(t, processor.HandleEvent(ctx, paymentEvent("1")).Handled)
	assert.False(t, processor.HandleEvent(ctx, paymentEvent("2")).Handled)
	assert.True(t, processor.HandleEvent(ctx, paymentEvent("3")).Handled)

	_, err := f.ledger.RejectPayment(ctx, f.staff, payment.GetID(), "void")
	require.NoError(t, err)
	gateway.On("GetPayment", mock.Anything, "4").Return(&GatewayPayment{
		ID: "4", Status: "approved", ExternalReference: payment.ExternalRef,
	}, nil)
	assert.False(t, processor.HandleEvent(ctx, paymentEvent("4")).Handled)

	stored, err := f.ledger.GetPayment(ctx, f.tenant, payment.GetID())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStateRejected, stored.State)
}

func TestWebhookDeduplicatesDeliveries(t *testing.T) {
	f := newFixture(t, models.CollectionModeSplit)
	ctx := context.Background()
	payment := f.generate(t, "2024-03")

	gateway := new(MockGatewayClient)
	gateway.On("GetPayment", mock.Anything, "77").Return(&GatewayPayment{
		ID: "77", Status: "approved", ExternalReference: payment.ExternalRef,
	}, nil).Once()

	deduper := new(MockDeduper)
	deduper.On("Seen", mock.Anything, "gateway:payment:77").Return(false, nil).Once()
	deduper.On("Remember", mock.Anything, "gateway:payment:77").Return(nil).Once()
	deduper.On("Seen", mock.Anything, "gateway:payment:77").Return(true, nil).Once()

	processor := newWebhookProcessor(t, f, gateway, deduper)
	assert.True(t, processor.HandleEvent(ctx, paymentEvent("77")).Handled)
	assert.True(t, processor.HandleEvent(ctx, paymentEvent("77")).Handled)

	gateway.AssertExpectations(t)
	deduper.AssertExpectations(t)
}

func TestCreateCheckout(t *testing.T) {
	f := newFixture(t, models.CollectionModeSplit)
	ctx := context.Background()
	payment := f.generate(t, "2024-04")

	gateway := new(MockGatewayClient)
	gateway.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(r CheckoutRequest) bool {
		return r.ExternalReference == payment.ExternalRef && r.Amount.Equal(decimal.NewFromInt(100000))
	})).Return(&Checkout{PreferenceID: "pref-1", CheckoutURL: "https://pay.example/pref-1"}, nil).Once()
	processor := newWebhookProcessor(t, f, gateway, nil)

	checkout, err := processor.CreateCheckout(ctx, f.tenant, payment.GetID())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/pref-1", checkout.CheckoutURL)

	_, err = processor.CreateCheckout(ctx, f.owner, payment.GetID())
	requireCode(t, err, codes.PermissionDenied)

	gateway.On("CreateCheckout", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	_, err = processor.CreateCheckout(ctx, f.tenant, payment.GetID())
	requireCode(t, err, codes.Unavailable)
	gateway.AssertExpectations(t)
}

func TestGatewayEventDecoding(t *testing.T) {
	var numeric GatewayEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"payment","data":{"id":123456789}}`), &numeric))
	assert.Equal(t, GatewayID("123456789"), numeric.Data.ID)

	var text GatewayEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"payment","action":"payment.updated","data":{"id":"abc"}}`), &text))
	assert.Equal(t, GatewayID("abc"), text.Data.ID)
	assert.Equal(t, "payment.updated", text.Action)

	var empty GatewayEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"payment","data":{"id":null}}`), &empty))
	assert.Empty(t, empty.Data.ID)
}
