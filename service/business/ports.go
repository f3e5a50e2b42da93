package business

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
)

// Logger is the structured logger business code writes to. Key value pairs follow msg.
type Logger interface {
	Debug(ctx context.Context, msg string, keyValues ...any)
	Info(ctx context.Context, msg string, keyValues ...any)
	Warn(ctx context.Context, err error, msg string, keyValues ...any)
}

// Notifier hands committed domain events over for delivery.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// FileStore keeps uploaded transfer proofs and answers with opaque references.
type FileStore interface {
	Store(ctx context.Context, name string, contentType string, body io.Reader, size int64) (string, error)
	Exists(ctx context.Context, ref string) (bool, error)
	// Remove deletes a stored proof that never got registered.
	Remove(ctx context.Context, ref string) error
}

// GatewayPayment is the gateway's view of a payment attempt.
type GatewayPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	Amount            decimal.Decimal
}

type CheckoutRequest struct {
	ExternalReference string
	Title             string
	Amount            decimal.Decimal
}

type Checkout struct {
	PreferenceID string
	CheckoutURL  string
}

// GatewayClient talks to the online payment gateway.
type GatewayClient interface {
	GetPayment(ctx context.Context, id string) (*GatewayPayment, error)
	CreateCheckout(ctx context.Context, request CheckoutRequest) (*Checkout, error)
}

// Deduper remembers webhook deliveries that were fully processed.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string) error
}
