package business

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taibogaston/admininmo-sub000/service/models"
	"github.com/taibogaston/admininmo-sub000/service/repository"
)

const (
	gatewayEventPayment  = "payment"
	gatewayStatusApprove = "approved"
)

// GatewayID is an identifier the gateway may send either as a JSON string or a number.
type GatewayID string

func (id *GatewayID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = GatewayID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = GatewayID(n.String())
	return nil
}

type GatewayEventData struct {
	ID GatewayID `json:"id"`
}

// GatewayEvent is the notification body the gateway posts to the webhook.
type GatewayEvent struct {
	Type   string           `json:"type"`
	Action string           `json:"action,omitempty"`
	Data   GatewayEventData `json:"data"`
}

type WebhookResult struct {
	Handled bool
}

type GatewayWebhookProcessor interface {
	// HandleEvent never fails: the gateway retries anything that is not acknowledged, so
	// problems are logged and reported through Handled.
	HandleEvent(ctx context.Context, event GatewayEvent) WebhookResult
	CreateCheckout(ctx context.Context, actor Actor, paymentID string) (*Checkout, error)
}

// NewGatewayWebhookProcessor builds the processor. deduper is optional.
func NewGatewayWebhookProcessor(
	store repository.Store,
	ledger PaymentLedger,
	gateway GatewayClient,
	deduper Deduper,
	logger Logger,
) (GatewayWebhookProcessor, error) {
	if store == nil || ledger == nil || gateway == nil || logger == nil {
		return nil, ErrorInitializationFail
	}
	return &webhookProcessor{
		store:   store,
		ledger:  ledger,
		gateway: gateway,
		deduper: deduper,
		logger:  logger,
	}, nil
}

type webhookProcessor struct {
	store   repository.Store
	ledger  PaymentLedger
	gateway GatewayClient
	deduper Deduper
	logger  Logger
}

func (w *webhookProcessor) HandleEvent(ctx context.Context, event GatewayEvent) WebhookResult {
	gatewayID := strings.TrimSpace(string(event.Data.ID))
	if !strings.EqualFold(event.Type, gatewayEventPayment) || gatewayID == "" {
		w.logger.Debug(ctx, "ignoring gateway event", "type", event.Type, "gateway_id", gatewayID)
		return WebhookResult{Handled: false}
	}

	dedupeKey := fmt.Sprintf("gateway:%s:%s", gatewayEventPayment, gatewayID)
	if w.deduper != nil {
		seen, err := w.deduper.Seen(ctx, dedupeKey)
		if err != nil {
			w.logger.Warn(ctx, err, "could not check webhook delivery cache", "gateway_id", gatewayID)
		} else if seen {
			w.logger.Debug(ctx, "gateway payment already processed", "gateway_id", gatewayID)
			return WebhookResult{Handled: true}
		}
	}

	remote, err := w.gateway.GetPayment(ctx, gatewayID)
	if err != nil {
		w.logger.Warn(ctx, err, "could not fetch gateway payment", "gateway_id", gatewayID)
		return WebhookResult{Handled: false}
	}

	payment, err := w.findPayment(ctx, gatewayID, remote)
	if err != nil {
		w.logger.Warn(ctx, err, "gateway payment does not match a local payment",
			"gateway_id", gatewayID, "external_reference", remote.ExternalReference)
		return WebhookResult{Handled: false}
	}

	if !strings.EqualFold(remote.Status, gatewayStatusApprove) {
		w.logger.Info(ctx, "gateway payment not approved yet",
			"payment_id", payment.GetID(), "gateway_status", remote.Status, "status_detail", remote.StatusDetail)
		return WebhookResult{Handled: true}
	}

	_, changed, err := w.ledger.MarkApproved(ctx, payment.GetID(), models.PaymentMethodGateway, gatewayID)
	if err != nil {
		w.logger.Warn(ctx, err, "could not approve payment from gateway",
			"payment_id", payment.GetID(), "gateway_id", gatewayID)
		return WebhookResult{Handled: false}
	}
	w.logger.Info(ctx, "gateway payment applied",
		"payment_id", payment.GetID(), "gateway_id", gatewayID, "changed", changed)

	if w.deduper != nil {
		if err = w.deduper.Remember(ctx, dedupeKey); err != nil {
			w.logger.Warn(ctx, err, "could not remember webhook delivery", "gateway_id", gatewayID)
		}
	}
	return WebhookResult{Handled: true}
}

func (w *webhookProcessor) findPayment(ctx context.Context, gatewayID string, remote *GatewayPayment) (*models.Payment, error) {
	payment, err := w.store.Payments().GetByGatewayPaymentID(ctx, gatewayID)
	if err == nil {
		return payment, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	ref := strings.TrimSpace(remote.ExternalReference)
	if ref == "" {
		return nil, ErrorPaymentDoesNotExist
	}
	payment, err = w.store.Payments().GetByExternalRef(ctx, ref)
	if repository.IsNotFound(err) {
		return nil, ErrorPaymentDoesNotExist
	}
	return payment, err
}

func (w *webhookProcessor) CreateCheckout(ctx context.Context, actor Actor, paymentID string) (*Checkout, error) {
	payment, _, err := loadAuthorizedPayment(ctx, w.store, actor, paymentID, ActionCheckout)
	if err != nil {
		return nil, err
	}
	if payment.State != models.PaymentStatePending {
		return nil, ErrorPaymentNotPending
	}

	checkout, err := w.gateway.CreateCheckout(ctx, CheckoutRequest{
		ExternalReference: payment.ExternalRef,
		Title:             fmt.Sprintf("Rent %s", payment.Period),
		Amount:            payment.Amount,
	})
	if err != nil {
		w.logger.Warn(ctx, err, "could not create gateway checkout", "payment_id", payment.GetID())
		return nil, ErrorGatewayUnavailable
	}
	return checkout, nil
}
