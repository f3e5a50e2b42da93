package repository

import (
	"context"
	"time"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type PaymentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Payment, error)
	GetByContractAndPeriod(ctx context.Context, contractID, period string) (*models.Payment, error)
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*models.Payment, error)
	ListByContract(ctx context.Context, contractID string) ([]*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error

	// MarkApproved moves a PENDING payment to APPROVED. It returns the number of rows
	// changed, zero when the payment was not pending any more.
	MarkApproved(ctx context.Context, id string, method models.PaymentMethod, gatewayPaymentID string, paidAt time.Time) (int64, error)
	// MarkRejected moves a PENDING payment to REJECTED, returning the rows changed.
	MarkRejected(ctx context.Context, id string, reason string) (int64, error)
}

type paymentRepository struct {
	abstractRepository
}

func NewPaymentRepository(_ context.Context, provider DBProvider) PaymentRepository {
	return &paymentRepository{abstractRepository{provider: provider}}
}

func (repo *paymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	payment := models.Payment{}
	err := repo.readDB(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (repo *paymentRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Payment, error) {
	payment := models.Payment{}
	err := repo.lockDB(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (repo *paymentRepository) GetByContractAndPeriod(ctx context.Context, contractID, period string) (*models.Payment, error) {
	payment := models.Payment{}
	err := repo.readDB(ctx).First(&payment, "contract_id = ? AND period = ?", contractID, period).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (repo *paymentRepository) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error) {
	payment := models.Payment{}
	err := repo.readDB(ctx).First(&payment, "gateway_payment_id = ?", gatewayPaymentID).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (repo *paymentRepository) GetByExternalRef(ctx context.Context, externalRef string) (*models.Payment, error) {
	payment := models.Payment{}
	err := repo.readDB(ctx).First(&payment, "external_ref = ?", externalRef).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (repo *paymentRepository) ListByContract(ctx context.Context, contractID string) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := repo.readDB(ctx).Where("contract_id = ?", contractID).
		Order("period DESC").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (repo *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.GetID() == "" {
		payment.GenID(ctx)
	}
	return translateWriteError(repo.writeDB(ctx).Create(payment).Error, "could not create payment")
}

func (repo *paymentRepository) MarkApproved(
	ctx context.Context,
	id string,
	method models.PaymentMethod,
	gatewayPaymentID string,
	paidAt time.Time,
) (int64, error) {
	changes := map[string]any{
		"state":   models.PaymentStateApproved,
		"method":  method,
		"paid_at": paidAt,
	}
	if gatewayPaymentID != "" {
		changes["gateway_payment_id"] = gatewayPaymentID
	}
	return repo.guardedUpdate(ctx, id, changes)
}

func (repo *paymentRepository) MarkRejected(ctx context.Context, id string, reason string) (int64, error) {
	return repo.guardedUpdate(ctx, id, map[string]any{
		"state":            models.PaymentStateRejected,
		"rejection_reason": reason,
	})
}

func (repo *paymentRepository) guardedUpdate(ctx context.Context, id string, changes map[string]any) (int64, error) {
	result := repo.writeDB(ctx).Model(&models.Payment{}).
		Where("id = ? AND state = ?", id, models.PaymentStatePending).
		Updates(changes)
	if result.Error != nil {
		return 0, translateWriteError(result.Error, "could not update payment state")
	}
	return result.RowsAffected, nil
}
