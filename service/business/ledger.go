package business

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/taibogaston/admininmo-sub000/service/models"
	"github.com/taibogaston/admininmo-sub000/service/repository"
	"github.com/taibogaston/admininmo-sub000/service/utility"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type GeneratePaymentRequest struct {
	ContractID string
	Period     string
	// Amount overrides the contract's monthly rent when set.
	Amount *decimal.Decimal
}

type PaymentLedger interface {
	GeneratePayment(ctx context.Context, actor Actor, request GeneratePaymentRequest) (*models.Payment, error)
	GetPayment(ctx context.Context, actor Actor, paymentID string) (*models.Payment, error)
	ListPayments(ctx context.Context, actor Actor, contractID string) ([]*models.Payment, error)
	ListMovements(ctx context.Context, actor Actor, contractID string) ([]*models.Movement, error)
	PaymentHistory(ctx context.Context, actor Actor, paymentID string) ([]*models.Status, error)
	RejectPayment(ctx context.Context, actor Actor, paymentID string, reason string) (*models.Payment, error)

	// MarkApproved settles a pending payment. changed is false when the payment had
	// already been approved, in which case nothing is written.
	MarkApproved(ctx context.Context, paymentID string, method models.PaymentMethod, gatewayRef string) (payment *models.Payment, changed bool, err error)
}

func NewPaymentLedger(
	store repository.Store,
	notifier Notifier,
	logger Logger,
	platformCommissionPercent decimal.Decimal,
) (PaymentLedger, error) {
	if store == nil || notifier == nil || logger == nil {
		return nil, ErrorInitializationFail
	}
	return &paymentLedger{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		platformPct: ClampPercent(platformCommissionPercent),
		now:         time.Now,
	}, nil
}

type paymentLedger struct {
	store       repository.Store
	notifier    Notifier
	logger      Logger
	platformPct decimal.Decimal
	now         func() time.Time
}

func (l *paymentLedger) GeneratePayment(ctx context.Context, actor Actor, request GeneratePaymentRequest) (*models.Payment, error) {
	period := strings.TrimSpace(request.Period)
	if !periodPattern.MatchString(period) {
		return nil, ErrorInvalidPeriod
	}
	if request.Amount != nil && (!request.Amount.IsPositive() || !utility.HasAtMostCents(*request.Amount)) {
		return nil, ErrorInvalidAmount
	}

	var payment *models.Payment
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		contract, err := loadContract(ctx, tx, request.ContractID)
		if err != nil {
			return err
		}
		if err = Authorize(actor, contract, ActionGeneratePayment); err != nil {
			return err
		}

		_, err = tx.Payments().GetByContractAndPeriod(ctx, contract.GetID(), period)
		if err == nil {
			return ErrorPaymentAlreadyExists
		}
		if !repository.IsNotFound(err) {
			return err
		}

		total := contract.MonthlyRent
		if request.Amount != nil {
			total = *request.Amount
		}
		total = utility.CleanMoney(total)
		if !total.IsPositive() {
			return ErrorInvalidRent
		}

		dueDate, err := dueDateFor(period, contract.DueDay)
		if err != nil {
			return err
		}

		split := SplitCommission(total, ClampPercent(contract.CommissionPercent), l.platformPct)
		payment = &models.Payment{
			ContractID:         contract.GetID(),
			Period:             period,
			Amount:             total,
			Commission:         split.AgencyCommission,
			PlatformCommission: split.PlatformCommission,
			OwnerNet:           split.OwnerNet,
			AgencyNet:          split.AgencyNet,
			State:              models.PaymentStatePending,
			ExternalRef:        newExternalRef(period),
			DueDate:            dueDate,
		}
		payment.GenID(ctx)

		if err = tx.Payments().Create(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrorPaymentAlreadyExists
			}
			return err
		}

		paymentID := payment.GetID()
		return tx.Movements().Create(ctx, &models.Movement{
			ContractID: contract.GetID(),
			PaymentID:  &paymentID,
			Kind:       models.MovementKindCharge,
			Amount:     total,
			Concept:    fmt.Sprintf("Rent %s", period),
		})
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info(ctx, "payment generated",
		"payment_id", payment.GetID(), "contract_id", payment.ContractID, "period", payment.Period)
	return payment, nil
}

func (l *paymentLedger) GetPayment(ctx context.Context, actor Actor, paymentID string) (*models.Payment, error) {
	payment, _, err := loadAuthorizedPayment(ctx, l.store, actor, paymentID, ActionReadPayment)
	return payment, err
}

func (l *paymentLedger) ListPayments(ctx context.Context, actor Actor, contractID string) ([]*models.Payment, error) {
	contract, err := loadContract(ctx, l.store, contractID)
	if err != nil {
		return nil, err
	}
	if err = Authorize(actor, contract, ActionReadPayment); err != nil {
		return nil, err
	}
	return l.store.Payments().ListByContract(ctx, contract.GetID())
}

func (l *paymentLedger) ListMovements(ctx context.Context, actor Actor, contractID string) ([]*models.Movement, error) {
	contract, err := loadContract(ctx, l.store, contractID)
	if err != nil {
		return nil, err
	}
	if err = Authorize(actor, contract, ActionReadPayment); err != nil {
		return nil, err
	}
	return l.store.Movements().ListByContract(ctx, contract.GetID())
}

func (l *paymentLedger) PaymentHistory(ctx context.Context, actor Actor, paymentID string) ([]*models.Status, error) {
	payment, _, err := loadAuthorizedPayment(ctx, l.store, actor, paymentID, ActionReadPayment)
	if err != nil {
		return nil, err
	}
	history, err := l.store.Statuses().ListByEntity(ctx, payment.GetID(), EntityPayment)
	if err != nil {
		return nil, err
	}

	transfer, err := l.store.Transfers().GetByPaymentID(ctx, payment.GetID())
	if repository.IsNotFound(err) {
		return history, nil
	}
	if err != nil {
		return nil, err
	}
	transferHistory, err := l.store.Statuses().ListByEntity(ctx, transfer.GetID(), EntityTransfer)
	if err != nil {
		return nil, err
	}
	return append(history, transferHistory...), nil
}

func (l *paymentLedger) RejectPayment(ctx context.Context, actor Actor, paymentID string, reason string) (*models.Payment, error) {
	var payment *models.Payment
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		p, _, err := loadAuthorizedPayment(ctx, tx, actor, paymentID, ActionRejectPayment)
		if err != nil {
			return err
		}

		rows, err := tx.Payments().MarkRejected(ctx, p.GetID(), strings.TrimSpace(reason))
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrorPaymentNotPending
		}

		payment, err = tx.Payments().GetByID(ctx, p.GetID())
		return err
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, l.notifier, l.logger, []Notification{PaymentRejected{
		PaymentID:  payment.GetID(),
		ContractID: payment.ContractID,
		Period:     payment.Period,
		RejectedBy: actor.ID,
		Reason:     payment.RejectionReason,
	}})
	return payment, nil
}

func (l *paymentLedger) MarkApproved(
	ctx context.Context,
	paymentID string,
	method models.PaymentMethod,
	gatewayRef string,
) (*models.Payment, bool, error) {
	var (
		payment *models.Payment
		changed bool
	)
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		payment, changed, err = l.markApproved(ctx, tx, paymentID, method, gatewayRef)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		publish(ctx, l.notifier, l.logger, []Notification{paymentApprovedFor(payment)})
	}
	return payment, changed, nil
}

// markApproved runs the guarded approval inside the caller's transaction.
func (l *paymentLedger) markApproved(
	ctx context.Context,
	tx repository.Store,
	paymentID string,
	method models.PaymentMethod,
	gatewayRef string,
) (*models.Payment, bool, error) {
	rows, err := tx.Payments().MarkApproved(ctx, paymentID, method, gatewayRef, l.now())
	if err != nil {
		return nil, false, err
	}

	payment, err := tx.Payments().GetByID(ctx, paymentID)
	if repository.IsNotFound(err) {
		return nil, false, ErrorPaymentDoesNotExist
	}
	if err != nil {
		return nil, false, err
	}

	if rows == 0 {
		if payment.State == models.PaymentStateApproved {
			return payment, false, nil
		}
		return nil, false, ErrorPaymentNotPending
	}

	paymentRef := payment.GetID()
	err = tx.Movements().UpsertForPayment(ctx, &models.Movement{
		ContractID: payment.ContractID,
		PaymentID:  &paymentRef,
		Kind:       models.MovementKindPayment,
		Amount:     payment.Amount,
		Concept:    fmt.Sprintf("Rent %s paid by %s", payment.Period, strings.ToLower(string(method))),
	})
	if err != nil {
		return nil, false, err
	}

	l.logger.Info(ctx, "payment approved",
		"payment_id", payment.GetID(), "method", method, "gateway_ref", gatewayRef)
	return payment, true, nil
}

// loadAuthorizedPayment loads a payment with its contract and checks the actor may act on it.
func loadAuthorizedPayment(
	ctx context.Context,
	store repository.Store,
	actor Actor,
	paymentID string,
	action Action,
) (*models.Payment, *models.Contract, error) {
	if actor.ID == "" {
		return nil, nil, ErrorUnauthenticated
	}
	payment, err := store.Payments().GetByID(ctx, paymentID)
	if repository.IsNotFound(err) {
		return nil, nil, ErrorPaymentDoesNotExist
	}
	if err != nil {
		return nil, nil, err
	}

	contract, err := loadContract(ctx, store, payment.ContractID)
	if err != nil {
		return nil, nil, err
	}
	if err = Authorize(actor, contract, action); err != nil {
		return nil, nil, err
	}
	return payment, contract, nil
}

func loadContract(ctx context.Context, store repository.Store, contractID string) (*models.Contract, error) {
	contract, err := store.Contracts().GetByID(ctx, contractID)
	if repository.IsNotFound(err) {
		return nil, ErrorContractDoesNotExist
	}
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// newExternalRef builds the memo reference tenants quote on payments, RENT-YYYYMM-XXXXXX.
func newExternalRef(period string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("RENT-%s-%s", strings.ReplaceAll(period, "-", ""), suffix)
}

// dueDateFor places the contract's due day inside the period, clamped to the month length.
func dueDateFor(period string, dueDay int) (time.Time, error) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, ErrorInvalidPeriod
	}
	lastDay := start.AddDate(0, 1, -1).Day()
	switch {
	case dueDay < 1:
		dueDay = 1
	case dueDay > lastDay:
		dueDay = lastDay
	}
	return time.Date(start.Year(), start.Month(), dueDay, 0, 0, 0, 0, time.UTC), nil
}
