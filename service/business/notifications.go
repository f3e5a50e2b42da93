package business

import (
	"context"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type NotificationKind string

const (
	KindProofRegistered  NotificationKind = "proof.registered"
	KindProofReviewed    NotificationKind = "proof.reviewed"
	KindTransferRejected NotificationKind = "transfer.rejected"
	KindTransferVerified NotificationKind = "transfer.verified"
	KindTransferApproved NotificationKind = "transfer.approved"
	KindPaymentApproved  NotificationKind = "payment.approved"
	KindPaymentRejected  NotificationKind = "payment.rejected"
)

const (
	EntityPayment  = "payment"
	EntityTransfer = "transfer"
)

// Notification is one of the domain events below. The set is closed.
type Notification interface {
	Kind() NotificationKind
	EntityID() string
	EntityType() string
	notification()
}

type ProofRegistered struct {
	PaymentID  string           `json:"paymentId"`
	TransferID string           `json:"transferId"`
	ProofKind  models.ProofKind `json:"proofKind"`
	TenantID   string           `json:"tenantId"`
	Comment    string           `json:"comment,omitempty"`
}

type ProofReviewed struct {
	PaymentID  string           `json:"paymentId"`
	TransferID string           `json:"transferId"`
	ProofKind  models.ProofKind `json:"proofKind"`
	Approved   bool             `json:"approved"`
	ReviewerID string           `json:"reviewerId"`
	Comment    string           `json:"comment,omitempty"`
}

type TransferRejected struct {
	PaymentID  string `json:"paymentId"`
	TransferID string `json:"transferId"`
	TenantID   string `json:"tenantId"`
	ReviewerID string `json:"reviewerId"`
	Comment    string `json:"comment,omitempty"`
}

type TransferVerified struct {
	PaymentID  string `json:"paymentId"`
	TransferID string `json:"transferId"`
	AgencyID   string `json:"agencyId"`
}

type TransferApproved struct {
	PaymentID  string `json:"paymentId"`
	TransferID string `json:"transferId"`
	TenantID   string `json:"tenantId"`
	ApprovedBy string `json:"approvedBy"`
	Comment    string `json:"comment,omitempty"`
}

type PaymentApproved struct {
	PaymentID  string               `json:"paymentId"`
	ContractID string               `json:"contractId"`
	Period     string               `json:"period"`
	Amount     string               `json:"amount"`
	Method     models.PaymentMethod `json:"method"`
}

type PaymentRejected struct {
	PaymentID  string `json:"paymentId"`
	ContractID string `json:"contractId"`
	Period     string `json:"period"`
	RejectedBy string `json:"rejectedBy"`
	Reason     string `json:"reason,omitempty"`
}

func (ProofRegistered) Kind() NotificationKind  { return KindProofRegistered }
func (ProofReviewed) Kind() NotificationKind    { return KindProofReviewed }
func (TransferRejected) Kind() NotificationKind { return KindTransferRejected }
func (TransferVerified) Kind() NotificationKind { return KindTransferVerified }
func (TransferApproved) Kind() NotificationKind { return KindTransferApproved }
func (PaymentApproved) Kind() NotificationKind  { return KindPaymentApproved }
func (PaymentRejected) Kind() NotificationKind  { return KindPaymentRejected }

func (n ProofRegistered) EntityID() string  { return n.TransferID }
func (n ProofReviewed) EntityID() string    { return n.TransferID }
func (n TransferRejected) EntityID() string { return n.TransferID }
func (n TransferVerified) EntityID() string { return n.TransferID }
func (n TransferApproved) EntityID() string { return n.TransferID }
func (n PaymentApproved) EntityID() string  { return n.PaymentID }
func (n PaymentRejected) EntityID() string  { return n.PaymentID }

func (ProofRegistered) EntityType() string  { return EntityTransfer }
func (ProofReviewed) EntityType() string    { return EntityTransfer }
func (TransferRejected) EntityType() string { return EntityTransfer }
func (TransferVerified) EntityType() string { return EntityTransfer }
func (TransferApproved) EntityType() string { return EntityTransfer }
func (PaymentApproved) EntityType() string  { return EntityPayment }
func (PaymentRejected) EntityType() string  { return EntityPayment }

func (ProofRegistered) notification()  {}
func (ProofReviewed) notification()    {}
func (TransferRejected) notification() {}
func (TransferVerified) notification() {}
func (TransferApproved) notification() {}
func (PaymentApproved) notification()  {}
func (PaymentRejected) notification()  {}

func paymentApprovedFor(p *models.Payment) PaymentApproved {
	return PaymentApproved{
		PaymentID:  p.GetID(),
		ContractID: p.ContractID,
		Period:     p.Period,
		Amount:     p.Amount.StringFixed(2),
		Method:     p.Method,
	}
}

// publish delivers notifications collected during a committed unit of work. Delivery
// failures never undo the state change, so they are only logged.
func publish(ctx context.Context, notifier Notifier, logger Logger, notifications []Notification) {
	for _, n := range notifications {
		if err := notifier.Notify(ctx, n); err != nil {
			logger.Warn(ctx, err, "could not dispatch notification",
				"kind", n.Kind(), "entity_id", n.EntityID())
		}
	}
}
