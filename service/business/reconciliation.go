package business

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/taibogaston/admininmo-sub000/service/models"
	"github.com/taibogaston/admininmo-sub000/service/repository"
)

type RegisterProofRequest struct {
	PaymentID string
	Kind      models.ProofKind
	FileRef   string
	Comment   string
}

type ReviewProofRequest struct {
	TransferID string
	// Kind may be left empty by owners and agency staff, it follows from their role.
	Kind     models.ProofKind
	Approved bool
	Comment  string
}

type ProofUpload struct {
	Kind    models.ProofKind
	FileRef string
}

// RegisterProofsRequest registers several legs in one unit of work.
type RegisterProofsRequest struct {
	PaymentID string
	Proofs    []ProofUpload
	Comment   string
}

type ManualExecutionRequest struct {
	PaymentID         string
	OwnerTransferRef  string
	AgencyTransferRef string
	Comment           string
}

type TransferReconciliation interface {
	// AuthorizeProofUpload checks the actor may upload proofs for the payment before any
	// file is stored.
	AuthorizeProofUpload(ctx context.Context, actor Actor, paymentID string) error
	RegisterProof(ctx context.Context, actor Actor, request RegisterProofRequest) (*models.Transfer, error)
	// RegisterProofs either stores every proof of the request or none of them.
	RegisterProofs(ctx context.Context, actor Actor, request RegisterProofsRequest) (*models.Transfer, error)
	ReviewProof(ctx context.Context, actor Actor, request ReviewProofRequest) (*models.Transfer, error)
	ExecuteManualTransfers(ctx context.Context, actor Actor, request ManualExecutionRequest) (*models.Transfer, error)
	GetTransfer(ctx context.Context, actor Actor, paymentID string) (*models.Transfer, error)
}

// txApprover approves a payment inside an open unit of work.
type txApprover interface {
	markApproved(ctx context.Context, tx repository.Store, paymentID string,
		method models.PaymentMethod, gatewayRef string) (*models.Payment, bool, error)
}

func NewTransferReconciliation(
	store repository.Store,
	ledger PaymentLedger,
	files FileStore,
	notifier Notifier,
	logger Logger,
) (TransferReconciliation, error) {
	approver, ok := ledger.(txApprover)
	if store == nil || !ok || files == nil || notifier == nil || logger == nil {
		return nil, ErrorInitializationFail
	}
	return &transferReconciliation{
		store:    store,
		approver: approver,
		files:    files,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}, nil
}

type transferReconciliation struct {
	store    repository.Store
	approver txApprover
	files    FileStore
	notifier Notifier
	logger   Logger
	now      func() time.Time
}

func (r *transferReconciliation) AuthorizeProofUpload(ctx context.Context, actor Actor, paymentID string) error {
	payment, _, err := loadAuthorizedPayment(ctx, r.store, actor, paymentID, ActionRegisterProof)
	if err != nil {
		return err
	}
	if payment.State != models.PaymentStatePending {
		return ErrorPaymentNotPending
	}
	return nil
}

func (r *transferReconciliation) RegisterProof(ctx context.Context, actor Actor, request RegisterProofRequest) (*models.Transfer, error) {
	return r.RegisterProofs(ctx, actor, RegisterProofsRequest{
		PaymentID: request.PaymentID,
		Proofs:    []ProofUpload{{Kind: request.Kind, FileRef: request.FileRef}},
		Comment:   request.Comment,
	})
}

func (r *transferReconciliation) RegisterProofs(ctx context.Context, actor Actor, request RegisterProofsRequest) (*models.Transfer, error) {
	if len(request.Proofs) == 0 {
		return nil, ErrorMissingFileReference
	}

	seen := make(map[models.ProofKind]bool, len(request.Proofs))
	proofs := make([]ProofUpload, 0, len(request.Proofs))
	for _, proof := range request.Proofs {
		if !proof.Kind.Valid() {
			return nil, ErrorInvalidProofKind
		}
		if seen[proof.Kind] {
			return nil, ErrorDuplicateProofKind
		}
		seen[proof.Kind] = true

		fileRef := strings.TrimSpace(proof.FileRef)
		if fileRef == "" {
			return nil, ErrorMissingFileReference
		}
		exists, err := r.files.Exists(ctx, fileRef)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrorFileReferenceNotFound
		}
		proofs = append(proofs, ProofUpload{Kind: proof.Kind, FileRef: fileRef})
	}

	var (
		transfer      *models.Transfer
		notifications []Notification
	)
	err := r.store.InTx(ctx, func(tx repository.Store) error {
		payment, contract, err := loadAuthorizedPayment(ctx, tx, actor, request.PaymentID, ActionRegisterProof)
		if err != nil {
			return err
		}
		if payment.State != models.PaymentStatePending {
			return ErrorPaymentNotPending
		}

		transfer, err = tx.Transfers().GetByPaymentIDForUpdate(ctx, payment.GetID())
		switch {
		case repository.IsNotFound(err):
			transfer = &models.Transfer{
				PaymentID: payment.GetID(),
				State:     models.TransferStatePendingVerification,
			}
			for _, proof := range proofs {
				transfer.SetProofRef(proof.Kind, proof.FileRef)
			}
			if err = tx.Transfers().Create(ctx, transfer); err != nil {
				// Another first upload for the payment committed between the lookup and the insert.
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrorConcurrentProofUpload
				}
				return err
			}
		case err != nil:
			return err
		case transfer.State == models.TransferStateApproved:
			return ErrorTransferAlreadyApproved
		default:
			for _, proof := range proofs {
				if transfer.ProofRef(proof.Kind) != "" {
					if err = tx.Verifications().DeleteByKind(ctx, transfer.GetID(), proof.Kind); err != nil {
						return err
					}
				}
				transfer.SetProofRef(proof.Kind, proof.FileRef)
			}
		}
		if comment := strings.TrimSpace(request.Comment); comment != "" {
			transfer.TenantComment = comment
		}

		for _, proof := range proofs {
			notifications = append(notifications, ProofRegistered{
				PaymentID:  payment.GetID(),
				TransferID: transfer.GetID(),
				ProofKind:  proof.Kind,
				TenantID:   actor.ID,
				Comment:    transfer.TenantComment,
			})
		}

		more, err := r.reconcile(ctx, tx, transfer, payment, contract, actor, "", true)
		notifications = append(notifications, more...)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(ctx, "transfer proofs registered",
		"transfer_id", transfer.GetID(), "proofs", len(proofs), "state", transfer.State)
	publish(ctx, r.notifier, r.logger, notifications)
	return transfer, nil
}

func (r *transferReconciliation) ReviewProof(ctx context.Context, actor Actor, request ReviewProofRequest) (*models.Transfer, error) {
	if actor.ID == "" {
		return nil, ErrorUnauthenticated
	}

	var (
		transfer      *models.Transfer
		notifications []Notification
	)
	err := r.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		transfer, err = tx.Transfers().GetByIDForUpdate(ctx, request.TransferID)
		if repository.IsNotFound(err) {
			return ErrorTransferDoesNotExist
		}
		if err != nil {
			return err
		}

		payment, err := tx.Payments().GetByID(ctx, transfer.PaymentID)
		if repository.IsNotFound(err) {
			return ErrorPaymentDoesNotExist
		}
		if err != nil {
			return err
		}
		contract, err := loadContract(ctx, tx, payment.ContractID)
		if err != nil {
			return err
		}

		kind, err := resolveReviewKind(actor, contract, request.Kind)
		if err != nil {
			return err
		}
		if transfer.ProofRef(kind) == "" {
			return ErrorProofNotUploaded
		}
		if transfer.State == models.TransferStateApproved {
			return ErrorTransferAlreadyApproved
		}

		comment := strings.TrimSpace(request.Comment)
		reviewedAt := r.now()
		err = tx.Verifications().Upsert(ctx, &models.ProofVerification{
			TransferID: transfer.GetID(),
			ProofKind:  kind,
			Approved:   request.Approved,
			ReviewerID: actor.ID,
			Comment:    comment,
			ReviewedAt: reviewedAt,
		})
		if err != nil {
			return err
		}

		transfer.ReviewedBy = actor.ID
		transfer.ReviewedAt = &reviewedAt
		transfer.ReviewComment = comment

		notifications = append(notifications, ProofReviewed{
			PaymentID:  payment.GetID(),
			TransferID: transfer.GetID(),
			ProofKind:  kind,
			Approved:   request.Approved,
			ReviewerID: actor.ID,
			Comment:    comment,
		})

		more, err := r.reconcile(ctx, tx, transfer, payment, contract, actor, comment, false)
		notifications = append(notifications, more...)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(ctx, "transfer proof reviewed",
		"transfer_id", transfer.GetID(), "approved", request.Approved, "state", transfer.State)
	publish(ctx, r.notifier, r.logger, notifications)
	return transfer, nil
}

func (r *transferReconciliation) ExecuteManualTransfers(
	ctx context.Context,
	actor Actor,
	request ManualExecutionRequest,
) (*models.Transfer, error) {
	ownerRef := strings.TrimSpace(request.OwnerTransferRef)
	agencyRef := strings.TrimSpace(request.AgencyTransferRef)
	if ownerRef == "" || agencyRef == "" {
		return nil, ErrorMissingTransferReferences
	}

	var (
		transfer      *models.Transfer
		notifications []Notification
	)
	err := r.store.InTx(ctx, func(tx repository.Store) error {
		payment, contract, err := loadAuthorizedPayment(ctx, tx, actor, request.PaymentID, ActionExecuteTransfers)
		if err != nil {
			return err
		}

		transfer, err = tx.Transfers().GetByPaymentIDForUpdate(ctx, payment.GetID())
		if repository.IsNotFound(err) {
			return ErrorTransferDoesNotExist
		}
		if err != nil {
			return err
		}

		if transfer.State == models.TransferStateApproved {
			if transfer.OwnerTransferRef == ownerRef && transfer.AgencyTransferRef == agencyRef {
				return r.attachVerifications(ctx, tx, transfer)
			}
			return ErrorTransferAlreadyApproved
		}
		if transfer.State != models.TransferStateVerified {
			return ErrorTransferNotVerified
		}

		executedAt := r.now()
		comment := strings.TrimSpace(request.Comment)
		transfer.OwnerTransferRef = ownerRef
		transfer.AgencyTransferRef = agencyRef
		transfer.State = models.TransferStateApproved
		transfer.ReviewedBy = actor.ID
		transfer.ReviewedAt = &executedAt
		if comment != "" {
			transfer.ReviewComment = comment
		}
		if err = tx.Transfers().Save(ctx, transfer); err != nil {
			return err
		}

		approved, changed, err := r.approver.markApproved(ctx, tx, payment.GetID(), models.PaymentMethodTransfer, "")
		if err != nil {
			return err
		}

		notifications = append(notifications, TransferApproved{
			PaymentID:  payment.GetID(),
			TransferID: transfer.GetID(),
			TenantID:   contract.TenantUserID,
			ApprovedBy: actor.ID,
			Comment:    comment,
		})
		if changed {
			notifications = append(notifications, paymentApprovedFor(approved))
		}
		return r.attachVerifications(ctx, tx, transfer)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(ctx, "manual transfers executed",
		"transfer_id", transfer.GetID(), "owner_ref", ownerRef, "agency_ref", agencyRef)
	publish(ctx, r.notifier, r.logger, notifications)
	return transfer, nil
}

func (r *transferReconciliation) GetTransfer(ctx context.Context, actor Actor, paymentID string) (*models.Transfer, error) {
	payment, _, err := loadAuthorizedPayment(ctx, r.store, actor, paymentID, ActionReadPayment)
	if err != nil {
		return nil, err
	}
	transfer, err := r.store.Transfers().GetByPaymentID(ctx, payment.GetID())
	if repository.IsNotFound(err) {
		return nil, ErrorTransferDoesNotExist
	}
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// reconcile derives the transfer state from the verifications stored in this transaction,
// persists it and approves the payment when the transfer became approved. APPROVED is final.
// REJECTED only reopens when reopen is set, which is the case for a new proof upload.
func (r *transferReconciliation) reconcile(
	ctx context.Context,
	tx repository.Store,
	transfer *models.Transfer,
	payment *models.Payment,
	contract *models.Contract,
	actor Actor,
	comment string,
	reopen bool,
) ([]Notification, error) {
	verifications, err := tx.Verifications().ListByTransfer(ctx, transfer.GetID())
	if err != nil {
		return nil, err
	}
	transfer.Verifications = verifications

	previous := transfer.State
	locked := previous == models.TransferStateApproved ||
		(previous == models.TransferStateRejected && !reopen)
	if !locked {
		transfer.State = DeriveOverallState(RequiredProofs(contract.CollectionMode), transfer.PresentProofs(), verifications)
	}
	if err = tx.Transfers().Save(ctx, transfer); err != nil {
		return nil, err
	}
	if transfer.State == previous {
		return nil, nil
	}

	var notifications []Notification
	switch transfer.State {
	case models.TransferStateRejected:
		notifications = append(notifications, TransferRejected{
			PaymentID:  payment.GetID(),
			TransferID: transfer.GetID(),
			TenantID:   contract.TenantUserID,
			ReviewerID: actor.ID,
			Comment:    comment,
		})
	case models.TransferStateVerified:
		notifications = append(notifications, TransferVerified{
			PaymentID:  payment.GetID(),
			TransferID: transfer.GetID(),
			AgencyID:   contract.AgencyID,
		})
	case models.TransferStateApproved:
		approved, changed, err := r.approver.markApproved(ctx, tx, payment.GetID(), models.PaymentMethodTransfer, "")
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, TransferApproved{
			PaymentID:  payment.GetID(),
			TransferID: transfer.GetID(),
			TenantID:   contract.TenantUserID,
			ApprovedBy: actor.ID,
			Comment:    comment,
		})
		if changed {
			notifications = append(notifications, paymentApprovedFor(approved))
		}
	}
	return notifications, nil
}

func (r *transferReconciliation) attachVerifications(ctx context.Context, tx repository.Store, transfer *models.Transfer) error {
	verifications, err := tx.Verifications().ListByTransfer(ctx, transfer.GetID())
	if err != nil {
		return err
	}
	transfer.Verifications = verifications
	return nil
}
