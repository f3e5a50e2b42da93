package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm/clause"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type VerificationRepository interface {
	ListByTransfer(ctx context.Context, transferID string) ([]models.ProofVerification, error)
	// Upsert records the reviewer decision, replacing an earlier one for the same kind.
	Upsert(ctx context.Context, verification *models.ProofVerification) error
	// DeleteByKind hard deletes the decision on one leg of a transfer.
	DeleteByKind(ctx context.Context, transferID string, kind models.ProofKind) error
}

type verificationRepository struct {
	abstractRepository
}

func NewVerificationRepository(_ context.Context, provider DBProvider) VerificationRepository {
	return &verificationRepository{abstractRepository{provider: provider}}
}

func (repo *verificationRepository) ListByTransfer(ctx context.Context, transferID string) ([]models.ProofVerification, error) {
	var verifications []models.ProofVerification
	err := repo.readDB(ctx).Where("transfer_id = ?", transferID).
		Order("proof_kind").Find(&verifications).Error
	if err != nil {
		return nil, err
	}
	return verifications, nil
}

func (repo *verificationRepository) Upsert(ctx context.Context, verification *models.ProofVerification) error {
	if verification.GetID() == "" {
		verification.GenID(ctx)
	}
	err := repo.writeDB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transfer_id"}, {Name: "proof_kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"approved", "reviewer_id", "comment", "reviewed_at"}),
	}).Create(verification).Error
	return translateWriteError(err, "could not save proof verification")
}

func (repo *verificationRepository) DeleteByKind(ctx context.Context, transferID string, kind models.ProofKind) error {
	err := repo.writeDB(ctx).Unscoped().
		Where("transfer_id = ? AND proof_kind = ?", transferID, kind).
		Delete(&models.ProofVerification{}).Error
	return errors.Wrap(err, "could not delete proof verification")
}
