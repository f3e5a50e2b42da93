package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type TransferRepository interface {
	GetByID(ctx context.Context, id string) (*models.Transfer, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Transfer, error)
	// GetByIDForUpdate locks the transfer row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Transfer, error)
	GetByPaymentIDForUpdate(ctx context.Context, paymentID string) (*models.Transfer, error)
	Create(ctx context.Context, transfer *models.Transfer) error
	Save(ctx context.Context, transfer *models.Transfer) error
}

type transferRepository struct {
	abstractRepository
}

func NewTransferRepository(_ context.Context, provider DBProvider) TransferRepository {
	return &transferRepository{abstractRepository{provider: provider}}
}

func (repo *transferRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	transfer := models.Transfer{}
	err := repo.readDB(ctx).Preload("Verifications").First(&transfer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (repo *transferRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Transfer, error) {
	transfer := models.Transfer{}
	err := repo.readDB(ctx).Preload("Verifications").First(&transfer, "payment_id = ?", paymentID).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (repo *transferRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Transfer, error) {
	transfer := models.Transfer{}
	err := repo.lockDB(ctx).First(&transfer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (repo *transferRepository) GetByPaymentIDForUpdate(ctx context.Context, paymentID string) (*models.Transfer, error) {
	transfer := models.Transfer{}
	err := repo.lockDB(ctx).First(&transfer, "payment_id = ?", paymentID).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (repo *transferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	if transfer.GetID() == "" {
		transfer.GenID(ctx)
	}
	err := repo.writeDB(ctx).Omit(clause.Associations).Create(transfer).Error
	return translateWriteError(err, "could not create transfer")
}

func (repo *transferRepository) Save(ctx context.Context, transfer *models.Transfer) error {
	err := repo.writeDB(ctx).Omit(clause.Associations).Save(transfer).Error
	return translateWriteError(err, "could not save transfer")
}
