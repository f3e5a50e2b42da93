package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type MovementRepository interface {
	Create(ctx context.Context, movement *models.Movement) error
	// UpsertForPayment writes the single movement of its kind for a payment.
	UpsertForPayment(ctx context.Context, movement *models.Movement) error
	ListByContract(ctx context.Context, contractID string) ([]*models.Movement, error)
	ListByPayment(ctx context.Context, paymentID string) ([]*models.Movement, error)
}

type movementRepository struct {
	abstractRepository
}

func NewMovementRepository(_ context.Context, provider DBProvider) MovementRepository {
	return &movementRepository{abstractRepository{provider: provider}}
}

func (repo *movementRepository) Create(ctx context.Context, movement *models.Movement) error {
	if movement.GetID() == "" {
		movement.GenID(ctx)
	}
	return translateWriteError(repo.writeDB(ctx).Create(movement).Error, "could not create movement")
}

func (repo *movementRepository) UpsertForPayment(ctx context.Context, movement *models.Movement) error {
	if movement.GetID() == "" {
		movement.GenID(ctx)
	}
	err := repo.writeDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "concept"}),
	}).Create(movement).Error
	return translateWriteError(err, "could not save movement")
}

func (repo *movementRepository) ListByContract(ctx context.Context, contractID string) ([]*models.Movement, error) {
	var movements []*models.Movement
	err := repo.readDB(ctx).Where("contract_id = ?", contractID).
		Order("created_at").Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func (repo *movementRepository) ListByPayment(ctx context.Context, paymentID string) ([]*models.Movement, error) {
	var movements []*models.Movement
	err := repo.readDB(ctx).Where("payment_id = ?", paymentID).
		Order("created_at").Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
