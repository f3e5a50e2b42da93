package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm/clause"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type ContractRepository interface {
	GetByID(ctx context.Context, id string) (*models.Contract, error)
	Save(ctx context.Context, contract *models.Contract) error
}

type contractRepository struct {
	abstractRepository
}

func NewContractRepository(_ context.Context, provider DBProvider) ContractRepository {
	return &contractRepository{abstractRepository{provider: provider}}
}

func (repo *contractRepository) GetByID(ctx context.Context, id string) (*models.Contract, error) {
	contract := models.Contract{}
	err := repo.readDB(ctx).First(&contract, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (repo *contractRepository) Save(ctx context.Context, contract *models.Contract) error {
	if contract.GetID() == "" {
		contract.GenID(ctx)
	}
	err := repo.writeDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(contract).Error
	return errors.Wrap(err, "could not save contract")
}
