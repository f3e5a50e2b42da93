package repository

import (
	"context"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type StatusRepository interface {
	ListByEntity(ctx context.Context, entityID, entityType string) ([]*models.Status, error)
	Save(ctx context.Context, status *models.Status) error
}

type statusRepository struct {
	abstractRepository
}

func NewStatusRepository(_ context.Context, provider DBProvider) StatusRepository {
	return &statusRepository{abstractRepository{provider: provider}}
}

func (repo *statusRepository) ListByEntity(ctx context.Context, entityID, entityType string) ([]*models.Status, error) {
	var statuses []*models.Status
	err := repo.readDB(ctx).Where("entity_id = ? AND entity_type = ?", entityID, entityType).
		Order("created_at").Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (repo *statusRepository) Save(ctx context.Context, status *models.Status) error {
	if status.GetID() == "" {
		status.GenID(ctx)
	}
	return translateWriteError(repo.writeDB(ctx).Save(status).Error, "could not save status")
}
