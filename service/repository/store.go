package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories of one unit of work.
type Store interface {
	Contracts() ContractRepository
	Payments() PaymentRepository
	Transfers() TransferRepository
	Verifications() VerificationRepository
	Movements() MovementRepository
	Statuses() StatusRepository

	// InTx runs fn against a Store bound to a single database transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type store struct {
	provider DBProvider
}

func NewStore(provider DBProvider) Store {
	return &store{provider: provider}
}

func (s *store) Contracts() ContractRepository {
	return &contractRepository{abstractRepository{provider: s.provider}}
}

func (s *store) Payments() PaymentRepository {
	return &paymentRepository{abstractRepository{provider: s.provider}}
}

func (s *store) Transfers() TransferRepository {
	return &transferRepository{abstractRepository{provider: s.provider}}
}

func (s *store) Verifications() VerificationRepository {
	return &verificationRepository{abstractRepository{provider: s.provider}}
}

func (s *store) Movements() MovementRepository {
	return &movementRepository{abstractRepository{provider: s.provider}}
}

func (s *store) Statuses() StatusRepository {
	return &statusRepository{abstractRepository{provider: s.provider}}
}

func (s *store) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.provider.DB(ctx, false).Transaction(func(tx *gorm.DB) error {
		return fn(&store{provider: &txProvider{tx: tx}})
	})
}

type txProvider struct {
	tx *gorm.DB
}

func (p *txProvider) DB(ctx context.Context, _ bool) *gorm.DB {
	return p.tx.WithContext(ctx)
}
