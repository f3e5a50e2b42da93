package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type RepositoryTestSuite struct {
	suite.Suite
	container testcontainers.Container
	db        *gorm.DB
	store     Store
}

func (s *RepositoryTestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping postgres backed tests in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(s.T())

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "rent",
			"POSTGRES_PASSWORD": "secret",
			"POSTGRES_DB":       "rent",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		s.T().Skipf("postgres container unavailable: %v", err)
	}
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	dsn := fmt.Sprintf("host=%s port=%s user=rent password=secret dbname=rent sslmode=disable", host, port.Port())
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(models.All()...))

	s.db = db
	s.store = NewStore(NewGormProvider(db))
}

func (s *RepositoryTestSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RepositoryTestSuite) newPayment(ctx context.Context, period string) *models.Payment {
	contract := &models.Contract{
		OwnerID:           "owner-1",
		TenantUserID:      "tenant-1",
		AgencyID:          "agency-1",
		MonthlyRent:       decimal.NewFromInt(1000),
		CommissionPercent: decimal.NewFromInt(10),
		DueDay:            10,
		CollectionMode:    models.CollectionModeSplit,
	}
	s.Require().NoError(s.store.Contracts().Save(ctx, contract))

	payment := &models.Payment{
		ContractID:  contract.GetID(),
		Period:      period,
		Amount:      decimal.NewFromInt(1000),
		State:       models.PaymentStatePending,
		ExternalRef: "RENT-" + period + "-" + contract.GetID(),
		DueDate:     time.Now(),
	}
	s.Require().NoError(s.store.Payments().Create(ctx, payment))
	return payment
}

func (s *RepositoryTestSuite) TestDuplicatePeriodIsRejected() {
	ctx := context.Background()
	payment := s.newPayment(ctx, "2024-03")

	dup := &models.Payment{
		ContractID:  payment.ContractID,
		Period:      payment.Period,
		Amount:      decimal.NewFromInt(1),
		State:       models.PaymentStatePending,
		ExternalRef: "RENT-dup",
	}
	err := s.store.Payments().Create(ctx, dup)
	s.Require().Error(err)
	s.ErrorIs(err, ErrDuplicate)
}

func (s *RepositoryTestSuite) TestMarkApprovedIsGuardedUnderConcurrency() {
	ctx := context.Background()
	payment := s.newPayment(ctx, "2024-04")

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.InTx(ctx, func(tx Store) error {
				rows, err := tx.Payments().MarkApproved(ctx, payment.GetID(), models.PaymentMethodGateway, "gw-1", time.Now())
				if err != nil {
					return err
				}
				if rows == 1 {
					pid := payment.GetID()
					err = tx.Movements().UpsertForPayment(ctx, &models.Movement{
						ContractID: payment.ContractID,
						PaymentID:  &pid,
						Kind:       models.MovementKindPayment,
						Amount:     payment.Amount,
						Concept:    "rent",
					})
				}
				mu.Lock()
				changed += rows
				mu.Unlock()
				return err
			})
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	s.Equal(int64(1), changed)

	stored, err := s.store.Payments().GetByID(ctx, payment.GetID())
	s.Require().NoError(err)
	s.Equal(models.PaymentStateApproved, stored.State)
	s.Equal("gw-1", stored.GatewayPaymentID)

	movements, err := s.store.Movements().ListByPayment(ctx, payment.GetID())
	s.Require().NoError(err)
	s.Len(movements, 1)

	rows, err := s.store.Payments().MarkRejected(ctx, payment.GetID(), "late")
	s.Require().NoError(err)
	s.Zero(rows)
}

func (s *RepositoryTestSuite) TestVerificationUpsertAndDelete() {
	ctx := context.Background()
	payment := s.newPayment(ctx, "2024-05")

	transfer := &models.Transfer{
		PaymentID:      payment.GetID(),
		OwnerProofRef:  "proofs/owner.pdf",
		AgencyProofRef: "proofs/agency.pdf",
		State:          models.TransferStatePendingVerification,
	}
	s.Require().NoError(s.store.Transfers().Create(ctx, transfer))

	verifications := s.store.Verifications()
	s.Require().NoError(verifications.Upsert(ctx, &models.ProofVerification{
		TransferID: transfer.GetID(), ProofKind: models.ProofKindOwner, Approved: false, ReviewerID: "owner-1",
		ReviewedAt: time.Now(),
	}))
	s.Require().NoError(verifications.Upsert(ctx, &models.ProofVerification{
		TransferID: transfer.GetID(), ProofKind: models.ProofKindOwner, Approved: true, ReviewerID: "owner-1",
		Comment: "looks fine", ReviewedAt: time.Now(),
	}))
	s.Require().NoError(verifications.Upsert(ctx, &models.ProofVerification{
		TransferID: transfer.GetID(), ProofKind: models.ProofKindAgency, Approved: true, ReviewerID: "staff-1",
		ReviewedAt: time.Now(),
	}))

	list, err := verifications.ListByTransfer(ctx, transfer.GetID())
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(models.ProofKindAgency, list[0].ProofKind)
	s.True(list[1].Approved)
	s.Equal("looks fine", list[1].Comment)

	s.Require().NoError(verifications.DeleteByKind(ctx, transfer.GetID(), models.ProofKindOwner))
	s.Require().NoError(verifications.Upsert(ctx, &models.ProofVerification{
		TransferID: transfer.GetID(), ProofKind: models.ProofKindOwner, Approved: false, ReviewerID: "owner-1",
		ReviewedAt: time.Now(),
	}))

	loaded, err := s.store.Transfers().GetByID(ctx, transfer.GetID())
	s.Require().NoError(err)
	s.Len(loaded.Verifications, 2)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	require.True(t, isUniqueViolation(fmt.Errorf("ERROR: duplicate key value violates unique constraint \"idx\"")))
	require.True(t, isUniqueViolation(fmt.Errorf("UNIQUE constraint failed: payments.contract_id")))
	require.False(t, isUniqueViolation(fmt.Errorf("connection reset")))
	require.False(t, IsNotFound(fmt.Errorf("boom")))
	require.True(t, IsNotFound(gorm.ErrRecordNotFound))
}
