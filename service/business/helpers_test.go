package business

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taibogaston/admininmo-sub000/service/models"
	"github.com/taibogaston/admininmo-sub000/service/repository"
	"github.com/taibogaston/admininmo-sub000/service/utility"
)

type fixture struct {
	store    repository.Store
	ledger   *paymentLedger
	recon    *transferReconciliation
	files    *MockFileStore
	notifier Notifier
	mu       sync.Mutex
	notified []Notification
	contract *models.Contract

	tenant   Actor
	owner    Actor
	staff    Actor
	platform Actor
	stranger Actor
}

func newTestStore(t *testing.T) repository.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return repository.NewStore(repository.NewGormProvider(db))
}

func testLogger() Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return utility.NewLogrusLogger(base)
}

func newFixture(t *testing.T, mode models.CollectionMode) *fixture {
	t.Helper()
	return newFixtureWithStore(t, mode, newTestStore(t))
}

func newFixtureWithStore(t *testing.T, mode models.CollectionMode, store repository.Store) *fixture {
	t.Helper()
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	f := &fixture{
		store: store,
		files: NewMockFileStore(ctrl),
	}

	notifier := NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n Notification) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.notified = append(f.notified, n)
			return nil
		}).AnyTimes()
	f.notifier = notifier

	f.contract = &models.Contract{
		OwnerID:           "owner-1",
		TenantUserID:      "tenant-1",
		AgencyID:          "agency-1",
		MonthlyRent:       decimal.NewFromInt(100000),
		CommissionPercent: decimal.NewFromInt(10),
		DueDay:            10,
		CollectionMode:    mode,
	}
	require.NoError(t, f.store.Contracts().Save(ctx, f.contract))

	ledger, err := NewPaymentLedger(f.store, notifier, testLogger(), decimal.NewFromInt(5))
	require.NoError(t, err)
	f.ledger = ledger.(*paymentLedger)

	recon, err := NewTransferReconciliation(f.store, ledger, f.files, notifier, testLogger())
	require.NoError(t, err)
	f.recon = recon.(*transferReconciliation)

	f.tenant = Actor{ID: "tenant-1", Role: RoleTenant}
	f.owner = Actor{ID: "owner-1", Role: RoleOwner}
	f.staff = Actor{ID: "staff-1", Role: RoleAgencyAdmin, AgencyID: "agency-1"}
	f.platform = Actor{ID: "root", Role: RoleSuperAdmin}
	f.stranger = Actor{ID: "tenant-2", Role: RoleTenant}
	return f
}

func (f *fixture) generate(t *testing.T, period string) *models.Payment {
	t.Helper()
	payment, err := f.ledger.GeneratePayment(context.Background(), f.staff, GeneratePaymentRequest{
		ContractID: f.contract.GetID(),
		Period:     period,
	})
	require.NoError(t, err)
	return payment
}

// uploadProof registers a proof whose file exists in the store.
func (f *fixture) uploadProof(t *testing.T, paymentID string, kind models.ProofKind, ref string) *models.Transfer {
	t.Helper()
	f.files.EXPECT().Exists(gomock.Any(), ref).Return(true, nil)
	transfer, err := f.recon.RegisterProof(context.Background(), f.tenant, RegisterProofRequest{
		PaymentID: paymentID,
		Kind:      kind,
		FileRef:   ref,
	})
	require.NoError(t, err)
	return transfer
}

func (f *fixture) review(t *testing.T, actor Actor, transferID string, approved bool) *models.Transfer {
	t.Helper()
	transfer, err := f.recon.ReviewProof(context.Background(), actor, ReviewProofRequest{
		TransferID: transferID,
		Approved:   approved,
		Comment:    "checked",
	})
	require.NoError(t, err)
	return transfer
}

func (f *fixture) paymentMovements(t *testing.T, paymentID string, kind models.MovementKind) []*models.Movement {
	t.Helper()
	movements, err := f.store.Movements().ListByPayment(context.Background(), paymentID)
	require.NoError(t, err)
	var out []*models.Movement
	for _, m := range movements {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (f *fixture) kinds() []NotificationKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []NotificationKind
	for _, n := range f.notified {
		out = append(out, n.Kind())
	}
	return out
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, status.Code(err), "unexpected error: %v", err)
}
