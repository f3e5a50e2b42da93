package models

import (
	"time"

	commonv1 "github.com/antinvestor/apis/go/common/v1"
	"github.com/pitabwire/frame"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CollectionMode string

const (
	// CollectionModeSplit tenants pay the owner and the agency separately.
	CollectionModeSplit CollectionMode = "SPLIT"
	// CollectionModeAgency tenants pay the full rent to the agency.
	CollectionModeAgency CollectionMode = "AGENCY"
	// CollectionModeOwner the owner collects the full rent.
	CollectionModeOwner CollectionMode = "OWNER"
)

type PaymentState string

const (
	PaymentStatePending  PaymentState = "PENDING"
	PaymentStateApproved PaymentState = "APPROVED"
	PaymentStateRejected PaymentState = "REJECTED"
)

type PaymentMethod string

const (
	PaymentMethodGateway  PaymentMethod = "GATEWAY"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

type TransferState string

const (
	TransferStatePendingVerification TransferState = "PENDING_VERIFICATION"
	TransferStateVerified            TransferState = "VERIFIED"
	TransferStateApproved            TransferState = "APPROVED"
	TransferStateRejected            TransferState = "REJECTED"
)

type ProofKind string

const (
	ProofKindOwner  ProofKind = "OWNER"
	ProofKindAgency ProofKind = "AGENCY"
)

// Valid reports whether the kind is one of the two known transfer legs.
func (k ProofKind) Valid() bool {
	return k == ProofKindOwner || k == ProofKindAgency
}

type MovementKind string

const (
	MovementKindCharge  MovementKind = "CHARGE"
	MovementKindPayment MovementKind = "PAGO"
)

// Contract is the rental agreement snapshot payments are generated from.
type Contract struct {
	frame.BaseModel

	OwnerID           string          `gorm:"type:varchar(50);index"`
	TenantUserID      string          `gorm:"type:varchar(50);index"`
	AgencyID          string          `gorm:"type:varchar(50);index"`
	MonthlyRent       decimal.Decimal `gorm:"type:numeric(20,2)"`
	CommissionPercent decimal.Decimal `gorm:"type:numeric(5,2)"`
	DueDay            int
	CollectionMode    CollectionMode `gorm:"type:varchar(10);default:'SPLIT'"`
}

// Payment Table holds one rent obligation per contract and period
type Payment struct {
	frame.BaseModel

	ContractID         string          `gorm:"type:varchar(50);uniqueIndex:idx_payment_contract_period"`
	Period             string          `gorm:"type:varchar(7);uniqueIndex:idx_payment_contract_period"`
	Amount             decimal.Decimal `gorm:"type:numeric(20,2)"`
	Commission         decimal.Decimal `gorm:"type:numeric(20,2)"`
	PlatformCommission decimal.Decimal `gorm:"type:numeric(20,2)"`
	OwnerNet           decimal.Decimal `gorm:"type:numeric(20,2)"`
	AgencyNet          decimal.Decimal `gorm:"type:numeric(20,2)"`
	State              PaymentState    `gorm:"type:varchar(20);index"`
	Method             PaymentMethod   `gorm:"type:varchar(20)"`
	ExternalRef        string          `gorm:"type:varchar(50);uniqueIndex"`
	GatewayPaymentID   string          `gorm:"type:varchar(100);index"`
	RejectionReason    string          `gorm:"type:text"`
	DueDate            time.Time
	PaidAt             *time.Time
}

func (model *Payment) IsSettled() bool {
	return model.State != PaymentStatePending
}

// Transfer tracks the proofs a tenant uploaded for a payment settled by bank transfer.
type Transfer struct {
	frame.BaseModel

	PaymentID         string        `gorm:"type:varchar(50);uniqueIndex"`
	OwnerProofRef     string        `gorm:"type:varchar(255)"`
	AgencyProofRef    string        `gorm:"type:varchar(255)"`
	TenantComment     string        `gorm:"type:text"`
	State             TransferState `gorm:"type:varchar(30);index"`
	OwnerTransferRef  string        `gorm:"type:varchar(100)"`
	AgencyTransferRef string        `gorm:"type:varchar(100)"`
	ReviewedBy        string        `gorm:"type:varchar(50)"`
	ReviewComment     string        `gorm:"type:text"`
	ReviewedAt        *time.Time

	Verifications []ProofVerification `gorm:"foreignKey:TransferID;constraint:OnDelete:CASCADE"`
}

// ProofRef returns the stored file reference for the given leg.
func (model *Transfer) ProofRef(kind ProofKind) string {
	switch kind {
	case ProofKindOwner:
		return model.OwnerProofRef
	case ProofKindAgency:
		return model.AgencyProofRef
	}
	return ""
}

func (model *Transfer) SetProofRef(kind ProofKind, ref string) {
	switch kind {
	case ProofKindOwner:
		model.OwnerProofRef = ref
	case ProofKindAgency:
		model.AgencyProofRef = ref
	}
}

// PresentProofs lists the legs with an uploaded proof, owner first.
func (model *Transfer) PresentProofs() []ProofKind {
	var kinds []ProofKind
	if model.OwnerProofRef != "" {
		kinds = append(kinds, ProofKindOwner)
	}
	if model.AgencyProofRef != "" {
		kinds = append(kinds, ProofKindAgency)
	}
	return kinds
}

type ProofVerification struct {
	frame.BaseModel

	TransferID string    `gorm:"type:varchar(50);uniqueIndex:idx_verification_transfer_kind"`
	ProofKind  ProofKind `gorm:"type:varchar(10);uniqueIndex:idx_verification_transfer_kind"`
	Approved   bool
	ReviewerID string `gorm:"type:varchar(50)"`
	Comment    string `gorm:"type:text"`
	ReviewedAt time.Time
}

// Movement is an append only entry of a contract's running account.
type Movement struct {
	frame.BaseModel

	ContractID string          `gorm:"type:varchar(50);index"`
	PaymentID  *string         `gorm:"type:varchar(50);uniqueIndex:idx_movement_payment_kind"`
	Kind       MovementKind    `gorm:"type:varchar(10);uniqueIndex:idx_movement_payment_kind"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,2)"`
	Concept    string          `gorm:"type:varchar(255)"`
}

// Status is the audit row written for every dispatched notification.
type Status struct {
	frame.BaseModel
	EntityID   string `gorm:"type:varchar(50);index:idx_status_entity"`
	EntityType string `gorm:"type:varchar(50);index:idx_status_entity"`
	Kind       string `gorm:"type:varchar(50)"`
	Extra      datatypes.JSONMap
	State      int32
	Status     int32
}

func (model *Status) ToStatusAPI() *commonv1.StatusResponse {
	extra := frame.DBPropertiesToMap(model.Extra)
	extra["CreatedAt"] = model.CreatedAt.String()
	extra["Kind"] = model.Kind
	extra["EntityType"] = model.EntityType

	return &commonv1.StatusResponse{
		Id:     model.EntityID,
		State:  commonv1.STATE(model.State),
		Status: commonv1.STATUS(model.Status),
		Extras: extra,
	}
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Contract{},
		&Payment{},
		&Transfer{},
		&ProofVerification{},
		&Movement{},
		&Status{},
	}
}
