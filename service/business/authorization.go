package business

import (
	"strings"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleAgencyAdmin Role = "ADMIN"
	RoleOwner       Role = "OWNER"
	RoleTenant      Role = "TENANT"
)

// ParseRole accepts the role names forwarded by the identity layer, ignoring case.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	case RoleAgencyAdmin:
		return RoleAgencyAdmin, true
	case RoleOwner:
		return RoleOwner, true
	case RoleTenant:
		return RoleTenant, true
	}
	return "", false
}

// Actor is the authenticated caller as resolved by the identity layer.
type Actor struct {
	ID       string
	Role     Role
	AgencyID string
}

// Relationship is how an actor relates to a contract.
type Relationship int

const (
	RelationNone Relationship = iota
	RelationTenant
	RelationOwner
	RelationAgencyStaff
	RelationPlatform
)

type Action string

const (
	ActionReadPayment       Action = "payment.read"
	ActionGeneratePayment   Action = "payment.generate"
	ActionRejectPayment     Action = "payment.reject"
	ActionCheckout          Action = "payment.checkout"
	ActionRegisterProof     Action = "proof.register"
	ActionReviewOwnerProof  Action = "proof.review.owner"
	ActionReviewAgencyProof Action = "proof.review.agency"
	ActionExecuteTransfers  Action = "transfer.execute"
)

var authorizationTable = map[Action]map[Relationship]bool{
	ActionReadPayment: {
		RelationTenant: true, RelationOwner: true, RelationAgencyStaff: true, RelationPlatform: true,
	},
	ActionGeneratePayment: {
		RelationTenant: true, RelationOwner: true, RelationAgencyStaff: true, RelationPlatform: true,
	},
	ActionRejectPayment:     {RelationAgencyStaff: true, RelationPlatform: true},
	ActionCheckout:          {RelationTenant: true},
	ActionRegisterProof:     {RelationTenant: true},
	ActionReviewOwnerProof:  {RelationOwner: true, RelationPlatform: true},
	ActionReviewAgencyProof: {RelationAgencyStaff: true, RelationPlatform: true},
	ActionExecuteTransfers:  {RelationAgencyStaff: true, RelationPlatform: true},
}

// RelationshipOf derives the actor's relationship to the contract.
func RelationshipOf(actor Actor, contract *models.Contract) Relationship {
	switch actor.Role {
	case RoleSuperAdmin:
		return RelationPlatform
	case RoleAgencyAdmin:
		if actor.AgencyID != "" && actor.AgencyID == contract.AgencyID {
			return RelationAgencyStaff
		}
	case RoleOwner:
		if actor.ID != "" && actor.ID == contract.OwnerID {
			return RelationOwner
		}
	case RoleTenant:
		if actor.ID != "" && actor.ID == contract.TenantUserID {
			return RelationTenant
		}
	}
	return RelationNone
}

// Authorize answers whether actor may perform action on the contract.
func Authorize(actor Actor, contract *models.Contract, action Action) error {
	if actor.ID == "" {
		return ErrorUnauthenticated
	}
	if authorizationTable[action][RelationshipOf(actor, contract)] {
		return nil
	}
	return ErrorActionForbidden
}

func reviewActionFor(kind models.ProofKind) Action {
	if kind == models.ProofKindOwner {
		return ActionReviewOwnerProof
	}
	return ActionReviewAgencyProof
}

// resolveReviewKind picks the proof leg a reviewer decides on. Owners review the owner leg
// and agency staff the agency leg; platform admins must name the leg.
func resolveReviewKind(actor Actor, contract *models.Contract, requested models.ProofKind) (models.ProofKind, error) {
	if requested != "" && !requested.Valid() {
		return "", ErrorInvalidProofKind
	}

	var kind models.ProofKind
	switch RelationshipOf(actor, contract) {
	case RelationOwner:
		kind = models.ProofKindOwner
	case RelationAgencyStaff:
		kind = models.ProofKindAgency
	case RelationPlatform:
		if requested == "" {
			return "", ErrorProofKindRequired
		}
		kind = requested
	default:
		return "", ErrorActionForbidden
	}

	if requested != "" && requested != kind {
		return "", ErrorActionForbidden
	}
	if err := Authorize(actor, contract, reviewActionFor(kind)); err != nil {
		return "", err
	}
	return kind, nil
}
