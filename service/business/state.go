package business

import (
	"github.com/taibogaston/admininmo-sub000/service/models"
)

// RequiredProofs lists the legs a tenant must prove for the contract's collection mode.
func RequiredProofs(mode models.CollectionMode) []models.ProofKind {
	switch mode {
	case models.CollectionModeAgency:
		return []models.ProofKind{models.ProofKindAgency}
	case models.CollectionModeOwner:
		return []models.ProofKind{models.ProofKindOwner}
	default:
		return []models.ProofKind{models.ProofKindOwner, models.ProofKindAgency}
	}
}

// DeriveOverallState computes a transfer's state from the uploaded legs and the reviewer
// decisions on them. The result does not depend on the order of any input.
//
// Any rejected leg rejects the transfer. Both legs approved verify it, leaving the manual
// execution step. A single approved leg approves it outright when that leg is all the
// collection mode requires. Anything else is still pending verification.
func DeriveOverallState(
	required []models.ProofKind,
	present []models.ProofKind,
	verifications []models.ProofVerification,
) models.TransferState {
	presentSet := make(map[models.ProofKind]bool, len(present))
	for _, kind := range present {
		presentSet[kind] = true
	}
	if len(presentSet) == 0 {
		return models.TransferStatePendingVerification
	}

	decisions := make(map[models.ProofKind]bool, len(verifications))
	for _, v := range verifications {
		if !presentSet[v.ProofKind] {
			continue
		}
		approved, seen := decisions[v.ProofKind]
		decisions[v.ProofKind] = v.Approved && (!seen || approved)
	}

	for _, approved := range decisions {
		if !approved {
			return models.TransferStateRejected
		}
	}
	for kind := range presentSet {
		if _, decided := decisions[kind]; !decided {
			return models.TransferStatePendingVerification
		}
	}

	if presentSet[models.ProofKindOwner] && presentSet[models.ProofKindAgency] {
		return models.TransferStateVerified
	}
	for _, kind := range required {
		if !presentSet[kind] {
			return models.TransferStatePendingVerification
		}
	}
	return models.TransferStateApproved
}
