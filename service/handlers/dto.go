package handlers

import (
	"time"

	commonv1 "github.com/antinvestor/apis/go/common/v1"

	"github.com/taibogaston/admininmo-sub000/service/models"
)

type PaymentResponse struct {
	ID                 string     `json:"id"`
	ContractID         string     `json:"contractId"`
	Period             string     `json:"period"`
	Amount             string     `json:"amount"`
	Commission         string     `json:"commission"`
	PlatformCommission string     `json:"platformCommission"`
	OwnerNet           string     `json:"ownerNet"`
	AgencyNet          string     `json:"agencyNet"`
	State              string     `json:"state"`
	Method             string     `json:"method,omitempty"`
	ExternalRef        string     `json:"externalRef"`
	GatewayPaymentID   string     `json:"gatewayPaymentId,omitempty"`
	RejectionReason    string     `json:"rejectionReason,omitempty"`
	DueDate            time.Time  `json:"dueDate"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
}

func toPaymentResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.GetID(),
		ContractID:         p.ContractID,
		Period:             p.Period,
		Amount:             p.Amount.StringFixed(2),
		Commission:         p.Commission.StringFixed(2),
		PlatformCommission: p.PlatformCommission.StringFixed(2),
		OwnerNet:           p.OwnerNet.StringFixed(2),
		AgencyNet:          p.AgencyNet.StringFixed(2),
		State:              string(p.State),
		Method:             string(p.Method),
		ExternalRef:        p.ExternalRef,
		GatewayPaymentID:   p.GatewayPaymentID,
		RejectionReason:    p.RejectionReason,
		DueDate:            p.DueDate,
		PaidAt:             p.PaidAt,
	}
}

type MovementResponse struct {
	ID         string    `json:"id"`
	ContractID string    `json:"contractId"`
	PaymentID  string    `json:"paymentId,omitempty"`
	Kind       string    `json:"kind"`
	Amount     string    `json:"amount"`
	Concept    string    `json:"concept"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toMovementResponse(m *models.Movement) MovementResponse {
	response := MovementResponse{
		ID:         m.GetID(),
		ContractID: m.ContractID,
		Kind:       string(m.Kind),
		Amount:     m.Amount.StringFixed(2),
		Concept:    m.Concept,
		CreatedAt:  m.CreatedAt,
	}
	if m.PaymentID != nil {
		response.PaymentID = *m.PaymentID
	}
	return response
}

type VerificationResponse struct {
	Approved   bool      `json:"approved"`
	ReviewerID string    `json:"reviewerId"`
	Comment    string    `json:"comment,omitempty"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

type ProofResponse struct {
	Kind         string                `json:"kind"`
	FileRef      string                `json:"fileRef"`
	Verification *VerificationResponse `json:"verification,omitempty"`
}

type TransferResponse struct {
	ID                string          `json:"id"`
	PaymentID         string          `json:"paymentId"`
	State             string          `json:"state"`
	TenantComment     string          `json:"tenantComment,omitempty"`
	Proofs            []ProofResponse `json:"proofs"`
	OwnerTransferRef  string          `json:"ownerTransferRef,omitempty"`
	AgencyTransferRef string          `json:"agencyTransferRef,omitempty"`
	ReviewedBy        string          `json:"reviewedBy,omitempty"`
	ReviewComment     string          `json:"reviewComment,omitempty"`
	ReviewedAt        *time.Time      `json:"reviewedAt,omitempty"`
}

func toTransferResponse(t *models.Transfer) TransferResponse {
	response := TransferResponse{
		ID:                t.GetID(),
		PaymentID:         t.PaymentID,
		State:             string(t.State),
		TenantComment:     t.TenantComment,
		Proofs:            []ProofResponse{},
		OwnerTransferRef:  t.OwnerTransferRef,
		AgencyTransferRef: t.AgencyTransferRef,
		ReviewedBy:        t.ReviewedBy,
		ReviewComment:     t.ReviewComment,
		ReviewedAt:        t.ReviewedAt,
	}
	for _, kind := range t.PresentProofs() {
		proof := ProofResponse{Kind: string(kind), FileRef: t.ProofRef(kind)}
		for _, v := range t.Verifications {
			if v.ProofKind == kind {
				proof.Verification = &VerificationResponse{
					Approved:   v.Approved,
					ReviewerID: v.ReviewerID,
					Comment:    v.Comment,
					ReviewedAt: v.ReviewedAt,
				}
			}
		}
		response.Proofs = append(response.Proofs, proof)
	}
	return response
}

type CheckoutResponse struct {
	CheckoutURL  string `json:"checkoutUrl"`
	PreferenceID string `json:"preferenceId"`
}

func toStatusResponses(statuses []*models.Status) []*commonv1.StatusResponse {
	out := make([]*commonv1.StatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.ToStatusAPI())
	}
	return out
}
