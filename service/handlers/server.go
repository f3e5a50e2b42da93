package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taibogaston/admininmo-sub000/service/business"
)

const defaultMaxUploadBytes = 10 << 20

// RentServer exposes the ledger, transfer reconciliation and gateway webhook over HTTP.
type RentServer struct {
	Ledger         business.PaymentLedger
	Reconciliation business.TransferReconciliation
	Webhooks       business.GatewayWebhookProcessor
	Files          business.FileStore
	Logger         business.Logger
	MaxUploadBytes int64
}

func NewRouter(rs *RentServer) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	// Payments
	router.HandleFunc("/contracts/{contractId}/payments", rs.GeneratePayment).Methods(http.MethodPost)
	router.HandleFunc("/contracts/{contractId}/payments", rs.ListPayments).Methods(http.MethodGet)
	router.HandleFunc("/contracts/{contractId}/movements", rs.ListMovements).Methods(http.MethodGet)
	router.HandleFunc("/payments/{paymentId}", rs.GetPayment).Methods(http.MethodGet)
	router.HandleFunc("/payments/{paymentId}/reject", rs.RejectPayment).Methods(http.MethodPost)
	router.HandleFunc("/payments/{paymentId}/checkout", rs.CreateCheckout).Methods(http.MethodPost)
	router.HandleFunc("/payments/{paymentId}/statuses", rs.PaymentHistory).Methods(http.MethodGet)

	// Transfers
	router.HandleFunc("/payments/{paymentId}/transfer", rs.UploadProofs).Methods(http.MethodPost)
	router.HandleFunc("/payments/{paymentId}/transfer", rs.GetTransfer).Methods(http.MethodGet)
	router.HandleFunc("/payments/{paymentId}/transfer/execute", rs.ExecuteTransfers).Methods(http.MethodPost)
	router.HandleFunc("/transfers/{transferId}/review", rs.ReviewProof).Methods(http.MethodPost)

	// Gateway callback
	router.HandleFunc("/webhooks/gateway", rs.GatewayWebhook).Methods(http.MethodPost)

	return router
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rs *RentServer) maxUploadBytes() int64 {
	if rs.MaxUploadBytes <= 0 {
		return defaultMaxUploadBytes
	}
	return rs.MaxUploadBytes
}
