package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/taibogaston/admininmo-sub000/service/business"
)

type generatePaymentBody struct {
	Period string           `json:"period"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type rejectPaymentBody struct {
	Reason string `json:"reason"`
}

func (rs *RentServer) GeneratePayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	var body generatePaymentBody
	if err = decodeBody(r, &body); err != nil {
		rs.writeError(w, r, err)
		return
	}

	payment, err := rs.Ledger.GeneratePayment(r.Context(), actor, business.GeneratePaymentRequest{
		ContractID: mux.Vars(r)["contractId"],
		Period:     body.Period,
		Amount:     body.Amount,
	})
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (rs *RentServer) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	payments, err := rs.Ledger.ListPayments(r.Context(), actor, mux.Vars(r)["contractId"])
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	response := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		response = append(response, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

func (rs *RentServer) ListMovements(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	movements, err := rs.Ledger.ListMovements(r.Context(), actor, mux.Vars(r)["contractId"])
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	response := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		response = append(response, toMovementResponse(m))
	}
	writeJSON(w, http.StatusOK, response)
}

func (rs *RentServer) GetPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	payment, err := rs.Ledger.GetPayment(r.Context(), actor, mux.Vars(r)["paymentId"])
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (rs *RentServer) RejectPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	var body rejectPaymentBody
	if err = decodeBody(r, &body); err != nil {
		rs.writeError(w, r, err)
		return
	}
	payment, err := rs.Ledger.RejectPayment(r.Context(), actor, mux.Vars(r)["paymentId"], body.Reason)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (rs *RentServer) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	checkout, err := rs.Webhooks.CreateCheckout(r.Context(), actor, mux.Vars(r)["paymentId"])
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{CheckoutURL: checkout.CheckoutURL, PreferenceID: checkout.PreferenceID})
}

func (rs *RentServer) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	statuses, err := rs.Ledger.PaymentHistory(r.Context(), actor, mux.Vars(r)["paymentId"])
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponses(statuses))
}

// GatewayWebhook always acknowledges; the gateway keeps retrying unacknowledged deliveries.
func (rs *RentServer) GatewayWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event business.GatewayEvent
	if err := decodeBody(r, &event); err != nil {
		rs.Logger.Warn(ctx, err, "could not decode gateway webhook")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	result := rs.Webhooks.HandleEvent(ctx, event)
	rs.Logger.Debug(ctx, "gateway webhook received", "type", event.Type, "handled", result.Handled)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
