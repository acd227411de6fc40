package controllers

import (
	"net/http"

	"github.com/blackbass-labs/blackbass-backend/api/middleware"
	"github.com/blackbass-labs/blackbass-backend/api/responses"
	"github.com/blackbass-labs/blackbass-backend/api/validators"
	checkoutsvc "github.com/blackbass-labs/blackbass-backend/internal/checkout"
	paymentsvc "github.com/blackbass-labs/blackbass-backend/internal/payments"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

// CheckoutFinalize runs the pre-payment checkout fan-out synchronously.
func CheckoutFinalize(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyer := middleware.BuyerRefFromContext(r.Context())
		result, err := svc.Finalize(r.Context(), checkoutsvc.FinalizeInput{Buyer: buyer})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type preferenceRequest struct {
	PayerEmail    string `json:"payer_email" validate:"omitempty,email"`
	PayerDocument string `json:"payer_document"`
	PayerDocType  string `json:"payer_doc_type" validate:"omitempty,oneof=CPF CNPJ cpf cnpj"`
}

// CheckoutPreference creates a redirect-mode payment intent.
func CheckoutPreference(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload preferenceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyer := middleware.BuyerRefFromContext(r.Context())
		result, err := svc.CreatePreference(r.Context(), paymentsvc.PreferenceInput{
			Buyer:         buyer,
			PayerEmail:    payload.PayerEmail,
			PayerDocument: payload.PayerDocument,
			PayerDocType:  payload.PayerDocType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type directChargeRequest struct {
	Token           string `json:"token" validate:"required"`
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
	Installments    int    `json:"installments" validate:"min=0,max=24"`
	PayerEmail      string `json:"payer_email" validate:"omitempty,email"`
	PayerDocument   string `json:"payer_document"`
	PayerDocType    string `json:"payer_doc_type" validate:"omitempty,oneof=CPF CNPJ cpf cnpj"`
}

// CheckoutDirect charges a tokenized card synchronously.
func CheckoutDirect(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload directChargeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyer := middleware.BuyerRefFromContext(r.Context())
		result, err := svc.DirectCharge(r.Context(), paymentsvc.DirectChargeInput{
			Buyer:           buyer,
			Token:           payload.Token,
			PaymentMethodID: payload.PaymentMethodID,
			Installments:    payload.Installments,
			PayerEmail:      payload.PayerEmail,
			PayerDocument:   payload.PayerDocument,
			PayerDocType:    payload.PayerDocType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
