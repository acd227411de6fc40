package controllers

import (
	"net/http"

	"github.com/blackbass-labs/blackbass-backend/api/middleware"
	"github.com/blackbass-labs/blackbass-backend/api/responses"
	"github.com/blackbass-labs/blackbass-backend/api/validators"
	profilesvc "github.com/blackbass-labs/blackbass-backend/internal/profiles"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

type profileResponse struct {
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Document     string `json:"document,omitempty"`
	DocumentType string `json:"document_type"`
	PostalCode   string `json:"postal_code,omitempty"`
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	District     string `json:"district,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
}

func newProfileResponse(profile profilesvc.Profile) profileResponse {
	return profileResponse{
		Kind:         string(profile.Kind),
		Name:         profile.Name,
		Email:        profile.Email,
		Phone:        profile.Phone,
		Document:     profile.Document,
		DocumentType: profile.DocumentType,
		PostalCode:   profile.PostalCode,
		Street:       profile.Street,
		Number:       profile.Number,
		Complement:   profile.Complement,
		District:     profile.District,
		City:         profile.City,
		State:        profile.State,
	}
}

// ProfileGet returns the authenticated buyer's profile.
func ProfileGet(resolver *profilesvc.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := resolver.Resolve(r.Context(), middleware.BuyerRefFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProfileResponse(*profile))
	}
}

type upsertProfileRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"max=30"`
	Document   string `json:"document" validate:"max=20"`
	PostalCode string `json:"postal_code" validate:"max=10"`
	Street     string `json:"street" validate:"max=200"`
	Number     string `json:"number" validate:"max=20"`
	Complement string `json:"complement" validate:"max=100"`
	District   string `json:"district" validate:"max=100"`
	City       string `json:"city" validate:"max=100"`
	State      string `json:"state" validate:"max=2"`
}

// ProfileUpsert saves the authenticated buyer's profile, creating it on
// first submission.
func ProfileUpsert(resolver *profilesvc.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := resolver.Upsert(r.Context(), middleware.BuyerRefFromContext(r.Context()), profilesvc.UpsertInput{
			Name:       payload.Name,
			Email:      payload.Email,
			Phone:      payload.Phone,
			Document:   payload.Document,
			PostalCode: payload.PostalCode,
			Street:     payload.Street,
			Number:     payload.Number,
			Complement: payload.Complement,
			District:   payload.District,
			City:       payload.City,
			State:      payload.State,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProfileResponse(*profile))
	}
}
