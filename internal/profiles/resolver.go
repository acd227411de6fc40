package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

// Profile is the kind-independent view of an account used by payments and
// shipping. Document carries the CPF for individuals and the CNPJ for
// businesses; DocumentType names which one.
type Profile struct {
	UserID       uuid.UUID
	Kind         enums.BuyerKind
	Name         string
	Email        string
	Phone        string
	Document     string
	DocumentType string
	PostalCode   string
	Street       string
	Number       string
	Complement   string
	District     string
	City         string
	State        string
}

// Resolver loads buyer profiles from whichever table the account kind
// selects.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve fetches the profile for the buyer ref. The kind switch is
// exhaustive; an unknown kind is a programming error surfaced as validation.
func (r *Resolver) Resolve(ctx context.Context, buyer types.BuyerRef) (*Profile, error) {
	switch buyer.Kind {
	case enums.BuyerKindPF:
		var row models.BuyerProfilePF
		err := r.db.WithContext(ctx).Where("user_id = ?", buyer.ID).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer profile not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pf profile")
		}
		return &Profile{
			UserID:       row.UserID,
			Kind:         enums.BuyerKindPF,
			Name:         row.FullName,
			Email:        row.Email,
			Phone:        deref(row.Phone),
			Document:     deref(row.CPF),
			DocumentType: "CPF",
			PostalCode:   deref(row.PostalCode),
			Street:       deref(row.Street),
			Number:       deref(row.Number),
			Complement:   deref(row.Complement),
			District:     deref(row.District),
			City:         deref(row.City),
			State:        deref(row.State),
		}, nil
	case enums.BuyerKindPJ:
		var row models.BuyerProfilePJ
		err := r.db.WithContext(ctx).Where("user_id = ?", buyer.ID).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer profile not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pj profile")
		}
		return &Profile{
			UserID:       row.UserID,
			Kind:         enums.BuyerKindPJ,
			Name:         row.CompanyName,
			Email:        row.Email,
			Phone:        deref(row.Phone),
			Document:     deref(row.CNPJ),
			DocumentType: "CNPJ",
			PostalCode:   deref(row.PostalCode),
			Street:       deref(row.Street),
			Number:       deref(row.Number),
			Complement:   deref(row.Complement),
			District:     deref(row.District),
			City:         deref(row.City),
			State:        deref(row.State),
		}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown buyer kind")
	}
}

// UpsertInput carries the editable profile fields. Name and Email are
// required; everything else clears back to null when submitted empty.
type UpsertInput struct {
	Name       string
	Email      string
	Phone      string
	Document   string
	PostalCode string
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
}

// Upsert writes the buyer's profile into the table their kind selects,
// creating the row on first save.
func (r *Resolver) Upsert(ctx context.Context, buyer types.BuyerRef, input UpsertInput) (*Profile, error) {
	if !buyer.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"full_name", "email", "phone", "cpf", "postal_code", "street",
			"number", "complement", "district", "city", "state", "updated_at",
		}),
	}

	switch buyer.Kind {
	case enums.BuyerKindPF:
		row := models.BuyerProfilePF{
			UserID:     buyer.ID,
			FullName:   name,
			Email:      email,
			Phone:      optional(input.Phone),
			CPF:        optional(input.Document),
			PostalCode: optional(input.PostalCode),
			Street:     optional(input.Street),
			Number:     optional(input.Number),
			Complement: optional(input.Complement),
			District:   optional(input.District),
			City:       optional(input.City),
			State:      optional(input.State),
		}
		if err := r.db.WithContext(ctx).Clauses(onConflict).Create(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save pf profile")
		}
	case enums.BuyerKindPJ:
		onConflict.DoUpdates = clause.AssignmentColumns([]string{
			"company_name", "email", "phone", "cnpj", "postal_code", "street",
			"number", "complement", "district", "city", "state", "updated_at",
		})
		row := models.BuyerProfilePJ{
			UserID:      buyer.ID,
			CompanyName: name,
			Email:       email,
			Phone:       optional(input.Phone),
			CNPJ:        optional(input.Document),
			PostalCode:  optional(input.PostalCode),
			Street:      optional(input.Street),
			Number:      optional(input.Number),
			Complement:  optional(input.Complement),
			District:    optional(input.District),
			City:        optional(input.City),
			State:       optional(input.State),
		}
		if err := r.db.WithContext(ctx).Clauses(onConflict).Create(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save pj profile")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown buyer kind")
	}

	return r.Resolve(ctx, buyer)
}

// FindStore loads a store row for label sender resolution.
func (r *Resolver) FindStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).Where("id = ?", storeID).First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	return &store, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
