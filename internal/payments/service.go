package payments

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blackbass-labs/blackbass-backend/internal/cart"
	"github.com/blackbass-labs/blackbass-backend/internal/checkout"
	"github.com/blackbass-labs/blackbass-backend/internal/profiles"
	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/mercadopago"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type preferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
	CreateDirectPayment(ctx context.Context, req mercadopago.DirectPaymentRequest) (*mercadopago.Payment, error)
}

type cartReader interface {
	Snapshot(ctx context.Context, buyer types.BuyerRef) ([]cart.Line, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, buyer types.BuyerRef) (*profiles.Profile, error)
}

type fulfiller interface {
	Finalize(ctx context.Context, input checkout.FinalizeInput) (*checkout.Result, error)
}

// Service creates payment intents against the provider.
type Service interface {
	CreatePreference(ctx context.Context, input PreferenceInput) (*PreferenceResult, error)
	DirectCharge(ctx context.Context, input DirectChargeInput) (*DirectChargeResult, error)
}

// PreferenceInput carries optional client-supplied payer fallbacks. The
// stored profile wins whenever it has the field.
type PreferenceInput struct {
	Buyer         types.BuyerRef
	PayerEmail    string
	PayerDocument string
	PayerDocType  string
}

// PreferenceResult points the frontend at the provider checkout.
type PreferenceResult struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

// DirectChargeInput is a tokenized card charge request.
type DirectChargeInput struct {
	Buyer           types.BuyerRef
	Token           string
	PaymentMethodID string
	Installments    int
	PayerEmail      string
	PayerDocument   string
	PayerDocType    string
}

// DirectChargeResult reports the synchronous charge outcome plus any orders
// created by inline fulfillment.
type DirectChargeResult struct {
	PaymentID    string                  `json:"payment_id"`
	Status       string                  `json:"status"`
	StatusDetail string                  `json:"status_detail"`
	Orders       []checkout.CreatedOrder `json:"orders,omitempty"`
}

type service struct {
	mp       preferenceCreator
	carts    cartReader
	profiles profileResolver
	fulfill  fulfiller
	ledger   *Ledger
	appCfg   config.AppConfig
	sandbox  bool
	logg     *logger.Logger
}

// NewService builds the payment intent service.
func NewService(mp preferenceCreator, carts cartReader, resolver profileResolver, fulfill fulfiller, ledger *Ledger, appCfg config.AppConfig, sandbox bool, logg *logger.Logger) (Service, error) {
	if mp == nil {
		return nil, fmt.Errorf("payment client required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("profile resolver required")
	}
	if fulfill == nil {
		return nil, fmt.Errorf("fulfiller required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	return &service{
		mp:       mp,
		carts:    carts,
		profiles: resolver,
		fulfill:  fulfill,
		ledger:   ledger,
		appCfg:   appCfg,
		sandbox:  sandbox,
		logg:     logg,
	}, nil
}

// CreatePreference builds a redirect-mode checkout preference from the
// buyer's cart. Every back URL collapses to the frontend result page; the
// provider's query params tell the page what happened.
func (s *service) CreatePreference(ctx context.Context, input PreferenceInput) (*PreferenceResult, error) {
	items, err := s.cartItems(ctx, input.Buyer)
	if err != nil {
		return nil, err
	}

	payer, err := s.buildPayer(ctx, input.Buyer, input.PayerEmail, input.PayerDocument, input.PayerDocType)
	if err != nil {
		return nil, err
	}

	resultURL := strings.TrimRight(s.appCfg.FrontendURL, "/") + "/checkout/result"
	req := mercadopago.PreferenceRequest{
		Items: items,
		Payer: payer,
		BackURLs: &mercadopago.BackURLs{
			Success: resultURL,
			Failure: resultURL,
			Pending: resultURL,
		},
		AutoReturn:        "approved",
		ExternalReference: input.Buyer.String(),
		NotificationURL:   strings.TrimRight(s.appCfg.BaseURL, "/") + "/api/checkout/webhook",
		Metadata:          s.intentMetadata(input.Buyer, nil),
	}

	pref, err := s.mp.CreatePreference(ctx, req)
	if err != nil {
		return nil, err
	}

	initPoint := pref.InitPoint
	if s.sandbox && pref.SandboxInitPoint != "" {
		initPoint = pref.SandboxInitPoint
	}
	return &PreferenceResult{PreferenceID: pref.ID, InitPoint: initPoint}, nil
}

// DirectCharge re-prices the cart server side and charges the card token
// synchronously. On approval the fulfillment pipeline runs inline and the
// charge metadata is tagged so the webhook delivery for the same payment is
// a no-op.
func (s *service) DirectCharge(ctx context.Context, input DirectChargeInput) (*DirectChargeResult, error) {
	if strings.TrimSpace(input.Token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card token is required")
	}
	if strings.TrimSpace(input.PaymentMethodID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if input.Installments < 1 {
		input.Installments = 1
	}

	items, err := s.cartItems(ctx, input.Buyer)
	if err != nil {
		return nil, err
	}
	var totalCents int64
	for _, item := range items {
		totalCents += mercadopago.CentsFromPrice(item.UnitPrice) * int64(item.Quantity)
	}

	payer, err := s.buildPayer(ctx, input.Buyer, input.PayerEmail, input.PayerDocument, input.PayerDocType)
	if err != nil {
		return nil, err
	}

	payment, err := s.mp.CreateDirectPayment(ctx, mercadopago.DirectPaymentRequest{
		Token:             input.Token,
		TransactionAmount: mercadopago.PriceFromCents(totalCents),
		Installments:      input.Installments,
		PaymentMethodID:   input.PaymentMethodID,
		Description:       "BlackBass order",
		ExternalReference: input.Buyer.String(),
		Payer:             payer,
		Metadata:          s.intentMetadata(input.Buyer, map[string]any{"handled_by": "direct"}),
	})
	if err != nil {
		return nil, err
	}

	result := &DirectChargeResult{
		PaymentID:    strconv.FormatInt(payment.ID, 10),
		Status:       payment.Status,
		StatusDetail: payment.StatusDetail,
	}

	if enums.PaymentStatus(payment.Status) != enums.PaymentStatusApproved {
		return result, nil
	}

	claimed, err := s.ledger.Claim(ctx, result.PaymentID, input.Buyer, enums.PaymentStatusApproved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record processed payment")
	}
	if !claimed {
		return result, nil
	}

	fulfillment, err := s.fulfill.Finalize(ctx, checkout.FinalizeInput{
		Buyer:     input.Buyer,
		PaymentID: &result.PaymentID,
	})
	if err != nil {
		if relErr := s.ledger.Release(ctx, result.PaymentID); relErr != nil && s.logg != nil {
			s.logg.Error(ctx, "release payment claim after failed fulfillment", relErr)
		}
		return nil, err
	}
	result.Orders = fulfillment.Orders
	return result, nil
}

func (s *service) cartItems(ctx context.Context, buyer types.BuyerRef) ([]mercadopago.PreferenceItem, error) {
	if !buyer.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	lines, err := s.carts.Snapshot(ctx, buyer)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	items := make([]mercadopago.PreferenceItem, 0, len(lines))
	for _, line := range lines {
		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}
		items = append(items, mercadopago.PreferenceItem{
			ID:         line.ProductID.String(),
			Title:      line.Name,
			Quantity:   quantity,
			UnitPrice:  mercadopago.PriceFromCents(line.PriceCents),
			CurrencyID: "BRL",
			PictureURL: line.ImageURL,
		})
	}
	return items, nil
}

// buildPayer prefers the stored profile document over whatever the client
// sent; the client values only fill gaps.
func (s *service) buildPayer(ctx context.Context, buyer types.BuyerRef, email, document, docType string) (*mercadopago.Payer, error) {
	profile, err := s.profiles.Resolve(ctx, buyer)
	if err != nil {
		if te := pkgerrors.As(err); te != nil && te.Code() == pkgerrors.CodeNotFound {
			profile = nil
		} else {
			return nil, err
		}
	}

	payer := &mercadopago.Payer{Email: strings.TrimSpace(email)}
	if profile != nil {
		if profile.Email != "" {
			payer.Email = profile.Email
		}
		payer.Name = profile.Name
		if profile.Document != "" {
			payer.Identification = &mercadopago.Identification{
				Type:   profile.DocumentType,
				Number: profile.Document,
			}
		}
	}
	if payer.Identification == nil && strings.TrimSpace(document) != "" {
		idType := strings.ToUpper(strings.TrimSpace(docType))
		if idType == "" {
			idType = "CPF"
		}
		payer.Identification = &mercadopago.Identification{
			Type:   idType,
			Number: strings.TrimSpace(document),
		}
	}
	if payer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payer email is required")
	}
	return payer, nil
}

func (s *service) intentMetadata(buyer types.BuyerRef, extra map[string]any) map[string]any {
	env := "production"
	if s.sandbox {
		env = "sandbox"
	}
	metadata := map[string]any{
		"buyer_id":   buyer.ID.String(),
		"buyer_kind": string(buyer.Kind),
		"env":        env,
	}
	for k, v := range extra {
		metadata[k] = v
	}
	return metadata
}
