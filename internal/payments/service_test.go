package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackbass-labs/blackbass-backend/internal/cart"
	"github.com/blackbass-labs/blackbass-backend/internal/profiles"
	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/mercadopago"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type stubIntentClient struct {
	prefReq   *mercadopago.PreferenceRequest
	pref      *mercadopago.Preference
	chargeReq *mercadopago.DirectPaymentRequest
	payment   *mercadopago.Payment
	chargeErr error
}

func (s *stubIntentClient) CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	s.prefReq = &req
	return s.pref, nil
}

func (s *stubIntentClient) CreateDirectPayment(ctx context.Context, req mercadopago.DirectPaymentRequest) (*mercadopago.Payment, error) {
	s.chargeReq = &req
	return s.payment, s.chargeErr
}

type stubSnapshotCart struct {
	lines []cart.Line
}

func (s *stubSnapshotCart) Snapshot(ctx context.Context, buyer types.BuyerRef) ([]cart.Line, error) {
	return s.lines, nil
}

type stubProfiles struct {
	profile *profiles.Profile
}

func (s *stubProfiles) Resolve(ctx context.Context, buyer types.BuyerRef) (*profiles.Profile, error) {
	if s.profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return s.profile, nil
}

func intentLine(priceCents int64, quantity int) cart.Line {
	storeID := uuid.New()
	return cart.Line{
		ProductID:  uuid.New(),
		Name:       "isca artificial",
		PriceCents: priceCents,
		StoreID:    &storeID,
		OwnerID:    uuid.New(),
		OwnerKind:  enums.BuyerKindPJ,
		Quantity:   quantity,
	}
}

type intentFixture struct {
	svc     Service
	mp      *stubIntentClient
	carts   *stubSnapshotCart
	people  *stubProfiles
	fulfill *stubFulfiller
	ledger  *Ledger
}

func newIntentFixture(t *testing.T, sandbox bool) *intentFixture {
	t.Helper()

	mp := &stubIntentClient{
		pref: &mercadopago.Preference{
			ID:               "pref-1",
			InitPoint:        "https://mp.example/init",
			SandboxInitPoint: "https://mp.example/sandbox-init",
		},
		payment: &mercadopago.Payment{ID: 555, Status: "approved", StatusDetail: "accredited"},
	}
	carts := &stubSnapshotCart{lines: []cart.Line{intentLine(2500, 2)}}
	people := &stubProfiles{profile: &profiles.Profile{
		UserID:       uuid.New(),
		Kind:         enums.BuyerKindPF,
		Name:         "Joana Silva",
		Email:        "joana@example.com",
		Document:     "12345678909",
		DocumentType: "CPF",
	}}
	fulfill := &stubFulfiller{}
	ledger := NewLedger(setupLedgerDB(t))

	svc, err := NewService(mp, carts, people, fulfill, ledger, config.AppConfig{
		BaseURL:     "https://api.blackbass.example/",
		FrontendURL: "https://blackbass.example/",
	}, sandbox, nil)
	require.NoError(t, err)

	return &intentFixture{svc: svc, mp: mp, carts: carts, people: people, fulfill: fulfill, ledger: ledger}
}

func TestCreatePreferenceBuildsRequest(t *testing.T) {
	f := newIntentFixture(t, false)
	buyer := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}

	result, err := f.svc.CreatePreference(context.Background(), PreferenceInput{Buyer: buyer})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", result.PreferenceID)
	assert.Equal(t, "https://mp.example/init", result.InitPoint)

	req := f.mp.prefReq
	require.NotNil(t, req)
	require.Len(t, req.Items, 1)
	assert.Equal(t, 25.0, req.Items[0].UnitPrice)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.Equal(t, "BRL", req.Items[0].CurrencyID)

	require.NotNil(t, req.BackURLs)
	assert.Equal(t, "https://blackbass.example/checkout/result", req.BackURLs.Success)
	assert.Equal(t, req.BackURLs.Success, req.BackURLs.Failure)
	assert.Equal(t, req.BackURLs.Success, req.BackURLs.Pending)
	assert.Equal(t, "https://api.blackbass.example/api/checkout/webhook", req.NotificationURL)

	assert.Equal(t, buyer.ID.String(), req.Metadata["buyer_id"])
	assert.Equal(t, "pf", req.Metadata["buyer_kind"])
	assert.Equal(t, "production", req.Metadata["env"])
}

func TestCreatePreferenceSandboxInitPoint(t *testing.T) {
	f := newIntentFixture(t, true)

	result, err := f.svc.CreatePreference(context.Background(), PreferenceInput{
		Buyer: types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://mp.example/sandbox-init", result.InitPoint)
	assert.Equal(t, "sandbox", f.mp.prefReq.Metadata["env"])
}

func TestCreatePreferenceProfileDocumentWins(t *testing.T) {
	f := newIntentFixture(t, false)

	_, err := f.svc.CreatePreference(context.Background(), PreferenceInput{
		Buyer:         types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
		PayerEmail:    "client@example.com",
		PayerDocument: "00000000000",
		PayerDocType:  "cpf",
	})
	require.NoError(t, err)

	payer := f.mp.prefReq.Payer
	require.NotNil(t, payer)
	assert.Equal(t, "joana@example.com", payer.Email)
	require.NotNil(t, payer.Identification)
	assert.Equal(t, "12345678909", payer.Identification.Number)
}

func TestCreatePreferenceClientFallbackWithoutProfile(t *testing.T) {
	f := newIntentFixture(t, false)
	f.people.profile = nil

	_, err := f.svc.CreatePreference(context.Background(), PreferenceInput{
		Buyer:         types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
		PayerEmail:    "client@example.com",
		PayerDocument: "98765432100",
	})
	require.NoError(t, err)

	payer := f.mp.prefReq.Payer
	require.NotNil(t, payer)
	assert.Equal(t, "client@example.com", payer.Email)
	require.NotNil(t, payer.Identification)
	assert.Equal(t, "CPF", payer.Identification.Type)
	assert.Equal(t, "98765432100", payer.Identification.Number)
}

func TestCreatePreferenceEmptyCart(t *testing.T) {
	f := newIntentFixture(t, false)
	f.carts.lines = nil

	_, err := f.svc.CreatePreference(context.Background(), PreferenceInput{
		Buyer: types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDirectChargeRepricesCartServerSide(t *testing.T) {
	f := newIntentFixture(t, false)
	f.carts.lines = []cart.Line{intentLine(2500, 2), intentLine(7500, 1)}

	result, err := f.svc.DirectCharge(context.Background(), DirectChargeInput{
		Buyer:           types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
		Token:           "card-token",
		PaymentMethodID: "visa",
	})
	require.NoError(t, err)
	assert.Equal(t, "555", result.PaymentID)
	assert.Equal(t, "approved", result.Status)

	req := f.mp.chargeReq
	require.NotNil(t, req)
	assert.Equal(t, 125.0, req.TransactionAmount)
	assert.Equal(t, 1, req.Installments)
	assert.Equal(t, "direct", req.Metadata["handled_by"])
}

func TestDirectChargeApprovedFulfillsInline(t *testing.T) {
	f := newIntentFixture(t, false)
	buyer := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}

	result, err := f.svc.DirectCharge(context.Background(), DirectChargeInput{
		Buyer:           buyer,
		Token:           "card-token",
		PaymentMethodID: "visa",
		Installments:    3,
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)

	require.NotNil(t, f.fulfill.input)
	assert.Equal(t, buyer, f.fulfill.input.Buyer)
	require.NotNil(t, f.fulfill.input.PaymentID)
	assert.Equal(t, "555", *f.fulfill.input.PaymentID)

	row, err := f.ledger.Find(context.Background(), "555")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, enums.PaymentStatusApproved, row.Status)
}

func TestDirectChargeRejectedSkipsFulfillment(t *testing.T) {
	f := newIntentFixture(t, false)
	f.mp.payment = &mercadopago.Payment{ID: 556, Status: "rejected", StatusDetail: "cc_rejected_bad_filled_security_code"}

	result, err := f.svc.DirectCharge(context.Background(), DirectChargeInput{
		Buyer:           types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
		Token:           "card-token",
		PaymentMethodID: "visa",
	})
	require.NoError(t, err)
	assert.Equal(t, "rejected", result.Status)
	assert.Empty(t, result.Orders)
	assert.Nil(t, f.fulfill.input)

	row, err := f.ledger.Find(context.Background(), "556")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestDirectChargeFulfillmentFailureReleasesClaim(t *testing.T) {
	f := newIntentFixture(t, false)
	f.fulfill.err = errors.New("orders down")

	_, err := f.svc.DirectCharge(context.Background(), DirectChargeInput{
		Buyer:           types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
		Token:           "card-token",
		PaymentMethodID: "visa",
	})
	require.Error(t, err)

	row, err := f.ledger.Find(context.Background(), "555")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestDirectChargeValidatesInput(t *testing.T) {
	f := newIntentFixture(t, false)

	_, err := f.svc.DirectCharge(context.Background(), DirectChargeInput{
		Buyer:           types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
		PaymentMethodID: "visa",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = f.svc.DirectCharge(context.Background(), DirectChargeInput{
		Buyer: types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
		Token: "card-token",
	})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
