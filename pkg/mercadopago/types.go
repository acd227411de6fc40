package mercadopago

// PreferenceItem is one purchasable line in a checkout preference. UnitPrice
// is in currency units (BRL), not cents.
type PreferenceItem struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
	PictureURL string  `json:"picture_url,omitempty"`
}

// Identification carries the payer tax document (CPF for individuals, CNPJ
// for companies).
type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// Payer identifies the paying party on a preference or direct charge.
type Payer struct {
	Name           string          `json:"name,omitempty"`
	Surname        string          `json:"surname,omitempty"`
	Email          string          `json:"email"`
	Identification *Identification `json:"identification,omitempty"`
}

// BackURLs are the post-checkout redirect targets.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest is the payload for creating a checkout preference.
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	Payer             *Payer           `json:"payer,omitempty"`
	BackURLs          *BackURLs        `json:"back_urls,omitempty"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	ExternalReference string           `json:"external_reference,omitempty"`
	NotificationURL   string           `json:"notification_url,omitempty"`
	Metadata          map[string]any   `json:"metadata,omitempty"`
}

// Preference is the created checkout preference.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// DirectPaymentRequest is the payload for a tokenized card charge.
type DirectPaymentRequest struct {
	Token             string         `json:"token"`
	TransactionAmount float64        `json:"transaction_amount"`
	Installments      int            `json:"installments"`
	PaymentMethodID   string         `json:"payment_method_id"`
	Description       string         `json:"description,omitempty"`
	ExternalReference string         `json:"external_reference,omitempty"`
	Payer             *Payer         `json:"payer,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Payment is the provider's authoritative payment record.
type Payment struct {
	ID                int64          `json:"id"`
	Status            string         `json:"status"`
	StatusDetail      string         `json:"status_detail"`
	TransactionAmount float64        `json:"transaction_amount"`
	ExternalReference string         `json:"external_reference"`
	Metadata          map[string]any `json:"metadata"`
	Payer             *Payer         `json:"payer,omitempty"`
}

// Preapproval is a recurring-payment authorization record.
type Preapproval struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
	PayerID           int64  `json:"payer_id"`
	Reason            string `json:"reason"`
}

// MetadataString reads a metadata value as a string, tolerating absent keys
// and non-string values.
func (p *Payment) MetadataString(key string) string {
	if p == nil || p.Metadata == nil {
		return ""
	}
	if v, ok := p.Metadata[key].(string); ok {
		return v
	}
	return ""
}
