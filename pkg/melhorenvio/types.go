package melhorenvio

// TokenResponse is the OAuth token payload returned by both the exchange and
// refresh grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Party is the sender or receiver block of a shipment.
type Party struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Document   string `json:"document,omitempty"`
	CompanyDoc string `json:"company_document,omitempty"`
	Address    string `json:"address"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city"`
	StateAbbr  string `json:"state_abbr"`
	PostalCode string `json:"postal_code"`
}

// CartProduct is one declared product inside a cart shipment.
type CartProduct struct {
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	UnitaryValue float64 `json:"unitary_value"`
}

// Volume is a physical package. Dimensions in centimeters, weight in
// kilograms.
type Volume struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
}

// CartOptions carry shipment flags.
type CartOptions struct {
	InsuranceValue float64 `json:"insurance_value"`
	Receipt        bool    `json:"receipt"`
	OwnHand        bool    `json:"own_hand"`
	Reverse        bool    `json:"reverse"`
	NonCommercial  bool    `json:"non_commercial"`
}

// CartRequest inserts a shipment into the aggregator cart.
type CartRequest struct {
	Service  int           `json:"service"`
	From     Party         `json:"from"`
	To       Party         `json:"to"`
	Products []CartProduct `json:"products"`
	Volumes  []Volume      `json:"volumes"`
	Options  CartOptions   `json:"options"`
}

// CartItem is the aggregator's record of an inserted shipment.
type CartItem struct {
	ID        string       `json:"id"`
	Protocol  string       `json:"protocol"`
	ServiceID int          `json:"service_id"`
	Price     float64      `json:"price,string"`
	Status    string       `json:"status"`
	Service   *CartService `json:"service,omitempty"`
}

// CartService is the embedded service relation on a cart shipment.
type CartService struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Company Company `json:"company"`
}

// QuoteRequest asks for shipping prices between two postal codes.
type QuoteRequest struct {
	From     QuoteEndpoint  `json:"from"`
	To       QuoteEndpoint  `json:"to"`
	Products []QuoteProduct `json:"products"`
}

// QuoteEndpoint is one side of a quote.
type QuoteEndpoint struct {
	PostalCode string `json:"postal_code"`
}

// QuoteProduct describes a product for quoting.
type QuoteProduct struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Length   float64 `json:"length"`
	Weight   float64 `json:"weight"`
	Quantity int     `json:"quantity"`
}

// QuoteOption is one carrier/service offer in a quote response.
type QuoteOption struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Price        string  `json:"price"`
	DeliveryTime int     `json:"delivery_time"`
	Company      Company `json:"company"`
	Error        string  `json:"error,omitempty"`
}

// Company identifies the carrier behind a service.
type Company struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// CheckoutResponse is the purchase confirmation for cart items.
type CheckoutResponse struct {
	Purchase struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Orders []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"orders"`
	} `json:"purchase"`
}

// PrintResponse carries the public label URL.
type PrintResponse struct {
	URL string `json:"url"`
}

// TrackingInfo is the per-order tracking snapshot.
type TrackingInfo struct {
	ID                  string `json:"id"`
	Protocol            string `json:"protocol"`
	Status              string `json:"status"`
	Tracking            string `json:"tracking"`
	MelhorenvioTracking string `json:"melhorenvio_tracking"`
}
