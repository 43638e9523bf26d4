package api

import (
	"strings"

	"github.com/yathiraju/smartsale/internal/domain"
)

type CartItemPayload struct {
	ProductID  int64   `json:"productId"`
	Quantity   int     `json:"quantity"`
	PriceAtAdd float64 `json:"priceAtAdd"`
}

type SaveCartRequest struct {
	Username  string            `json:"username"`
	SessionID string            `json:"sessionId"`
	Items     []CartItemPayload `json:"items"`
}

type SavedCart struct {
	ID int64 `json:"id"`
}

type ActiveCart struct {
	Items []struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	} `json:"items"`
}

// AppOrder is the internal order created at checkout. Different backend
// versions answer with either orderId or id.
type AppOrder struct {
	OrderID int64 `json:"orderId"`
	ID      int64 `json:"id"`
}

// EffectiveID returns whichever identifier the backend populated, 0 if none.
func (o AppOrder) EffectiveID() int64 {
	if o.OrderID != 0 {
		return o.OrderID
	}
	return o.ID
}

type PaymentOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	OrderID  int64  `json:"orderId"`
	Receipt  string `json:"receipt"`
}

type PaymentOrder struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	ProviderOrderID string `json:"providerOrderId"`
}

// CaptureRequest forwards the provider completion payload plus the internal
// references for server-side signature verification.
type CaptureRequest struct {
	ProviderPaymentID string          `json:"razorpay_payment_id"`
	ProviderOrderID   string          `json:"razorpay_order_id"`
	Signature         string          `json:"razorpay_signature"`
	OrderID           int64           `json:"orderId"`
	CartID            int64           `json:"cartId"`
	DeliveryAddress   *domain.Address `json:"deliveryAddress,omitempty"`
}

type CaptureResult struct {
	Status string `json:"status"`
}

// Paid reports whether the capture finalized the order.
func (r CaptureResult) Paid() bool {
	return strings.EqualFold(r.Status, "paid")
}

// SavedAddress is a backend address record. Older records carry the pincode
// under postalCode or zip; Normalize resolves the union.
type SavedAddress struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Pincode    string `json:"pincode,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Zip        string `json:"zip,omitempty"`
	Country    string `json:"country,omitempty"`
}

// EffectivePincode returns the first populated pincode variant.
func (a SavedAddress) EffectivePincode() string {
	for _, v := range []string{a.Pincode, a.PostalCode, a.Zip} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Normalize maps the record onto the domain shape, preferring line1 and
// falling back to the label when line1 is empty.
func (a SavedAddress) Normalize() domain.Address {
	line1 := a.Line1
	if line1 == "" {
		line1 = a.Name
	}
	return domain.Address{
		Name:    a.Name,
		Phone:   a.Phone,
		Line1:   line1,
		Line2:   a.Line2,
		City:    a.City,
		State:   a.State,
		Pincode: strings.TrimSpace(a.EffectivePincode()),
		Country: a.Country,
	}
}

type ShippingCheckRequest struct {
	PickupPostcode   *string `json:"pickup_postcode"`
	DeliveryPostcode string  `json:"delivery_postcode"`
	COD              int     `json:"cod"`
	Weight           float64 `json:"weight"`
}

type ProductPage struct {
	Content       []domain.Product `json:"content"`
	TotalPages    int              `json:"totalPages"`
	TotalElements int              `json:"totalElements"`
	Number        int              `json:"number"`
}

type SignupUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type SignupRequest struct {
	Users   SignupUser `json:"users"`
	Name    string     `json:"name"`
	Phone   string     `json:"phone"`
	Line1   string     `json:"line1"`
	Line2   string     `json:"line2,omitempty"`
	City    string     `json:"city"`
	State   string     `json:"state"`
	Pincode string     `json:"pincode"`
	Country string     `json:"country"`
	Lat     *float64   `json:"lat"`
	Lng     *float64   `json:"lng"`
}

type SignupResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
	Message     string `json:"message"`
}

// EffectiveToken returns whichever token field the backend populated.
func (r SignupResponse) EffectiveToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

type RefundRequest struct {
	PaymentID string            `json:"paymentId"`
	Amount    int64             `json:"amount"`
	Speed     string            `json:"speed"`
	Receipt   *string           `json:"receipt"`
	Notes     map[string]string `json:"notes"`
}
