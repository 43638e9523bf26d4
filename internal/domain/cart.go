package domain

// CartLine is one product's accumulated quantity within the active cart.
// The product snapshot and PriceAtAdd are captured when the line is created
// and never re-read from the live catalog afterwards.
type CartLine struct {
	Product    Product `json:"product"`
	Quantity   int     `json:"quantity"`
	PriceAtAdd float64 `json:"priceAtAdd"`
}

// LineWeight is the line's contribution to the cart weight in kg.
func (l CartLine) LineWeight() float64 {
	return l.Product.UnitWeight() * float64(l.Quantity)
}

// ShippingQuote is a delivery-fee estimate. It is only valid for the exact
// (pincode, weight) pair that produced it; callers must discard it whenever
// either input changes.
type ShippingQuote struct {
	DeliveryFee float64 `json:"deliveryFee"`
	Pincode     string  `json:"pincode"`
	Weight      float64 `json:"weight"`
}
