package domain

import "time"

// Order is a finalized order as reported by the order-history endpoint.
type Order struct {
	ID         int64       `json:"id"`
	Status     string      `json:"status"`
	GrandTotal float64     `json:"grandTotal"`
	PaymentRef string      `json:"paymentRef"`
	CreatedAt  time.Time   `json:"createdAt"`
	Items      []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}
