package domain

// Address is a delivery destination, either fetched from the backend
// (persisted, many per user) or entered ad hoc for a single checkout.
type Address struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode"`
	Country string `json:"country,omitempty"`
}
