package domain

// Product is the display-ready shape of a catalog record. The backend owns
// the canonical record; this is what the client keeps around once a page of
// results has been mapped (resolved image URL included).
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	SalePrice   *float64 `json:"salePrice,omitempty"`
	TaxRate     float64  `json:"taxRate,omitempty"`
	SKU         string   `json:"sku,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// defaultItemWeightKg is assumed when a product carries no weight.
const defaultItemWeightKg = 0.5

// UnitPrice returns the sale price when one is set, the list price otherwise.
func (p Product) UnitPrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// UnitWeight returns the product weight in kg, falling back to the default.
func (p Product) UnitWeight() float64 {
	if p.Weight != nil {
		return *p.Weight
	}
	return defaultItemWeightKg
}
