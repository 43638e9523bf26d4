package domain

import "math"

// Totals is the order amount breakdown handed to the payment gateway.
// MinorUnits carries the grand total in the smallest currency denomination
// (paise for INR) since the gateway only accepts integer amounts.
type Totals struct {
	Subtotal    float64
	Tax         float64
	DeliveryFee float64
	Grand       float64
	MinorUnits  int64
}

// Round2 rounds a currency amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals derives the order totals from the cart lines and the resolved
// delivery fee. Subtotal uses the captured line price; tax applies each line's
// rate to its own subtotal and the summed tax is rounded to two decimals
// before entering the grand total.
func ComputeTotals(lines []CartLine, deliveryFee float64) Totals {
	var sub, tax float64
	for _, l := range lines {
		sub += l.PriceAtAdd * float64(l.Quantity)
		tax += l.PriceAtAdd * (l.Product.TaxRate / 100) * float64(l.Quantity)
	}
	tax = Round2(tax)
	grand := Round2(sub + tax + deliveryFee)
	return Totals{
		Subtotal:    sub,
		Tax:         tax,
		DeliveryFee: deliveryFee,
		Grand:       grand,
		MinorUnits:  int64(math.Round(grand * 100)),
	}
}
