// Package payment wraps the external payment provider's open/callback
// pattern in a single awaitable call, so the checkout orchestrator reads as
// linear sequential code.
package payment

import (
	"context"
	"fmt"
)

// Order is the provider-side payment order the widget is opened with.
type Order struct {
	ProviderOrderID string
	Amount          int64 // minor units
	Currency        string
	Description     string
}

// Completion carries the provider-issued identifiers and signature the
// capture endpoint verifies server-side.
type Completion struct {
	ProviderPaymentID string
	ProviderOrderID   string
	Signature         string
}

// Failure is a user-visible payment failure reported by the provider.
type Failure struct {
	Code        string
	Description string
}

func (f *Failure) Error() string {
	if f.Code == "" {
		return fmt.Sprintf("payment failed: %s", f.Description)
	}
	return fmt.Sprintf("payment failed (%s): %s", f.Code, f.Description)
}

type Gateway interface {
	// Ready loads the provider's client machinery. Idempotent; checkout
	// aborts when it fails.
	Ready(ctx context.Context) error
	// Open presents the payment flow for the order and blocks until the
	// provider reports completion or failure, or ctx is cancelled. A user
	// abandoning the flow means Open only returns through ctx.
	Open(ctx context.Context, order Order) (Completion, error)
}
