// Package shipping collects or selects a delivery address, validates it, and
// turns the backend's rate quote into a delivery fee on the cart.
package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yathiraju/smartsale/internal/alert"
	"github.com/yathiraju/smartsale/internal/api"
	"github.com/yathiraju/smartsale/internal/cart"
	"github.com/yathiraju/smartsale/internal/domain"
)

type State int

const (
	StateIdle State = iota
	StateAddressesLoading
	StateChoicesPresented
	StateManualEntry
	StateAddressSelected
	StateShippingChecking
	StateShippingResolved
	StateShippingFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAddressesLoading:
		return "addresses_loading"
	case StateChoicesPresented:
		return "choices_presented"
	case StateManualEntry:
		return "manual_entry"
	case StateAddressSelected:
		return "address_selected"
	case StateShippingChecking:
		return "shipping_checking"
	case StateShippingResolved:
		return "shipping_resolved"
	case StateShippingFailed:
		return "shipping_failed"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidPincode      = errors.New("invalid or missing pincode")
	ErrInvalidPhone        = errors.New("invalid phone number")
	ErrDeliveryUnavailable = errors.New("delivery not available for this address")
)

type AddressAPI interface {
	Addresses(ctx context.Context, username string) ([]api.SavedAddress, error)
	CheckShipping(ctx context.Context, req api.ShippingCheckRequest) (json.RawMessage, error)
}

type Resolver struct {
	client AddressAPI
	cart   *cart.Store
	notify alert.Notifier

	mu      sync.Mutex
	state   State
	choices []domain.Address
}

func NewResolver(client AddressAPI, cartStore *cart.Store, notify alert.Notifier) *Resolver {
	return &Resolver{client: client, cart: cartStore, notify: notify, state: StateIdle}
}

func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resolver) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Choices returns the saved addresses from the last lookup, empty when the
// user must enter one manually.
func (r *Resolver) Choices() []domain.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Address, len(r.choices))
	copy(out, r.choices)
	return out
}

// RequestDeliveryAddress fetches the user's saved addresses and decides
// between presenting choices and forcing manual entry. An empty username
// (guest checkout) skips the lookup entirely. A lookup failure is reported
// and degrades to manual entry rather than blocking the flow.
func (r *Resolver) RequestDeliveryAddress(ctx context.Context, username string) ([]domain.Address, error) {
	r.setState(StateAddressesLoading)

	if username == "" {
		r.setChoices(nil, StateManualEntry)
		return nil, nil
	}

	saved, err := r.client.Addresses(ctx, username)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("address lookup failed")
		r.notify.Notify("Failed to fetch addresses. Please enter address manually.")
		r.setChoices(nil, StateManualEntry)
		return nil, nil
	}

	var usable []domain.Address
	for _, a := range saved {
		if domain.ValidPincode(a.EffectivePincode()) {
			usable = append(usable, a.Normalize())
		}
	}
	if len(usable) == 0 {
		r.setChoices(nil, StateManualEntry)
		return nil, nil
	}

	r.setChoices(usable, StateChoicesPresented)
	return usable, nil
}

func (r *Resolver) setChoices(choices []domain.Address, s State) {
	r.mu.Lock()
	r.choices = choices
	r.state = s
	r.mu.Unlock()
}

// ConfirmAddress validates the chosen address and resolves a delivery fee
// for it against the current cart weight. Pincode and phone are checked
// before any remote call; an invalid one sends the flow back to manual
// entry. A quote only lands on the cart when the backend answered with a
// parseable fee.
func (r *Resolver) ConfirmAddress(ctx context.Context, addr domain.Address) (domain.ShippingQuote, error) {
	if !domain.ValidPincode(addr.Pincode) {
		r.setState(StateManualEntry)
		r.notify.Notify("Please enter a valid 6-digit pincode (e.g. 500089)")
		return domain.ShippingQuote{}, ErrInvalidPincode
	}
	if addr.Phone != "" && !domain.ValidPhone(addr.Phone) {
		r.setState(StateManualEntry)
		r.notify.Notify("Please enter a valid 10-digit phone number")
		return domain.ShippingQuote{}, ErrInvalidPhone
	}

	r.setState(StateAddressSelected)
	weight := r.cart.Weight()
	r.setState(StateShippingChecking)

	raw, err := r.client.CheckShipping(ctx, api.ShippingCheckRequest{
		DeliveryPostcode: addr.Pincode,
		COD:              0,
		Weight:           weight,
	})
	if err != nil {
		r.notify.Notify("Shipping check failed. Please try again.")
		r.setState(StateAddressSelected)
		return domain.ShippingQuote{}, fmt.Errorf("shipping check failed: %w", err)
	}

	fee, ok := ParseFee(raw)
	if !ok {
		// no parseable fee is not free delivery
		r.notify.Notify("Delivery not available. Choose a different delivery address.")
		r.setState(StateShippingFailed)
		return domain.ShippingQuote{}, ErrDeliveryUnavailable
	}

	quote := domain.ShippingQuote{DeliveryFee: fee, Pincode: addr.Pincode, Weight: weight}
	r.cart.ApplyQuote(addr, quote)
	r.setState(StateShippingResolved)

	if fee > 0 {
		r.notify.Notify("Delivery fee ₹%.2f added.", fee)
	} else {
		r.notify.Notify("Free delivery for this address.")
	}
	return quote, nil
}
