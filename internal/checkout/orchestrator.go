// Package checkout sequences the payment flow: persist cart, create the
// internal order, create the provider order, open the payment gateway, and
// capture. Steps are strictly sequential; only one flow runs at a time, and
// a failed step leaves the cart untouched so the user can retry.
package checkout

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/yathiraju/smartsale/internal/alert"
	"github.com/yathiraju/smartsale/internal/api"
	"github.com/yathiraju/smartsale/internal/cart"
	"github.com/yathiraju/smartsale/internal/domain"
	"github.com/yathiraju/smartsale/internal/payment"
	"github.com/yathiraju/smartsale/internal/session"
)

var (
	// ErrInProgress marks a checkout attempt while another one is in
	// flight; the attempt is dropped, not queued.
	ErrInProgress = errors.New("checkout already in progress")

	ErrEmptyCart     = errors.New("cart is empty")
	ErrCartNotSaved  = errors.New("cart was not saved")
	ErrNoOrderID     = errors.New("no internal order id")
	ErrCaptureFailed = errors.New("payment capture failed")
)

type BackendAPI interface {
	SaveCart(ctx context.Context, req api.SaveCartRequest) (*api.SavedCart, error)
	CreateAppOrder(ctx context.Context, sessionID string) (*api.AppOrder, error)
	CreatePaymentOrder(ctx context.Context, req api.PaymentOrderRequest) (*api.PaymentOrder, error)
	CapturePayment(ctx context.Context, req api.CaptureRequest) (*api.CaptureResult, error)
}

type Orchestrator struct {
	backend  BackendAPI
	gateway  payment.Gateway
	cart     *cart.Store
	session  *session.Store
	notify   alert.Notifier
	currency string
	closeUI  func()

	inProgress atomic.Bool
}

type Option func(*Orchestrator)

// WithUICloser registers the hook that dismisses the checkout surface after
// a successful capture.
func WithUICloser(fn func()) Option {
	return func(o *Orchestrator) { o.closeUI = fn }
}

func NewOrchestrator(backend BackendAPI, gateway payment.Gateway, cartStore *cart.Store, sess *session.Store, notify alert.Notifier, currency string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:  backend,
		gateway:  gateway,
		cart:     cartStore,
		session:  sess,
		notify:   notify,
		currency: currency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Pay runs the checkout flow end to end. Every failure is reported exactly
// once; nothing is retried automatically.
func (o *Orchestrator) Pay(ctx context.Context) error {
	if !o.inProgress.CompareAndSwap(false, true) {
		return ErrInProgress
	}
	defer o.inProgress.Store(false)

	err := o.pay(ctx)
	if err != nil && !errors.Is(err, ErrInProgress) {
		log.Error().Err(err).Msg("checkout flow failed")
	}
	return err
}

func (o *Orchestrator) pay(ctx context.Context) error {
	lines := o.cart.Lines()
	if len(lines) == 0 {
		o.notify.Notify("Your cart is empty.")
		return ErrEmptyCart
	}

	cartID, err := o.saveCart(ctx, lines)
	if err != nil {
		o.notify.Notify("Save cart failed")
		return err
	}

	totals := domain.ComputeTotals(lines, o.cart.DeliveryFee())

	appOrder, err := o.backend.CreateAppOrder(ctx, o.session.SessionID(ctx))
	if err != nil {
		o.notify.Notify("Payment flow failed: %v", err)
		return err
	}
	appID := appOrder.EffectiveID()
	if appID == 0 {
		o.notify.Notify("Payment flow failed: no internal order ID")
		return ErrNoOrderID
	}

	providerOrder, err := o.backend.CreatePaymentOrder(ctx, api.PaymentOrderRequest{
		Amount:   totals.MinorUnits,
		Currency: o.currency,
		OrderID:  appID,
		Receipt:  "order_" + strconv.FormatInt(appID, 10),
	})
	if err != nil {
		o.notify.Notify("Payment flow failed: %v", err)
		return err
	}

	if e2 := o.gateway.Ready(ctx); e2 != nil {
		o.notify.Notify("Payment flow failed: %v", e2)
		return e2
	}

	completion, err := o.gateway.Open(ctx, payment.Order{
		ProviderOrderID: providerOrder.ProviderOrderID,
		Amount:          providerOrder.Amount,
		Currency:        providerOrder.Currency,
		Description:     "Order " + strconv.FormatInt(appID, 10),
	})
	if err != nil {
		var failure *payment.Failure
		if errors.As(err, &failure) {
			o.notify.Notify("Payment failed: %s", failure.Description)
		} else {
			o.notify.Notify("Payment flow failed: %v", err)
		}
		return err
	}

	capture, err := o.backend.CapturePayment(ctx, api.CaptureRequest{
		ProviderPaymentID: completion.ProviderPaymentID,
		ProviderOrderID:   completion.ProviderOrderID,
		Signature:         completion.Signature,
		OrderID:           appID,
		CartID:            cartID,
		DeliveryAddress:   o.cart.SelectedAddress(),
	})
	if err != nil {
		o.notify.Notify("Payment failed")
		return err
	}
	if !capture.Paid() {
		o.notify.Notify("Payment failed")
		return ErrCaptureFailed
	}

	o.cart.Clear()
	if e2 := o.session.SetSavedCartID(ctx, ""); e2 != nil {
		log.Warn().Err(e2).Msg("failed to clear saved cart id")
	}
	if o.closeUI != nil {
		o.closeUI()
	}
	o.notify.Notify("Order placed successfully")
	return nil
}

// saveCart persists the cart server-side and returns the cart id the
// capture step references.
func (o *Orchestrator) saveCart(ctx context.Context, lines []domain.CartLine) (int64, error) {
	items := make([]api.CartItemPayload, len(lines))
	for i, l := range lines {
		items[i] = api.CartItemPayload{
			ProductID:  l.Product.ID,
			Quantity:   l.Quantity,
			PriceAtAdd: l.PriceAtAdd,
		}
	}

	saved, err := o.backend.SaveCart(ctx, api.SaveCartRequest{
		Username:  o.session.Username(ctx),
		SessionID: o.session.SessionID(ctx),
		Items:     items,
	})
	if err != nil {
		return 0, err
	}
	if saved == nil || saved.ID == 0 {
		return 0, ErrCartNotSaved
	}
	if e2 := o.session.SetSavedCartID(ctx, strconv.FormatInt(saved.ID, 10)); e2 != nil {
		log.Warn().Err(e2).Msg("failed to persist saved cart id")
	}
	return saved.ID, nil
}
