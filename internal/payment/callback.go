package payment

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yathiraju/smartsale/internal/alert"
)

const hostedCheckoutBase = "https://checkout.razorpay.com/v1/checkout"

type callbackResult struct {
	completion Completion
	err        error
}

// CallbackGateway implements Gateway with a local HTTP callback server: the
// user completes payment on the provider's hosted page, which redirects the
// provider identifiers back to this process.
type CallbackGateway struct {
	addr   string
	key    string
	notify alert.Notifier

	readyOnce sync.Once
	readyErr  error
	srv       *http.Server
	ln        net.Listener

	mu      sync.Mutex
	pending map[string]chan callbackResult
}

func NewCallbackGateway(addr, key string, notify alert.Notifier) *CallbackGateway {
	return &CallbackGateway{
		addr:    addr,
		key:     key,
		notify:  notify,
		pending: make(map[string]chan callbackResult),
	}
}

// Ready starts the callback server once; later calls are no-ops that report
// the first outcome.
func (g *CallbackGateway) Ready(_ context.Context) error {
	g.readyOnce.Do(func() {
		ln, err := net.Listen("tcp", g.addr)
		if err != nil {
			g.readyErr = fmt.Errorf("payment callback server failed to start: %w", err)
			return
		}
		g.ln = ln

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Post("/payment/callback", g.handleCallback)
		r.Post("/payment/failed", g.handleFailed)

		g.srv = &http.Server{
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			if err := g.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("payment callback server error")
			}
		}()
		log.Debug().Str("addr", ln.Addr().String()).Msg("payment callback server listening")
	})
	return g.readyErr
}

// Addr returns the bound callback address, valid after Ready.
func (g *CallbackGateway) Addr() string {
	if g.ln == nil {
		return g.addr
	}
	return g.ln.Addr().String()
}

// Open points the user at the hosted checkout page and blocks until the
// provider calls back or ctx is cancelled. There is deliberately no internal
// timeout: an abandoned payment leaves the flow incomplete.
func (g *CallbackGateway) Open(ctx context.Context, order Order) (Completion, error) {
	ch := make(chan callbackResult, 1)
	g.mu.Lock()
	g.pending[order.ProviderOrderID] = ch
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.pending, order.ProviderOrderID)
		g.mu.Unlock()
	}()

	g.notify.Notify("Complete your payment of %d %s in the browser:\n  %s",
		order.Amount, order.Currency, g.checkoutURL(order))

	select {
	case <-ctx.Done():
		return Completion{}, ctx.Err()
	case res := <-ch:
		return res.completion, res.err
	}
}

func (g *CallbackGateway) checkoutURL(order Order) string {
	params := url.Values{}
	params.Set("key_id", g.key)
	params.Set("order_id", order.ProviderOrderID)
	params.Set("name", "Shop At Smart Sale")
	params.Set("description", order.Description)
	params.Set("callback_url", "http://"+g.Addr()+"/payment/callback")
	return hostedCheckoutBase + "?" + params.Encode()
}

func (g *CallbackGateway) handleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad callback", http.StatusBadRequest)
		return
	}
	completion := Completion{
		ProviderPaymentID: r.Form.Get("razorpay_payment_id"),
		ProviderOrderID:   r.Form.Get("razorpay_order_id"),
		Signature:         r.Form.Get("razorpay_signature"),
	}
	if !g.deliver(completion.ProviderOrderID, callbackResult{completion: completion}) {
		http.Error(w, "unknown order", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Payment received. You can return to the store.")
}

func (g *CallbackGateway) handleFailed(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad callback", http.StatusBadRequest)
		return
	}
	failure := &Failure{
		Code:        r.Form.Get("code"),
		Description: r.Form.Get("description"),
	}
	if !g.deliver(r.Form.Get("razorpay_order_id"), callbackResult{err: failure}) {
		http.Error(w, "unknown order", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Payment failed. You can return to the store and retry.")
}

func (g *CallbackGateway) deliver(providerOrderID string, res callbackResult) bool {
	g.mu.Lock()
	ch, ok := g.pending[providerOrderID]
	g.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- res:
	default: // duplicate callback for the same order, drop it
	}
	return true
}

func (g *CallbackGateway) Close() error {
	if g.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.srv.Shutdown(ctx)
}
