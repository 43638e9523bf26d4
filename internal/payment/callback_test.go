package payment

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yathiraju/smartsale/internal/alert"
)

func setupGateway(t *testing.T) *CallbackGateway {
	gw := NewCallbackGateway("127.0.0.1:0", "key_test", &alert.Recorder{})
	require.NoError(t, gw.Ready(context.Background()))
	t.Cleanup(func() { gw.Close() })
	return gw
}

func postCallback(t *testing.T, gw *CallbackGateway, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm("http://"+gw.Addr()+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestReady_Idempotent(t *testing.T) {
	gw := setupGateway(t)
	addr := gw.Addr()

	require.NoError(t, gw.Ready(context.Background()))
	assert.Equal(t, addr, gw.Addr())
}

func TestOpen_ResolvesOnProviderCallback(t *testing.T) {
	gw := setupGateway(t)

	done := make(chan struct{})
	var completion Completion
	var openErr error
	go func() {
		defer close(done)
		completion, openErr = gw.Open(context.Background(), Order{
			ProviderOrderID: "order_abc", Amount: 27000, Currency: "INR",
		})
	}()

	// give Open a moment to register the pending order
	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		_, ok := gw.pending["order_abc"]
		return ok
	}, time.Second, 10*time.Millisecond)

	resp := postCallback(t, gw, "/payment/callback", url.Values{
		"razorpay_payment_id": {"pay_1"},
		"razorpay_order_id":   {"order_abc"},
		"razorpay_signature":  {"sig_1"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	<-done
	require.NoError(t, openErr)
	assert.Equal(t, "pay_1", completion.ProviderPaymentID)
	assert.Equal(t, "order_abc", completion.ProviderOrderID)
	assert.Equal(t, "sig_1", completion.Signature)
}

func TestOpen_RejectsOnProviderFailure(t *testing.T) {
	gw := setupGateway(t)

	done := make(chan error, 1)
	go func() {
		_, err := gw.Open(context.Background(), Order{ProviderOrderID: "order_f"})
		done <- err
	}()

	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		_, ok := gw.pending["order_f"]
		return ok
	}, time.Second, 10*time.Millisecond)

	postCallback(t, gw, "/payment/failed", url.Values{
		"razorpay_order_id": {"order_f"},
		"code":              {"BAD_REQUEST_ERROR"},
		"description":       {"Payment declined by bank"},
	})

	err := <-done
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "Payment declined by bank", failure.Description)
}

func TestOpen_AbandonedFlowEndsOnlyWithContext(t *testing.T) {
	gw := setupGateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := gw.Open(ctx, Order{ProviderOrderID: "order_x"})
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("Open returned without callback or cancellation")
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestCallback_UnknownOrderIs404(t *testing.T) {
	gw := setupGateway(t)

	resp := postCallback(t, gw, "/payment/callback", url.Values{
		"razorpay_order_id": {"order_never_opened"},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
