package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yathiraju/smartsale/internal/domain"
)

var ErrNoToken = errors.New("login response carried no token")

// Login exchanges credentials for a bearer token. Persisting the token is
// the session store's job, not this client's.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var res struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &res); err != nil {
		return "", err
	}
	if res.Token == "" {
		return "", ErrNoToken
	}
	return res.Token, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	var res SignupResponse
	if err := c.do(ctx, http.MethodPost, "/api/signup", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchProductsPage returns one page of the catalog. The query parameter is
// only sent when non-blank.
func (c *Client) FetchProductsPage(ctx context.Context, query string, page, size int, sort string) (*ProductPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(max(0, page)))
	params.Set("size", strconv.Itoa(max(1, size)))
	params.Set("sort", sort)
	if q := strings.TrimSpace(query); q != "" {
		params.Set("query", q)
	}

	var res ProductPage
	if err := c.do(ctx, http.MethodGet, "/api/products/page?"+params.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SaveCart(ctx context.Context, req SaveCartRequest) (*SavedCart, error) {
	var res SavedCart
	if err := c.do(ctx, http.MethodPost, "/api/carts", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ActiveCart(ctx context.Context, sessionID string) (*ActiveCart, error) {
	var res ActiveCart
	path := "/api/carts/active?sessionId=" + url.QueryEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateAppOrder(ctx context.Context, sessionID string) (*AppOrder, error) {
	var res AppOrder
	if err := c.do(ctx, http.MethodPost, "/api/checkout", map[string]string{"sessionId": sessionID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreatePaymentOrder(ctx context.Context, req PaymentOrderRequest) (*PaymentOrder, error) {
	var res PaymentOrder
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CapturePayment(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	var res CaptureResult
	if err := c.do(ctx, http.MethodPost, "/api/payments/capture", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Addresses(ctx context.Context, username string) ([]SavedAddress, error) {
	var res []SavedAddress
	path := "/api/user/address/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// CheckShipping returns the raw rate-quote body; the response shape varies
// across backend versions, so extraction lives with the shipping resolver.
func (c *Client) CheckShipping(ctx context.Context, req ShippingCheckRequest) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/shipping/check/availability", req, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) OrdersByUser(ctx context.Context, username string) ([]domain.Order, error) {
	var res []domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders/byUser", map[string]string{"username": username}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) ShipmentIDs(ctx context.Context, orderID int64) ([]int64, error) {
	var res []int64
	path := fmt.Sprintf("/api/shipping/shipment/ids/%d", orderID)
	if err := c.do(ctx, http.MethodPost, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) CancelShipments(ctx context.Context, shipmentIDs []int64) error {
	return c.do(ctx, http.MethodPost, "/api/shipping/shipment/cancel", shipmentIDs, nil)
}

func (c *Client) Refund(ctx context.Context, req RefundRequest) error {
	return c.do(ctx, http.MethodPost, "/api/refunds", req, nil)
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64, restock bool) error {
	path := fmt.Sprintf("/api/orders/cancel/%d?restock=%t", orderID, restock)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}
