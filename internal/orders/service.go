// Package orders drives order history and the customer cancellation flow:
// shipment lookup, shipment cancellation, refund, then order cancellation,
// in that order, stopping at the first failure.
package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/yathiraju/smartsale/internal/alert"
	"github.com/yathiraju/smartsale/internal/api"
	"github.com/yathiraju/smartsale/internal/domain"
)

// refundWindow is how long after placement a customer cancellation is
// still accepted.
const refundWindow = 48 * time.Hour

var ErrNoShipments = errors.New("no shipments found for order")

type HistoryAPI interface {
	OrdersByUser(ctx context.Context, username string) ([]domain.Order, error)
	ShipmentIDs(ctx context.Context, orderID int64) ([]int64, error)
	CancelShipments(ctx context.Context, shipmentIDs []int64) error
	Refund(ctx context.Context, req api.RefundRequest) error
	CancelOrder(ctx context.Context, orderID int64, restock bool) error
}

type Service struct {
	client HistoryAPI
	notify alert.Notifier
	now    func() time.Time
}

func NewService(client HistoryAPI, notify alert.Notifier) *Service {
	return &Service{client: client, notify: notify, now: time.Now}
}

func (s *Service) List(ctx context.Context, username string) ([]domain.Order, error) {
	orders, err := s.client.OrdersByUser(ctx, username)
	if err != nil {
		s.notify.Notify("Failed to load orders")
		return nil, err
	}
	return orders, nil
}

// RefundAllowed reports whether the order is still inside the refund window.
func (s *Service) RefundAllowed(o domain.Order) bool {
	return s.now().Sub(o.CreatedAt) <= refundWindow
}

// CancelAndRefund cancels the order's shipments, refunds the payment and
// cancels the order with restock. Any step failing stops the sequence with
// a single notification.
func (s *Service) CancelAndRefund(ctx context.Context, o domain.Order) error {
	shipmentIDs, err := s.client.ShipmentIDs(ctx, o.ID)
	if err != nil {
		s.notify.Notify("Refund process failed. Please contact support.")
		return fmt.Errorf("shipment lookup failed: %w", err)
	}
	if len(shipmentIDs) == 0 {
		s.notify.Notify("No shipments found for this order")
		return ErrNoShipments
	}

	if e2 := s.client.CancelShipments(ctx, shipmentIDs); e2 != nil {
		s.notify.Notify("Refund process failed. Please contact support.")
		return fmt.Errorf("shipment cancel failed: %w", e2)
	}

	refund := api.RefundRequest{
		PaymentID: o.PaymentRef,
		Amount:    int64(math.Round(o.GrandTotal * 100)),
		Speed:     "optimum",
		Notes: map[string]string{
			"reason":  "Customer cancelled",
			"orderId": strconv.FormatInt(o.ID, 10),
		},
	}
	if e2 := s.client.Refund(ctx, refund); e2 != nil {
		s.notify.Notify("Refund process failed. Please contact support.")
		return fmt.Errorf("refund failed: %w", e2)
	}

	if e2 := s.client.CancelOrder(ctx, o.ID, true); e2 != nil {
		s.notify.Notify("Refund process failed. Please contact support.")
		return fmt.Errorf("order cancel failed: %w", e2)
	}

	s.notify.Notify("Order refunded and cancelled successfully")
	return nil
}
