// Package cart holds the in-memory cart and the shipping state derived from
// it. Every mutation invalidates any standing shipping quote under the same
// lock, so no reader can observe a stale delivery fee next to a mutated cart.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yathiraju/smartsale/internal/domain"
	"github.com/yathiraju/smartsale/internal/localstore"
)

const storageKey = "cart"

const mirrorTimeout = time.Second

type Store struct {
	mu    sync.Mutex
	lines map[int64]domain.CartLine

	deliveryFee     float64
	selectedAddress *domain.Address
	shippingChecked bool

	kv localstore.Store
}

// NewStore restores the mirrored cart from the local store when present.
// Restoring never requires login.
func NewStore(kv localstore.Store) *Store {
	s := &Store{
		lines: make(map[int64]domain.CartLine),
		kv:    kv,
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	if s.kv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	raw, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to restore mirrored cart")
		}
		return
	}
	var lines []domain.CartLine
	if e2 := json.Unmarshal([]byte(raw), &lines); e2 != nil {
		log.Warn().Err(e2).Msg("mirrored cart is corrupt, starting empty")
		return
	}
	for _, l := range lines {
		if l.Quantity > 0 {
			s.lines[l.Product.ID] = l
		}
	}
}

// Add creates a line with quantity 1 or bumps an existing one. The price is
// captured here and never re-read from the catalog.
func (s *Store) Add(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.lines[p.ID]; ok {
		line.Quantity++
		s.lines[p.ID] = line
	} else {
		s.lines[p.ID] = domain.CartLine{Product: p, Quantity: 1, PriceAtAdd: p.UnitPrice()}
	}
	s.afterMutationLocked()
}

func (s *Store) Increment(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.lines[id]; ok {
		line.Quantity++
		s.lines[id] = line
	}
	s.afterMutationLocked()
}

// Decrement lowers the quantity, deleting the line when it would reach zero.
func (s *Store) Decrement(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.lines[id]; ok {
		line.Quantity--
		if line.Quantity > 0 {
			s.lines[id] = line
		} else {
			delete(s.lines, id)
		}
	}
	s.afterMutationLocked()
}

func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, id)
	s.afterMutationLocked()
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = make(map[int64]domain.CartLine)
	s.afterMutationLocked()
}

// InvalidateShipping drops the quote without touching the lines, e.g. on
// logout when the selected address no longer belongs to anyone.
func (s *Store) InvalidateShipping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetShippingLocked()
}

// ApplyQuote records a resolved delivery fee for the given address. Only the
// shipping resolver calls this, after validating the pincode and posting the
// current cart weight.
func (s *Store) ApplyQuote(addr domain.Address, quote domain.ShippingQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedAddress = &addr
	s.deliveryFee = quote.DeliveryFee
	s.shippingChecked = true
}

func (s *Store) afterMutationLocked() {
	s.resetShippingLocked()
	s.mirrorLocked()
}

func (s *Store) resetShippingLocked() {
	s.shippingChecked = false
	s.deliveryFee = 0
	s.selectedAddress = nil
}

func (s *Store) mirrorLocked() {
	if s.kv == nil {
		return
	}
	lines := s.sortedLinesLocked()
	raw, err := json.Marshal(lines)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode cart mirror")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if e2 := s.kv.Set(ctx, storageKey, string(raw)); e2 != nil {
		log.Warn().Err(e2).Msg("failed to mirror cart")
	}
}

func (s *Store) sortedLinesLocked() []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(s.lines))
	for _, l := range s.lines {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Product.ID < lines[j].Product.ID })
	return lines
}

// Lines returns the cart contents ordered by product id.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLinesLocked()
}

func (s *Store) Line(id int64) (domain.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[id]
	return l, ok
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Weight is the total cart weight in kg, used for shipping quotes.
func (s *Store) Weight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, l := range s.lines {
		sum += l.LineWeight()
	}
	return sum
}

func (s *Store) DeliveryFee() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliveryFee
}

func (s *Store) SelectedAddress() *domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedAddress == nil {
		return nil
	}
	addr := *s.selectedAddress
	return &addr
}

func (s *Store) ShippingChecked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shippingChecked
}
