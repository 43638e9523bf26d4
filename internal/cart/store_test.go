package cart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yathiraju/smartsale/internal/domain"
	"github.com/yathiraju/smartsale/internal/localstore"
)

func product(id int64, price float64) domain.Product {
	return domain.Product{ID: id, Name: "p", Price: price}
}

func TestAdd_NewLineStartsAtOne(t *testing.T) {
	sut := NewStore(localstore.NewMemory())

	sut.Add(product(1, 100))

	line, ok := sut.Line(1)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 100.0, line.PriceAtAdd)
}

func TestAdd_ExistingLineIncrements(t *testing.T) {
	sut := NewStore(localstore.NewMemory())

	sut.Add(product(1, 100))
	sut.Add(product(1, 100))

	line, _ := sut.Line(1)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 2, sut.TotalItems())
}

func TestAdd_CapturesSalePrice(t *testing.T) {
	sut := NewStore(localstore.NewMemory())
	sale := 80.0

	sut.Add(domain.Product{ID: 1, Price: 100, SalePrice: &sale})

	line, _ := sut.Line(1)
	assert.Equal(t, 80.0, line.PriceAtAdd)
}

func TestDecrement_DeletesAtZero(t *testing.T) {
	sut := NewStore(localstore.NewMemory())

	sut.Add(product(1, 100))
	sut.Decrement(1)

	_, ok := sut.Line(1)
	assert.False(t, ok)
	assert.True(t, sut.Empty())
}

func TestQuantityNeverNonPositive(t *testing.T) {
	sut := NewStore(localstore.NewMemory())
	rng := rand.New(rand.NewSource(1))

	ids := []int64{1, 2, 3}
	for i := 0; i < 1000; i++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(4) {
		case 0:
			sut.Add(product(id, 10))
		case 1:
			sut.Increment(id)
		case 2:
			sut.Decrement(id)
		case 3:
			sut.Remove(id)
		}
		for _, line := range sut.Lines() {
			require.Greater(t, line.Quantity, 0)
		}
	}
}

func TestMutationsInvalidateQuote(t *testing.T) {
	addr := domain.Address{Line1: "12 MG Road", Pincode: "500089"}
	quote := domain.ShippingQuote{DeliveryFee: 49, Pincode: "500089", Weight: 1}

	mutations := map[string]func(*Store){
		"add":       func(s *Store) { s.Add(product(2, 10)) },
		"increment": func(s *Store) { s.Increment(1) },
		"decrement": func(s *Store) { s.Decrement(1) },
		"remove":    func(s *Store) { s.Remove(1) },
		"clear":     func(s *Store) { s.Clear() },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			sut := NewStore(localstore.NewMemory())
			sut.Add(product(1, 10))
			sut.Add(product(1, 10))
			sut.ApplyQuote(addr, quote)
			require.True(t, sut.ShippingChecked())
			require.Equal(t, 49.0, sut.DeliveryFee())

			mutate(sut)

			assert.False(t, sut.ShippingChecked())
			assert.Zero(t, sut.DeliveryFee())
			assert.Nil(t, sut.SelectedAddress())
		})
	}
}

func TestInvalidateShipping_KeepsLines(t *testing.T) {
	sut := NewStore(localstore.NewMemory())
	sut.Add(product(1, 10))
	sut.ApplyQuote(domain.Address{Pincode: "500089"}, domain.ShippingQuote{DeliveryFee: 30})

	sut.InvalidateShipping()

	assert.False(t, sut.ShippingChecked())
	assert.Equal(t, 1, sut.TotalItems())
}

func TestWeight_DefaultsPerItem(t *testing.T) {
	sut := NewStore(localstore.NewMemory())
	w := 2.0

	sut.Add(domain.Product{ID: 1, Price: 10, Weight: &w})
	sut.Add(domain.Product{ID: 2, Price: 10}) // defaults to 0.5
	sut.Increment(2)

	assert.Equal(t, 3.0, sut.Weight())
}

func TestMirror_RestoredOnNewStore(t *testing.T) {
	kv := localstore.NewMemory()

	first := NewStore(kv)
	first.Add(product(1, 100))
	first.Add(product(1, 100))
	first.Add(product(2, 50))

	restored := NewStore(kv)
	assert.Equal(t, 3, restored.TotalItems())
	line, ok := restored.Line(1)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 100.0, line.PriceAtAdd)
}

func TestMirror_ClearEmptiesStoredCart(t *testing.T) {
	kv := localstore.NewMemory()

	first := NewStore(kv)
	first.Add(product(1, 100))
	first.Clear()

	restored := NewStore(kv)
	assert.True(t, restored.Empty())
}

func TestLines_SortedByProductID(t *testing.T) {
	sut := NewStore(localstore.NewMemory())
	sut.Add(product(3, 1))
	sut.Add(product(1, 1))
	sut.Add(product(2, 1))

	lines := sut.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, int64(1), lines[0].Product.ID)
	assert.Equal(t, int64(2), lines[1].Product.ID)
	assert.Equal(t, int64(3), lines[2].Product.ID)
}
