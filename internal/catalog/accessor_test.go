package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yathiraju/smartsale/internal/alert"
	"github.com/yathiraju/smartsale/internal/api"
	"github.com/yathiraju/smartsale/internal/domain"
)

type fetcherMock struct {
	mu    sync.Mutex
	delay map[string]time.Duration // per-query artificial latency
	pages map[string]*api.ProductPage
	err   error
	calls []string
}

func (m *fetcherMock) FetchProductsPage(ctx context.Context, query string, page, size int, sort string) (*api.ProductPage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	d := m.delay[query]
	res := m.pages[query]
	err := m.err
	m.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &api.ProductPage{}
	}
	return res, nil
}

func page(names ...string) *api.ProductPage {
	p := &api.ProductPage{TotalPages: 1, TotalElements: len(names)}
	for i, n := range names {
		p.Content = append(p.Content, domain.Product{ID: int64(i + 1), Name: n})
	}
	return p
}

func TestFetchPage_Success(t *testing.T) {
	fetcher := &fetcherMock{pages: map[string]*api.ProductPage{"": page("Kettle", "Mug")}}
	sut := NewAccessor(fetcher, &alert.Recorder{})

	got, err := sut.FetchPage(context.Background(), "", 0, 20, "name,asc")
	require.NoError(t, err)
	assert.Len(t, got.Products, 2)
	assert.Equal(t, got, sut.Current())
	assert.False(t, sut.Loading())
}

func TestFetchPage_LatestRequestWins(t *testing.T) {
	fetcher := &fetcherMock{
		delay: map[string]time.Duration{"slow": 200 * time.Millisecond},
		pages: map[string]*api.ProductPage{
			"slow": page("Old"),
			"fast": page("New"),
		},
	}
	sut := NewAccessor(fetcher, &alert.Recorder{})

	var wg sync.WaitGroup
	wg.Add(1)
	var slowErr error
	go func() {
		defer wg.Done()
		_, slowErr = sut.FetchPage(context.Background(), "slow", 0, 20, "name,asc")
	}()

	// let the slow request get in flight before superseding it
	time.Sleep(50 * time.Millisecond)
	got, err := sut.FetchPage(context.Background(), "fast", 0, 20, "name,asc")
	require.NoError(t, err)
	wg.Wait()

	assert.ErrorIs(t, slowErr, ErrSuperseded)
	require.NotNil(t, sut.Current())
	assert.Equal(t, "New", sut.Current().Products[0].Name)
	assert.Equal(t, got, sut.Current())
}

func TestFetchPage_SameQueryRetryPublishesPage(t *testing.T) {
	fetcher := &fetcherMock{
		delay: map[string]time.Duration{"kettle": 150 * time.Millisecond},
		pages: map[string]*api.ProductPage{"kettle": page("Kettle")},
	}
	sut := NewAccessor(fetcher, &alert.Recorder{})

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = sut.FetchPage(context.Background(), "kettle", 0, 20, "name,asc")
	}()

	// re-issue the identical request while the first is still in flight
	time.Sleep(50 * time.Millisecond)
	got, err := sut.FetchPage(context.Background(), "kettle", 0, 20, "name,asc")
	require.NoError(t, err)
	wg.Wait()

	assert.ErrorIs(t, firstErr, ErrSuperseded)
	require.NotNil(t, sut.Current())
	assert.Equal(t, "Kettle", sut.Current().Products[0].Name)
	assert.Equal(t, got, sut.Current())
}

func TestFetchPage_SupersededNotReported(t *testing.T) {
	recorder := &alert.Recorder{}
	fetcher := &fetcherMock{
		delay: map[string]time.Duration{"slow": 200 * time.Millisecond},
		pages: map[string]*api.ProductPage{"fast": page("New")},
	}
	sut := NewAccessor(fetcher, recorder)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sut.FetchPage(context.Background(), "slow", 0, 20, "name,asc")
	}()
	time.Sleep(50 * time.Millisecond)
	_, err := sut.FetchPage(context.Background(), "fast", 0, 20, "name,asc")
	require.NoError(t, err)
	wg.Wait()

	assert.Empty(t, recorder.Messages())
}

func TestFetchPage_FailureNotifiesOnceAndClearsLoading(t *testing.T) {
	recorder := &alert.Recorder{}
	fetcher := &fetcherMock{err: assert.AnError}
	sut := NewAccessor(fetcher, recorder)

	_, err := sut.FetchPage(context.Background(), "", 0, 20, "name,asc")
	require.Error(t, err)

	assert.Len(t, recorder.Messages(), 1)
	assert.False(t, sut.Loading())
	assert.Nil(t, sut.Current())
}

func TestResolveImage(t *testing.T) {
	withSKU := resolveImage(domain.Product{Name: "Kettle", SKU: "SKU 01"})
	assert.Equal(t, "https://cdn.jsdelivr.net/gh/yathiraju/smartsale-images@test/products/SKU%2001.png", withSKU)

	withoutSKU := resolveImage(domain.Product{Name: "Steel Kettle"})
	assert.Equal(t, "https://via.placeholder.com/300x300?text=Steel+Kettle", withoutSKU)
}

func TestDebouncer_OnlyLastTriggerRuns(t *testing.T) {
	sut := NewDebouncer(30 * time.Millisecond)
	var mu sync.Mutex
	var got []string

	record := func(q string) func() {
		return func() {
			mu.Lock()
			got = append(got, q)
			mu.Unlock()
		}
	}

	sut.Trigger(record("k"))
	sut.Trigger(record("ke"))
	sut.Trigger(record("kettle"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "kettle"
	}, time.Second, 10*time.Millisecond)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	sut := NewDebouncer(30 * time.Millisecond)
	ran := false
	sut.Trigger(func() { ran = true })
	sut.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.False(t, ran)
}
