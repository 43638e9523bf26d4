// Package catalog fetches paginated, searchable product listings and maps
// raw records into their display-ready shape. Requests are abortable: a new
// fetch supersedes and cancels any in-flight one, and a superseded result is
// discarded even if it arrives after the newer one.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yathiraju/smartsale/internal/alert"
	"github.com/yathiraju/smartsale/internal/api"
	"github.com/yathiraju/smartsale/internal/domain"
)

// ErrSuperseded marks a fetch that lost to a newer one. It is excluded from
// user-facing error reporting.
var ErrSuperseded = errors.New("request superseded by a newer one")

type Page struct {
	Products      []domain.Product
	TotalPages    int
	TotalElements int
	Number        int
}

type PageFetcher interface {
	FetchProductsPage(ctx context.Context, query string, page, size int, sort string) (*api.ProductPage, error)
}

type Accessor struct {
	client PageFetcher
	notify alert.Notifier
	sfg    singleflight.Group // coalesces identical concurrent fetches

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	loading bool
	current *Page
}

func NewAccessor(client PageFetcher, notify alert.Notifier) *Accessor {
	return &Accessor{client: client, notify: notify}
}

// FetchPage issues a page request, cancelling any in-flight one. Only the
// most recent request may update the visible page; the loading flag is
// cleared on every exit path.
func (a *Accessor) FetchPage(ctx context.Context, query string, page, size int, sort string) (*Page, error) {
	key := fmt.Sprintf("%s|%d|%d|%s", query, page, size, sort)

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		// a retry with the identical key must start fresh, not join the
		// flight whose context we just cancelled
		a.sfg.Forget(key)
	}
	reqCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.seq++
	seq := a.seq
	a.loading = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.loading = false
		if a.seq == seq {
			a.cancel = nil
		}
		a.mu.Unlock()
		cancel()
	}()

	v, err, _ := a.sfg.Do(key, func() (interface{}, error) {
		return a.client.FetchProductsPage(reqCtx, query, page, size, sort)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrSuperseded
		}
		a.notify.Notify("Cannot load products (server error)")
		return nil, err
	}

	raw := v.(*api.ProductPage)
	result := &Page{
		Products:      make([]domain.Product, len(raw.Content)),
		TotalPages:    raw.TotalPages,
		TotalElements: raw.TotalElements,
		Number:        raw.Number,
	}
	for i, p := range raw.Content {
		p.Image = resolveImage(p)
		result.Products[i] = p
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seq != seq {
		// a newer request took over while we were decoding
		return nil, ErrSuperseded
	}
	a.current = result
	return result, nil
}

// Current returns the last page a winning request produced, or nil.
func (a *Accessor) Current() *Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *Accessor) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}
