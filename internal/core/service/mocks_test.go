package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/domain"
	"github.com/Carlos-mc14/elhtcrls-sub000/internal/port"
)

// fakeCache is an in-memory CacheRepository with real expiry semantics: an
// entry written with a non-positive TTL is already expired and stops being
// returned by reads, exactly like the store's passive TTL.
type fakeCache struct {
	mu   sync.Mutex
	vals map[string]fakeEntry
	sets map[string]map[string]struct{}
}

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		vals: make(map[string]fakeEntry),
		sets: make(map[string]map[string]struct{}),
	}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.vals[key]
	if !ok {
		return "", port.ErrKeyNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(f.vals, key)
		return "", port.ErrKeyNotFound
	}
	return entry.value, nil
}

func (f *fakeCache) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vals[key] = fakeEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vals, key)
	return nil
}

func (f *fakeCache) AddToSet(ctx context.Context, setKey, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sets[setKey] == nil {
		f.sets[setKey] = make(map[string]struct{})
	}
	f.sets[setKey][member] = struct{}{}
	return nil
}

func (f *fakeCache) RemoveFromSet(ctx context.Context, setKey, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sets[setKey], member)
	return nil
}

func (f *fakeCache) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := make([]string, 0, len(f.sets[setKey]))
	for m := range f.sets[setKey] {
		members = append(members, m)
	}
	return members, nil
}

// Keys supports the only pattern shape the engine uses: a literal prefix
// followed by a trailing *.
func (f *fakeCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := strings.TrimSuffix(pattern, "*")
	now := time.Now()
	var keys []string
	for k, entry := range f.vals {
		if strings.HasPrefix(k, prefix) && now.Before(entry.expiresAt) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type decrementCall struct {
	productID string
	quantity  int
	tagID     string
}

// fakeCatalog holds authoritative stock in memory and applies the same
// conditional-decrement rules as the MySQL adapter.
type fakeCatalog struct {
	mu         sync.Mutex
	products   map[string]*domain.Product
	decrements []decrementCall
}

func newFakeCatalog(products ...*domain.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[string]*domain.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return nil, nil
	}
	snapshot := *p
	snapshot.TagStock = append([]domain.TagStock(nil), p.TagStock...)
	return &snapshot, nil
}

func (c *fakeCatalog) DecrementStock(ctx context.Context, productID string, quantity int, tagID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return port.ErrProductNotFound
	}

	if tagID != "" {
		for i := range p.TagStock {
			if p.TagStock[i].TagID != tagID {
				continue
			}
			if p.TagStock[i].Stock < quantity {
				return port.ErrInsufficientStock
			}
			p.TagStock[i].Stock -= quantity
			c.decrements = append(c.decrements, decrementCall{productID, quantity, tagID})
			return nil
		}
		return port.ErrProductNotFound
	}

	if p.Stock < quantity {
		return port.ErrInsufficientStock
	}
	p.Stock -= quantity
	c.decrements = append(c.decrements, decrementCall{productID, quantity, tagID})
	return nil
}

// setStock mutates authoritative stock out-of-band, standing in for the
// catalog admin interface.
func (c *fakeCatalog) setStock(productID string, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[productID].Stock = stock
}

func (c *fakeCatalog) decrementCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.decrements)
}

type testEngine struct {
	cache     *fakeCache
	catalog   *fakeCatalog
	store     *CartStore
	ledger    *ReservationLedger
	validator *StockValidator
	carts     *CartService
}

func newTestEngine(products ...*domain.Product) *testEngine {
	cache := newFakeCache()
	catalog := newFakeCatalog(products...)
	store := NewCartStore(cache)
	ledger := NewReservationLedger(cache)
	validator := NewStockValidator(catalog, ledger)

	return &testEngine{
		cache:     cache,
		catalog:   catalog,
		store:     store,
		ledger:    ledger,
		validator: validator,
		carts:     NewCartService(store, ledger, validator, catalog),
	}
}
