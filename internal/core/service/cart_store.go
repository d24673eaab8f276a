package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/domain"
	"github.com/Carlos-mc14/elhtcrls-sub000/internal/port"
)

var ErrCartNotFound = errors.New("cart not found")

// CartStore persists the Cart aggregate in the key-value store under
// cart:{id} with a fixed 14-day TTL and maintains the active_carts index
// set.
type CartStore struct {
	cache port.CacheRepository
}

func NewCartStore(cache port.CacheRepository) *CartStore {
	return &CartStore{cache: cache}
}

// Save serializes the cart and keeps the active_carts index in step with its
// status: active carts are listed, anything else is dropped.
func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := s.cache.SetWithTTL(ctx, cartKey(cart.ID), string(data), CartTTL); err != nil {
		return fmt.Errorf("store cart: %w", err)
	}

	if cart.Status == domain.CartStatusActive {
		if err := s.cache.AddToSet(ctx, activeCartsKey, cart.ID); err != nil {
			return fmt.Errorf("index cart: %w", err)
		}
	} else {
		if err := s.cache.RemoveFromSet(ctx, activeCartsKey, cart.ID); err != nil {
			return fmt.Errorf("unindex cart: %w", err)
		}
	}

	return nil
}

// Load returns the stored aggregate, or ErrCartNotFound when no cart exists
// under the id. Transport errors propagate as-is.
func (s *CartStore) Load(ctx context.Context, cartID string) (*domain.Cart, error) {
	data, err := s.cache.Get(ctx, cartKey(cartID))
	if errors.Is(err, port.ErrKeyNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart %s: %w", cartID, err)
	}
	return &cart, nil
}

// Get degrades only the not-found condition into the empty-active-cart
// sentinel; an unknown id is indistinguishable from an empty cart except by
// item count.
func (s *CartStore) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.Load(ctx, cartID)
	if errors.Is(err, ErrCartNotFound) {
		return domain.NewCart(cartID), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartStore) Delete(ctx context.Context, cartID string) error {
	if err := s.cache.Delete(ctx, cartKey(cartID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if err := s.cache.RemoveFromSet(ctx, activeCartsKey, cartID); err != nil {
		return fmt.Errorf("unindex cart: %w", err)
	}
	return nil
}

// ListActive resolves every id in the index, tolerating stale members whose
// cart has expired or already been sold, and returns the survivors newest
// first.
func (s *CartStore) ListActive(ctx context.Context) ([]*domain.Cart, error) {
	ids, err := s.cache.SetMembers(ctx, activeCartsKey)
	if err != nil {
		return nil, err
	}

	carts := make([]*domain.Cart, 0, len(ids))
	for _, id := range ids {
		cart, err := s.Load(ctx, id)
		if errors.Is(err, ErrCartNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if cart.Status != domain.CartStatusActive {
			continue
		}
		carts = append(carts, cart)
	}

	sort.Slice(carts, func(i, j int) bool {
		return carts[i].CreatedAt.After(carts[j].CreatedAt)
	})
	return carts, nil
}
