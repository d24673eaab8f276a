package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/domain"
	"github.com/Carlos-mc14/elhtcrls-sub000/internal/port"
)

// ReservationLedger keeps one ReservedStock entry per (cart, product,
// variant) under reservation:{cartId}:{productId}:{variantKey}, TTL-aligned
// to the cart, plus a per-product index set of ledger keys for aggregation.
//
// The ledger only writes; availability checks run through the StockValidator
// before Reserve is called. Checking and reserving are separate round trips,
// so two concurrent carts can both pass validation for the last unit. That
// best-effort behavior is the system's concurrency contract.
type ReservationLedger struct {
	cache port.CacheRepository
}

func NewReservationLedger(cache port.CacheRepository) *ReservationLedger {
	return &ReservationLedger{cache: cache}
}

// Reserve writes one ledger entry per line item and registers each key in
// its product's index set. Keys are deterministic, so re-reserving a line
// overwrites the previous quantity.
func (l *ReservationLedger) Reserve(ctx context.Context, cartID string, items []domain.CartItem) error {
	expiresAt := time.Now().Add(CartTTL)

	for _, item := range items {
		entry := domain.ReservedStock{
			ProductID:    item.ProductID,
			SelectedTags: item.SortedTagIDs(),
			Quantity:     item.Quantity,
			CartID:       cartID,
			ExpiresAt:    expiresAt,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal reservation: %w", err)
		}

		key := reservationKey(cartID, item.ProductID, item.VariantKey())
		if err := l.cache.SetWithTTL(ctx, key, string(data), CartTTL); err != nil {
			return fmt.Errorf("store reservation: %w", err)
		}
		if err := l.cache.AddToSet(ctx, productIndexKey(item.ProductID), key); err != nil {
			return fmt.Errorf("index reservation: %w", err)
		}
	}

	return nil
}

// Release removes every reservation a cart holds. Calling it on a cart with
// no reservations is a no-op.
func (l *ReservationLedger) Release(ctx context.Context, cartID string) error {
	keys, err := l.cache.Keys(ctx, reservationKeyPrefix+cartID+":*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		_, productID, ok := splitReservationKey(key)
		if !ok {
			continue
		}
		if err := l.cache.RemoveFromSet(ctx, productIndexKey(productID), key); err != nil {
			return fmt.Errorf("unindex reservation: %w", err)
		}
		if err := l.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete reservation: %w", err)
		}
	}

	return nil
}

// ReservedQuantity sums active reservations for a product whose tag set
// equals the query's, across all carts.
func (l *ReservationLedger) ReservedQuantity(ctx context.Context, productID string, tagIDs []string) (int, error) {
	return l.reservedQuantityExcluding(ctx, productID, tagIDs, "")
}

// reservedQuantityExcluding is ReservedQuantity minus one cart's own
// entries, so a cart re-validating its own lines does not compete with
// itself. Index members whose entry has expired are skipped and pruned
// best-effort.
func (l *ReservationLedger) reservedQuantityExcluding(ctx context.Context, productID string, tagIDs []string, excludeCartID string) (int, error) {
	keys, err := l.cache.SetMembers(ctx, productIndexKey(productID))
	if err != nil {
		return 0, err
	}

	want := domain.VariantKey(tagIDs)
	total := 0
	for _, key := range keys {
		cartID, _, ok := splitReservationKey(key)
		if !ok {
			continue
		}
		if excludeCartID != "" && cartID == excludeCartID {
			continue
		}

		data, err := l.cache.Get(ctx, key)
		if errors.Is(err, port.ErrKeyNotFound) {
			// Expired entry left a stale index member behind.
			_ = l.cache.RemoveFromSet(ctx, productIndexKey(productID), key)
			continue
		}
		if err != nil {
			return 0, err
		}

		var entry domain.ReservedStock
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			return 0, fmt.Errorf("unmarshal reservation %s: %w", key, err)
		}
		if domain.VariantKey(entry.SelectedTags) == want {
			total += entry.Quantity
		}
	}

	return total, nil
}
