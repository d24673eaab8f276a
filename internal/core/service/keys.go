package service

import (
	"strings"
	"time"
)

const (
	cartKeyPrefix        = "cart:"
	activeCartsKey       = "active_carts"
	reservationKeyPrefix = "reservation:"
	productIndexPrefix   = "product_reservations:"

	// CartTTL bounds how long a persisted cart, and every reservation made
	// for it, survives in the store. Expiry is passive: nothing sweeps, the
	// entries simply stop being returned by reads.
	CartTTL = 14 * 24 * time.Hour
)

func cartKey(cartID string) string {
	return cartKeyPrefix + cartID
}

// reservationKey is deterministic per (cart, product, variant), so reserving
// the same line twice overwrites instead of double-counting.
func reservationKey(cartID, productID, variantKey string) string {
	return reservationKeyPrefix + cartID + ":" + productID + ":" + variantKey
}

func productIndexKey(productID string) string {
	return productIndexPrefix + productID
}

// splitReservationKey recovers the cart and product ids from a ledger key.
// The variant key is JSON and may itself contain colons, so only the first
// three separators count.
func splitReservationKey(key string) (cartID, productID string, ok bool) {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) != 4 || parts[0]+":" != reservationKeyPrefix {
		return "", "", false
	}
	return parts[1], parts[2], true
}
