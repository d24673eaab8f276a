package domain

import "time"

// ReservedStock shadows demand for one product+variant against the catalog's
// authoritative stock for the lifetime of a cart. It never mutates the
// authoritative count; expiry is enforced passively by the store's TTL.
type ReservedStock struct {
	ProductID    string    `json:"productId"`
	SelectedTags []string  `json:"selectedTags"`
	Quantity     int       `json:"quantity"`
	CartID       string    `json:"cartId"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
