package port

import (
	"context"
	"errors"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CatalogRepository is the product catalog collaborator. It owns the
// authoritative stock counts; the engine only reads them and decrements them
// at finalize time.
type CatalogRepository interface {
	// GetProduct returns nil (and no error) when the product does not exist.
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// DecrementStock conditionally decreases stock for a product, or for one
	// of its variant pools when tagID is non-empty. Returns
	// ErrInsufficientStock when the remaining stock cannot cover quantity and
	// ErrProductNotFound when no such product or variant pool exists.
	DecrementStock(ctx context.Context, productID string, quantity int, tagID string) error
}
