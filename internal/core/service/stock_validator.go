package service

import (
	"context"
	"fmt"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/domain"
	"github.com/Carlos-mc14/elhtcrls-sub000/internal/port"
)

// StockError is a user-facing availability rejection. It always names the
// offending product and, when known, how many units remain.
type StockError struct {
	ProductID   string
	ProductName string
	TagID       string
	Available   int
	SoldOut     bool
	NotFound    bool
}

func (e *StockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	target := name
	if e.TagID != "" {
		target = fmt.Sprintf("%s (variant %s)", name, e.TagID)
	}

	switch {
	case e.NotFound:
		return fmt.Sprintf("product %s not found", e.ProductID)
	case e.SoldOut:
		return fmt.Sprintf("%s is sold out", target)
	default:
		return fmt.Sprintf("insufficient stock for %s: available = %d", target, e.Available)
	}
}

// StockValidator computes available = authoritative - reserved for a
// product/variant and rejects requests that would exceed it.
//
// The check is advisory, not a lock: validation and reservation are separate
// round trips, so concurrent carts can both observe sufficient stock.
type StockValidator struct {
	catalog port.CatalogRepository
	ledger  *ReservationLedger
}

func NewStockValidator(catalog port.CatalogRepository, ledger *ReservationLedger) *StockValidator {
	return &StockValidator{catalog: catalog, ledger: ledger}
}

// Validate checks one line item against authoritative stock minus the
// reservations held by other carts. Reservations held by cartID itself are
// excluded so a cart re-validating (or re-reserving) its own lines does not
// reject itself. Availability failures come back as *StockError; anything
// else is an infrastructure error.
func (v *StockValidator) Validate(ctx context.Context, cartID string, item domain.CartItem) error {
	product, err := v.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return fmt.Errorf("load product %s: %w", item.ProductID, err)
	}
	if product == nil {
		return &StockError{ProductID: item.ProductID, NotFound: true}
	}

	tagIDs := item.SortedTagIDs()
	authoritative, tagID := product.VariantStock(tagIDs)
	if authoritative == 0 {
		return &StockError{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			TagID:       tagID,
			SoldOut:     true,
		}
	}

	reserved, err := v.ledger.reservedQuantityExcluding(ctx, item.ProductID, tagIDs, cartID)
	if err != nil {
		return fmt.Errorf("sum reservations for %s: %w", item.ProductID, err)
	}

	if available := authoritative - reserved; available < item.Quantity {
		return &StockError{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			TagID:       tagID,
			Available:   available,
		}
	}

	return nil
}
