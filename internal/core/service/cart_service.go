package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/domain"
	"github.com/Carlos-mc14/elhtcrls-sub000/internal/port"
)

var (
	ErrCartNotActive   = errors.New("cart not active")
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")
)

// PartialFinalizeError reports a finalize that stopped mid-way through the
// line items. Earlier decrements are not rolled back: the cart stays active
// while already-decremented products are under-represented in the ledger
// until it expires. Callers must not assume stock and reservations are still
// consistent.
type PartialFinalizeError struct {
	ProductID   string
	ProductName string
	Decremented int
	Err         error
}

func (e *PartialFinalizeError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("finalize stopped at %s after %d decremented item(s): %v", name, e.Decremented, e.Err)
}

func (e *PartialFinalizeError) Unwrap() error { return e.Err }

// CartValidation is the result of re-checking every line of a stored cart.
type CartValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// CartService is the engine's surface for request handlers: it persists
// client-composed carts, reserves stock for them, re-validates them on read,
// and converts them into completed sales.
type CartService struct {
	store     *CartStore
	ledger    *ReservationLedger
	validator *StockValidator
	catalog   port.CatalogRepository
}

func NewCartService(store *CartStore, ledger *ReservationLedger, validator *StockValidator, catalog port.CatalogRepository) *CartService {
	return &CartService{
		store:     store,
		ledger:    ledger,
		validator: validator,
		catalog:   catalog,
	}
}

// GetCart never errors on an unknown id: it returns the empty-active-cart
// sentinel instead. Transport errors still propagate.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.store.Get(ctx, cartID)
}

// SaveCart persists the client-composed item list as the cart's new
// contents and reserves stock for every line. Equal lines (same product,
// same tag set) are merged, snapshots are refreshed from the catalog, and
// totals are recomputed. If any line fails validation the whole call fails
// and no reservation is written.
//
// An empty id mints a new cart.
func (s *CartService) SaveCart(ctx context.Context, cartID string, items []domain.CartItem, customerName, customerPhone string) (*domain.Cart, error) {
	if cartID == "" {
		cartID = uuid.NewString()
	}

	existing, err := s.store.Load(ctx, cartID)
	if err != nil && !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status != domain.CartStatusActive {
		return nil, ErrCartNotActive
	}

	cart := domain.NewCart(cartID)
	if existing != nil {
		cart.CreatedAt = existing.CreatedAt
	}
	cart.CustomerName = customerName
	cart.CustomerPhone = customerPhone

	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, ErrInvalidQuantity)
		}

		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", item.ProductID, err)
		}
		if product == nil {
			return nil, &StockError{ProductID: item.ProductID, NotFound: true}
		}

		item.ProductName = product.Name
		item.ProductImage = product.Image
		if item.Price == 0 {
			item.Price = product.Price
		}
		cart.AddItem(item)
	}

	for _, item := range cart.Items {
		if err := s.validator.Validate(ctx, cart.ID, item); err != nil {
			return nil, err
		}
	}

	// Drop reservations for lines no longer present, then write the current
	// set. Keys are deterministic, so this never double-counts.
	if err := s.ledger.Release(ctx, cart.ID); err != nil {
		return nil, err
	}
	if err := s.ledger.Reserve(ctx, cart.ID, cart.Items); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// DeleteCart abandons a cart: all outstanding reservations are released and
// the stored aggregate is removed. Safe on ids that were never persisted.
func (s *CartService) DeleteCart(ctx context.Context, cartID string) error {
	if err := s.ledger.Release(ctx, cartID); err != nil {
		return err
	}
	return s.store.Delete(ctx, cartID)
}

// ValidateCart re-runs the stock check for every line of a stored cart and
// aggregates the failures without mutating anything. Unknown ids validate
// clean (the sentinel has no items).
func (s *CartService) ValidateCart(ctx context.Context, cartID string) (*CartValidation, error) {
	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	result := &CartValidation{Valid: true, Errors: []string{}}
	for _, item := range cart.Items {
		err := s.validator.Validate(ctx, cart.ID, item)
		if err == nil {
			continue
		}
		var stockErr *StockError
		if !errors.As(err, &stockErr) {
			return nil, err
		}
		result.Valid = false
		result.Errors = append(result.Errors, stockErr.Error())
	}

	return result, nil
}

// FinalizeCart converts an active cart into a completed sale: every line's
// quantity is decremented from authoritative catalog stock, the cart is
// marked sold and its reservations are released. The transition is
// monotonic; finalizing a sold cart fails with ErrCartNotActive and touches
// nothing.
//
// Decrements are applied per line with no cross-item transaction. A failure
// at line k leaves lines 1..k-1 decremented and returns a
// *PartialFinalizeError; the cart stays active.
func (s *CartService) FinalizeCart(ctx context.Context, cartID, operatorID string) (*domain.Cart, error) {
	cart, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != domain.CartStatusActive {
		return nil, ErrCartNotActive
	}

	for i, item := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, &PartialFinalizeError{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Decremented: i,
				Err:         err,
			}
		}

		tagID := ""
		if product != nil {
			_, tagID = product.VariantStock(item.SortedTagIDs())
		}

		if err := s.catalog.DecrementStock(ctx, item.ProductID, item.Quantity, tagID); err != nil {
			return nil, &PartialFinalizeError{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Decremented: i,
				Err:         err,
			}
		}
	}

	cart.MarkSold(operatorID)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}

	// Stock is already decremented and the cart is sold; a failed release
	// only leaves reservations to age out via TTL.
	if err := s.ledger.Release(ctx, cartID); err != nil {
		log.Printf("finalize %s: release reservations: %v", cartID, err)
	}

	return cart, nil
}

// ListActiveCarts returns every cart still marked active, newest first.
func (s *CartService) ListActiveCarts(ctx context.Context) ([]*domain.Cart, error) {
	return s.store.ListActive(ctx)
}
