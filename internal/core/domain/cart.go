package domain

import (
	"encoding/json"
	"sort"
	"time"
)

type CartStatus string

const (
	CartStatusActive CartStatus = "active"
	CartStatusSold   CartStatus = "sold"
)

// SelectedTag is a variant attribute chosen for a line item (e.g. a size).
type SelectedTag struct {
	TagID    string `json:"tagId"`
	TagName  string `json:"tagName"`
	TagColor string `json:"tagColor"`
}

// CartItem is one product+variant line. Two items with the same product id
// and the same set of selected tag ids are the same line, regardless of tag
// order, and must be merged rather than duplicated.
type CartItem struct {
	ProductID    string        `json:"productId"`
	ProductName  string        `json:"productName"`
	ProductImage string        `json:"productImage"`
	Price        float64       `json:"price"`
	Quantity     int           `json:"quantity"`
	SelectedTags []SelectedTag `json:"selectedTags"`
	TotalPrice   float64       `json:"totalPrice"`
}

// SortedTagIDs returns the item's tag ids as a new, sorted slice.
func (i CartItem) SortedTagIDs() []string {
	ids := make([]string, 0, len(i.SelectedTags))
	for _, t := range i.SelectedTags {
		ids = append(ids, t.TagID)
	}
	sort.Strings(ids)
	return ids
}

// VariantKey is the canonical encoding of the item's variant identity.
func (i CartItem) VariantKey() string {
	return VariantKey(i.SortedTagIDs())
}

// VariantKey encodes a tag-id list as a canonical string: the ids are sorted
// explicitly before encoding so the key never depends on input order.
func VariantKey(tagIDs []string) string {
	ids := make([]string, len(tagIDs))
	copy(ids, tagIDs)
	sort.Strings(ids)
	b, _ := json.Marshal(ids)
	return string(b)
}

type Cart struct {
	ID            string     `json:"id"`
	Items         []CartItem `json:"items"`
	TotalItems    int        `json:"totalItems"`
	TotalPrice    float64    `json:"totalPrice"`
	Status        CartStatus `json:"status"`
	CustomerName  string     `json:"customerName,omitempty"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	SoldAt        *time.Time `json:"soldAt,omitempty"`
	SoldBy        string     `json:"soldBy,omitempty"`
}

// NewCart returns an empty active cart. This is also the sentinel returned
// for unknown cart ids: callers distinguish "never existed" from "exists but
// empty" only by item count.
func NewCart(id string) *Cart {
	now := time.Now()
	return &Cart{
		ID:        id,
		Items:     []CartItem{},
		Status:    CartStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem appends a line or, when an existing line has the same product and
// variant identity, merges into it by summing quantities. Totals are
// recomputed either way.
func (c *Cart) AddItem(item CartItem) {
	key := item.VariantKey()
	for idx := range c.Items {
		if c.Items[idx].ProductID == item.ProductID && c.Items[idx].VariantKey() == key {
			c.Items[idx].Quantity += item.Quantity
			c.recomputeTotals()
			return
		}
	}
	c.Items = append(c.Items, item)
	c.recomputeTotals()
}

// recomputeTotals rederives every per-line total and the cart totals from
// the items. Totals are never trusted as independently mutable state.
func (c *Cart) recomputeTotals() {
	totalItems := 0
	totalPrice := 0.0
	for idx := range c.Items {
		c.Items[idx].TotalPrice = float64(c.Items[idx].Quantity) * c.Items[idx].Price
		totalItems += c.Items[idx].Quantity
		totalPrice += c.Items[idx].TotalPrice
	}
	c.TotalItems = totalItems
	c.TotalPrice = totalPrice
	c.UpdatedAt = time.Now()
}

// MarkSold transitions the cart to sold. The transition is monotonic: a cart
// that is not active is left untouched.
func (c *Cart) MarkSold(operatorID string) {
	if c.Status != CartStatusActive {
		return
	}
	now := time.Now()
	c.Status = CartStatusSold
	c.SoldAt = &now
	c.SoldBy = operatorID
	c.UpdatedAt = now
}
