package domain

// TagStock is a variant-scoped inventory pool (e.g. per size).
type TagStock struct {
	TagID string `json:"tagId"`
	Stock int    `json:"stock"`
}

// Product is the catalog's view of an item: authoritative stock plus any
// per-variant pools. The engine only reads it; decrements go through the
// catalog collaborator at finalize time.
type Product struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Image    string     `json:"image"`
	Price    float64    `json:"price"`
	Stock    int        `json:"stock"`
	TagStock []TagStock `json:"tagStock"`
}

// VariantStock resolves which stock pool a selection of tags draws from.
// When one of the selected tags has its own pool, that pool wins and its tag
// id is returned; otherwise the general stock applies and tagID is empty.
func (p Product) VariantStock(tagIDs []string) (stock int, tagID string) {
	for _, id := range tagIDs {
		for _, ts := range p.TagStock {
			if ts.TagID == id {
				return ts.Stock, ts.TagID
			}
		}
	}
	return p.Stock, ""
}
