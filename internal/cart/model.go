package cart

import "github.com/shopspring/decimal"

// LineItem is one purchasable item in the cart and the quantity requested.
type LineItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

func (it LineItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Qty)))
}

// Snapshot is a read-only copy of the cart taken under a single lock.
type Snapshot struct {
	Items      []LineItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Count      int             `json:"count"`
}

func (s Snapshot) Empty() bool { return len(s.Items) == 0 }

func totalOf(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
