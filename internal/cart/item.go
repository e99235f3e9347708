package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemID accepts either a JSON string or a JSON number. Numbers are stored in
// their canonical decimal form so that 1, 1.0 and "1" name the same item.
type ItemID string

func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("item id: %w", err)
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}

	canon, ok := canonicalNumber(string(b))
	if !ok {
		return fmt.Errorf("item id must be a string or a number, got %s", b)
	}
	*id = ItemID(canon)
	return nil
}

// canonicalNumber reports the canonical decimal form of s when s is a number.
func canonicalNumber(s string) (string, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}
	return d.String(), true
}

// ItemInput is the loosely shaped item descriptor sent by the views.
type ItemInput struct {
	ID    ItemID           `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
}

// Normalize validates the descriptor and returns it as a line item with a zero
// quantity; the caller decides how many units to apply.
func (in ItemInput) Normalize() (LineItem, error) {
	id := strings.TrimSpace(string(in.ID))
	if id == "" {
		return LineItem{}, invalid("id", "is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return LineItem{}, invalid("name", "is required")
	}
	if in.Price == nil {
		return LineItem{}, invalid("price", "is required")
	}
	if in.Price.IsNegative() {
		return LineItem{}, invalid("price", "must not be negative")
	}
	return LineItem{ID: id, Name: name, Price: *in.Price}, nil
}

func normalizeID(id string) string { return strings.TrimSpace(id) }
