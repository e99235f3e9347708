package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

const CartKey = "cart"

// CartPersister stores a session's cart as a JSON array under CartKey. Load
// only splits the array; each entry is validated by the cart on restore.
type CartPersister struct {
	Store     Store
	Namespace string
}

func (p CartPersister) Load(ctx context.Context) ([]json.RawMessage, error) {
	raw, ok, err := p.Store.Get(ctx, p.Namespace, CartKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", cart.ErrCorruptState, err)
	}
	return entries, nil
}

func (p CartPersister) Save(ctx context.Context, items []cart.LineItem) error {
	if len(items) == 0 {
		return p.Store.Delete(ctx, p.Namespace, CartKey)
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return p.Store.Set(ctx, p.Namespace, CartKey, string(raw))
}

// CartPersisters binds the cart registry to a Store, one namespace per session.
func CartPersisters(s Store) cart.PersisterFactory {
	return func(sessionID string) cart.Persister {
		return CartPersister{Store: s, Namespace: sessionID}
	}
}
