package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxQty is the largest quantity a single line item may hold.
const MaxQty = 1_000_000

// Persister is the durable medium a Store reads on open and writes after
// every successful mutation. Load returns the stored entries undecoded so a
// malformed entry can be dropped on its own; a payload that is not a list at
// all is reported as ErrCorruptState.
type Persister interface {
	Load(ctx context.Context) ([]json.RawMessage, error)
	Save(ctx context.Context, items []LineItem) error
}

type nopPersister struct{}

func (nopPersister) Load(context.Context) ([]json.RawMessage, error) { return nil, nil }
func (nopPersister) Save(context.Context, []LineItem) error          { return nil }

// storedItem is a line item as read back from storage, before validation.
type storedItem struct {
	ItemInput
	Qty int `json:"qty"`
}

// Store owns the line items of one session. All access goes through its
// methods; callers only ever see copies.
type Store struct {
	mu      sync.Mutex
	order   []string
	items   map[string]LineItem
	persist Persister
	durable bool
	// unsaved is set when memory is ahead of storage after a settle whose
	// save failed; storage must not be read back until the save succeeds.
	unsaved atomic.Bool
	logger  *zap.Logger
}

// New returns an empty store. A nil persister keeps the cart in memory only.
func New(p Persister, logger *zap.Logger) *Store {
	durable := p != nil
	if p == nil {
		p = nopPersister{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		items:   make(map[string]LineItem),
		persist: p,
		durable: durable,
		logger:  logger,
	}
}

// Open returns a store restored from p. Stored entries that break the cart
// invariants are dropped or merged and a corrupt payload yields an empty cart.
// A storage failure is returned so the caller never overwrites a cart it
// could not read.
func Open(ctx context.Context, p Persister, logger *zap.Logger) (*Store, error) {
	s := New(p, logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory cart with what is stored, picking up writes
// made by other processes sharing the storage. Memory-only stores keep their
// state.
func (s *Store) Reload(ctx context.Context) error {
	if !s.durable {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unsaved.Load() {
		if err := s.persist.Save(ctx, s.itemsLocked()); err != nil {
			s.logger.Warn("retry save of settled cart", zap.Error(err))
			return nil
		}
		s.unsaved.Store(false)
		return nil
	}
	return s.loadLocked(ctx)
}

func (s *Store) hasUnsaved() bool { return s.unsaved.Load() }

func (s *Store) loadLocked(ctx context.Context) error {
	stored, err := s.persist.Load(ctx)
	repaired := 0
	switch {
	case errors.Is(err, ErrCorruptState):
		s.logger.Warn("discarding unreadable stored cart", zap.Error(err))
		stored, repaired = nil, 1
	case err != nil:
		return fmt.Errorf("load cart: %w", err)
	}

	s.order = nil
	s.items = make(map[string]LineItem)
	repaired += s.restore(stored)
	if repaired == 0 {
		return nil
	}

	s.logger.Warn("repaired stored cart",
		zap.Int("repaired_entries", repaired),
		zap.Int("kept_entries", len(s.order)))
	if err := s.persist.Save(ctx, s.itemsLocked()); err != nil {
		s.logger.Warn("save repaired cart", zap.Error(err))
	}
	return nil
}

// restore loads stored entries and returns how many were dropped, merged or
// capped. Entries are validated like new input; a duplicate id keeps the first
// entry's position, name and price.
func (s *Store) restore(stored []json.RawMessage) int {
	repaired := 0
	for _, raw := range stored {
		var in storedItem
		if err := json.Unmarshal(raw, &in); err != nil {
			repaired++
			continue
		}
		item, err := in.Normalize()
		if err != nil || in.Qty < 1 || in.Qty > MaxQty {
			repaired++
			continue
		}

		if cur, ok := s.items[item.ID]; ok {
			cur.Qty = min(cur.Qty+in.Qty, MaxQty)
			s.items[item.ID] = cur
			repaired++
			continue
		}
		item.Qty = in.Qty
		s.order = append(s.order, item.ID)
		s.items[item.ID] = item
	}
	return repaired
}

// Add puts qty units of the described item into the cart. An id already in the
// cart has its quantity incremented and its name and price refreshed.
func (s *Store) Add(ctx context.Context, in ItemInput, qty int) error {
	item, err := in.Normalize()
	if err != nil {
		return err
	}
	if qty < 1 {
		return invalid("qty", "must be a positive integer")
	}
	if qty > MaxQty {
		return invalid("qty", fmt.Sprintf("must not exceed %d", MaxQty))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.items[item.ID]; ok && cur.Qty > MaxQty-qty {
		return invalid("qty", fmt.Sprintf("line would exceed %d", MaxQty))
	}

	return s.mutate(ctx, func() bool {
		if cur, ok := s.items[item.ID]; ok {
			cur.Qty += qty
			cur.Name = item.Name
			cur.Price = item.Price
			s.items[item.ID] = cur
			return true
		}
		item.Qty = qty
		s.order = append(s.order, item.ID)
		s.items[item.ID] = item
		return true
	})
}

// Remove deletes the line item with the given id. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = s.resolveLocked(id)
	return s.mutate(ctx, func() bool { return s.removeLocked(id) })
}

// UpdateQuantity replaces the quantity of an item. qty <= 0 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id string, qty int) error {
	if qty > MaxQty {
		return invalid("qty", fmt.Sprintf("must not exceed %d", MaxQty))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id = s.resolveLocked(id)
	if qty <= 0 {
		return s.mutate(ctx, func() bool { return s.removeLocked(id) })
	}

	cur, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrItemNotInCart, id)
	}
	if cur.Qty == qty {
		return nil
	}
	return s.mutate(ctx, func() bool {
		cur.Qty = qty
		s.items[id] = cur
		return true
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, func() bool {
		s.resetLocked()
		return true
	})
}

// Settle hands the current contents to fn and clears the cart once fn
// succeeds, all under one lock so nothing added meanwhile is lost. An empty
// cart returns ErrEmptyCart without calling fn.
//
// Once fn has succeeded the cart stays cleared in memory even if saving the
// empty cart fails; the save is retried on the next Reload or mutation.
func (s *Store) Settle(ctx context.Context, fn func(Snapshot) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.itemsLocked()
	if len(items) == 0 {
		return Snapshot{}, ErrEmptyCart
	}
	snap := Snapshot{Items: items, TotalPrice: totalOf(items), Count: s.countLocked()}

	if err := fn(snap); err != nil {
		return Snapshot{}, err
	}

	s.resetLocked()
	if err := s.persist.Save(ctx, nil); err != nil {
		s.unsaved.Store(true)
		s.logger.Error("save settled cart", zap.Error(err))
	}
	return snap, nil
}

// Total is recomputed from the current line items on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalOf(s.itemsLocked())
}

// Count is the number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.itemsLocked()
	return Snapshot{
		Items:      items,
		TotalPrice: totalOf(items),
		Count:      s.countLocked(),
	}
}

// mutate applies fn and saves the result. When saving fails the in-memory
// state is restored so memory and storage agree. Caller must hold s.mu.
func (s *Store) mutate(ctx context.Context, fn func() bool) error {
	prevOrder := append([]string(nil), s.order...)
	prevItems := make(map[string]LineItem, len(s.items))
	for k, v := range s.items {
		prevItems[k] = v
	}

	if !fn() {
		return nil
	}

	if err := s.persist.Save(ctx, s.itemsLocked()); err != nil {
		s.order = prevOrder
		s.items = prevItems
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.unsaved.Store(false)
	return nil
}

// resolveLocked maps an id from a path or query to the key it is stored
// under. An exact match wins; otherwise numeric ids are compared in canonical
// form, so "1.0" finds an item added with id 1.
func (s *Store) resolveLocked(id string) string {
	id = normalizeID(id)
	if _, ok := s.items[id]; ok {
		return id
	}
	if canon, ok := canonicalNumber(id); ok {
		return canon
	}
	return id
}

func (s *Store) resetLocked() {
	s.order = nil
	s.items = make(map[string]LineItem)
}

func (s *Store) removeLocked(id string) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) itemsLocked() []LineItem {
	out := make([]LineItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

func (s *Store) countLocked() int {
	n := 0
	for _, it := range s.items {
		n += it.Qty
	}
	return n
}
