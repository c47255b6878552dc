// Package cart holds the per-session cart and the totals derived from it.
package cart

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"orderup/internal/domain"
)

var (
	// ErrInvalidQuantity is matched by every *InvalidQuantityError.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrCurrencyMismatch is returned when an item is priced in another currency.
	ErrCurrencyMismatch = errors.New("item currency does not match cart currency")
)

// MaxLineQuantity caps the quantity of a single line.
const MaxLineQuantity = 99

// InvalidQuantityError reports a quantity outside 1..MaxLineQuantity.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	if e.Quantity > MaxLineQuantity {
		return fmt.Sprintf("quantity must be at most %d, got %d", MaxLineQuantity, e.Quantity)
	}
	return fmt.Sprintf("quantity must be at least 1, got %d", e.Quantity)
}

func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// Store is the authoritative cart of one session. Totals are derived from the
// lines on every read and cannot be set.
type Store struct {
	mu       sync.Mutex
	policy   FeePolicy
	currency string
	order    []string
	lines    map[string]*domain.CartLine
	now      func() time.Time
}

// NewStore creates an empty cart priced in currency with the given fee policy.
func NewStore(policy FeePolicy, currency string) *Store {
	if policy == nil {
		policy = FlatFee{}
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &Store{
		policy:   policy,
		currency: strings.ToUpper(currency),
		lines:    make(map[string]*domain.CartLine),
		now:      time.Now,
	}
}

// Currency returns the cart's currency code.
func (s *Store) Currency() string {
	return s.currency
}

// AddItem merges quantity into the item's line, creating it if needed. The
// merged quantity may not exceed MaxLineQuantity.
func (s *Store) AddItem(item domain.MenuItem, quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return &InvalidQuantityError{Quantity: quantity}
	}
	if item.Currency != "" && !strings.EqualFold(item.Currency, s.currency) {
		return ErrCurrencyMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if line, ok := s.lines[item.ID]; ok {
		if merged := line.Quantity + quantity; merged > MaxLineQuantity {
			return &InvalidQuantityError{Quantity: merged}
		}
		line.Quantity += quantity
		return nil
	}
	s.lines[item.ID] = &domain.CartLine{Item: item, Quantity: quantity}
	s.order = append(s.order, item.ID)
	return nil
}

// UpdateQuantity sets the line's quantity. Zero or less removes the line; an
// unknown id is ignored. Above MaxLineQuantity the line is left unchanged.
func (s *Store) UpdateQuantity(itemID string, quantity int) error {
	if quantity > MaxLineQuantity {
		return &InvalidQuantityError{Quantity: quantity}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[itemID]
	if !ok {
		return nil
	}
	if quantity <= 0 {
		s.removeLocked(itemID)
		return nil
	}
	line.Quantity = quantity
	return nil
}

// RemoveItem drops the line if present.
func (s *Store) RemoveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(itemID)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = make(map[string]*domain.CartLine)
	s.order = nil
}

func (s *Store) Subtotal() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

func (s *Store) Fees() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Fees(s.subtotalLocked(), len(s.order))
}

func (s *Store) Total() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.subtotalLocked()
	return sub + s.policy.Fees(sub, len(s.order))
}

// LineCount is the number of distinct items.
func (s *Store) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// TotalItemCount is the sum of quantities, shown as "Cart (N items)".
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range s.order {
		n += s.lines[id].Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	return s.LineCount() == 0
}

// Lines returns a copy of the lines in the order they were first added.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked()
}

// Snapshot freezes the current lines and totals. Later mutations of the
// store do not affect the returned value.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.subtotalLocked()
	fees := s.policy.Fees(sub, len(s.order))
	return domain.CartSnapshot{
		Lines:      s.linesLocked(),
		Subtotal:   sub,
		Fees:       fees,
		Total:      sub + fees,
		Currency:   s.currency,
		CapturedAt: s.now().UTC(),
	}
}

func (s *Store) removeLocked(itemID string) {
	if _, ok := s.lines[itemID]; !ok {
		return
	}
	delete(s.lines, itemID)
	for i, id := range s.order {
		if id == itemID {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) subtotalLocked() domain.Money {
	var sub domain.Money
	for _, id := range s.order {
		sub += s.lines[id].LineTotal()
	}
	return sub
}

func (s *Store) linesLocked() []domain.CartLine {
	out := make([]domain.CartLine, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.lines[id])
	}
	return out
}
