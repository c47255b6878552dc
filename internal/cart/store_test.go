package cart

import (
	"errors"
	"testing"

	"orderup/internal/domain"
)

func item(id string, price domain.Money) domain.MenuItem {
	return domain.MenuItem{ID: id, Name: id, Price: price, Currency: "KES"}
}

func TestStoreAddItemMergesLines(t *testing.T) {
	s := NewStore(FlatFee{Amount: 150}, "KES")
	if err := s.AddItem(item("burger", 550), 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddItem(item("burger", 550), 2); err != nil {
		t.Fatalf("add again: %v", err)
	}
	if s.LineCount() != 1 {
		t.Fatalf("expected one line, got %d", s.LineCount())
	}
	lines := s.Lines()
	if lines[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", lines[0].Quantity)
	}
}

func TestStoreAddItemRejectsNonPositive(t *testing.T) {
	s := NewStore(nil, "")
	for _, q := range []int{0, -3} {
		err := s.AddItem(item("burger", 550), q)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", q, err)
		}
		var qe *InvalidQuantityError
		if !errors.As(err, &qe) || qe.Quantity != q {
			t.Fatalf("quantity %d: unexpected error %#v", q, err)
		}
	}
	if !s.IsEmpty() {
		t.Fatalf("cart should stay empty")
	}
}

func TestStoreQuantityCap(t *testing.T) {
	s := NewStore(FlatFee{Amount: 150}, "KES")
	if err := s.AddItem(item("burger", 55000), 167697673397360); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for a huge quantity, got %v", err)
	}
	if !s.IsEmpty() {
		t.Fatalf("cart should stay empty")
	}

	if err := s.AddItem(item("burger", 55000), MaxLineQuantity); err != nil {
		t.Fatalf("add at the cap: %v", err)
	}
	err := s.AddItem(item("burger", 55000), 1)
	var qe *InvalidQuantityError
	if !errors.As(err, &qe) || qe.Quantity != MaxLineQuantity+1 {
		t.Fatalf("expected merged quantity to be rejected, got %v", err)
	}
	if err := s.UpdateQuantity("burger", MaxLineQuantity+1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected update above the cap to be rejected, got %v", err)
	}
	if got := s.Lines()[0].Quantity; got != MaxLineQuantity {
		t.Fatalf("rejected change altered the line: %d", got)
	}
	if s.Subtotal() != 55000*MaxLineQuantity || s.Total() <= s.Subtotal() {
		t.Fatalf("unexpected totals %d / %d", s.Subtotal(), s.Total())
	}
}

func TestStoreAddItemCurrencyMismatch(t *testing.T) {
	s := NewStore(nil, "KES")
	it := item("latte", 300)
	it.Currency = "USD"
	if err := s.AddItem(it, 1); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestStoreScenarioTotals(t *testing.T) {
	s := NewStore(FlatFee{Amount: 150}, "KES")
	_ = s.AddItem(item("Burger", 550), 2)
	_ = s.AddItem(item("Fries", 250), 1)

	if got := s.Subtotal(); got != 1350 {
		t.Fatalf("subtotal: expected 1350, got %d", got)
	}
	if got := s.Fees(); got != 150 {
		t.Fatalf("fees: expected 150, got %d", got)
	}
	if got := s.Total(); got != 1500 {
		t.Fatalf("total: expected 1500, got %d", got)
	}
	if s.LineCount() != 2 || s.TotalItemCount() != 3 {
		t.Fatalf("expected 2 lines / 3 items, got %d / %d", s.LineCount(), s.TotalItemCount())
	}
}

func TestStoreUpdateQuantity(t *testing.T) {
	s := NewStore(FlatFee{Amount: 150}, "KES")
	_ = s.AddItem(item("Burger", 550), 2)
	_ = s.AddItem(item("Fries", 250), 1)

	s.UpdateQuantity("Fries", 4)
	if got := s.Subtotal(); got != 2100 {
		t.Fatalf("expected 2100 after update, got %d", got)
	}

	s.UpdateQuantity("Burger", 0)
	if s.LineCount() != 1 {
		t.Fatalf("expected line removed, got %d lines", s.LineCount())
	}

	if err := s.AddItem(item("Burger", 550), 1); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	lines := s.Lines()
	if len(lines) != 2 || lines[1].Item.ID != "Burger" || lines[1].Quantity != 1 {
		t.Fatalf("expected Burger re-added as a fresh trailing line, got %+v", lines)
	}
}

func TestStoreUpdateQuantityNegativeRemoves(t *testing.T) {
	a := NewStore(nil, "KES")
	b := NewStore(nil, "KES")
	for _, s := range []*Store{a, b} {
		_ = s.AddItem(item("Burger", 550), 2)
		_ = s.AddItem(item("Fries", 250), 1)
	}
	a.UpdateQuantity("Burger", -1)
	b.UpdateQuantity("Burger", 0)

	if a.LineCount() != b.LineCount() || a.Subtotal() != b.Subtotal() {
		t.Fatalf("-1 and 0 should behave the same: %d/%d vs %d/%d",
			a.LineCount(), a.Subtotal(), b.LineCount(), b.Subtotal())
	}
	for _, l := range a.Lines() {
		if l.Quantity < 1 {
			t.Fatalf("line stored with quantity %d", l.Quantity)
		}
	}
}

func TestStoreMissingItemIsNoop(t *testing.T) {
	s := NewStore(nil, "KES")
	_ = s.AddItem(item("Burger", 550), 1)
	s.UpdateQuantity("ghost", 5)
	s.RemoveItem("ghost")
	if s.LineCount() != 1 || s.Subtotal() != 550 {
		t.Fatalf("no-op mutations changed the cart: %+v", s.Lines())
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore(FlatFee{Amount: 150}, "KES")
	_ = s.AddItem(item("Burger", 550), 2)
	s.Clear()
	s.Clear()
	if s.Subtotal() != 0 || s.LineCount() != 0 || s.Total() != 0 {
		t.Fatalf("expected empty cart, got subtotal=%d lines=%d total=%d", s.Subtotal(), s.LineCount(), s.Total())
	}
}

func TestStoreNoFloatDrift(t *testing.T) {
	s := NewStore(nil, "KES")
	// 0.10 in minor units; a float64 sum of 0.1 drifts after a few additions.
	for i := 0; i < 1000; i++ {
		_ = s.AddItem(item("tea", 10), 1)
	}
	if got := s.Subtotal(); got != 10000 {
		t.Fatalf("expected exactly 10000, got %d", got)
	}
	if got := s.Subtotal().Format("KES"); got != "KSh 100.00" {
		t.Fatalf("unexpected formatted subtotal %q", got)
	}
}

func TestStoreSubtotalMatchesLines(t *testing.T) {
	s := NewStore(nil, "KES")
	ops := []func(){
		func() { _ = s.AddItem(item("a", 333), 3) },
		func() { _ = s.AddItem(item("b", 17), 7) },
		func() { s.UpdateQuantity("a", 1) },
		func() { _ = s.AddItem(item("c", 1), 99) },
		func() { s.RemoveItem("b") },
		func() { _ = s.AddItem(item("a", 333), 4) },
		func() { s.UpdateQuantity("c", -5) },
	}
	for i, op := range ops {
		op()
		var want domain.Money
		for _, l := range s.Lines() {
			want += l.Item.Price * domain.Money(l.Quantity)
		}
		if got := s.Subtotal(); got != want {
			t.Fatalf("step %d: subtotal %d, lines sum %d", i, got, want)
		}
	}
}

func TestStoreSnapshotIsFrozen(t *testing.T) {
	s := NewStore(FlatFee{Amount: 150}, "KES")
	_ = s.AddItem(item("Burger", 550), 2)
	snap := s.Snapshot()

	_ = s.AddItem(item("Fries", 250), 1)
	s.UpdateQuantity("Burger", 9)

	if len(snap.Lines) != 1 || snap.Lines[0].Quantity != 2 {
		t.Fatalf("snapshot lines changed: %+v", snap.Lines)
	}
	if snap.Subtotal != 1100 || snap.Total != 1250 {
		t.Fatalf("snapshot totals changed: %+v", snap)
	}
}

func TestPercentageFeeRounding(t *testing.T) {
	p := PercentageFee{RateBPS: 800}
	if got := p.Fees(1350, 2); got != 108 {
		t.Fatalf("expected 108, got %d", got)
	}
	// 8% of 1356 = 108.48 -> 108; 8% of 1357 = 108.56 -> 109
	if got := p.Fees(1356, 1); got != 108 {
		t.Fatalf("expected 108, got %d", got)
	}
	if got := p.Fees(1357, 1); got != 109 {
		t.Fatalf("expected 109, got %d", got)
	}
	if got := p.Fees(0, 0); got != 0 {
		t.Fatalf("expected no fee on empty cart, got %d", got)
	}
}

func TestNewFeePolicy(t *testing.T) {
	p, err := NewFeePolicy("", 15000, 800)
	if err != nil || p.Name() != "flat" {
		t.Fatalf("expected flat default, got %v %v", p, err)
	}
	p, err = NewFeePolicy("Percentage", 15000, 800)
	if err != nil || p.Name() != "percentage" {
		t.Fatalf("expected percentage, got %v %v", p, err)
	}
	if _, err := NewFeePolicy("tiered", 0, 0); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestFlatFeeEmptyCart(t *testing.T) {
	s := NewStore(FlatFee{Amount: 150}, "KES")
	if s.Fees() != 0 || s.Total() != 0 {
		t.Fatalf("empty cart should carry no fee")
	}
}
