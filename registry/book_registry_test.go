package registry

import (
	"testing"

	"lob/domain/orderbook"
)

func newLimit(id uint64, symbolID uint32, side orderbook.Side, qty, price uint64) *orderbook.Order {
	return &orderbook.Order{
		ID:       id,
		SymbolID: symbolID,
		Side:     side,
		Type:     orderbook.Limit,
		Quantity: qty,
		Price:    price,
	}
}

func TestBookFor_LazilyCreatesDistinctBooksPerSymbol(t *testing.T) {
	r := New()

	a := r.BookFor(1)
	b := r.BookFor(2)
	aAgain := r.BookFor(1)

	if a == b {
		t.Fatalf("expected distinct books for distinct symbols")
	}
	if a != aAgain {
		t.Fatalf("expected BookFor to return the same book on repeat calls")
	}
}

func TestGetMarketData_UnmaterializedSymbolReturnsZeroValueWithoutCreatingBook(t *testing.T) {
	r := New()

	snap := r.GetMarketData(7)
	if snap.SymbolID != 7 {
		t.Fatalf("expected zero-value snapshot to still carry the requested symbol id, got %+v", snap)
	}
	if snap.BestBidPrice != 0 || snap.Volume != 0 {
		t.Fatalf("expected a zero-filled snapshot, got %+v", snap)
	}
	if _, ok := r.lookup(7); ok {
		t.Fatalf("GetMarketData must not materialize a book as a side effect")
	}
}

func TestGetBidLevels_UnmaterializedSymbolReturnsNil(t *testing.T) {
	r := New()
	if levels := r.GetBidLevels(9, 5); levels != nil {
		t.Fatalf("expected nil levels for a never-touched symbol, got %v", levels)
	}
	if levels := r.GetAskLevels(9, 5); levels != nil {
		t.Fatalf("expected nil levels for a never-touched symbol, got %v", levels)
	}
}

func TestCancelOrder_FansOutAcrossBooksAndFindsTheRightOne(t *testing.T) {
	r := New()

	resting := newLimit(100, 2, orderbook.Buy, 10, 50)
	r.BookFor(1)
	r.BookFor(2).AddOrder(resting)
	r.BookFor(3)

	ok, snap := r.CancelOrder(100)
	if !ok {
		t.Fatalf("expected cancel to find order 100 in symbol 2's book")
	}
	if snap.SymbolID != 2 {
		t.Fatalf("expected snapshot from symbol 2, got symbol %d", snap.SymbolID)
	}
}

func TestCancelOrder_UnknownIDAcrossAllBooksReturnsFalse(t *testing.T) {
	r := New()
	r.BookFor(1)
	r.BookFor(2)

	ok, _ := r.CancelOrder(999)
	if ok {
		t.Fatalf("expected cancel of an unknown id to fail across every book")
	}
}

func TestModifyOrder_FansOutAndRematches(t *testing.T) {
	r := New()

	resting := newLimit(1, 5, orderbook.Buy, 10, 50)
	r.BookFor(5).AddOrder(resting)

	trades, snap, ok := r.ModifyOrder(1, 20, nil)
	if !ok {
		t.Fatalf("expected modify to find order 1 in symbol 5's book")
	}
	if len(trades) != 0 {
		t.Fatalf("expected no trades from a quantity-only modify against an empty opposing side, got %v", trades)
	}
	if snap.SymbolID != 5 {
		t.Fatalf("expected snapshot from symbol 5, got symbol %d", snap.SymbolID)
	}
}

func TestSymbolsAscending_OrdersMaterializedSymbolsNumerically(t *testing.T) {
	r := New()
	r.BookFor(30)
	r.BookFor(10)
	r.BookFor(20)

	ids := r.symbolsAscending()
	want := []uint32{10, 20, 30}
	if len(ids) != len(want) {
		t.Fatalf("expected %d symbols, got %d: %v", len(want), len(ids), ids)
	}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("expected ascending order %v, got %v", want, ids)
		}
	}
}
