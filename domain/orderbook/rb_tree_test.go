package orderbook

import "testing"

func TestLadder_BestAndWorstTrackExtremes(t *testing.T) {
	l := newLadder()
	prices := []uint64{1005, 995, 1000, 990, 1010}
	for _, p := range prices {
		l.GetOrCreate(p)
	}

	if got := l.Best(); got == nil || got.Price != 990 {
		t.Fatalf("expected best (lowest) price 990, got %+v", got)
	}
	if got := l.Worst(); got == nil || got.Price != 1010 {
		t.Fatalf("expected worst (highest) price 1010, got %+v", got)
	}
	if l.Size() != len(prices) {
		t.Fatalf("expected size %d, got %d", len(prices), l.Size())
	}
}

func TestLadder_GetOrCreateIsIdempotent(t *testing.T) {
	l := newLadder()
	a := l.GetOrCreate(1000)
	b := l.GetOrCreate(1000)
	if a != b {
		t.Fatalf("expected the same PriceLevel pointer for repeated GetOrCreate at the same price")
	}
	if l.Size() != 1 {
		t.Fatalf("expected a single level, got %d", l.Size())
	}
}

func TestLadder_DeleteRecyclesLevel(t *testing.T) {
	l := newLadder()
	l.GetOrCreate(1000)
	l.Delete(1000)

	if l.Size() != 0 {
		t.Fatalf("expected empty ladder after delete, got size %d", l.Size())
	}
	if l.Find(1000) != nil {
		t.Fatalf("expected no level at 1000 after delete")
	}

	// A recycled level must come back zeroed, not carrying stale state.
	fresh := l.GetOrCreate(2000)
	if fresh.TotalQuantity != 0 || fresh.OrderCount != 0 || !fresh.Empty() {
		t.Fatalf("expected recycled level to be reset, got %+v", fresh)
	}
}

func TestLadder_ForEachOrderingAndEarlyStop(t *testing.T) {
	l := newLadder()
	for _, p := range []uint64{1000, 1002, 1001, 1003} {
		l.GetOrCreate(p)
	}

	var ascending []uint64
	l.ForEachAscending(func(p *PriceLevel) bool {
		ascending = append(ascending, p.Price)
		return true
	})
	want := []uint64{1000, 1001, 1002, 1003}
	if !equalPrices(ascending, want) {
		t.Fatalf("ascending order mismatch: got %v want %v", ascending, want)
	}

	var firstTwo []uint64
	l.ForEachDescending(func(p *PriceLevel) bool {
		firstTwo = append(firstTwo, p.Price)
		return len(firstTwo) < 2
	})
	if !equalPrices(firstTwo, []uint64{1003, 1002}) {
		t.Fatalf("descending early-stop mismatch: got %v", firstTwo)
	}
}

func equalPrices(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
