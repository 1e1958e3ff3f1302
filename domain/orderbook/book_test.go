package orderbook

import "testing"

func newOrder(id uint64, side Side, typ Type, qty, price uint64) *Order {
	return &Order{ID: id, SymbolID: 1, Side: side, Type: typ, Quantity: qty, Price: price}
}

// S1: resting limit order with no crossable liquidity simply rests.
func TestAddOrder_RestsWhenNothingCrosses(t *testing.T) {
	b := NewOrderBook(1)

	trades, snap := b.AddOrder(newOrder(1, Buy, Limit, 100, 990))
	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
	if snap.BestBidPrice != 990 || snap.BestBidQuantity != 100 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	o, ok := b.lookup(1)
	if !ok || o.Status != New {
		t.Fatalf("expected order 1 to be resting NEW, got %+v", o)
	}
}

// S2: a crossing limit order fills at the resting order's price, not its own.
func TestAddOrder_TradesAtRestingPrice(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Sell, Limit, 100, 1000))

	trades, _ := b.AddOrder(newOrder(2, Buy, Limit, 100, 1005))
	if len(trades) != 1 {
		t.Fatalf("expected exactly one trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Price != 1000 {
		t.Fatalf("expected trade at resting price 1000, got %d", tr.Price)
	}
	if tr.BuyOrderID != 2 || tr.SellOrderID != 1 {
		t.Fatalf("unexpected trade participants: %+v", tr)
	}

	resting, _ := b.lookup(1)
	aggressor, _ := b.lookup(2)
	if resting.Status != Filled || aggressor.Status != Filled {
		t.Fatalf("expected both orders filled: resting=%s aggressor=%s", resting.Status, aggressor.Status)
	}
}

// S3: a partial fill leaves the resting order's residual still resting,
// FIFO-ordered behind any other order already at that price.
func TestAddOrder_PartialFillPreservesFIFO(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Sell, Limit, 50, 1000))
	b.AddOrder(newOrder(2, Sell, Limit, 50, 1000))

	trades, _ := b.AddOrder(newOrder(3, Buy, Limit, 30, 1000))
	if len(trades) != 1 || trades[0].SellOrderID != 1 || trades[0].Quantity != 30 {
		t.Fatalf("expected order 1 to be hit first for 30, got %+v", trades)
	}

	o1, _ := b.lookup(1)
	if o1.Status != PartiallyFilled || o1.Remaining() != 20 {
		t.Fatalf("expected order 1 partially filled with 20 remaining, got %+v", o1)
	}

	levels := b.GetAskLevels(5)
	if len(levels) != 1 || levels[0].Quantity != 70 {
		t.Fatalf("expected a single ask level with 70 remaining, got %+v", levels)
	}
}

// S4: a limit order can walk multiple price levels in one call.
func TestAddOrder_WalksMultiplePriceLevels(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Sell, Limit, 10, 1000))
	b.AddOrder(newOrder(2, Sell, Limit, 10, 1001))

	trades, snap := b.AddOrder(newOrder(3, Buy, Limit, 15, 1001))
	if len(trades) != 2 {
		t.Fatalf("expected two trades across two levels, got %d", len(trades))
	}
	if trades[0].Price != 1000 || trades[1].Price != 1001 {
		t.Fatalf("expected best price consumed first, got %+v", trades)
	}
	if snap.BestAskPrice != 1001 || snap.BestAskQuantity != 5 {
		t.Fatalf("expected 5 remaining at 1001, got %+v", snap)
	}
}

// S5: a market order against an empty opposite side is rejected outright.
func TestAddOrder_MarketRejectedWithNoLiquidity(t *testing.T) {
	b := NewOrderBook(1)

	trades, _ := b.AddOrder(newOrder(1, Buy, Market, 1000, 0))
	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
	o, _ := b.lookup(1)
	if o.Status != Rejected {
		t.Fatalf("expected REJECTED, got %s", o.Status)
	}
	if b.bids.Size() != 0 {
		t.Fatalf("market order must never rest, bid ladder has %d levels", b.bids.Size())
	}
}

// S6: a market order that partially fills against thin liquidity discards
// its residual instead of resting.
func TestAddOrder_MarketPartialFillDiscardsResidual(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Sell, Limit, 40, 1000))

	trades, _ := b.AddOrder(newOrder(2, Buy, Market, 100, 0))
	if len(trades) != 1 || trades[0].Quantity != 40 {
		t.Fatalf("expected a single 40-unit trade, got %+v", trades)
	}
	agg, _ := b.lookup(2)
	if agg.Status != PartiallyFilled {
		t.Fatalf("expected PARTIALLY_FILLED, got %s", agg.Status)
	}
	if b.asks.Size() != 0 {
		t.Fatalf("ask side should be empty after full consumption, has %d levels", b.asks.Size())
	}
	if b.bids.Size() != 0 {
		t.Fatalf("market residual must not rest, bid ladder has %d levels", b.bids.Size())
	}
}

func TestAddOrder_ZeroQuantityRejected(t *testing.T) {
	b := NewOrderBook(1)
	trades, _ := b.AddOrder(newOrder(1, Buy, Limit, 0, 1000))
	if len(trades) != 0 {
		t.Fatalf("expected no trades for zero quantity order")
	}
	o, ok := b.lookup(1)
	if !ok {
		t.Fatalf("expected order to still be indexed for audit")
	}
	if o.Status != Rejected {
		t.Fatalf("expected REJECTED, got %s", o.Status)
	}
}

func TestCancelOrder_RemovesFromLadder(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Buy, Limit, 100, 990))

	ok, snap := b.CancelOrder(1)
	if !ok {
		t.Fatalf("expected cancel to succeed")
	}
	if snap.BestBidPrice != 0 || snap.BestBidQuantity != 0 {
		t.Fatalf("expected empty book after cancel, got %+v", snap)
	}
	o, _ := b.lookup(1)
	if o.Status != Cancelled {
		t.Fatalf("expected CANCELLED, got %s", o.Status)
	}
}

func TestCancelOrder_UnknownOrTerminalReturnsFalse(t *testing.T) {
	b := NewOrderBook(1)

	if ok, _ := b.CancelOrder(999); ok {
		t.Fatalf("expected cancel of unknown id to fail")
	}

	b.AddOrder(newOrder(1, Sell, Limit, 10, 1000))
	b.AddOrder(newOrder(2, Buy, Limit, 10, 1000))
	if ok, _ := b.CancelOrder(1); ok {
		t.Fatalf("expected cancel of already-filled order to fail")
	}
}

func TestCancelOrder_MarketOrderNeverCancellable(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Sell, Limit, 10, 1000))
	b.AddOrder(newOrder(2, Buy, Market, 100, 0))

	if ok, _ := b.CancelOrder(2); ok {
		t.Fatalf("market orders resolve synchronously and must never be cancellable")
	}
}

func TestModifyOrder_ChangesPriorityAndRematches(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Sell, Limit, 10, 1000))
	b.AddOrder(newOrder(2, Buy, Limit, 10, 990))

	newPrice := uint64(1000)
	trades, _, ok := b.ModifyOrder(2, 10, &newPrice)
	if !ok {
		t.Fatalf("expected modify to succeed")
	}
	if len(trades) != 1 || trades[0].Price != 1000 {
		t.Fatalf("expected modified order to now cross at 1000, got %+v", trades)
	}
}

func TestModifyOrder_UnknownReturnsFalse(t *testing.T) {
	b := NewOrderBook(1)
	newQty := uint64(10)
	if _, _, ok := b.ModifyOrder(42, newQty, nil); ok {
		t.Fatalf("expected modify of unknown id to fail")
	}
}

func TestGetMarketData_ReflectsLastTrade(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Sell, Limit, 10, 1000))
	b.AddOrder(newOrder(2, Buy, Limit, 10, 1000))

	snap := b.GetMarketData()
	if snap.LastTradePrice != 1000 || snap.LastTradeQty != 10 || snap.Volume != 10 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestCallbacks_InvokedOutsideBookLock(t *testing.T) {
	b := NewOrderBook(1)

	var gotSnap Snapshot
	var gotTrades []Trade
	b.RegisterMarketDataCallback(func(s Snapshot) {
		// Must be able to read the book without deadlocking.
		_ = b.GetMarketData()
		gotSnap = s
	})
	b.RegisterTradeCallback(func(tr Trade) {
		gotTrades = append(gotTrades, tr)
	})

	b.AddOrder(newOrder(1, Sell, Limit, 10, 1000))
	b.AddOrder(newOrder(2, Buy, Limit, 10, 1000))

	if gotSnap.SymbolID != 1 {
		t.Fatalf("market data callback not invoked with expected snapshot: %+v", gotSnap)
	}
	if len(gotTrades) != 1 {
		t.Fatalf("expected one trade callback, got %d", len(gotTrades))
	}
}

func TestCallbacks_PanicIsolatedFromOthers(t *testing.T) {
	b := NewOrderBook(1)

	called := false
	b.RegisterMarketDataCallback(func(Snapshot) { panic("boom") })
	b.RegisterMarketDataCallback(func(Snapshot) { called = true })

	b.AddOrder(newOrder(1, Buy, Limit, 10, 1000))

	if !called {
		t.Fatalf("expected second subscriber to still run after first panicked")
	}
}

// Universal invariant: every non-terminal order rests in exactly one
// PriceLevel; every terminal order rests in none.
func TestInvariant_RestingMembershipMatchesStatus(t *testing.T) {
	b := NewOrderBook(1)
	b.AddOrder(newOrder(1, Sell, Limit, 100, 1000))
	b.AddOrder(newOrder(2, Buy, Limit, 40, 1000))

	resting, _ := b.lookup(1)
	if resting.Status.Terminal() {
		t.Fatalf("order 1 should still be partially filled and resting")
	}
	level := b.asks.Find(1000)
	if level == nil || level.Head() != resting {
		t.Fatalf("order 1 must be resting at the head of its price level")
	}

	filled, _ := b.lookup(2)
	if !filled.Status.Terminal() {
		t.Fatalf("order 2 should be terminal (filled)")
	}
}
