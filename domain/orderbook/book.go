package orderbook

import (
	"log"
	"sync"
	"time"

	"lob/infra/sequence"
)

// LevelView is a read-only (price, aggregate quantity) pair returned by
// depth queries.
type LevelView struct {
	Price    uint64
	Quantity uint64
}

// OrderBook is the matching engine for a single symbol: two price ladders
// (bids descending, asks ascending), an index from order id to order, and
// the match loop that runs against them. It owns its own statistics and
// callback fan-out — a BookRegistry only routes to it by symbol id.
type OrderBook struct {
	symbolID uint32

	ordersMu   sync.RWMutex
	ordersByID map[uint64]*Order

	// bookMu guards both ladders and the statistics below it. The full
	// match loop runs under its exclusive lock; read-only queries
	// (GetMarketData, GetBidLevels, GetAskLevels) take it shared.
	bookMu         sync.RWMutex
	bids           *ladder
	asks           *ladder
	volume         uint64
	tradeCount     uint64
	lastTradePrice uint64
	lastTradeQty   uint64
	tradeSeq       *sequence.Sequencer

	subsMu         sync.Mutex
	marketDataSubs []func(Snapshot)
	tradeSubs      []func(Trade)
}

// NewOrderBook creates an empty book for symbolID.
func NewOrderBook(symbolID uint32) *OrderBook {
	return &OrderBook{
		symbolID:   symbolID,
		ordersByID: make(map[uint64]*Order),
		bids:       newLadder(),
		asks:       newLadder(),
		tradeSeq:   sequence.New(0),
	}
}

func (b *OrderBook) SymbolID() uint32 { return b.symbolID }

// AddOrder runs o through the matching loop (or rejects it outright) and
// rests any residual limit quantity on its own side. It always returns the
// trades produced (possibly none) and a post-operation snapshot, and always
// indexes o by id regardless of outcome — even a rejected order is kept for
// audit, per the order lifecycle contract.
func (b *OrderBook) AddOrder(o *Order) ([]Trade, Snapshot) {
	o.Status = New
	if o.Type == Market {
		o.Price = 0
	}
	b.index(o)

	b.bookMu.Lock()
	var trades []Trade
	switch {
	case o.Quantity == 0:
		o.Status = Rejected
	case !supportedType(o.Type):
		o.Status = Rejected
	default:
		trades = b.match(o)
		switch {
		case o.Remaining() == 0:
			o.Status = Filled
		case o.Type != Market:
			if len(trades) > 0 {
				o.Status = PartiallyFilled
			}
			b.rest(o)
		default: // Market with residual — never rests
			if len(trades) > 0 {
				o.Status = PartiallyFilled
			} else {
				o.Status = Rejected
			}
		}
		b.recordTrades(trades)
	}
	snap := b.snapshotLocked()
	b.bookMu.Unlock()

	b.notify(snap, trades)
	return trades, snap
}

// CancelOrder removes a resting order from its price level and marks it
// Cancelled. It returns false, leaving all state untouched, if the id is
// unknown, already terminal, or belonged to a market order — a market
// order is always resolved synchronously inside AddOrder and never rests,
// so by the time CancelOrder could observe it there is nothing left to
// cancel even if its terminal status literal happens to be
// PartiallyFilled (see DESIGN.md on the market-residual edge case).
func (b *OrderBook) CancelOrder(id uint64) (bool, Snapshot) {
	o, ok := b.lookup(id)
	if !ok {
		return false, Snapshot{}
	}

	b.bookMu.Lock()
	if o.Status.Terminal() || o.Type == Market {
		b.bookMu.Unlock()
		return false, Snapshot{}
	}
	b.unrest(o)
	o.Status = Cancelled
	snap := b.snapshotLocked()
	b.bookMu.Unlock()

	b.notify(snap, nil)
	return true, snap
}

// ModifyOrder is cancel-then-add under one id: the order is pulled from its
// current level (if resting), given a fresh timestamp and quantity/price,
// and run through the match loop again from scratch — exactly the new
// time priority a freshly submitted order would get. It returns false,
// leaving all state untouched, under the same conditions CancelOrder does,
// plus an invalid new quantity.
func (b *OrderBook) ModifyOrder(id uint64, newQuantity uint64, newPrice *uint64) ([]Trade, Snapshot, bool) {
	o, ok := b.lookup(id)
	if !ok {
		return nil, Snapshot{}, false
	}

	b.bookMu.Lock()
	if o.Status.Terminal() || o.Type == Market || newQuantity == 0 {
		b.bookMu.Unlock()
		return nil, Snapshot{}, false
	}
	b.unrest(o)
	o.Quantity = newQuantity
	o.FilledQuantity = 0
	if newPrice != nil {
		o.Price = *newPrice
	}
	o.Timestamp = nowMicros()
	o.Status = New

	trades := b.match(o)
	if o.Remaining() == 0 {
		o.Status = Filled
	} else {
		if len(trades) > 0 {
			o.Status = PartiallyFilled
		}
		b.rest(o)
	}
	b.recordTrades(trades)
	snap := b.snapshotLocked()
	b.bookMu.Unlock()

	b.notify(snap, trades)
	return trades, snap, true
}

// GetMarketData returns a consistent snapshot of top-of-book and cumulative
// statistics at call time.
func (b *OrderBook) GetMarketData() Snapshot {
	b.bookMu.RLock()
	defer b.bookMu.RUnlock()
	return b.snapshotLocked()
}

// GetBidLevels returns up to depth best bid (price, aggregate quantity)
// pairs, highest price first.
func (b *OrderBook) GetBidLevels(depth int) []LevelView {
	b.bookMu.RLock()
	defer b.bookMu.RUnlock()
	return collectLevels(b.bids.ForEachDescending, depth)
}

// GetAskLevels returns up to depth best ask (price, aggregate quantity)
// pairs, lowest price first.
func (b *OrderBook) GetAskLevels(depth int) []LevelView {
	b.bookMu.RLock()
	defer b.bookMu.RUnlock()
	return collectLevels(b.asks.ForEachAscending, depth)
}

// RegisterMarketDataCallback adds fn to the set of subscribers notified
// after every AddOrder and every book-affecting CancelOrder/ModifyOrder.
func (b *OrderBook) RegisterMarketDataCallback(fn func(Snapshot)) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	b.marketDataSubs = append(b.marketDataSubs, fn)
}

// RegisterTradeCallback adds fn to the set of subscribers notified once per
// trade, in the order the match loop produced them.
func (b *OrderBook) RegisterTradeCallback(fn func(Trade)) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	b.tradeSubs = append(b.tradeSubs, fn)
}

/* ---------------- internals ---------------- */

func supportedType(t Type) bool {
	return t == Limit || t == Market || t == Stop
}

func (b *OrderBook) index(o *Order) {
	b.ordersMu.Lock()
	b.ordersByID[o.ID] = o
	b.ordersMu.Unlock()
}

func (b *OrderBook) lookup(id uint64) (*Order, bool) {
	b.ordersMu.RLock()
	defer b.ordersMu.RUnlock()
	o, ok := b.ordersByID[id]
	return o, ok
}

// match walks the opposite ladder from its best end, filling the aggressor
// against resting orders at each price until the aggressor is satisfied or
// no more crossable liquidity remains. Every fill executes at the resting
// order's price — the aggressor's own limit never determines a trade price,
// only whether a level is crossable at all.
func (b *OrderBook) match(aggressor *Order) []Trade {
	var trades []Trade
	opposite, best := b.opposingLadder(aggressor.Side)

	for aggressor.Remaining() > 0 {
		level := best()
		if level == nil {
			break
		}
		if aggressor.Type != Market && !crossable(aggressor, level.Price) {
			break
		}

		for !level.Empty() && aggressor.Remaining() > 0 {
			resting := level.Head()
			qty := minU64(aggressor.Remaining(), resting.Remaining())

			aggressor.FilledQuantity += qty
			resting.FilledQuantity += qty
			level.applyFill(qty)

			trades = append(trades, b.buildTrade(aggressor, resting, level.Price, qty))

			if resting.Remaining() == 0 {
				resting.Status = Filled
				level.PopHead()
			} else {
				resting.Status = PartiallyFilled
			}
		}

		if level.Empty() {
			opposite.Delete(level.Price)
		}
	}
	return trades
}

func crossable(aggressor *Order, levelPrice uint64) bool {
	if aggressor.Side == Buy {
		return levelPrice <= aggressor.Price
	}
	return levelPrice >= aggressor.Price
}

func (b *OrderBook) opposingLadder(side Side) (*ladder, func() *PriceLevel) {
	if side == Buy {
		return b.asks, b.asks.Best
	}
	return b.bids, b.bids.Worst
}

func (b *OrderBook) buildTrade(aggressor, resting *Order, price, qty uint64) Trade {
	buyID, sellID := resting.ID, aggressor.ID
	if aggressor.Side == Buy {
		buyID, sellID = aggressor.ID, resting.ID
	}
	return Trade{
		TradeID:     b.tradeSeq.Next(),
		SymbolID:    b.symbolID,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Quantity:    qty,
		Price:       price,
		Timestamp:   nowMicros(),
	}
}

// rest appends o to its own-side price level, creating the level if this is
// the first order resting at that price.
func (b *OrderBook) rest(o *Order) {
	ownLadder := b.bids
	if o.Side == Sell {
		ownLadder = b.asks
	}
	ownLadder.GetOrCreate(o.Price).Enqueue(o)
}

// unrest removes o from its current price level, deleting the level if it
// is now empty. A no-op if o is not currently resting anywhere.
func (b *OrderBook) unrest(o *Order) {
	ownLadder := b.bids
	if o.Side == Sell {
		ownLadder = b.asks
	}
	level := ownLadder.Find(o.Price)
	if level == nil {
		return
	}
	level.Remove(o)
	if level.Empty() {
		ownLadder.Delete(o.Price)
	}
}

func (b *OrderBook) recordTrades(trades []Trade) {
	if len(trades) == 0 {
		return
	}
	b.tradeCount += uint64(len(trades))
	for _, t := range trades {
		b.volume += t.Quantity
		b.lastTradePrice = t.Price
		b.lastTradeQty = t.Quantity
	}
}

// snapshotLocked assumes bookMu is already held (shared or exclusive).
func (b *OrderBook) snapshotLocked() Snapshot {
	snap := Snapshot{
		SymbolID:       b.symbolID,
		Timestamp:      nowMicros(),
		Volume:         b.volume,
		LastTradePrice: b.lastTradePrice,
		LastTradeQty:   b.lastTradeQty,
	}
	if bid := b.bids.Worst(); bid != nil {
		snap.BestBidPrice = bid.Price
		snap.BestBidQuantity = bid.TotalQuantity
	}
	if ask := b.asks.Best(); ask != nil {
		snap.BestAskPrice = ask.Price
		snap.BestAskQuantity = ask.TotalQuantity
	}
	return snap
}

func collectLevels(walk func(func(*PriceLevel) bool), depth int) []LevelView {
	if depth <= 0 {
		return nil
	}
	out := make([]LevelView, 0, depth)
	walk(func(l *PriceLevel) bool {
		out = append(out, LevelView{Price: l.Price, Quantity: l.TotalQuantity})
		return len(out) < depth
	})
	return out
}

// notify copies the subscriber lists out under subsMu, then invokes each
// one with the book lock already released — a subscriber calling back into
// the book cannot deadlock on bookMu, and a panicking subscriber is
// recovered and logged without affecting its peers or the book itself.
func (b *OrderBook) notify(snap Snapshot, trades []Trade) {
	b.subsMu.Lock()
	mdSubs := append([]func(Snapshot){}, b.marketDataSubs...)
	trSubs := append([]func(Trade){}, b.tradeSubs...)
	b.subsMu.Unlock()

	for _, fn := range mdSubs {
		safeCall(func() { fn(snap) })
	}
	for _, t := range trades {
		trade := t
		for _, fn := range trSubs {
			safeCall(func() { fn(trade) })
		}
	}
}

func safeCall(f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("orderbook: subscriber callback panicked: %v", r)
		}
	}()
	f()
}

func nowMicros() int64 {
	return time.Now().UnixNano() / int64(time.Microsecond)
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
