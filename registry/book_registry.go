// Package registry maps symbol ids to their per-symbol order books, lazily
// materializing a book the first time any operation touches it.
package registry

import (
	"sort"
	"sync"

	"lob/domain/orderbook"
)

// BookRegistry owns every OrderBook the process has ever touched, keyed by
// symbol id. It never removes a book once created.
type BookRegistry struct {
	mu    sync.RWMutex
	books map[uint32]*orderbook.OrderBook
}

// New creates an empty registry.
func New() *BookRegistry {
	return &BookRegistry{books: make(map[uint32]*orderbook.OrderBook)}
}

// BookFor returns the OrderBook for symbolID, creating it on first
// reference. Double-checked locking avoids taking the exclusive lock on the
// common case of an already-materialized book.
func (r *BookRegistry) BookFor(symbolID uint32) *orderbook.OrderBook {
	r.mu.RLock()
	b, ok := r.books[symbolID]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.books[symbolID]; ok {
		return b
	}
	b = orderbook.NewOrderBook(symbolID)
	r.books[symbolID] = b
	return b
}

// lookup returns the book for symbolID without creating one.
func (r *BookRegistry) lookup(symbolID uint32) (*orderbook.OrderBook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[symbolID]
	return b, ok
}

// symbolsAscending returns the ids of every book materialized so far, in
// ascending order — used by the id-based fan-out below, since a caller
// only knows an order id, never which symbol it belongs to.
func (r *BookRegistry) symbolsAscending() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint32, 0, len(r.books))
	for id := range r.books {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CancelOrder fans an id-based cancel out across every materialized book in
// ascending symbol-id order, returning the first success. Order ids are
// unique process-wide (the facade assigns them), so at most one book can
// ever report success.
func (r *BookRegistry) CancelOrder(id uint64) (bool, orderbook.Snapshot) {
	for _, sym := range r.symbolsAscending() {
		b, ok := r.lookup(sym)
		if !ok {
			continue
		}
		if ok, snap := b.CancelOrder(id); ok {
			return true, snap
		}
	}
	return false, orderbook.Snapshot{}
}

// ModifyOrder fans an id-based modify out the same way CancelOrder does.
func (r *BookRegistry) ModifyOrder(id uint64, newQuantity uint64, newPrice *uint64) ([]orderbook.Trade, orderbook.Snapshot, bool) {
	for _, sym := range r.symbolsAscending() {
		b, ok := r.lookup(sym)
		if !ok {
			continue
		}
		if trades, snap, ok := b.ModifyOrder(id, newQuantity, newPrice); ok {
			return trades, snap, true
		}
	}
	return nil, orderbook.Snapshot{}, false
}

// GetMarketData returns symbolID's snapshot, or a zero-filled one if the
// book has never been materialized — a pure query never creates a book.
func (r *BookRegistry) GetMarketData(symbolID uint32) orderbook.Snapshot {
	b, ok := r.lookup(symbolID)
	if !ok {
		return orderbook.Snapshot{SymbolID: symbolID}
	}
	return b.GetMarketData()
}

// GetBidLevels returns up to depth bid levels for symbolID, or nil if the
// book has never been materialized.
func (r *BookRegistry) GetBidLevels(symbolID uint32, depth int) []orderbook.LevelView {
	b, ok := r.lookup(symbolID)
	if !ok {
		return nil
	}
	return b.GetBidLevels(depth)
}

// GetAskLevels returns up to depth ask levels for symbolID, or nil if the
// book has never been materialized.
func (r *BookRegistry) GetAskLevels(symbolID uint32, depth int) []orderbook.LevelView {
	b, ok := r.lookup(symbolID)
	if !ok {
		return nil
	}
	return b.GetAskLevels(depth)
}
