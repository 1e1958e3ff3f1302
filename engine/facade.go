// Package engine exposes the single public operation surface of the
// simulator: assigning order ids, routing to the right book, and
// aggregating performance metrics across every book a process has touched.
package engine

import (
	"sync/atomic"

	"lob/domain/orderbook"
	"lob/infra/metrics"
	"lob/infra/sequence"
	"lob/registry"
)

// PerformanceMetrics is the aggregate view returned by GetPerformanceMetrics.
type PerformanceMetrics struct {
	OrdersProcessed  uint64
	TotalVolume      uint64
	TradeCount       uint64
	AverageLatencyNs uint64
}

// SimulatorFacade is the only entry point callers need: it owns order-id
// assignment, forwards to a BookRegistry, and keeps the running totals
// get_performance_metrics reports.
type SimulatorFacade struct {
	orderIDs *sequence.Sequencer
	books    *registry.BookRegistry
	recorder *metrics.Recorder

	ordersProcessed atomic.Uint64
	totalVolume     atomic.Uint64
	tradeCount      atomic.Uint64
	latencyNsSum    atomic.Uint64
}

// New creates a facade with its own BookRegistry and order-id sequencer.
// recorder may be nil, in which case Prometheus mirroring is skipped.
func New(recorder *metrics.Recorder) *SimulatorFacade {
	return &SimulatorFacade{
		orderIDs: sequence.New(0),
		books:    registry.New(),
		recorder: recorder,
	}
}

// SubmitOrder assigns a fresh, process-wide-unique id to a new order and
// runs it through its symbol's book.
func (f *SimulatorFacade) SubmitOrder(symbolID uint32, side orderbook.Side, orderType orderbook.Type, quantity, price, stopPrice uint64) uint64 {
	start := nowMicros()
	id := f.orderIDs.Next()

	o := &orderbook.Order{
		ID:        id,
		SymbolID:  symbolID,
		Side:      side,
		Type:      orderType,
		Quantity:  quantity,
		Price:     price,
		StopPrice: stopPrice,
		Timestamp: start,
	}

	book := f.books.BookFor(symbolID)
	trades, _ := book.AddOrder(o)

	f.recordOrder(start, trades)
	return id
}

// CancelOrder fans out to whichever book holds id.
func (f *SimulatorFacade) CancelOrder(id uint64) bool {
	ok, _ := f.books.CancelOrder(id)
	return ok
}

// ModifyOrder fans out to whichever book holds id, recording any trades the
// rematch produces as if it were a fresh order.
func (f *SimulatorFacade) ModifyOrder(id uint64, newQuantity uint64, newPrice *uint64) bool {
	start := nowMicros()
	trades, _, ok := f.books.ModifyOrder(id, newQuantity, newPrice)
	if !ok {
		return false
	}
	f.recordOrder(start, trades)
	return true
}

// GetMarketData returns symbolID's current snapshot.
func (f *SimulatorFacade) GetMarketData(symbolID uint32) orderbook.Snapshot {
	return f.books.GetMarketData(symbolID)
}

// GetBidLevels returns up to depth bid levels for symbolID.
func (f *SimulatorFacade) GetBidLevels(symbolID uint32, depth int) []orderbook.LevelView {
	return f.books.GetBidLevels(symbolID, depth)
}

// GetAskLevels returns up to depth ask levels for symbolID.
func (f *SimulatorFacade) GetAskLevels(symbolID uint32, depth int) []orderbook.LevelView {
	return f.books.GetAskLevels(symbolID, depth)
}

// RegisterMarketDataCallback resolves (creating if necessary) symbolID's
// book and attaches fn to it.
func (f *SimulatorFacade) RegisterMarketDataCallback(symbolID uint32, fn func(orderbook.Snapshot)) {
	f.books.BookFor(symbolID).RegisterMarketDataCallback(fn)
}

// RegisterTradeCallback resolves (creating if necessary) symbolID's book
// and attaches fn to it.
func (f *SimulatorFacade) RegisterTradeCallback(symbolID uint32, fn func(orderbook.Trade)) {
	f.books.BookFor(symbolID).RegisterTradeCallback(fn)
}

// GetPerformanceMetrics aggregates the running totals across every order
// and trade the facade has ever processed.
func (f *SimulatorFacade) GetPerformanceMetrics() PerformanceMetrics {
	processed := f.ordersProcessed.Load()
	var avg uint64
	if processed > 0 {
		avg = f.latencyNsSum.Load() / processed
	}
	return PerformanceMetrics{
		OrdersProcessed:  processed,
		TotalVolume:      f.totalVolume.Load(),
		TradeCount:       f.tradeCount.Load(),
		AverageLatencyNs: avg,
	}
}

func (f *SimulatorFacade) recordOrder(startMicros int64, trades []orderbook.Trade) {
	latencyNs := (nowMicros() - startMicros) * 1000
	f.ordersProcessed.Add(1)
	f.latencyNsSum.Add(uint64(latencyNs))

	var volume uint64
	for _, t := range trades {
		volume += t.Quantity
	}
	f.totalVolume.Add(volume)
	f.tradeCount.Add(uint64(len(trades)))

	if f.recorder == nil {
		return
	}
	f.recorder.ObserveOrder(latencyNs)
	for _, t := range trades {
		f.recorder.ObserveTrade(t.Quantity)
	}
}
