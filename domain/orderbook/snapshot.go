package orderbook

// Snapshot is a consistent point-in-time view of a symbol's top-of-book and
// cumulative statistics.
type Snapshot struct {
	SymbolID        uint32
	Timestamp       int64
	BestBidPrice    uint64
	BestBidQuantity uint64
	BestAskPrice    uint64
	BestAskQuantity uint64
	LastTradePrice  uint64
	LastTradeQty    uint64
	Volume          uint64
}
