package orderbook

// Trade is an immutable record of one fill between a buy and a sell order.
type Trade struct {
	TradeID     uint64
	SymbolID    uint32
	BuyOrderID  uint64
	SellOrderID uint64
	Quantity    uint64
	Price       uint64
	Timestamp   int64
}
