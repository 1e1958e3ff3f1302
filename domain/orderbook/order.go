// Package orderbook implements a single-symbol, price-time-priority limit
// order book: the price ladder, the FIFO queues resting at each price, and
// the matching algorithm that runs against them.
package orderbook

import "fmt"

// Side is which side of the book an order rests on or crosses into.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Type is the order type. Stop is accepted for API compatibility with the
// source venue but is dispatched identically to Limit — true stop-triggering
// (arm on a stop price, activate on last-trade cross) is not implemented,
// matching the source's own documented behavior.
type Type uint8

const (
	Limit Type = iota
	Market
	Stop
)

func (t Type) String() string {
	switch t {
	case Market:
		return "MARKET"
	case Stop:
		return "STOP"
	default:
		return "LIMIT"
	}
}

// Status is an order's position in its lifecycle. Once an order reaches
// Filled, Cancelled, or Rejected it is terminal and is never re-entered
// into a book.
type Status uint8

const (
	New Status = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s Status) String() string {
	switch s {
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Rejected:
		return "REJECTED"
	default:
		return "NEW"
	}
}

func (s Status) Terminal() bool {
	return s == Filled || s == Cancelled || s == Rejected
}

// Order is a single resting or transient order. Every Order is logically
// owned by the OrderBook's id index; a PriceLevel only ever holds a pointer
// into the same struct, never a copy — there is exactly one live Order value
// per order id for the lifetime of the process.
type Order struct {
	ID       uint64
	SymbolID uint32
	Side     Side
	Type     Type
	Quantity uint64
	Price    uint64
	// StopPrice is retained on the Order for completeness but never
	// consulted by the matching algorithm (see Type.Stop above).
	StopPrice      uint64
	Timestamp      int64
	Status         Status
	FilledQuantity uint64

	// prev/next thread the order through the FIFO queue of the PriceLevel
	// it currently rests in. Zero value when the order is not resting.
	prev, next *Order
}

// Remaining returns the quantity still unfilled.
func (o *Order) Remaining() uint64 {
	return o.Quantity - o.FilledQuantity
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%d sym=%d side=%s type=%s qty=%d filled=%d price=%d status=%s}",
		o.ID, o.SymbolID, o.Side, o.Type, o.Quantity, o.FilledQuantity, o.Price, o.Status)
}
