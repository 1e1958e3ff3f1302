package orderbook

// PriceLevel is a FIFO queue of resting orders at a single price. Its
// TotalQuantity is always the sum of Remaining() over every order currently
// linked into it; an empty level (TotalQuantity == 0) is removed from its
// ladder immediately by the caller.
type PriceLevel struct {
	Price uint64

	head, tail *Order

	TotalQuantity uint64
	OrderCount    int
}

// Enqueue appends o to the tail of the queue, giving it the lowest time
// priority among orders currently resting at this price.
func (p *PriceLevel) Enqueue(o *Order) {
	o.prev, o.next = nil, nil
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	p.TotalQuantity += o.Remaining()
	p.OrderCount++
}

// Head returns the order at the front of the FIFO queue — the next one the
// matching loop will fill — or nil if the level is empty.
func (p *PriceLevel) Head() *Order {
	return p.head
}

// PopHead unlinks and returns the order at the front of the queue. Callers
// use this once the head order is fully filled.
func (p *PriceLevel) PopHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}
	p.unlink(o)
	return o
}

// Remove unlinks o from the queue by identity, wherever it currently sits —
// used by cancel, where the cancelled order need not be at the head. A
// linear scan bounded by the number of orders resting at this price; ties
// are impossible since order ids are unique, so removing a non-present order
// is a silent no-op (the caller has already authoritatively located it
// elsewhere).
func (p *PriceLevel) Remove(o *Order) {
	for n := p.head; n != nil; n = n.next {
		if n == o {
			p.unlink(n)
			return
		}
	}
}

func (p *PriceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.prev, o.next = nil, nil

	p.TotalQuantity -= o.Remaining()
	p.OrderCount--
}

// Empty reports whether the level has no resting orders.
func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

// applyFill decrements the level's cached aggregate quantity by a partial
// fill against its head order. The head is unlinked separately via PopHead
// once it reaches zero remaining quantity.
func (p *PriceLevel) applyFill(qty uint64) {
	p.TotalQuantity -= qty
}
