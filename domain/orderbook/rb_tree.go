package orderbook

import "lob/infra/memory"

// ladder is a red-black tree keyed by price, mapping to the PriceLevel
// resting at that price. It backs both the bid and ask sides of an
// OrderBook: ascending iteration gives the ask side in priority order,
// descending iteration gives the bid side in priority order.
//
// The balancing logic (rotations, insert/delete fixups) is the standard
// CLRS red-black tree, keyed on a sentinel "nil" node rather than Go's nil
// so that parent/child links never need a nil check during rebalancing.
type color uint8

const (
	red   color = 0
	black color = 1
)

type rbNode struct {
	key    uint64
	level  *PriceLevel
	color  color
	left   *rbNode
	right  *rbNode
	parent *rbNode
}

type ladder struct {
	root *rbNode
	nilN *rbNode
	size int

	levels *memory.Pool[PriceLevel]
}

func newLadder() *ladder {
	sentinel := &rbNode{color: black}
	return &ladder{
		root: sentinel,
		nilN: sentinel,
		levels: memory.NewPool(func() *PriceLevel {
			return &PriceLevel{}
		}),
	}
}

func (t *ladder) Size() int { return t.size }

// Find returns the PriceLevel at price, or nil if no level rests there.
func (t *ladder) Find(price uint64) *PriceLevel {
	n := t.search(price)
	if n == t.nilN {
		return nil
	}
	return n.level
}

// GetOrCreate returns the PriceLevel at price, creating and inserting an
// empty one (recycled from the level pool where possible) if none exists
// yet.
func (t *ladder) GetOrCreate(price uint64) *PriceLevel {
	y := t.nilN
	x := t.root
	for x != t.nilN {
		y = x
		switch {
		case price < x.key:
			x = x.left
		case price > x.key:
			x = x.right
		default:
			return x.level
		}
	}

	lvl := t.levels.Get()
	*lvl = PriceLevel{Price: price}
	z := &rbNode{key: price, level: lvl, color: red, left: t.nilN, right: t.nilN, parent: y}

	if y == t.nilN {
		t.root = z
	} else if z.key < y.key {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
	return lvl
}

// Delete removes the level at price entirely and returns it to the level
// pool. Callers must only do this once the level is empty.
func (t *ladder) Delete(price uint64) {
	z := t.search(price)
	if z == t.nilN {
		return
	}
	t.deleteNode(z)
	t.size--
	t.levels.Put(z.level)
}

// Best returns the level at the lowest resting price (the ask side's best).
func (t *ladder) Best() *PriceLevel {
	n := t.min(t.root)
	if n == t.nilN {
		return nil
	}
	return n.level
}

// Worst returns the level at the highest resting price (the bid side's best).
func (t *ladder) Worst() *PriceLevel {
	n := t.max(t.root)
	if n == t.nilN {
		return nil
	}
	return n.level
}

// ForEachAscending visits levels from lowest to highest price, stopping
// early if fn returns false.
func (t *ladder) ForEachAscending(fn func(*PriceLevel) bool) {
	for n := t.min(t.root); n != t.nilN; n = t.next(n) {
		if !fn(n.level) {
			return
		}
	}
}

// ForEachDescending visits levels from highest to lowest price, stopping
// early if fn returns false.
func (t *ladder) ForEachDescending(fn func(*PriceLevel) bool) {
	for n := t.max(t.root); n != t.nilN; n = t.prev(n) {
		if !fn(n.level) {
			return
		}
	}
}

/* ---------------- internal tree mechanics ---------------- */

func (t *ladder) search(price uint64) *rbNode {
	n := t.root
	for n != t.nilN {
		switch {
		case price < n.key:
			n = n.left
		case price > n.key:
			n = n.right
		default:
			return n
		}
	}
	return t.nilN
}

func (t *ladder) min(n *rbNode) *rbNode {
	if n == t.nilN {
		return t.nilN
	}
	for n.left != t.nilN {
		n = n.left
	}
	return n
}

func (t *ladder) max(n *rbNode) *rbNode {
	if n == t.nilN {
		return t.nilN
	}
	for n.right != t.nilN {
		n = n.right
	}
	return n
}

func (t *ladder) next(n *rbNode) *rbNode {
	if n.right != t.nilN {
		return t.min(n.right)
	}
	p := n.parent
	for p != t.nilN && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *ladder) prev(n *rbNode) *rbNode {
	if n.left != t.nilN {
		return t.max(n.left)
	}
	p := n.parent
	for p != t.nilN && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

func (t *ladder) leftRotate(x *rbNode) {
	y := x.right
	x.right = y.left
	if y.left != t.nilN {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nilN {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *ladder) rightRotate(y *rbNode) {
	x := y.left
	y.left = x.right
	if x.right != t.nilN {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nilN {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *ladder) insertFixup(z *rbNode) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *ladder) transplant(u, v *rbNode) {
	if u.parent == t.nilN {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *ladder) deleteNode(z *rbNode) {
	y := z
	yOrigColor := y.color
	var x *rbNode

	if z.left == t.nilN {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nilN {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.min(z.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOrigColor == black {
		t.deleteFixup(x)
	}
}

func (t *ladder) deleteFixup(x *rbNode) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(x.parent)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}
