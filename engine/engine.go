// ============================================================================
// DISCRETE-PRICE MATCHING ENGINE
// ============================================================================
//
// Single-threaded limit order book over a dense integer tick domain. One
// engine instance is owned by exactly one worker; nothing in here is atomic.
//
// Core capabilities:
//   - Price-time priority matching with O(1) amortized book maintenance
//   - Fixed-capacity order pool with intrusive free list (zero allocation
//     after construction)
//   - Dense handle table with a rolling cursor, handles recycle wrap-safe
//   - Per-side occupancy bitsets, best-price discovery via word-by-word
//     TrailingZeros64 / LeadingZeros64 scans
//
// Architecture overview:
//   - bids/asks: one PriceLevel per tick, intrusive doubly-linked FIFO of
//     pool indices per level
//   - bidBits/askBits: one bit per tick, set while the level is non-empty
//   - bestBid/bestAsk: cached tick of the top of each side, NoPrice if empty
//   - pool: contiguous node arena, free nodes chained through next
//
// Design constraints:
//   - Single owner per instance, no locks, no atomics
//   - All rejects and terminal states are sentinel-coded return values
//   - The pool never grows; exhaustion rejects the incoming order

package engine

import (
	"math/bits"

	"matchbench/types"
)

// ============================================================================
// SENTINELS
// ============================================================================

const (
	// NIL marks an absent pool index, an unused handle slot, and the reject
	// result of AddLimit.
	NIL = 0xFFFFFFFF

	// NoPrice is the best-price answer for an empty book side.
	NoPrice = 0xFFFFFFFF

	// DoneFill is the AddLimit result for an order that fully executed on
	// entry and never rested.
	DoneFill = 0xFFFFFFFE
)

const wordBits = 64

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// orderNode is one resting order inside the pool arena. Free nodes reuse
// next as the free-list link. 32 bytes, two nodes per cache line.
type orderNode struct {
	id        uint32 // engine handle, index into handles
	priceTick uint32
	qty       uint32 // remaining quantity
	next      uint32 // pool index toward the level tail, NIL at tail
	prev      uint32 // pool index toward the level head, NIL at head
	side      uint8
	_         [3]byte
	_         [2]uint32 // pad to 32 bytes
}

// priceLevel is the per-tick FIFO of resting orders plus a quantity tally.
// totalQty is bookkeeping for depth reporting, never a matching decision.
type priceLevel struct {
	head     uint32
	tail     uint32
	totalQty uint32
}

// Engine is a complete book: two ladders, two bitsets, the node pool, and
// the handle table. Sizing is fixed at construction.
type Engine struct {
	maxTicks  uint32
	maxOrders uint32
	words     uint32

	bids    []priceLevel
	asks    []priceLevel
	bidBits []uint64 // occupancy by tick, bit i of word w covers tick w*64+i
	askBits []uint64
	bestBid uint32
	bestAsk uint32

	pool       []orderNode
	handles    []uint32 // handle -> pool index, NIL while unused
	freeHead   uint32
	nextHandle uint32 // rolling cursor for handle assignment

	totalTrades uint64
	totalVolume uint64
}

// ============================================================================
// CONSTRUCTOR
// ============================================================================

// New builds an engine for the tick domain [0, maxTicks) holding at most
// maxOrders simultaneous resting orders. Panics on degenerate sizing since
// that is a harness configuration bug, not a runtime condition.
func New(maxTicks, maxOrders uint32) *Engine {
	if maxTicks < 2 {
		panic("engine: need at least two ticks")
	}
	if maxOrders == 0 {
		panic("engine: need a non-empty order pool")
	}

	words := (maxTicks + wordBits - 1) / wordBits
	e := &Engine{
		maxTicks:  maxTicks,
		maxOrders: maxOrders,
		words:     words,
		bids:      make([]priceLevel, maxTicks),
		asks:      make([]priceLevel, maxTicks),
		bidBits:   make([]uint64, words),
		askBits:   make([]uint64, words),
		pool:      make([]orderNode, maxOrders),
		handles:   make([]uint32, maxOrders),
	}
	e.Reset()
	return e
}

// Reset clears the book, the pool, and the counters back to the constructed
// state. Not thread-safe; call between runs only.
func (e *Engine) Reset() {
	e.freeHead = 0
	for i := uint32(0); i < e.maxOrders; i++ {
		e.pool[i].next = i + 1
		e.pool[i].prev = NIL
		e.pool[i].qty = 0
		e.handles[i] = NIL
	}
	e.pool[e.maxOrders-1].next = NIL

	for i := range e.bidBits {
		e.bidBits[i] = 0
		e.askBits[i] = 0
	}
	for i := range e.bids {
		e.bids[i] = priceLevel{head: NIL, tail: NIL}
		e.asks[i] = priceLevel{head: NIL, tail: NIL}
	}

	e.bestBid = NoPrice
	e.bestAsk = NoPrice
	e.totalTrades = 0
	e.totalVolume = 0
	e.nextHandle = 0
}

// ============================================================================
// ORDER ENTRY
// ============================================================================

// AddLimit matches an incoming limit order against the opposite side, then
// rests any remainder at its limit tick.
//
// Returns:
//   - engine handle in [0, maxOrders) when a remainder rested
//   - DoneFill when the order fully executed on entry
//   - NIL on reject: zero quantity, tick out of range, IOC or FOK
//     remainder, or pool exhaustion
//
// Crossing walks the opposite ladder from the best tick toward the limit,
// consuming each level head-first so earlier makers always fill first. An
// IOC remainder is dropped rather than rested; any partial fills it earned
// are kept. FOK is best-effort: liquidity is not checked before matching,
// so partial fills stand, and the remainder is dropped exactly like IOC.
func (e *Engine) AddLimit(in *types.Msg) uint32 {
	if in.Qty == 0 || in.PriceTick >= e.maxTicks {
		return NIL
	}

	remaining := in.Qty

	if in.Side == types.SideBuy {
		for remaining != 0 && e.bestAsk != NoPrice && e.bestAsk <= in.PriceTick {
			tick := e.bestAsk
			lvl := &e.asks[tick]

			for remaining != 0 && lvl.head != NIL {
				idx := lvl.head
				maker := &e.pool[idx]

				trade := remaining
				if maker.qty < trade {
					trade = maker.qty
				}
				maker.qty -= trade
				remaining -= trade
				lvl.totalQty -= trade

				e.totalTrades++
				e.totalVolume += uint64(trade)

				if maker.qty == 0 {
					lvl.head = maker.next
					if lvl.head != NIL {
						e.pool[lvl.head].prev = NIL
					} else {
						lvl.tail = NIL
					}
					e.handles[maker.id] = NIL
					e.freeNode(idx)
				}
			}
			if lvl.head == NIL {
				e.clearAskLevel(tick)
			} else {
				break // taker exhausted, liquidity remains at this tick
			}
		}

		if remaining != 0 {
			if in.Flags&(types.FlagIOC|types.FlagFOK) != 0 {
				return NIL
			}
			return e.enqueueResting(types.SideBuy, in.PriceTick, remaining)
		}
		return DoneFill
	}

	// SELL
	for remaining != 0 && e.bestBid != NoPrice && e.bestBid >= in.PriceTick {
		tick := e.bestBid
		lvl := &e.bids[tick]

		for remaining != 0 && lvl.head != NIL {
			idx := lvl.head
			maker := &e.pool[idx]

			trade := remaining
			if maker.qty < trade {
				trade = maker.qty
			}
			maker.qty -= trade
			remaining -= trade
			lvl.totalQty -= trade

			e.totalTrades++
			e.totalVolume += uint64(trade)

			if maker.qty == 0 {
				lvl.head = maker.next
				if lvl.head != NIL {
					e.pool[lvl.head].prev = NIL
				} else {
					lvl.tail = NIL
				}
				e.handles[maker.id] = NIL
				e.freeNode(idx)
			}
		}
		if lvl.head == NIL {
			e.clearBidLevel(tick)
		} else {
			break
		}
	}

	if remaining != 0 {
		if in.Flags&(types.FlagIOC|types.FlagFOK) != 0 {
			return NIL
		}
		return e.enqueueResting(types.SideSell, in.PriceTick, remaining)
	}
	return DoneFill
}

// Cancel removes the resting order behind handle. Returns false when the
// handle is out of range or not currently live (already filled, already
// cancelled, or recycled).
func (e *Engine) Cancel(handle uint32) bool {
	if handle >= e.maxOrders {
		return false
	}
	idx := e.handles[handle]
	if idx == NIL {
		return false
	}

	n := &e.pool[idx]
	var lvl *priceLevel
	if n.side == types.SideBuy {
		lvl = &e.bids[n.priceTick]
	} else {
		lvl = &e.asks[n.priceTick]
	}

	// unlink from the level FIFO
	if n.prev != NIL {
		e.pool[n.prev].next = n.next
	} else {
		lvl.head = n.next
	}
	if n.next != NIL {
		e.pool[n.next].prev = n.prev
	} else {
		lvl.tail = n.prev
	}

	// an emptied level zeroes its tally outright
	if lvl.head == NIL {
		lvl.totalQty = 0
	} else {
		lvl.totalQty -= n.qty
	}

	if lvl.head == NIL {
		if n.side == types.SideBuy {
			e.clearBidLevel(n.priceTick)
		} else {
			e.clearAskLevel(n.priceTick)
		}
	}

	e.handles[n.id] = NIL
	e.freeNode(idx)
	return true
}

// Replace cancels the order behind handle and enters a fresh limit order at
// the new tick and quantity on the same side. The replacement loses time
// priority and may trade immediately. Returns the AddLimit result, or NIL
// when the handle is dead or the new parameters are invalid.
func (e *Engine) Replace(handle, newTick, newQty uint32) uint32 {
	if handle >= e.maxOrders || newQty == 0 || newTick >= e.maxTicks {
		return NIL
	}
	idx := e.handles[handle]
	if idx == NIL {
		return NIL
	}
	side := e.pool[idx].side
	e.Cancel(handle)
	in := types.Msg{PriceTick: newTick, Qty: newQty, Side: side, Type: types.MsgAdd}
	return e.AddLimit(&in)
}

// ============================================================================
// QUERIES
// ============================================================================

// BestBid returns the highest occupied bid tick, NoPrice if the side is empty.
func (e *Engine) BestBid() uint32 { return e.bestBid }

// BestAsk returns the lowest occupied ask tick, NoPrice if the side is empty.
func (e *Engine) BestAsk() uint32 { return e.bestAsk }

// TotalTrades returns the number of fills executed since the last Reset.
func (e *Engine) TotalTrades() uint64 { return e.totalTrades }

// TotalVolume returns the summed fill quantity since the last Reset.
func (e *Engine) TotalVolume() uint64 { return e.totalVolume }

// DepthAt reports the resting quantity at one tick of one side. Used by the
// end-of-run depth report, not by the matching path.
func (e *Engine) DepthAt(side uint8, tick uint32) uint32 {
	if tick >= e.maxTicks {
		return 0
	}
	if side == types.SideBuy {
		return e.bids[tick].totalQty
	}
	return e.asks[tick].totalQty
}

// MaxTicks reports the configured tick domain width.
func (e *Engine) MaxTicks() uint32 { return e.maxTicks }

// ============================================================================
// POOL HELPERS
// ============================================================================

//go:nosplit
//go:inline
func (e *Engine) allocNode() uint32 {
	if e.freeHead == NIL {
		return NIL
	}
	idx := e.freeHead
	e.freeHead = e.pool[idx].next
	e.pool[idx].next = NIL
	e.pool[idx].prev = NIL
	return idx
}

//go:nosplit
//go:inline
func (e *Engine) freeNode(idx uint32) {
	e.pool[idx].next = e.freeHead
	e.freeHead = idx
}

// ============================================================================
// BITSET SCANS
// ============================================================================

// nextAskFrom finds the lowest occupied ask tick >= from, NoPrice if none.
// One masked word probe, then whole-word skips.
//
//go:nosplit
func (e *Engine) nextAskFrom(from uint32) uint32 {
	w := from / wordBits
	b := from % wordBits
	if w >= e.words {
		return NoPrice
	}

	word := e.askBits[w] & (^uint64(0) << b)
	if word != 0 {
		return w*wordBits + uint32(bits.TrailingZeros64(word))
	}

	for w++; w < e.words; w++ {
		if e.askBits[w] != 0 {
			return w*wordBits + uint32(bits.TrailingZeros64(e.askBits[w]))
		}
	}
	return NoPrice
}

// prevBidFrom finds the highest occupied bid tick <= from, NoPrice if none.
//
//go:nosplit
func (e *Engine) prevBidFrom(from uint32) uint32 {
	w := from / wordBits
	b := from % wordBits
	if w >= e.words {
		return NoPrice
	}

	mask := ^uint64(0)
	if b != 63 {
		mask = (uint64(1) << (b + 1)) - 1
	}
	word := e.bidBits[w] & mask
	if word != 0 {
		return w*wordBits + (63 - uint32(bits.LeadingZeros64(word)))
	}

	for w > 0 {
		w--
		if e.bidBits[w] != 0 {
			return w*wordBits + (63 - uint32(bits.LeadingZeros64(e.bidBits[w])))
		}
	}
	return NoPrice
}

// ============================================================================
// BEST-PRICE MAINTENANCE
// ============================================================================

// clearBidLevel drops the occupancy bit of an emptied bid level and, when
// that level was the best bid, rescans downward for the new best.
func (e *Engine) clearBidLevel(emptiedTick uint32) {
	e.bidBits[emptiedTick/wordBits] &^= uint64(1) << (emptiedTick % wordBits)
	if emptiedTick == e.bestBid {
		if emptiedTick == 0 {
			e.bestBid = e.prevBidFrom(0)
		} else {
			e.bestBid = e.prevBidFrom(emptiedTick - 1)
		}
	}
}

// clearAskLevel is the ask-side mirror, rescanning upward.
func (e *Engine) clearAskLevel(emptiedTick uint32) {
	e.askBits[emptiedTick/wordBits] &^= uint64(1) << (emptiedTick % wordBits)
	if emptiedTick == e.bestAsk {
		e.bestAsk = e.nextAskFrom(emptiedTick + 1)
	}
}

// ============================================================================
// RESTING PATH
// ============================================================================

// enqueueResting appends a remainder at the tail of its level FIFO, assigns
// a handle from the rolling cursor, and maintains occupancy plus the cached
// best. Returns the handle, or NIL when the pool is exhausted.
//
// The handle probe always terminates: a live handle implies a live node, so
// a successful allocation guarantees at least one free handle slot.
func (e *Engine) enqueueResting(side uint8, priceTick, qty uint32) uint32 {
	idx := e.allocNode()
	if idx == NIL {
		return NIL
	}

	n := &e.pool[idx]
	n.priceTick = priceTick
	n.qty = qty
	n.side = side

	n.id = e.nextHandle
	for {
		if e.handles[n.id] == NIL {
			e.handles[n.id] = idx
			e.nextHandle = (n.id + 1) % e.maxOrders
			break
		}
		n.id = (n.id + 1) % e.maxOrders
	}

	var lvl *priceLevel
	if side == types.SideBuy {
		lvl = &e.bids[priceTick]
	} else {
		lvl = &e.asks[priceTick]
	}

	// tail append preserves FIFO time priority within the level
	n.prev = lvl.tail
	n.next = NIL
	if lvl.tail != NIL {
		e.pool[lvl.tail].next = idx
	} else {
		lvl.head = idx
	}
	lvl.tail = idx
	lvl.totalQty += qty

	if side == types.SideBuy {
		e.bidBits[priceTick/wordBits] |= uint64(1) << (priceTick % wordBits)
		if e.bestBid == NoPrice || priceTick > e.bestBid {
			e.bestBid = priceTick
		}
	} else {
		e.askBits[priceTick/wordBits] |= uint64(1) << (priceTick % wordBits)
		if e.bestAsk == NoPrice || priceTick < e.bestAsk {
			e.bestAsk = priceTick
		}
	}
	return n.id
}
