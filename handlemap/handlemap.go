// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ SYNTHETIC HANDLE MAP
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Matching Engine Benchmark
// Component: Fixed-Capacity Handle Translation Table
//
// Description:
//   Zero-allocation Robin Hood hash map translating the producer's synthetic order
//   handles into live engine handles. One instance per worker, single-threaded by
//   construction. Deletion uses backward shifting so the Robin Hood probe invariant
//   survives churn from cancels.
//
// Design Principles:
//   - Fixed capacity with power-of-2 sizing for fast modulo operations
//   - Robin Hood displacement minimizes probe distances
//   - Backward-shift deletion keeps chains tombstone-free
//   - Parallel arrays for keys and values optimize cache usage
//   - Zero sentinel value enables efficient empty slot detection
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package handlemap

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// TYPE DEFINITIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Map is a fixed-capacity Robin Hood uint32→uint32 hash map. Keys are the
// low 32 bits of the producer's client id and are never zero; zero is the
// empty-slot sentinel.
//
//go:notinheap
//go:align 64
type Map struct {
	keys []uint32 // Key array (0 = empty sentinel)
	vals []uint32 // Value array (parallel to keys)
	mask uint32   // Size mask for fast modulo operation
	live uint32   // Current entry count
	_    [8]byte  // Padding to 64-byte cache line boundary
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// UTILITY FUNCTIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// nextPow2 calculates the smallest power of 2 greater than or equal to n.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func nextPow2(n int) uint32 {
	s := uint32(1)
	for s < uint32(n) {
		s <<= 1
	}
	return s
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONSTRUCTOR
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// New creates a map able to hold capacity live entries. The backing arrays
// are sized at twice the requested capacity, rounded up to a power of 2, so
// probe chains stay short at the expected 50% peak load.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func New(capacity int) Map {
	sz := nextPow2(capacity * 2)
	return Map{
		keys: make([]uint32, sz),
		vals: make([]uint32, sz),
		mask: sz - 1, // Bitmask for fast modulo
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CORE OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Put inserts key→val, or overwrites the value when key is already present.
// Robin Hood displacement: whenever the probing entry is farther from its
// ideal slot than the current occupant, the two swap and probing continues
// with the displaced entry.
//
// SAFETY REQUIREMENTS:
//   - Key must not be 0 (reserved as empty sentinel)
//   - Live entries must stay below array size to avoid infinite probing
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func (h *Map) Put(key, val uint32) {
	i := key & h.mask
	dist := uint32(0) // Displacement from ideal position

	for {
		k := h.keys[i]

		// Case 1: Empty slot found - insert new entry
		if k == 0 {
			h.keys[i], h.vals[i] = key, val
			h.live++
			return
		}

		// Case 2: Key already exists - overwrite value
		if k == key {
			h.vals[i] = val
			return
		}

		// Case 3: Robin Hood displacement check
		kDist := (i + h.mask + 1 - (k & h.mask)) & h.mask
		if kDist < dist {
			key, h.keys[i] = h.keys[i], key
			val, h.vals[i] = h.vals[i], val
			dist = kDist // Continue with the displaced entry
		}

		i = (i + 1) & h.mask
		dist++
	}
}

// Get retrieves the value for key. The Robin Hood invariant permits early
// termination: once the probe meets an entry closer to its home slot than
// the probe distance, the key cannot be present.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func (h *Map) Get(key uint32) (uint32, bool) {
	i := key & h.mask
	dist := uint32(0)

	for {
		k := h.keys[i]

		if k == 0 {
			return 0, false
		}
		if k == key {
			return h.vals[i], true
		}

		kDist := (i + h.mask + 1 - (k & h.mask)) & h.mask
		if kDist < dist {
			return 0, false
		}

		i = (i + 1) & h.mask
		dist++
	}
}

// Del removes key if present and reports whether it was. Removal shifts the
// following chain backward one slot at a time until it reaches an empty slot
// or an entry already sitting in its ideal position, which restores the
// Robin Hood probe invariant without tombstones.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func (h *Map) Del(key uint32) bool {
	i := key & h.mask
	dist := uint32(0)

	for {
		k := h.keys[i]

		if k == 0 {
			return false
		}
		if k == key {
			break
		}

		kDist := (i + h.mask + 1 - (k & h.mask)) & h.mask
		if kDist < dist {
			return false
		}

		i = (i + 1) & h.mask
		dist++
	}

	// Backward-shift the successor chain into the vacated slot
	for {
		next := (i + 1) & h.mask
		k := h.keys[next]
		if k == 0 {
			break
		}
		if (next+h.mask+1-(k&h.mask))&h.mask == 0 {
			break // occupant is home, chain ends here
		}
		h.keys[i], h.vals[i] = k, h.vals[next]
		i = next
	}

	h.keys[i] = 0
	h.vals[i] = 0
	h.live--
	return true
}

// Len reports the number of live entries.
//
//go:nosplit
//go:inline
func (h *Map) Len() int {
	return int(h.live)
}
