package types

// ============================================================================
// ORDER MESSAGE - FIXED-SIZE QUEUE PAYLOAD
// ============================================================================

// Side values carried by Msg.Side.
const (
	SideBuy  uint8 = 0
	SideSell uint8 = 1
)

// Msg.Type values.
const (
	MsgAdd    uint8 = 0
	MsgCancel uint8 = 1
)

// Time-in-force flag bits carried by Msg.Flags.
const (
	FlagIOC uint8 = 1 << 0 // immediate-or-cancel: never rest the remainder
	FlagFOK uint8 = 1 << 1 // fill-or-kill: best-effort, partials stand, remainder never rests
)

// Msg is the order message moved from the producer to a worker through a ring
// queue. It is plain old data: no pointers, no drop logic, safe to move by
// byte copy. The explicit padding byte keeps WorkerID aligned and the struct
// is 32 bytes; a ring slot (payload plus 8-byte sequence stamp) is 40 bytes.
//
// HandleToCancel is meaningful only when Type == MsgCancel and carries the
// producer's synthetic handle for the order to remove, not an engine handle.
// Workers translate it through their live-order map before dispatching.
type Msg struct {
	ClientID       uint64 // 8B - opaque passthrough, producer sequence + 1
	PriceTick      uint32 // 4B - discrete price in [0, MaxTicks)
	Qty            uint32 // 4B - must be >0 for adds
	Side           uint8  // 1B - SideBuy or SideSell
	Flags          uint8  // 1B - FlagIOC | FlagFOK
	Type           uint8  // 1B - MsgAdd or MsgCancel
	_              uint8  // 1B - padding, keeps WorkerID aligned
	WorkerID       uint32 // 4B - routing hint chosen by the producer
	HandleToCancel uint32 // 4B - synthetic handle, cancel messages only
}
