// internal/status/snapshot.go
package status

// Snapshot represents exactly what the diagnostics writer is allowed to deliver.
// Counters are already clamped to 16 bits.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	Mode           uint16

	Resyncs      uint16
	Overflows    uint16
	QueueDepth   uint16
	Timeouts     uint16
	Malformed    uint16
	RingDrops    uint16
	SlavesOnline uint16
	SlavesTotal  uint16
	Broadcasts   uint16
	InputEvents  uint16
	RelayErrors  uint16
}

// Clamp saturates a 64-bit counter into one register.
func Clamp(v uint64) uint16 {
	if v > MaxCounter {
		return MaxCounter
	}
	return uint16(v)
}

// Counters is the raw material for a Snapshot, read from the running bridge.
type Counters struct {
	Mode         uint16
	Resyncs      uint64
	Overflows    uint64
	QueueDepth   int
	Timeouts     uint64
	Malformed    uint64
	RingDrops    uint64
	SlavesOnline int
	SlavesTotal  int
	Broadcasts   uint64
	BroadcastErr uint64
	InputEvents  uint64
	RelayErrors  uint64

	// UpstreamSilent is true when no upstream byte arrived in the stale window.
	UpstreamSilent bool
}
