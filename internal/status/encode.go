// internal/status/encode.go
package status

// Encode converts a Snapshot into a full diagnostics block.
// Layout is protocol-locked. The name slots are left zero.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotMode] = s.Mode

	regs[SlotResyncs] = s.Resyncs
	regs[SlotOverflows] = s.Overflows
	regs[SlotQueueDepth] = s.QueueDepth
	regs[SlotTimeouts] = s.Timeouts
	regs[SlotMalformed] = s.Malformed
	regs[SlotRingDrops] = s.RingDrops
	regs[SlotSlavesOnline] = s.SlavesOnline
	regs[SlotSlavesTotal] = s.SlavesTotal
	regs[SlotBroadcasts] = s.Broadcasts
	regs[SlotInputEvents] = s.InputEvents
	regs[SlotRelayErrors] = s.RelayErrors

	return regs
}
