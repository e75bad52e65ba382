// internal/export/protocol.go
package export

// Export stream wire layout.
// These values define the protocol and MUST NOT be configurable.

// ---- FRAMING ----

// SyncByte is repeated SyncLen times in front of every record.
const SyncByte byte = 0x55

// SyncLen is the number of sync bytes forming the marker.
const SyncLen = 4

// HeaderLen is address(2) + count(1).
const HeaderLen = 3

// ---- LIMITS ----

// HardMaxPayload is the largest even payload a one-byte count can describe.
const HardMaxPayload = 254

// DefaultMaxPayload is used when no decoder limit is configured.
const DefaultMaxPayload = 64

// WordStride is the address distance between consecutive payload words.
const WordStride = 2

// AddressValueEvent is one write observed on the export stream.
type AddressValueEvent struct {
	Address uint16
	Value   uint16
}

// RecordLen returns the encoded size of a record carrying n words.
func RecordLen(words int) int {
	return SyncLen + HeaderLen + words*2
}
