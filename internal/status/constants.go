// internal/status/constants.go
package status

// Bridge diagnostics block layout constants.
// These values define the register map and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of holding registers in the block.
const SlotsPerBlock = 24

// ---- SLOT INDICES ----

// SlotHealthCode holds the bridge health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code (see ErrCode*).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the bridge has not been healthy.
const SlotSecondsInError = 2

// SlotMode holds the running mode (ModeFilter, ModeRelay).
const SlotMode = 3

// ---- COUNTERS ----
// Counters saturate at 65535, they never wrap.

const (
	SlotResyncs      = 4
	SlotOverflows    = 5
	SlotQueueDepth   = 6
	SlotTimeouts     = 7
	SlotMalformed    = 8
	SlotRingDrops    = 9
	SlotSlavesOnline = 10
	SlotSlavesTotal  = 11
	SlotBroadcasts   = 12
	SlotInputEvents  = 13
	SlotRelayErrors  = 14
)

// Slot 15 is reserved.
const SlotReserved = 15

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the bridge name.
// The name is always placed at the END of the block.
const SlotDeviceNameStart = 16

// SlotDeviceNameSlots is the number of slots reserved for the name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the name.
const DeviceNameMaxChars = 16

// MaxCounter is the saturation value of every 16-bit slot.
const MaxCounter = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state.
const HealthUnknown uint16 = 0

// HealthOK: every slave answering, no transport errors.
const HealthOK uint16 = 1

// HealthError: at least one slave offline or the bus writer failing.
const HealthError uint16 = 2

// HealthStale: no upstream bytes for longer than the stale window.
const HealthStale uint16 = 3

// ---- ERROR CODES ----

const (
	ErrCodeNone            uint16 = 0
	ErrCodeSlaveOffline    uint16 = 1
	ErrCodeBroadcastFailed uint16 = 2
	ErrCodeUpstreamSilent  uint16 = 3
	ErrCodeRelayFailed     uint16 = 4
)

// ---- MODES ----

const (
	ModeFilter uint16 = 1
	ModeRelay  uint16 = 2
)
