// internal/config/config.go
package config

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

// ---- BRIDGE ----

type BridgeConfig struct {
	Mode     string         `yaml:"mode"` // filter | relay
	Upstream UpstreamConfig `yaml:"upstream"`
	Bus      BusConfig      `yaml:"bus"`

	// Export addresses forwarded to the bus (filter mode).
	Outputs []uint16 `yaml:"outputs"`
	// Subordinate panel addresses polled for input (filter mode).
	Slaves []uint8 `yaml:"slaves"`

	Queue       QueueConfig       `yaml:"queue"`
	Decoder     DecoderConfig     `yaml:"decoder"`
	Poll        PollConfig        `yaml:"poll"`
	Ring        RingConfig        `yaml:"ring"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Trace       TraceConfig       `yaml:"trace"`
	Logs        LogsConfig        `yaml:"logs"`
}

const (
	ModeFilter = "filter"
	ModeRelay  = "relay"
)

// ---- LINKS ----

type UpstreamConfig struct {
	Kind      string `yaml:"kind"` // serial | tcp
	Endpoint  string `yaml:"endpoint"`
	Baud      int    `yaml:"baud"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type BusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Baud      int    `yaml:"baud"`
	TimeoutMs int    `yaml:"timeout_ms"`
	RS485     bool   `yaml:"rs485"`
}

// ---- PIPELINE ----

type QueueConfig struct {
	Capacity   int    `yaml:"capacity"`
	Overflow   string `yaml:"overflow"` // drop-newest | evict-oldest
	FlushBatch int    `yaml:"flush_batch"`
}

type DecoderConfig struct {
	MaxPayload int `yaml:"max_payload"`
}

type PollConfig struct {
	TimeoutMs   int `yaml:"timeout_ms"`
	IdleMs      int `yaml:"idle_ms"`
	MaxControls int `yaml:"max_controls"`
}

type RingConfig struct {
	Upstream int `yaml:"upstream"`
	Bus      int `yaml:"bus"`
}

// ---- DIAGNOSTICS (optional, opt-in) ----

type DiagnosticsConfig struct {
	Endpoint     string `yaml:"endpoint"`
	UnitID       uint8  `yaml:"unit_id"`
	BaseRegister uint16 `yaml:"base_register"`
	IntervalMs   int    `yaml:"interval_ms"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	DeviceName   string `yaml:"device_name"`
	// Upstream silence longer than this reports HealthStale.
	StaleMs int `yaml:"stale_ms"`
}

type TraceConfig struct {
	Path string `yaml:"path"`
}

type LogsConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}
