// internal/config/normalize.go
package config

// Defaults applied by Normalize when a field is left zero.
const (
	DefaultUpstreamBaud      = 250000
	DefaultUpstreamTimeoutMs = 50
	DefaultBusBaud           = 250000
	DefaultBusTimeoutMs      = 20
	DefaultQueueCapacity     = 128
	DefaultOverflow          = "drop-newest"
	DefaultFlushBatch        = 32
	DefaultMaxPayload        = 64
	DefaultPollTimeoutMs     = 5
	DefaultPollIdleMs        = 1
	DefaultMaxControls       = 64
	DefaultUpstreamRing      = 1024
	DefaultBusRing           = 256
	DefaultDiagIntervalMs    = 1000
	DefaultDiagTimeoutMs     = 1000
	DefaultDiagStaleMs       = 5000
	DefaultLogMaxSizeMB      = 10
	DefaultLogMaxAgeDays     = 7
	DefaultLogMaxBackups     = 3
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bridge

	if b.Mode == "" {
		b.Mode = ModeFilter
	}

	// ---- links ----
	if b.Upstream.Kind == "" {
		b.Upstream.Kind = "serial"
	}
	setDefault(&b.Upstream.Baud, DefaultUpstreamBaud)
	setDefault(&b.Upstream.TimeoutMs, DefaultUpstreamTimeoutMs)
	setDefault(&b.Bus.Baud, DefaultBusBaud)
	setDefault(&b.Bus.TimeoutMs, DefaultBusTimeoutMs)

	// ---- pipeline ----
	setDefault(&b.Queue.Capacity, DefaultQueueCapacity)
	if b.Queue.Overflow == "" {
		b.Queue.Overflow = DefaultOverflow
	}
	setDefault(&b.Queue.FlushBatch, DefaultFlushBatch)
	if b.Queue.FlushBatch > b.Queue.Capacity {
		b.Queue.FlushBatch = b.Queue.Capacity
	}
	setDefault(&b.Decoder.MaxPayload, DefaultMaxPayload)
	setDefault(&b.Poll.TimeoutMs, DefaultPollTimeoutMs)
	setDefault(&b.Poll.IdleMs, DefaultPollIdleMs)
	setDefault(&b.Poll.MaxControls, DefaultMaxControls)
	setDefault(&b.Ring.Upstream, DefaultUpstreamRing)
	setDefault(&b.Ring.Bus, DefaultBusRing)

	// ---- diagnostics (opt-in) ----
	if b.Diagnostics.Endpoint != "" {
		setDefault(&b.Diagnostics.IntervalMs, DefaultDiagIntervalMs)
		setDefault(&b.Diagnostics.TimeoutMs, DefaultDiagTimeoutMs)
		setDefault(&b.Diagnostics.StaleMs, DefaultDiagStaleMs)
		if b.Diagnostics.UnitID == 0 {
			b.Diagnostics.UnitID = 1
		}
		// ASCII already validated; truncate to 16 characters
		if len(b.Diagnostics.DeviceName) > 16 {
			b.Diagnostics.DeviceName = b.Diagnostics.DeviceName[:16]
		}
	}

	// ---- logs (opt-in) ----
	if b.Logs.Directory != "" {
		setDefault(&b.Logs.MaxSizeMB, DefaultLogMaxSizeMB)
		setDefault(&b.Logs.MaxAgeDays, DefaultLogMaxAgeDays)
		setDefault(&b.Logs.MaxBackups, DefaultLogMaxBackups)
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
