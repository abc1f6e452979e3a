package ports

import (
	"io"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

// ChannelPlanner selects band and channel for a configuration before
// the driver start. Errors carry a domain.StartError reason.
type ChannelPlanner interface {
	UpdateBandAndChannel(cfg *domain.ApConfiguration, capability *domain.Capability) error
}

// CapabilityProvider supplies the default timer durations. Feature
// predicates are not part of it; they live on domain.Capability.
type CapabilityProvider interface {
	DefaultShutdownMillis() int64
	DefaultBridgedIdleMillis() int64
}

// ConfigStore persists the default AP configuration and handles BSSID
// randomization bookkeeping.
type ConfigStore interface {
	DefaultConfig() (*domain.ApConfiguration, error)
	// RandomizeBssidIfUnset returns cfg with a generated BSSID when the
	// input has none, together with whether randomization happened.
	RandomizeBssidIfUnset(cfg *domain.ApConfiguration) (*domain.ApConfiguration, bool, error)
	SaveDefaultConfig(cfg *domain.ApConfiguration) error
	Close() error
}

// Notifier is the user-facing notification surface.
type Notifier interface {
	ShowShutdownTimeoutExpired()
	DismissShutdownTimeoutExpired()
}

// CoexListener is notified on coexistence constraint changes. The
// lifecycle registers one while running; its callback is reserved.
type CoexListener interface {
	OnCoexChanged()
}

// CoexAdvisor tracks radio coexistence constraints.
type CoexAdvisor interface {
	Register(l CoexListener)
	Unregister(l CoexListener)
}

// Diagnostics starts and stops low-level driver logging for a live
// interface.
type Diagnostics interface {
	StartLogging(iface string) error
	StopLogging(iface string)
}

// Dumpable is implemented by components that can describe themselves
// into a debug sink.
type Dumpable interface {
	Dump(w io.Writer)
}
