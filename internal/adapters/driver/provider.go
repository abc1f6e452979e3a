package driver

import "github.com/lcalzada-xor/softapd/internal/core/ports"

// StaticCapabilityProvider serves fixed timer defaults taken from the
// daemon configuration.
type StaticCapabilityProvider struct {
	ShutdownMillis    int64
	BridgedIdleMillis int64
}

func (p StaticCapabilityProvider) DefaultShutdownMillis() int64 { return p.ShutdownMillis }

func (p StaticCapabilityProvider) DefaultBridgedIdleMillis() int64 { return p.BridgedIdleMillis }

// NopCoexAdvisor accepts listener registrations and never reports
// constraint changes.
type NopCoexAdvisor struct{}

func (NopCoexAdvisor) Register(ports.CoexListener) {}

func (NopCoexAdvisor) Unregister(ports.CoexListener) {}

var (
	_ ports.CapabilityProvider = StaticCapabilityProvider{}
	_ ports.CoexAdvisor        = NopCoexAdvisor{}
)
