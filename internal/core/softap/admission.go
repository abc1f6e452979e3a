package softap

import "github.com/lcalzada-xor/softapd/internal/core/domain"

// AdmissionResult is the outcome of checking one incoming client.
type AdmissionResult struct {
	Accept bool
	Reason domain.DisconnectReason
	// NotifyObserver marks rejections the UI surface should hear about
	// (allow-list misses and capacity hits, not plain block-list hits).
	NotifyObserver bool
	// CapacityHit marks a rejection caused by the client cap.
	CapacityHit bool
}

// Eviction names a registered client that must be force-disconnected
// after a configuration or capability change.
type Eviction struct {
	Client domain.Client
	Reason domain.DisconnectReason
}

// AdmissionPolicy decides whether clients may stay associated. It is
// pure; the state machine applies the driver and observer side
// effects.
type AdmissionPolicy struct{}

// Check evaluates the ordered admission rules for an incoming client.
func (AdmissionPolicy) Check(cfg *domain.ApConfiguration, capability *domain.Capability, c domain.Client, registrySize int) AdmissionResult {
	if !capability.Supports(domain.FeatureClientForceDisconnect) {
		// Without forced disconnect there is no way to enforce a
		// rejection, so everything is admitted.
		return AdmissionResult{Accept: true}
	}
	if cfg.IsBlocked(c.MAC) {
		return AdmissionResult{Reason: domain.DisconnectBlockedByUser}
	}
	if cfg.ClientControlEnabled && !cfg.IsAllowed(c.MAC) {
		return AdmissionResult{Reason: domain.DisconnectBlockedByUser, NotifyObserver: true}
	}
	if registrySize >= capability.EffectiveMaxClients(cfg.MaxClients) {
		return AdmissionResult{Reason: domain.DisconnectNoMoreStas, NotifyObserver: true, CapacityHit: true}
	}
	return AdmissionResult{Accept: true}
}

// Evictions re-evaluates already-connected clients against a new
// configuration or capability. Blocked and disallowed clients go
// first; if the remainder still exceeds the cap, the oldest clients
// are evicted until it fits.
func (AdmissionPolicy) Evictions(cfg *domain.ApConfiguration, capability *domain.Capability, clients []domain.Client) []Eviction {
	if !capability.Supports(domain.FeatureClientForceDisconnect) {
		return nil
	}
	var out []Eviction
	var remaining []domain.Client
	for _, c := range clients {
		if cfg.IsBlocked(c.MAC) || (cfg.ClientControlEnabled && !cfg.IsAllowed(c.MAC)) {
			out = append(out, Eviction{Client: c, Reason: domain.DisconnectBlockedByUser})
			continue
		}
		remaining = append(remaining, c)
	}
	limit := capability.EffectiveMaxClients(cfg.MaxClients)
	for i := 0; len(remaining)-i > limit; i++ {
		out = append(out, Eviction{Client: remaining[i], Reason: domain.DisconnectNoMoreStas})
	}
	return out
}
