package softap

import (
	"testing"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

func admissionConfig() *domain.ApConfiguration {
	return &domain.ApConfiguration{
		SSID:  "test-ap",
		Bands: []domain.Band{domain.Band2GHz},
	}
}

func TestAdmissionCheck(t *testing.T) {
	capability := testCapability()
	noDisconnect := testCapability()
	noDisconnect.Features &^= domain.FeatureClientForceDisconnect

	blocked := admissionConfig()
	blocked.BlockedClients = []string{"aa"}

	controlled := admissionConfig()
	controlled.ClientControlEnabled = true
	controlled.AllowedClients = []string{"aa"}

	limited := admissionConfig()
	limited.MaxClients = 2

	tests := []struct {
		name       string
		cfg        *domain.ApConfiguration
		capability *domain.Capability
		mac        string
		size       int
		accept     bool
		reason     domain.DisconnectReason
		notify     bool
		capacity   bool
	}{
		{"no force disconnect admits blocked", blocked, noDisconnect, "aa", 0, true, domain.DisconnectUnspecified, false, false},
		{"blocked client rejected", blocked, capability, "aa", 0, false, domain.DisconnectBlockedByUser, false, false},
		{"unblocked client admitted", blocked, capability, "bb", 0, true, domain.DisconnectUnspecified, false, false},
		{"allow list miss rejected with notify", controlled, capability, "bb", 0, false, domain.DisconnectBlockedByUser, true, false},
		{"allow list hit admitted", controlled, capability, "aa", 0, true, domain.DisconnectUnspecified, false, false},
		{"under user limit admitted", limited, capability, "aa", 1, true, domain.DisconnectUnspecified, false, false},
		{"at user limit rejected", limited, capability, "aa", 2, false, domain.DisconnectNoMoreStas, true, true},
		{"at hardware limit rejected", admissionConfig(), capability, "aa", 8, false, domain.DisconnectNoMoreStas, true, true},
	}

	var policy AdmissionPolicy
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := policy.Check(tt.cfg, tt.capability, c(tt.mac, "i0"), tt.size)
			if res.Accept != tt.accept {
				t.Errorf("Accept = %v, want %v", res.Accept, tt.accept)
			}
			if !tt.accept && res.Reason != tt.reason {
				t.Errorf("Reason = %s, want %s", res.Reason, tt.reason)
			}
			if res.NotifyObserver != tt.notify {
				t.Errorf("NotifyObserver = %v, want %v", res.NotifyObserver, tt.notify)
			}
			if res.CapacityHit != tt.capacity {
				t.Errorf("CapacityHit = %v, want %v", res.CapacityHit, tt.capacity)
			}
		})
	}
}

func TestEvictionsBlockedFirstThenOldest(t *testing.T) {
	capability := testCapability()
	capability.MaxSupportedClients = 2

	cfg := admissionConfig()
	cfg.BlockedClients = []string{"cc"}

	clients := []domain.Client{c("aa", "i0"), c("bb", "i0"), c("cc", "i0"), c("dd", "i0")}

	var policy AdmissionPolicy
	out := policy.Evictions(cfg, capability, clients)

	if len(out) != 2 {
		t.Fatalf("len(Evictions) = %d, want 2", len(out))
	}
	if out[0].Client.MAC != "cc" || out[0].Reason != domain.DisconnectBlockedByUser {
		t.Errorf("first eviction = %s/%s, want cc/blocked", out[0].Client.MAC, out[0].Reason)
	}
	// With cc gone, three clients remain against a cap of two: the
	// oldest goes.
	if out[1].Client.MAC != "aa" || out[1].Reason != domain.DisconnectNoMoreStas {
		t.Errorf("second eviction = %s/%s, want aa/no_more_stas", out[1].Client.MAC, out[1].Reason)
	}
}

func TestEvictionsNoneWithoutForceDisconnect(t *testing.T) {
	capability := testCapability()
	capability.Features &^= domain.FeatureClientForceDisconnect
	capability.MaxSupportedClients = 1

	cfg := admissionConfig()
	cfg.BlockedClients = []string{"aa"}

	var policy AdmissionPolicy
	out := policy.Evictions(cfg, capability, []domain.Client{c("aa", "i0"), c("bb", "i0")})
	if len(out) != 0 {
		t.Errorf("Evictions = %v, want none", out)
	}
}
