package driver

import (
	"fmt"
	"log"
	"sync"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
	"github.com/lcalzada-xor/softapd/internal/core/ports"
)

// MockDriver simulates the HAL for development without AP-capable
// hardware. Starting an AP immediately reports the interface up and
// one radio instance per requested band.
type MockDriver struct {
	mu       sync.Mutex
	seq      int
	cb       ports.InterfaceCallback
	listener ports.SoftApEventListener
	iface    string
	up       bool
}

func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

func (d *MockDriver) SetupInterface(cb ports.InterfaceCallback, requestor string, band domain.Band, bridged bool) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.cb = cb
	d.iface = fmt.Sprintf("mockap%d", d.seq)
	d.up = false
	log.Printf("[MOCK] interface %s for %s (bridged=%v)", d.iface, requestor, bridged)
	return d.iface
}

func (d *MockDriver) StartSoftAp(iface string, cfg *domain.ApConfiguration, tethered bool, listener ports.SoftApEventListener) bool {
	d.mu.Lock()
	d.listener = listener
	d.up = true
	cb := d.cb
	d.mu.Unlock()

	cb.OnUp(iface)
	for i, band := range cfg.Bands {
		listener.OnInfoChanged(domain.RadioInstanceInfo{
			Instance:  fmt.Sprintf("%s_%d", iface, i),
			Frequency: defaultFrequency(band),
			Bandwidth: 20,
			BSSID:     cfg.BSSID,
		})
	}
	return true
}

func (d *MockDriver) TeardownInterface(iface string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.up = false
	log.Printf("[MOCK] teardown %s", iface)
}

func (d *MockDriver) IsInterfaceUp(iface string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.up
}

func (d *MockDriver) ForceClientDisconnect(iface string, mac string, reason domain.DisconnectReason) bool {
	log.Printf("[MOCK] disconnect %s on %s: %s", mac, iface, reason)
	return true
}

func (d *MockDriver) ResetFactoryMac(string) bool { return true }

func (d *MockDriver) SetMac(iface string, mac string) bool {
	log.Printf("[MOCK] mac %s on %s", mac, iface)
	return true
}

func (d *MockDriver) IsSetMacSupported(string) bool { return true }

func (d *MockDriver) SetCountryCode(iface string, countryCode string) bool {
	log.Printf("[MOCK] country %s on %s", countryCode, iface)
	return true
}

func (d *MockDriver) RemoveInstanceFromBridge(iface string, instance string) {
	log.Printf("[MOCK] remove instance %s from %s", instance, iface)
}

// AssociateClient simulates a station association (exposed for mock
// mode demos and tests).
func (d *MockDriver) AssociateClient(mac string, instance string, connected bool) {
	d.mu.Lock()
	listener := d.listener
	d.mu.Unlock()
	if listener != nil {
		listener.OnConnectedClientsChanged(domain.Client{MAC: mac, Instance: instance}, connected)
	}
}

func defaultFrequency(band domain.Band) int {
	switch band {
	case domain.Band5GHz:
		return 5180
	case domain.Band6GHz:
		return 5955
	default:
		return 2412
	}
}

// Ensure interface compliance
var _ ports.NativeDriver = (*MockDriver)(nil)
