package softap

import (
	"errors"
	"testing"

	"github.com/lcalzada-xor/softapd/internal/clock"
	"github.com/lcalzada-xor/softapd/internal/core/domain"
	"github.com/lcalzada-xor/softapd/internal/core/ports"
)

// fakeDriver implements ports.NativeDriver for testing, recording every
// call and letting tests inject driver events through cb and listener.
type fakeDriver struct {
	ifaceName       string
	startOK         bool
	ifaceUp         bool
	setMacSupported bool

	cb       ports.InterfaceCallback
	listener ports.SoftApEventListener

	startedCfg       *domain.ApConfiguration
	macSet           []string
	countrySet       []string
	factoryResets    int
	tornDown         []string
	disconnects      []disconnectCall
	refuseDisconnect map[string]bool
	bridgeRemovals   []string
}

type disconnectCall struct {
	mac    string
	reason domain.DisconnectReason
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		ifaceName:        "ap0",
		startOK:          true,
		ifaceUp:          true,
		setMacSupported:  true,
		refuseDisconnect: make(map[string]bool),
	}
}

func (d *fakeDriver) SetupInterface(cb ports.InterfaceCallback, requestor string, band domain.Band, bridged bool) string {
	d.cb = cb
	return d.ifaceName
}

func (d *fakeDriver) StartSoftAp(iface string, cfg *domain.ApConfiguration, tethered bool, listener ports.SoftApEventListener) bool {
	d.listener = listener
	d.startedCfg = cfg
	return d.startOK
}

func (d *fakeDriver) TeardownInterface(iface string) {
	d.tornDown = append(d.tornDown, iface)
}

func (d *fakeDriver) IsInterfaceUp(iface string) bool { return d.ifaceUp }

func (d *fakeDriver) ForceClientDisconnect(iface string, mac string, reason domain.DisconnectReason) bool {
	if d.refuseDisconnect[mac] {
		return false
	}
	d.disconnects = append(d.disconnects, disconnectCall{mac: mac, reason: reason})
	return true
}

func (d *fakeDriver) ResetFactoryMac(string) bool {
	d.factoryResets++
	return true
}

func (d *fakeDriver) SetMac(iface string, mac string) bool {
	d.macSet = append(d.macSet, mac)
	return true
}

func (d *fakeDriver) IsSetMacSupported(string) bool { return d.setMacSupported }

func (d *fakeDriver) SetCountryCode(iface string, countryCode string) bool {
	d.countrySet = append(d.countrySet, countryCode)
	return true
}

func (d *fakeDriver) RemoveInstanceFromBridge(iface string, instance string) {
	d.bridgeRemovals = append(d.bridgeRemovals, instance)
}

// recObserver records every observer callback.
type recObserver struct {
	states  []domain.StateUpdate
	updates []clientsUpdate
	blocked []blockedEvent
}

type clientsUpdate struct {
	clients map[string][]domain.Client
	info    map[string]domain.RadioInstanceInfo
	bridged bool
}

type blockedEvent struct {
	client domain.Client
	reason domain.DisconnectReason
}

func (o *recObserver) OnStateChanged(update domain.StateUpdate) {
	o.states = append(o.states, update)
}

func (o *recObserver) OnConnectedClientsOrInfoChanged(clients map[string][]domain.Client, info map[string]domain.RadioInstanceInfo, bridged bool) {
	o.updates = append(o.updates, clientsUpdate{clients: clients, info: info, bridged: bridged})
}

func (o *recObserver) OnBlockedClientConnecting(client domain.Client, reason domain.DisconnectReason) {
	o.blocked = append(o.blocked, blockedEvent{client: client, reason: reason})
}

func (o *recObserver) lastUpdate() clientsUpdate {
	return o.updates[len(o.updates)-1]
}

// recCallback records lifecycle outcomes.
type recCallback struct {
	started []string
	failed  []string
	stopped []string
}

func (c *recCallback) OnStarted(id string)      { c.started = append(c.started, id) }
func (c *recCallback) OnStartFailure(id string) { c.failed = append(c.failed, id) }
func (c *recCallback) OnStopped(id string)      { c.stopped = append(c.stopped, id) }

type fakeStore struct {
	def    *domain.ApConfiguration
	defErr error
}

func (s *fakeStore) DefaultConfig() (*domain.ApConfiguration, error) {
	if s.defErr != nil {
		return nil, s.defErr
	}
	if s.def == nil {
		return nil, errors.New("no stored configuration")
	}
	return s.def, nil
}

func (s *fakeStore) RandomizeBssidIfUnset(cfg *domain.ApConfiguration) (*domain.ApConfiguration, bool, error) {
	return cfg, false, nil
}

func (s *fakeStore) SaveDefaultConfig(cfg *domain.ApConfiguration) error {
	s.def = cfg
	return nil
}

func (s *fakeStore) Close() error { return nil }

type fakePlanner struct {
	err error
}

func (p *fakePlanner) UpdateBandAndChannel(*domain.ApConfiguration, *domain.Capability) error {
	return p.err
}

type fakeCaps struct {
	shutdownMillis    int64
	bridgedIdleMillis int64
}

func (c fakeCaps) DefaultShutdownMillis() int64    { return c.shutdownMillis }
func (c fakeCaps) DefaultBridgedIdleMillis() int64 { return c.bridgedIdleMillis }

type fakeNotifier struct {
	shown     bool
	dismissed int
}

func (n *fakeNotifier) ShowShutdownTimeoutExpired()    { n.shown = true }
func (n *fakeNotifier) DismissShutdownTimeoutExpired() { n.shown = false; n.dismissed++ }

type fakeCoex struct {
	registered   int
	unregistered int
}

func (c *fakeCoex) Register(ports.CoexListener)   { c.registered++ }
func (c *fakeCoex) Unregister(ports.CoexListener) { c.unregistered++ }

type fakeDiag struct {
	started []string
	stopped []string
}

func (d *fakeDiag) StartLogging(iface string) error {
	d.started = append(d.started, iface)
	return nil
}

func (d *fakeDiag) StopLogging(iface string) {
	d.stopped = append(d.stopped, iface)
}

// harness bundles every collaborator fake around one lifecycle.
type harness struct {
	t        *testing.T
	drv      *fakeDriver
	obs      *recObserver
	cb       *recCallback
	store    *fakeStore
	planner  *fakePlanner
	caps     fakeCaps
	notifier *fakeNotifier
	coex     *fakeCoex
	diag     *fakeDiag
	clk      *clock.FakeClock
	country  string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:        t,
		drv:      newFakeDriver(),
		obs:      &recObserver{},
		cb:       &recCallback{},
		store:    &fakeStore{},
		planner:  &fakePlanner{},
		caps:     fakeCaps{shutdownMillis: 600000, bridgedIdleMillis: 300000},
		notifier: &fakeNotifier{},
		coex:     &fakeCoex{},
		diag:     &fakeDiag{},
		clk:      clock.Fake(),
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Driver:       h.drv,
		Planner:      h.planner,
		Capabilities: h.caps,
		Store:        h.store,
		Notifier:     h.notifier,
		Coex:         h.coex,
		Diagnostics:  h.diag,
		Observer:     h.obs,
		Callback:     h.cb,
		Clock:        h.clk,
		CountryCode:  h.country,
	}
}

func (h *harness) start(cfg *domain.ApConfiguration, capability *domain.Capability) *SoftApLifecycle {
	return h.startWithRole(cfg, capability, domain.Role{Mode: domain.ModeTethered, Requestor: "test"})
}

func (h *harness) startWithRole(cfg *domain.ApConfiguration, capability *domain.Capability, role domain.Role) *SoftApLifecycle {
	if capability == nil {
		capability = testCapability()
	}
	return New(cfg, capability, role, role.Requestor, h.deps())
}

// connect injects a driver association event.
func (h *harness) connect(mac, instance string) {
	h.drv.listener.OnConnectedClientsChanged(domain.Client{MAC: mac, Instance: instance}, true)
}

func (h *harness) disconnect(mac, instance string) {
	h.drv.listener.OnConnectedClientsChanged(domain.Client{MAC: mac, Instance: instance}, false)
}

func (h *harness) info(instance string, freq int) {
	h.drv.listener.OnInfoChanged(domain.RadioInstanceInfo{
		Instance:  instance,
		Frequency: freq,
		Bandwidth: 20,
		BSSID:     "02:00:00:00:00:01",
	})
}

func testCapability() *domain.Capability {
	return &domain.Capability{
		MaxSupportedClients: 8,
		Features: domain.FeatureMacAddressCustomization |
			domain.FeatureClientForceDisconnect |
			domain.FeatureAcsOffload,
		AvailableBands: domain.Band2GHz | domain.Band5GHz | domain.Band6GHz,
	}
}

func testConfig() *domain.ApConfiguration {
	return &domain.ApConfiguration{
		SSID:                                "test-ap",
		Bands:                               []domain.Band{domain.Band2GHz},
		Security:                            domain.SecurityWPA2,
		AutoShutdownEnabled:                 true,
		ShutdownTimeoutMillis:               600000,
		BridgedOpportunisticShutdownEnabled: true,
	}
}

func totalClients(st Status) int {
	n := 0
	for _, list := range st.Clients {
		n += len(list)
	}
	return n
}
