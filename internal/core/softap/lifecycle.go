package softap

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/softapd/internal/clock"
	"github.com/lcalzada-xor/softapd/internal/core/domain"
	"github.com/lcalzada-xor/softapd/internal/core/ports"
)

// retryDelay is the interval between forced-disconnect retry rounds.
const retryDelay = 1000 * time.Millisecond

type state int

const (
	stateIdle state = iota
	stateRunning
	stateQuit
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	}
	return "quit"
}

// Deps wires the lifecycle to its collaborators. All fields are
// required; Clock defaults to the real clock when nil.
type Deps struct {
	Driver       ports.NativeDriver
	Planner      ports.ChannelPlanner
	Capabilities ports.CapabilityProvider
	Store        ports.ConfigStore
	Notifier     ports.Notifier
	Coex         ports.CoexAdvisor
	Diagnostics  ports.Diagnostics
	Observer     ports.StateObserver
	Callback     ports.LifecycleCallback
	Clock        clock.Clock
	CountryCode  string
}

// SoftApLifecycle drives one soft AP from start to teardown. All
// mutable state is owned by the dispatcher; public operations enqueue
// events and return immediately, except that the caller posting into
// an idle mailbox runs the drain loop itself.
type SoftApLifecycle struct {
	mu sync.Mutex

	id   string
	role domain.Role
	deps Deps

	cfg             *domain.ApConfiguration
	capability      *domain.Capability
	bssidRandomized bool

	mb        *mailbox
	timers    *TimerSet
	registry  *ClientRegistry
	pending   *PendingDisconnectQueue
	admission AdmissionPolicy

	state          state
	ifaceName      string
	ifaceUp        bool
	ifaceDestroyed bool
	infoMap        map[string]domain.RadioInstanceInfo
	startTimestamp string
	lastState      *domain.StateUpdate

	maxClientsReported bool
	retryTimer         clock.Timer
	verbose            bool
}

// Status is a read-only snapshot of the lifecycle, served by the ops
// API.
type Status struct {
	ID             string                              `json:"id"`
	Role           domain.Role                         `json:"role"`
	State          string                              `json:"state"`
	ApState        domain.StateUpdate                  `json:"ap_state"`
	InterfaceName  string                              `json:"interface_name,omitempty"`
	InterfaceUp    bool                                `json:"interface_up"`
	StartTimestamp string                              `json:"start_timestamp,omitempty"`
	Clients        map[string][]domain.Client          `json:"clients"`
	Instances      map[string]domain.RadioInstanceInfo `json:"instances"`
	PendingCount   int                                 `json:"pending_disconnects"`
}

// New creates a lifecycle and immediately enqueues Start(requestor).
// A nil configuration falls back to the store's persisted default; if
// that fails too, the start path fails with a general error.
func New(cfg *domain.ApConfiguration, capability *domain.Capability, role domain.Role, requestor string, deps Deps) *SoftApLifecycle {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	l := &SoftApLifecycle{
		id:         uuid.NewString(),
		role:       role,
		deps:       deps,
		cfg:        cfg,
		capability: capability,
		registry:   NewClientRegistry(),
		pending:    NewPendingDisconnectQueue(),
		infoMap:    make(map[string]domain.RadioInstanceInfo),
		state:      stateIdle,
	}
	l.mb = newMailbox(l.handle)
	l.timers = NewTimerSet(deps.Clock, l.mb.post)

	if l.cfg == nil {
		stored, err := deps.Store.DefaultConfig()
		if err != nil {
			log.Printf("[SOFTAP] %s: no configuration and no stored default: %v", l.id, err)
		} else {
			l.cfg = stored
		}
	}
	if l.cfg != nil && l.cfg.BSSID == "" && capability.Supports(domain.FeatureMacAddressCustomization) {
		randomized, ok, err := deps.Store.RandomizeBssidIfUnset(l.cfg)
		if err != nil {
			log.Printf("[SOFTAP] %s: bssid randomization failed: %v", l.id, err)
		} else if ok {
			l.cfg = randomized
			l.bssidRandomized = true
		}
	}

	l.mb.post(event{kind: evStart, requestor: requestor})
	return l
}

// Stop asks the lifecycle to tear the AP down.
func (l *SoftApLifecycle) Stop() {
	l.mb.post(event{kind: evStop})
}

// UpdateCapability replaces the capability (tethered mode only).
func (l *SoftApLifecycle) UpdateCapability(capability *domain.Capability) {
	l.mb.post(event{kind: evUpdateCapability, capability: capability})
}

// UpdateConfiguration replaces the configuration if the change does
// not require an AP restart.
func (l *SoftApLifecycle) UpdateConfiguration(cfg *domain.ApConfiguration) {
	l.mb.post(event{kind: evUpdateConfig, config: cfg})
}

// EnableVerboseLogging toggles per-event dispatch logging.
func (l *SoftApLifecycle) EnableVerboseLogging(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = enabled
}

func (l *SoftApLifecycle) ID() string { return l.id }

func (l *SoftApLifecycle) Role() domain.Role { return l.role }

func (l *SoftApLifecycle) Requestor() string {
	return l.role.Requestor
}

func (l *SoftApLifecycle) InterfaceName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ifaceName
}

func (l *SoftApLifecycle) CurrentStateName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.String()
}

func (l *SoftApLifecycle) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("SoftApLifecycle{id=%s mode=%s iface=%s state=%s}", l.id, l.role.Mode, l.ifaceName, l.state)
}

// Status returns a point-in-time snapshot.
func (l *SoftApLifecycle) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Status{
		ID:             l.id,
		Role:           l.role,
		State:          l.state.String(),
		InterfaceName:  l.ifaceName,
		InterfaceUp:    l.ifaceUp,
		StartTimestamp: l.startTimestamp,
		Clients:        l.registry.Snapshot(),
		Instances:      make(map[string]domain.RadioInstanceInfo, len(l.infoMap)),
		PendingCount:   l.pending.Len(),
	}
	if l.lastState != nil {
		st.ApState = *l.lastState
	}
	for id, info := range l.infoMap {
		st.Instances[id] = info
	}
	return st
}

// Dump writes a human-readable description to w.
func (l *SoftApLifecycle) Dump(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(w, "SoftApLifecycle %s\n", l.id)
	fmt.Fprintf(w, "  mode: %s requestor: %s\n", l.role.Mode, l.role.Requestor)
	fmt.Fprintf(w, "  state: %s iface: %q up: %v destroyed: %v\n", l.state, l.ifaceName, l.ifaceUp, l.ifaceDestroyed)
	if l.startTimestamp != "" {
		fmt.Fprintf(w, "  started: %s\n", l.startTimestamp)
	}
	if l.cfg != nil {
		fmt.Fprintf(w, "  ssid: %q bands: %v bridged: %v\n", l.cfg.SSID, l.cfg.Bands, l.cfg.IsBridged())
		fmt.Fprintf(w, "  auto shutdown: %v timeout: %dms\n", l.cfg.AutoShutdownEnabled, l.cfg.ShutdownTimeoutMillis)
	}
	fmt.Fprintf(w, "  clients: %d pending disconnects: %d\n", l.registry.TotalCount(), l.pending.Len())
	for id, info := range l.infoMap {
		fmt.Fprintf(w, "  instance %s: freq=%d bw=%d bssid=%s\n", id, info.Frequency, info.Bandwidth, info.BSSID)
	}
	for id, clients := range l.registry.Snapshot() {
		for _, c := range clients {
			fmt.Fprintf(w, "  client %s on %s\n", c.MAC, id)
		}
	}
}

// ifaceCallback marshals driver interface events onto the mailbox.
type ifaceCallback struct {
	l *SoftApLifecycle
}

func (c ifaceCallback) OnDestroyed(string) {
	c.l.mb.post(event{kind: evIfaceDestroyed})
}

func (c ifaceCallback) OnUp(string) {
	c.l.mb.post(event{kind: evIfaceStatusChanged, up: true})
}

func (c ifaceCallback) OnDown(string) {
	c.l.mb.post(event{kind: evIfaceStatusChanged, up: false})
}

// apListener marshals AP-level driver events onto the mailbox.
type apListener struct {
	l *SoftApLifecycle
}

func (a apListener) OnFailure() {
	a.l.mb.post(event{kind: evFailure})
}

func (a apListener) OnInfoChanged(info domain.RadioInstanceInfo) {
	a.l.mb.post(event{kind: evApInfoChanged, info: info})
}

func (a apListener) OnConnectedClientsChanged(client domain.Client, connected bool) {
	a.l.mb.post(event{kind: evClientAssocChanged, client: client, connected: connected})
}

// coexListener is registered while running. Its callback is a
// subscription only; no coex-driven behavior is defined yet.
type coexListener struct {
	l *SoftApLifecycle
}

func (coexListener) OnCoexChanged() {}

// Ensure interface compliance
var _ ports.Dumpable = (*SoftApLifecycle)(nil)
