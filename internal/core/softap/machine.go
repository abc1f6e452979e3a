package softap

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

// handle is the dispatcher entry point. One event at a time; handlers
// run to completion. Running falls through to Idle for anything it
// does not handle.
func (l *SoftApLifecycle) handle(ev event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == stateQuit {
		if l.verbose {
			log.Printf("[SOFTAP] %s: dropping %s after quit", l.id, ev.kind)
		}
		return
	}
	if l.verbose {
		log.Printf("[SOFTAP] %s: dispatch %s in %s", l.id, ev.kind, l.state)
	}
	if l.state == stateRunning && l.handleRunning(ev) {
		return
	}
	l.handleIdle(ev)
}

func (l *SoftApLifecycle) handleIdle(ev event) {
	switch ev.kind {
	case evStart:
		l.onStart(ev.requestor)
	case evStop:
		l.publish(domain.StateUpdate{State: domain.StateDisabling})
		l.quit()
	case evUpdateCapability:
		if l.role.Mode != domain.ModeTethered {
			log.Printf("[SOFTAP] %s: capability update ignored in %s mode", l.id, l.role.Mode)
			return
		}
		l.capability = ev.capability
		maxSupportedClients.Set(float64(ev.capability.MaxSupportedClients))
	case evUpdateConfig:
		if ev.config != nil {
			l.cfg = ev.config
			l.maxClientsReported = false
		}
	default:
		if l.verbose {
			log.Printf("[SOFTAP] %s: %s ignored in idle", l.id, ev.kind)
		}
	}
}

func (l *SoftApLifecycle) handleRunning(ev event) bool {
	switch ev.kind {
	case evStart:
		log.Printf("[SOFTAP] %s: start ignored, already running", l.id)
	case evStop:
		l.publish(domain.StateUpdate{State: domain.StateDisabling})
		l.quit()
	case evClientAssocChanged:
		if ev.connected {
			l.onClientConnected(ev.client)
		} else {
			l.onClientDisconnected(ev.client)
		}
	case evApInfoChanged:
		l.updateInstanceInfo(ev.info, false)
	case evIfaceStatusChanged:
		l.applyIfaceStatus(ev.up)
	case evIfaceDestroyed:
		l.publish(domain.StateUpdate{State: domain.StateDisabling})
		l.ifaceDestroyed = true
		l.quit()
	case evFailure, evIfaceDown:
		l.publish(domain.StateUpdate{State: domain.StateFailed, Reason: domain.FailureGeneral})
		l.quit()
	case evNoClientsTimeout:
		l.onShutdownTimeout()
	case evNoClientsTimeoutOneInstance:
		l.onBridgedIdleTimeout()
	case evUpdateCapability:
		l.onUpdateCapability(ev.capability)
	case evUpdateConfig:
		l.onUpdateConfig(ev.config)
	case evForceDisconnectPending:
		l.retryPendingDisconnects()
	default:
		return false
	}
	return true
}

// quit runs the exit chain and moves to the terminal state. After
// this, every further event is dropped.
func (l *SoftApLifecycle) quit() {
	if l.state == stateRunning {
		l.exitRunning()
	}
	l.state = stateQuit
	l.publish(domain.StateUpdate{State: domain.StateDisabled})
	l.deps.Callback.OnStopped(l.id)
}

// onStart brings the AP up from idle, or reports a start failure and
// stays.
func (l *SoftApLifecycle) onStart(requestor string) {
	if requestor != "" {
		l.role.Requestor = requestor
	}
	if l.cfg == nil || l.cfg.SSID == "" {
		log.Printf("[SOFTAP] %s: start rejected, no usable configuration", l.id)
		l.startFailed(domain.FailureGeneral)
		return
	}

	if l.cfg.IsBridged() && !l.capability.SupportsBand(l.cfg.BandMask()) {
		mask := l.cfg.BandMask() & l.capability.AvailableBands
		if l.capability.SupportsBand(domain.Band2GHz) {
			mask |= domain.Band2GHz
		}
		if mask == 0 {
			log.Printf("[SOFTAP] %s: no requested band is available", l.id)
			l.startFailed(domain.FailureGeneral)
			return
		}
		log.Printf("[SOFTAP] %s: bridged bands unavailable, falling back to single band", l.id)
		l.cfg = l.cfg.WithSingleBand(mask)
	}

	name := l.deps.Driver.SetupInterface(ifaceCallback{l}, l.role.Requestor, l.cfg.BandMask(), l.cfg.IsBridged())
	if name == "" {
		log.Printf("[SOFTAP] %s: driver provided no interface", l.id)
		l.startFailed(domain.FailureGeneral)
		return
	}
	l.ifaceName = name

	l.deps.Notifier.DismissShutdownTimeoutExpired()
	l.publish(domain.StateUpdate{State: domain.StateEnabling})

	if err := l.startSoftAp(); err != nil {
		reason := domain.StartFailureReason(err)
		log.Printf("[SOFTAP] %s: start failed: %v", l.id, err)
		l.publish(domain.StateUpdate{State: domain.StateFailed, Reason: reason})
		l.deps.Driver.TeardownInterface(l.ifaceName)
		l.ifaceName = ""
		l.deps.Callback.OnStartFailure(l.id)
		return
	}

	l.state = stateRunning
	l.enterRunning()
}

func (l *SoftApLifecycle) startFailed(reason domain.FailureReason) {
	l.publish(domain.StateUpdate{State: domain.StateFailed, Reason: reason})
	l.deps.Callback.OnStartFailure(l.id)
}

// startSoftAp programs the driver in order: BSSID, country code,
// channel plan, feature validation, AP start, diagnostics.
func (l *SoftApLifecycle) startSoftAp() error {
	cfg := l.cfg
	iface := l.ifaceName

	if cfg.BSSID == "" {
		if !l.deps.Driver.ResetFactoryMac(iface) {
			log.Printf("[SOFTAP] %s: factory MAC reset failed, continuing", l.id)
		}
	} else if !l.deps.Driver.IsSetMacSupported(iface) {
		if !l.bssidRandomized {
			return domain.NewStartError(domain.FailureUnsupportedConfiguration, errors.New("custom bssid not supported by driver"))
		}
	} else if !l.deps.Driver.SetMac(iface, cfg.BSSID) {
		return domain.NewStartError(domain.FailureGeneral, fmt.Errorf("set mac %s failed", cfg.BSSID))
	}

	countryCode := strings.ToUpper(l.deps.CountryCode)
	needs5GHz := cfg.BandMask().Contains(domain.Band5GHz)
	if countryCode == "" {
		if needs5GHz {
			return domain.NewStartError(domain.FailureGeneral, errors.New("country code required for 5 GHz"))
		}
	} else if !l.deps.Driver.SetCountryCode(iface, countryCode) {
		if needs5GHz {
			return domain.NewStartError(domain.FailureGeneral, fmt.Errorf("set country code %s failed", countryCode))
		}
		log.Printf("[SOFTAP] %s: set country code %s failed, continuing", l.id, countryCode)
	}

	if err := l.deps.Planner.UpdateBandAndChannel(cfg, l.capability); err != nil {
		return fmt.Errorf("channel plan: %w", err)
	}

	if !l.capability.SupportsBand(cfg.BandMask()) {
		return domain.NewStartError(domain.FailureUnsupportedConfiguration, errors.New("configured band not available"))
	}
	if cfg.ClientControlEnabled && !l.capability.Supports(domain.FeatureClientForceDisconnect) {
		return domain.NewStartError(domain.FailureUnsupportedConfiguration, errors.New("client control requires forced disconnect support"))
	}

	if !l.deps.Driver.StartSoftAp(iface, cfg, l.role.Mode == domain.ModeTethered, apListener{l}) {
		return domain.NewStartError(domain.FailureGeneral, errors.New("driver start failed"))
	}

	if err := l.deps.Diagnostics.StartLogging(iface); err != nil {
		log.Printf("[SOFTAP] %s: driver logging unavailable: %v", l.id, err)
	}
	l.startTimestamp = l.deps.Clock.Now().Format("01-02 15:04:05.000")
	return nil
}

func (l *SoftApLifecycle) enterRunning() {
	l.deps.Coex.Register(coexListener{l})
	l.registry.Clear()
	l.pending.Clear()
	l.infoMap = make(map[string]domain.RadioInstanceInfo)
	l.maxClientsReported = false
	l.ifaceUp = false
	l.applyIfaceStatus(l.deps.Driver.IsInterfaceUp(l.ifaceName))
	l.scheduleTimers()
}

func (l *SoftApLifecycle) exitRunning() {
	if !l.ifaceDestroyed {
		l.stopSoftAp()
	}
	l.deps.Coex.Unregister(coexListener{l})
	if l.registry.TotalCount() > 0 {
		associatedStations.Set(0)
	}
	l.registry.Clear()
	l.pending.Clear()
	if l.retryTimer != nil {
		l.retryTimer.Stop()
		l.retryTimer = nil
	}
	l.timers.CancelAll()
	l.publish(domain.StateUpdate{State: domain.StateDisabling})
	l.infoMap = make(map[string]domain.RadioInstanceInfo)
	l.notifyClientsOrInfo()
	l.ifaceName = ""
	l.ifaceUp = false
	l.state = stateIdle
}

// stopSoftAp disconnects every client, stops driver logging and tears
// the interface down.
func (l *SoftApLifecycle) stopSoftAp() {
	for _, c := range l.registry.ListAll() {
		l.deps.Driver.ForceClientDisconnect(l.ifaceName, c.MAC, domain.DisconnectUnspecified)
	}
	l.deps.Diagnostics.StopLogging(l.ifaceName)
	l.deps.Driver.TeardownInterface(l.ifaceName)
	apEvents.WithLabelValues("down").Inc()
}

func (l *SoftApLifecycle) applyIfaceStatus(up bool) {
	if l.ifaceUp == up {
		return
	}
	if up {
		l.ifaceUp = true
		apEvents.WithLabelValues("up").Inc()
		startResults.WithLabelValues("success").Inc()
		l.publish(domain.StateUpdate{State: domain.StateEnabled})
		l.deps.Callback.OnStarted(l.id)
		l.registry.Clear()
		l.infoMap = make(map[string]domain.RadioInstanceInfo)
		l.scheduleTimers()
		return
	}
	l.ifaceUp = false
	l.mb.post(event{kind: evIfaceDown})
}

func (l *SoftApLifecycle) onClientConnected(c domain.Client) {
	l.pending.Remove(c.MAC)
	if l.registry.Has(c.MAC) {
		log.Printf("[SOFTAP] %s: duplicate association for %s", l.id, c.MAC)
		return
	}
	res := l.admission.Check(l.cfg, l.capability, c, l.registry.TotalCount())
	if !res.Accept {
		log.Printf("[ADMISSION] %s rejected: %s", c.MAC, res.Reason)
		if res.CapacityHit {
			if !l.maxClientsReported {
				blockedClients.WithLabelValues(res.Reason.String()).Inc()
				l.maxClientsReported = true
			}
		} else {
			blockedClients.WithLabelValues(res.Reason.String()).Inc()
		}
		if res.NotifyObserver {
			l.deps.Observer.OnBlockedClientConnecting(c, res.Reason)
		}
		l.forceDisconnect(c, res.Reason)
		return
	}
	l.registry.Insert(c)
	associatedStations.Set(float64(l.registry.TotalCount()))
	l.notifyClientsOrInfo()
	l.scheduleTimers()
}

func (l *SoftApLifecycle) onClientDisconnected(c domain.Client) {
	removed := l.registry.Remove(c)
	if !removed {
		removed = l.registry.RemoveByMAC(c.MAC)
	}
	if !removed {
		log.Printf("[SOFTAP] %s: disconnect for unknown client %s", l.id, c.MAC)
		return
	}
	associatedStations.Set(float64(l.registry.TotalCount()))
	l.notifyClientsOrInfo()
	l.scheduleTimers()
}

// updateInstanceInfo applies a driver info report (or an internal
// instance removal) to the info map and rebroadcasts when visible.
func (l *SoftApLifecycle) updateInstanceInfo(info domain.RadioInstanceInfo, removed bool) {
	if info.Frequency < 0 {
		log.Printf("[SOFTAP] %s: invalid frequency %d for instance %s", l.id, info.Frequency, info.Instance)
		return
	}
	info.AutoShutdownTimeoutMillis = l.effectiveShutdownTimeoutMillis()

	if removed {
		delete(l.infoMap, info.Instance)
		l.registry.RemoveInstance(info.Instance)
		l.notifyClientsOrInfo()
		l.scheduleTimers()
		return
	}

	if cur, ok := l.infoMap[info.Instance]; ok && cur == info {
		return
	}
	l.infoMap[info.Instance] = info
	l.registry.EnsureInstance(info.Instance)

	bridged := l.cfg.IsBridged()
	if !bridged && !l.cfg.BandMask().Contains(info.Band()) {
		bandPreferenceViolations.Inc()
	}
	// In bridged mode callers interpret a single-entry info map as a
	// single AP, so hold the broadcast until both instances reported.
	if !bridged || len(l.infoMap) >= 2 {
		l.notifyClientsOrInfo()
	}
	l.scheduleTimers()
}

func (l *SoftApLifecycle) onShutdownTimeout() {
	l.timers.CancelShutdown()
	if l.cfg == nil || !l.cfg.AutoShutdownEnabled || l.registry.TotalCount() > 0 {
		log.Printf("[TIMER] %s: spurious shutdown timeout dropped", l.id)
		return
	}
	log.Printf("[TIMER] %s: no clients for %dms, shutting down", l.id, l.effectiveShutdownTimeoutMillis())
	l.deps.Notifier.ShowShutdownTimeoutExpired()
	l.publish(domain.StateUpdate{State: domain.StateDisabling})
	l.quit()
}

func (l *SoftApLifecycle) onBridgedIdleTimeout() {
	l.timers.CancelBridgedIdle()
	if !l.cfg.BridgedOpportunisticShutdownEnabled {
		log.Printf("[TIMER] %s: spurious bridged idle timeout dropped", l.id)
		return
	}
	var target string
	bestFreq := -1
	for _, id := range l.registry.IdleInstances() {
		if info, ok := l.infoMap[id]; ok && info.Frequency > bestFreq {
			target = id
			bestFreq = info.Frequency
		}
	}
	if target == "" {
		return
	}
	log.Printf("[TIMER] %s: removing idle instance %s from bridge", l.id, target)
	l.deps.Driver.RemoveInstanceFromBridge(l.ifaceName, target)
	l.updateInstanceInfo(l.infoMap[target], true)
}

func (l *SoftApLifecycle) onUpdateCapability(capability *domain.Capability) {
	if capability == nil {
		return
	}
	if l.role.Mode != domain.ModeTethered {
		log.Printf("[SOFTAP] %s: capability update ignored in %s mode", l.id, l.role.Mode)
		return
	}
	l.capability = capability
	maxSupportedClients.Set(float64(capability.MaxSupportedClients))
	l.applyEvictions()
}

func (l *SoftApLifecycle) onUpdateConfig(cfg *domain.ApConfiguration) {
	if cfg == nil {
		return
	}
	if domain.RequiresRestart(l.cfg, cfg, l.bssidRandomized) {
		log.Printf("[SOFTAP] %s: configuration change needs an AP restart, ignored", l.id)
		return
	}
	timerFieldsChanged := l.cfg.ShutdownTimeoutMillis != cfg.ShutdownTimeoutMillis ||
		l.cfg.AutoShutdownEnabled != cfg.AutoShutdownEnabled ||
		l.cfg.BridgedOpportunisticShutdownEnabled != cfg.BridgedOpportunisticShutdownEnabled
	if l.cfg.MaxClients != cfg.MaxClients {
		l.maxClientsReported = false
	}
	l.cfg = cfg

	if timerFieldsChanged {
		l.timers.CancelAll()
		l.scheduleTimers()
		effective := l.effectiveShutdownTimeoutMillis()
		for id, info := range l.infoMap {
			info.AutoShutdownTimeoutMillis = effective
			l.infoMap[id] = info
		}
		l.notifyClientsOrInfo()
	}
	l.applyEvictions()
}

// applyEvictions re-checks every connected client and force
// disconnects the ones the new configuration or capability no longer
// admits.
func (l *SoftApLifecycle) applyEvictions() {
	evictions := l.admission.Evictions(l.cfg, l.capability, l.registry.ListAll())
	if len(evictions) == 0 {
		return
	}
	for _, e := range evictions {
		log.Printf("[ADMISSION] evicting %s: %s", e.Client.MAC, e.Reason)
		l.registry.RemoveByMAC(e.Client.MAC)
		l.forceDisconnect(e.Client, e.Reason)
	}
	associatedStations.Set(float64(l.registry.TotalCount()))
	l.notifyClientsOrInfo()
	l.scheduleTimers()
}

// forceDisconnect issues the driver call, parking the client in the
// pending queue for retry when the driver refuses.
func (l *SoftApLifecycle) forceDisconnect(c domain.Client, reason domain.DisconnectReason) {
	if l.deps.Driver.ForceClientDisconnect(l.ifaceName, c.MAC, reason) {
		return
	}
	log.Printf("[SOFTAP] %s: forced disconnect of %s failed, queued for retry", l.id, c.MAC)
	l.pending.Put(c, reason)
	l.scheduleRetry()
}

func (l *SoftApLifecycle) scheduleRetry() {
	if l.retryTimer != nil {
		l.retryTimer.Stop()
	}
	l.retryTimer = l.deps.Clock.AfterFunc(retryDelay, func() {
		l.mb.post(event{kind: evForceDisconnectPending})
	})
}

func (l *SoftApLifecycle) retryPendingDisconnects() {
	l.retryTimer = nil
	for _, e := range l.pending.Entries() {
		if l.deps.Driver.ForceClientDisconnect(l.ifaceName, e.Client.MAC, e.Reason) {
			l.pending.Remove(e.Client.MAC)
		}
	}
	if l.pending.Len() > 0 {
		l.scheduleRetry()
	}
}

// scheduleTimers reconciles both inactivity timers with the current
// config, client count and instance set.
func (l *SoftApLifecycle) scheduleTimers() {
	if l.cfg.AutoShutdownEnabled && l.registry.TotalCount() == 0 {
		if !l.timers.ShutdownArmed() {
			l.timers.ScheduleShutdown(time.Duration(l.effectiveShutdownTimeoutMillis()) * time.Millisecond)
		}
	} else {
		l.timers.CancelShutdown()
	}

	bridgedIdleWanted := l.cfg.IsBridged() &&
		l.cfg.BridgedOpportunisticShutdownEnabled &&
		len(l.infoMap) > 1 &&
		(l.registry.TotalCount() == 0 || len(l.registry.IdleInstances()) > 0)
	if bridgedIdleWanted {
		l.timers.ScheduleBridgedIdle(time.Duration(l.deps.Capabilities.DefaultBridgedIdleMillis()) * time.Millisecond)
	} else {
		l.timers.CancelBridgedIdle()
	}
}

// effectiveShutdownTimeoutMillis is the value programmed into the
// shutdown timer and echoed on outgoing instance info.
func (l *SoftApLifecycle) effectiveShutdownTimeoutMillis() int64 {
	if l.cfg == nil || !l.cfg.AutoShutdownEnabled {
		return 0
	}
	if l.cfg.ShutdownTimeoutMillis > 0 {
		return l.cfg.ShutdownTimeoutMillis
	}
	return l.deps.Capabilities.DefaultShutdownMillis()
}

// publish broadcasts a state transition, suppressing consecutive
// duplicates.
func (l *SoftApLifecycle) publish(update domain.StateUpdate) {
	if l.lastState != nil && *l.lastState == update {
		return
	}
	cp := update
	l.lastState = &cp
	if update.State == domain.StateFailed {
		startResults.WithLabelValues(update.Reason.String()).Inc()
	}
	l.deps.Observer.OnStateChanged(update)
}

func (l *SoftApLifecycle) notifyClientsOrInfo() {
	infoCopy := make(map[string]domain.RadioInstanceInfo, len(l.infoMap))
	for id, info := range l.infoMap {
		infoCopy[id] = info
	}
	bridged := l.cfg != nil && l.cfg.IsBridged()
	l.deps.Observer.OnConnectedClientsOrInfoChanged(l.registry.Snapshot(), infoCopy, bridged)
}
