package softap

import (
	"time"

	"github.com/lcalzada-xor/softapd/internal/clock"
)

// TimerSet owns the two one-shot inactivity timers. Fires post events
// onto the mailbox; the handlers run on the dispatcher. The bridged
// idle timer is latched so repeated scheduling while armed is a no-op.
type TimerSet struct {
	clk  clock.Clock
	post func(event)

	shutdown          clock.Timer
	bridgedIdle       clock.Timer
	bridgedIdleActive bool
}

func NewTimerSet(clk clock.Clock, post func(event)) *TimerSet {
	return &TimerSet{clk: clk, post: post}
}

// ScheduleShutdown (re)arms the whole-AP shutdown timer.
func (t *TimerSet) ScheduleShutdown(d time.Duration) {
	t.CancelShutdown()
	t.shutdown = t.clk.AfterFunc(d, func() {
		t.post(event{kind: evNoClientsTimeout})
	})
}

func (t *TimerSet) CancelShutdown() {
	if t.shutdown != nil {
		t.shutdown.Stop()
		t.shutdown = nil
	}
}

// ShutdownArmed reports whether the shutdown timer is pending.
func (t *TimerSet) ShutdownArmed() bool {
	return t.shutdown != nil
}

// ScheduleBridgedIdle arms the per-instance idle timer unless it is
// already armed.
func (t *TimerSet) ScheduleBridgedIdle(d time.Duration) {
	if t.bridgedIdleActive {
		return
	}
	t.bridgedIdleActive = true
	t.bridgedIdle = t.clk.AfterFunc(d, func() {
		t.post(event{kind: evNoClientsTimeoutOneInstance})
	})
}

func (t *TimerSet) CancelBridgedIdle() {
	if t.bridgedIdle != nil {
		t.bridgedIdle.Stop()
		t.bridgedIdle = nil
	}
	t.bridgedIdleActive = false
}

// BridgedIdleArmed reports whether the bridged idle timer is pending.
func (t *TimerSet) BridgedIdleArmed() bool {
	return t.bridgedIdleActive
}

// CancelAll disarms both timers.
func (t *TimerSet) CancelAll() {
	t.CancelShutdown()
	t.CancelBridgedIdle()
}
