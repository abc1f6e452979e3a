package notify

import (
	"log"
	"sync"

	"github.com/lcalzada-xor/softapd/internal/core/ports"
)

// LogNotifier is the notification surface for a headless daemon: the
// shutdown-expired notice is logged and kept as a flag the ops API can
// read.
type LogNotifier struct {
	mu      sync.Mutex
	showing bool
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) ShowShutdownTimeoutExpired() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.showing = true
	log.Printf("[NOTIFY] soft AP shut down after inactivity timeout")
}

func (n *LogNotifier) DismissShutdownTimeoutExpired() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.showing = false
}

// Showing reports whether the shutdown-expired notice is active.
func (n *LogNotifier) Showing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.showing
}

var _ ports.Notifier = (*LogNotifier)(nil)
