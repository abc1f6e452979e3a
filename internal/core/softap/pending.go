package softap

import "github.com/lcalzada-xor/softapd/internal/core/domain"

// PendingDisconnect is one failed forced disconnect awaiting retry.
type PendingDisconnect struct {
	Client domain.Client
	Reason domain.DisconnectReason
}

// PendingDisconnectQueue holds clients whose driver-level forced
// disconnect failed. A client here is never simultaneously in the
// registry; callers remove it from the registry before inserting.
type PendingDisconnectQueue struct {
	order   []string
	entries map[string]PendingDisconnect
}

func NewPendingDisconnectQueue() *PendingDisconnectQueue {
	return &PendingDisconnectQueue{entries: make(map[string]PendingDisconnect)}
}

// Put records a failed disconnect, keeping the first reason on
// duplicates.
func (q *PendingDisconnectQueue) Put(c domain.Client, reason domain.DisconnectReason) {
	if _, ok := q.entries[c.MAC]; ok {
		return
	}
	q.entries[c.MAC] = PendingDisconnect{Client: c, Reason: reason}
	q.order = append(q.order, c.MAC)
}

// Remove drops mac from the queue, reporting whether it was present.
func (q *PendingDisconnectQueue) Remove(mac string) bool {
	if _, ok := q.entries[mac]; !ok {
		return false
	}
	delete(q.entries, mac)
	for i, m := range q.order {
		if m == mac {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

func (q *PendingDisconnectQueue) Clear() {
	q.order = nil
	q.entries = make(map[string]PendingDisconnect)
}

func (q *PendingDisconnectQueue) Len() int {
	return len(q.entries)
}

// Entries returns the queue in insertion order.
func (q *PendingDisconnectQueue) Entries() []PendingDisconnect {
	out := make([]PendingDisconnect, 0, len(q.order))
	for _, mac := range q.order {
		out = append(out, q.entries[mac])
	}
	return out
}
