package softap

import (
	"log"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

// ClientRegistry tracks admitted clients per radio instance. It keeps
// global insertion order so eviction is deterministic. It is owned by
// the dispatcher and never locked.
type ClientRegistry struct {
	order      []domain.Client
	byInstance map[string][]domain.Client
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{byInstance: make(map[string][]domain.Client)}
}

// EnsureInstance makes sure an (empty) client list exists for id.
func (r *ClientRegistry) EnsureInstance(id string) {
	if _, ok := r.byInstance[id]; !ok {
		r.byInstance[id] = nil
	}
}

// RemoveInstance drops an instance and its client list.
func (r *ClientRegistry) RemoveInstance(id string) {
	clients := r.byInstance[id]
	delete(r.byInstance, id)
	for _, c := range clients {
		r.dropFromOrder(c.MAC)
	}
}

// Has reports whether mac is registered on any instance.
func (r *ClientRegistry) Has(mac string) bool {
	for _, c := range r.order {
		if c.MAC == mac {
			return true
		}
	}
	return false
}

// Insert appends a client to its instance list.
func (r *ClientRegistry) Insert(c domain.Client) {
	r.byInstance[c.Instance] = append(r.byInstance[c.Instance], c)
	r.order = append(r.order, c)
}

// Remove deletes the client and reports whether it was present. An
// unknown client is an internal inconsistency logged by the caller.
func (r *ClientRegistry) Remove(c domain.Client) bool {
	list, ok := r.byInstance[c.Instance]
	if !ok {
		return false
	}
	for i, cur := range list {
		if cur.MAC == c.MAC {
			r.byInstance[c.Instance] = append(list[:i], list[i+1:]...)
			r.dropFromOrder(c.MAC)
			return true
		}
	}
	return false
}

// RemoveByMAC deletes mac from whichever instance holds it.
func (r *ClientRegistry) RemoveByMAC(mac string) bool {
	for id, list := range r.byInstance {
		for i, cur := range list {
			if cur.MAC == mac {
				r.byInstance[id] = append(list[:i], list[i+1:]...)
				r.dropFromOrder(mac)
				return true
			}
		}
	}
	return false
}

// Clear empties the registry, keeping no instances.
func (r *ClientRegistry) Clear() {
	r.order = nil
	r.byInstance = make(map[string][]domain.Client)
}

// TotalCount is the number of admitted clients across all instances.
func (r *ClientRegistry) TotalCount() int {
	return len(r.order)
}

// ListAll returns every client in global insertion order.
func (r *ClientRegistry) ListAll() []domain.Client {
	out := make([]domain.Client, len(r.order))
	copy(out, r.order)
	return out
}

// IdleInstances returns the instances with zero admitted clients.
func (r *ClientRegistry) IdleInstances() []string {
	var idle []string
	for id, list := range r.byInstance {
		if len(list) == 0 {
			idle = append(idle, id)
		}
	}
	return idle
}

// Snapshot copies the per-instance view for observer callbacks.
func (r *ClientRegistry) Snapshot() map[string][]domain.Client {
	out := make(map[string][]domain.Client, len(r.byInstance))
	for id, list := range r.byInstance {
		cp := make([]domain.Client, len(list))
		copy(cp, list)
		out[id] = cp
	}
	return out
}

func (r *ClientRegistry) dropFromOrder(mac string) {
	for i, c := range r.order {
		if c.MAC == mac {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
	log.Printf("[SOFTAP] registry order list out of sync for %s", mac)
}
