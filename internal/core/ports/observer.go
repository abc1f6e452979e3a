package ports

import "github.com/lcalzada-xor/softapd/internal/core/domain"

// StateObserver receives externally visible lifecycle transitions.
// Callbacks run synchronously on the dispatcher and must not block; to
// call back into the lifecycle they post an event instead.
type StateObserver interface {
	OnStateChanged(update domain.StateUpdate)
	OnConnectedClientsOrInfoChanged(clients map[string][]domain.Client, info map[string]domain.RadioInstanceInfo, bridged bool)
	OnBlockedClientConnecting(client domain.Client, reason domain.DisconnectReason)
}

// LifecycleCallback reports start/stop outcomes to the orchestrator.
type LifecycleCallback interface {
	OnStarted(id string)
	OnStartFailure(id string)
	OnStopped(id string)
}
