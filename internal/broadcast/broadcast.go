package broadcast

import (
	"github.com/cskr/pubsub/v2"
	"github.com/lcalzada-xor/softapd/internal/core/domain"
	"github.com/lcalzada-xor/softapd/internal/core/ports"
)

// Topics on the state broadcaster.
const (
	TopicState   = "state"
	TopicClients = "clients"
	TopicBlocked = "blocked"
)

const subscriberBuffer = 16

// ClientsUpdate is the payload published on TopicClients.
type ClientsUpdate struct {
	Clients   map[string][]domain.Client          `json:"clients"`
	Instances map[string]domain.RadioInstanceInfo `json:"instances"`
	Bridged   bool                                `json:"bridged"`
}

// BlockedClient is the payload published on TopicBlocked.
type BlockedClient struct {
	Client domain.Client           `json:"client"`
	Reason domain.DisconnectReason `json:"reason"`
}

// Broadcaster fans lifecycle events out to in-process subscribers. It
// implements ports.StateObserver so the lifecycle can publish into it
// directly; publishes never block on slow subscribers.
type Broadcaster struct {
	bus *pubsub.PubSub[string, any]
}

func New() *Broadcaster {
	return &Broadcaster{bus: pubsub.New[string, any](subscriberBuffer)}
}

// Subscribe returns a channel receiving every event on the given
// topics.
func (b *Broadcaster) Subscribe(topics ...string) chan any {
	return b.bus.Sub(topics...)
}

// Unsubscribe detaches ch from the given topics and drains it.
func (b *Broadcaster) Unsubscribe(ch chan any, topics ...string) {
	b.bus.Unsub(ch, topics...)
}

// Shutdown closes the bus and all subscriber channels.
func (b *Broadcaster) Shutdown() {
	b.bus.Shutdown()
}

func (b *Broadcaster) OnStateChanged(update domain.StateUpdate) {
	b.bus.TryPub(update, TopicState)
}

func (b *Broadcaster) OnConnectedClientsOrInfoChanged(clients map[string][]domain.Client, info map[string]domain.RadioInstanceInfo, bridged bool) {
	b.bus.TryPub(ClientsUpdate{Clients: clients, Instances: info, Bridged: bridged}, TopicClients)
}

func (b *Broadcaster) OnBlockedClientConnecting(client domain.Client, reason domain.DisconnectReason) {
	b.bus.TryPub(BlockedClient{Client: client, Reason: reason}, TopicBlocked)
}

// Ensure interface compliance
var _ ports.StateObserver = (*Broadcaster)(nil)
