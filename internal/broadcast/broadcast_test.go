package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

func recv(t *testing.T, ch chan any) any {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestBroadcasterStateTopic(t *testing.T) {
	b := New()
	defer b.Shutdown()

	ch := b.Subscribe(TopicState)
	b.OnStateChanged(domain.StateUpdate{State: domain.StateEnabled})

	update, ok := recv(t, ch).(domain.StateUpdate)
	require.True(t, ok)
	assert.Equal(t, domain.StateEnabled, update.State)
}

func TestBroadcasterClientsTopic(t *testing.T) {
	b := New()
	defer b.Shutdown()

	ch := b.Subscribe(TopicClients)
	clients := map[string][]domain.Client{
		"ap0_0": {{MAC: "aa:bb:cc:00:00:01", Instance: "ap0_0"}},
	}
	info := map[string]domain.RadioInstanceInfo{
		"ap0_0": {Instance: "ap0_0", Frequency: 2437},
	}
	b.OnConnectedClientsOrInfoChanged(clients, info, true)

	update, ok := recv(t, ch).(ClientsUpdate)
	require.True(t, ok)
	assert.True(t, update.Bridged)
	assert.Len(t, update.Clients["ap0_0"], 1)
	assert.EqualValues(t, 2437, update.Instances["ap0_0"].Frequency)
}

func TestBroadcasterBlockedTopic(t *testing.T) {
	b := New()
	defer b.Shutdown()

	ch := b.Subscribe(TopicBlocked)
	b.OnBlockedClientConnecting(domain.Client{MAC: "aa:bb:cc:00:00:01"}, domain.DisconnectBlockedByUser)

	ev, ok := recv(t, ch).(BlockedClient)
	require.True(t, ok)
	assert.Equal(t, "aa:bb:cc:00:00:01", ev.Client.MAC)
	assert.Equal(t, domain.DisconnectBlockedByUser, ev.Reason)
}

func TestBroadcasterTopicsAreIndependent(t *testing.T) {
	b := New()
	defer b.Shutdown()

	stateCh := b.Subscribe(TopicState)
	b.OnBlockedClientConnecting(domain.Client{MAC: "aa:bb:cc:00:00:01"}, domain.DisconnectBlockedByUser)
	b.OnStateChanged(domain.StateUpdate{State: domain.StateDisabled})

	update, ok := recv(t, stateCh).(domain.StateUpdate)
	require.True(t, ok)
	assert.Equal(t, domain.StateDisabled, update.State)
	select {
	case ev := <-stateCh:
		t.Fatalf("unexpected extra event: %#v", ev)
	default:
	}
}

func TestBroadcasterSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	defer b.Shutdown()

	ch := b.Subscribe(TopicState)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Well past the subscriber buffer; TryPub must drop, not block.
		for i := 0; i < subscriberBuffer*4; i++ {
			b.OnStateChanged(domain.StateUpdate{State: domain.StateEnabled})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
	b.Unsubscribe(ch, TopicState)
}
