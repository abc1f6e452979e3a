package softap

import (
	"testing"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

func TestPendingQueueKeepsFirstReason(t *testing.T) {
	q := NewPendingDisconnectQueue()
	q.Put(c("aa", "i0"), domain.DisconnectBlockedByUser)
	q.Put(c("aa", "i0"), domain.DisconnectNoMoreStas)

	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1", q.Len())
	}
	if got := q.Entries()[0].Reason; got != domain.DisconnectBlockedByUser {
		t.Errorf("Reason = %s, want %s", got, domain.DisconnectBlockedByUser)
	}
}

func TestPendingQueueOrder(t *testing.T) {
	q := NewPendingDisconnectQueue()
	q.Put(c("aa", "i0"), domain.DisconnectBlockedByUser)
	q.Put(c("bb", "i0"), domain.DisconnectNoMoreStas)
	q.Put(c("cc", "i0"), domain.DisconnectUnspecified)
	q.Remove("bb")

	entries := q.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(entries))
	}
	if entries[0].Client.MAC != "aa" || entries[1].Client.MAC != "cc" {
		t.Errorf("order = [%s %s], want [aa cc]", entries[0].Client.MAC, entries[1].Client.MAC)
	}
}

func TestPendingQueueRemove(t *testing.T) {
	q := NewPendingDisconnectQueue()
	q.Put(c("aa", "i0"), domain.DisconnectBlockedByUser)

	if !q.Remove("aa") {
		t.Error("Remove returned false for present entry")
	}
	if q.Remove("aa") {
		t.Error("Remove returned true for absent entry")
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}
