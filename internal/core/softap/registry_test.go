package softap

import (
	"testing"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

func c(mac, instance string) domain.Client {
	return domain.Client{MAC: mac, Instance: instance}
}

func TestRegistryInsertionOrder(t *testing.T) {
	r := NewClientRegistry()
	r.Insert(c("aa", "i0"))
	r.Insert(c("bb", "i1"))
	r.Insert(c("cc", "i0"))

	if r.TotalCount() != 3 {
		t.Fatalf("TotalCount = %d, want 3", r.TotalCount())
	}
	all := r.ListAll()
	want := []string{"aa", "bb", "cc"}
	for i, m := range want {
		if all[i].MAC != m {
			t.Errorf("ListAll[%d] = %s, want %s", i, all[i].MAC, m)
		}
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewClientRegistry()
	r.Insert(c("aa", "i0"))
	r.Insert(c("bb", "i0"))

	if !r.Remove(c("aa", "i0")) {
		t.Fatal("Remove returned false for present client")
	}
	if r.Remove(c("aa", "i0")) {
		t.Error("Remove returned true for absent client")
	}
	if r.Has("aa") {
		t.Error("Has(aa) true after removal")
	}
	if !r.Has("bb") {
		t.Error("Has(bb) false, expected present")
	}
}

func TestRegistryRemoveByMAC(t *testing.T) {
	r := NewClientRegistry()
	r.Insert(c("aa", "i0"))

	// The instance in the disconnect event may not match the one we
	// registered; the MAC fallback must still find it.
	if !r.RemoveByMAC("aa") {
		t.Fatal("RemoveByMAC failed for present client")
	}
	if r.RemoveByMAC("aa") {
		t.Error("RemoveByMAC succeeded twice")
	}
	if r.TotalCount() != 0 {
		t.Errorf("TotalCount = %d, want 0", r.TotalCount())
	}
}

func TestRegistryRemoveInstanceDropsClients(t *testing.T) {
	r := NewClientRegistry()
	r.Insert(c("aa", "i0"))
	r.Insert(c("bb", "i1"))
	r.RemoveInstance("i0")

	if r.Has("aa") {
		t.Error("client aa survived instance removal")
	}
	if !r.Has("bb") {
		t.Error("client bb on another instance was dropped")
	}
	if _, ok := r.Snapshot()["i0"]; ok {
		t.Error("removed instance still present in snapshot")
	}
}

func TestRegistryIdleInstances(t *testing.T) {
	r := NewClientRegistry()
	r.EnsureInstance("i0")
	r.EnsureInstance("i1")
	r.Insert(c("aa", "i1"))

	idle := r.IdleInstances()
	if len(idle) != 1 || idle[0] != "i0" {
		t.Errorf("IdleInstances = %v, want [i0]", idle)
	}
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewClientRegistry()
	r.Insert(c("aa", "i0"))

	snap := r.Snapshot()
	snap["i0"][0].MAC = "mutated"

	if r.ListAll()[0].MAC != "aa" {
		t.Error("snapshot mutation leaked into registry")
	}
}
