package monitor

import (
	"reflect"
	"testing"
)

func TestHistoryEvictsOldestInserted(t *testing.T) {
	h := newHistory(3)

	h.record(1, 10)
	h.record(2, 20)
	h.record(3, 30)
	h.record(4, 40)

	want := []Sample{{2, 20}, {3, 30}, {4, 40}}
	if got := h.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot() = %v, want %v", got, want)
	}
}

func TestHistoryEvictionFollowsInsertionOrder(t *testing.T) {
	h := newHistory(3)

	// Insert out of timestamp order; eviction must still remove the
	// oldest-inserted entry, not the smallest timestamp.
	h.record(5, 50)
	h.record(9, 90)
	h.record(2, 20)
	h.record(7, 70)

	want := []Sample{{9, 90}, {2, 20}, {7, 70}}
	if got := h.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot() = %v, want %v", got, want)
	}
}

func TestHistoryOverwriteKeepsPosition(t *testing.T) {
	h := newHistory(3)

	h.record(1, 10)
	h.record(2, 20)
	h.record(3, 30)
	h.record(2, Failure)

	want := []Sample{{1, 10}, {2, Failure}, {3, 30}}
	if got := h.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot() = %v, want %v", got, want)
	}
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	h := newHistory(5)

	for i := int64(0); i < 100; i++ {
		h.record(i, i*10)
		if n := len(h.snapshot()); n > 5 {
			t.Fatalf("history grew to %d entries, capacity is 5", n)
		}
	}

	if n := len(h.snapshot()); n != 5 {
		t.Errorf("expected 5 entries after 100 inserts, got %d", n)
	}
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := newHistory(0)

	for i := int64(0); i < 150; i++ {
		h.record(i, i)
	}

	if n := len(h.snapshot()); n != defaultHistorySize {
		t.Errorf("expected %d entries, got %d", defaultHistorySize, n)
	}
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	h := newHistory(3)
	h.record(1, 10)

	s := h.snapshot()
	s[0].Latency = 999

	if got := h.snapshot()[0].Latency; got != 10 {
		t.Errorf("snapshot mutation leaked into history: %d", got)
	}
}
