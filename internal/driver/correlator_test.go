package driver

import (
	"testing"

	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

func TestCorrelatorResolveMatchesOwnRequest(t *testing.T) {
	t.Parallel()
	c := NewCorrelator()

	ids := []string{"req-a", "req-b", "req-c"}
	channels := make(map[string]<-chan *protocol.Frame, len(ids))
	for _, id := range ids {
		ch, err := c.Register(id)
		if err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
		channels[id] = ch
	}

	// Resolve in an order unrelated to registration.
	for _, id := range []string{"req-b", "req-c", "req-a"} {
		if !c.Resolve(id, &protocol.Frame{RequestID: id}) {
			t.Fatalf("Resolve(%s) found no pending entry", id)
		}
	}

	for _, id := range ids {
		frame := <-channels[id]
		if frame.RequestID != id {
			t.Errorf("channel for %s received frame for %s", id, frame.RequestID)
		}
	}
	if n := c.PendingCount(); n != 0 {
		t.Errorf("PendingCount() = %d, want 0", n)
	}
}

func TestCorrelatorRejectsDuplicateID(t *testing.T) {
	t.Parallel()
	c := NewCorrelator()

	if _, err := c.Register("dup"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := c.Register("dup"); err == nil {
		t.Fatal("second Register with pending id succeeded, want error")
	}
}

func TestCorrelatorCancelRemovesOnlyOwnEntry(t *testing.T) {
	t.Parallel()
	c := NewCorrelator()

	if _, err := c.Register("doomed"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	survivor, err := c.Register("survivor")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	c.Cancel("doomed")

	if c.Resolve("doomed", &protocol.Frame{RequestID: "doomed"}) {
		t.Error("late reply resolved a cancelled entry")
	}
	if !c.Resolve("survivor", &protocol.Frame{RequestID: "survivor"}) {
		t.Error("cancel removed an unrelated pending entry")
	}
	frame := <-survivor
	if frame.RequestID != "survivor" {
		t.Errorf("survivor received frame for %s", frame.RequestID)
	}
}

func TestCorrelatorResolveUnknownID(t *testing.T) {
	t.Parallel()
	c := NewCorrelator()
	if c.Resolve("nobody", &protocol.Frame{}) {
		t.Error("Resolve of unknown id reported success")
	}
}
