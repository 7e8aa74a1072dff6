package rules

import (
	"errors"
	"testing"
)

func TestParity(t *testing.T) {
	w := NewWindow("a", 6)

	if w.Countered() {
		t.Error("fresh window must not be countered")
	}
	for i, responder := range []string{"b", "c", "b", "c", "b"} {
		if err := w.AddVeto(responder); err != nil {
			t.Fatalf("veto %d failed: %v", i+1, err)
		}
		wantCancelled := (i+1)%2 == 1
		if w.Countered() != wantCancelled {
			t.Errorf("after %d vetoes countered=%v, want %v", i+1, w.Countered(), wantCancelled)
		}
	}
	if w.Depth() != 5 {
		t.Errorf("expected depth 5, got %d", w.Depth())
	}
}

func TestNoSelfVetoAtEvenParity(t *testing.T) {
	w := NewWindow("a", 6)

	if err := w.AddVeto("a"); !errors.Is(err, ErrNotEligibleToRespond) {
		t.Errorf("initiator must not veto their live action, got %v", err)
	}
	// Once countered the initiator may counter back.
	_ = w.AddVeto("b")
	if err := w.AddVeto("a"); err != nil {
		t.Errorf("initiator should counter a counter: %v", err)
	}
}

func TestConsecutiveResponderRejected(t *testing.T) {
	w := NewWindow("a", 6)
	_ = w.AddVeto("b")
	if err := w.AddVeto("b"); !errors.Is(err, ErrWindowAlreadyResponded) {
		t.Errorf("expected ErrWindowAlreadyResponded, got %v", err)
	}
	if err := w.AddVeto("c"); err != nil {
		t.Errorf("a different responder should advance the chain: %v", err)
	}
}

func TestChainDepthBound(t *testing.T) {
	w := NewWindow("a", 2)
	_ = w.AddVeto("b")
	_ = w.AddVeto("c")
	if !w.Full() {
		t.Fatal("window should be full at max depth")
	}
	if err := w.AddVeto("d"); !errors.Is(err, ErrWindowAlreadyResponded) {
		t.Errorf("expected rejection at full chain, got %v", err)
	}
}

func TestVetoesCopy(t *testing.T) {
	w := NewWindow("a", 4)
	_ = w.AddVeto("b")
	vetoes := w.Vetoes()
	vetoes[0] = "mutated"
	if w.Vetoes()[0] != "b" {
		t.Error("Vetoes must return a copy")
	}
}
