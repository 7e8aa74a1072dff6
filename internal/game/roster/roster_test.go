package roster

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/iqnite/eggsplode/internal/game/catalog"
	"github.com/iqnite/eggsplode/internal/game/deck"
)

func TestJoinLobbyOnly(t *testing.T) {
	r, err := New("alice", "bob")
	if err != nil {
		t.Fatalf("new roster: %v", err)
	}
	if err := r.Join("carol"); err != nil {
		t.Fatalf("join in lobby failed: %v", err)
	}
	if err := r.Join("carol"); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("expected ErrAlreadyJoined, got %v", err)
	}

	r.MarkStarted()
	if err := r.Join("dave"); !errors.Is(err, ErrSessionAlreadyStarted) {
		t.Errorf("expected ErrSessionAlreadyStarted, got %v", err)
	}
}

func TestEliminateOnce(t *testing.T) {
	r, _ := New("alice", "bob", "carol")
	_ = r.AddCard("bob", deck.NewCard(catalog.KindSkip))
	_ = r.AddCard("bob", deck.NewCard(catalog.KindNope))

	forfeited, err := r.Eliminate("bob")
	if err != nil {
		t.Fatalf("eliminate failed: %v", err)
	}
	if len(forfeited) != 2 {
		t.Errorf("expected 2 forfeited cards, got %d", len(forfeited))
	}
	if r.HandSize("bob") != 0 {
		t.Error("eliminated player's hand should be empty")
	}

	if _, err := r.Eliminate("bob"); !errors.Is(err, ErrAlreadyEliminated) {
		t.Errorf("expected ErrAlreadyEliminated, got %v", err)
	}
	if _, err := r.Eliminate("nobody"); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("expected ErrUnknownPlayer, got %v", err)
	}
}

func TestActiveSkipsEliminated(t *testing.T) {
	r, _ := New("alice", "bob", "carol")
	_, _ = r.Eliminate("bob")

	ids := r.ActiveIDs()
	if len(ids) != 2 || ids[0] != "alice" || ids[1] != "carol" {
		t.Errorf("unexpected active order: %v", ids)
	}
	if r.ActiveCount() != 2 {
		t.Errorf("expected 2 active, got %d", r.ActiveCount())
	}

	// The sequence is restartable.
	for range r.Active() {
		break
	}
	if got := len(r.ActiveIDs()); got != 2 {
		t.Errorf("sequence not restartable, got %d", got)
	}
}

func TestFirstActiveOther(t *testing.T) {
	r, _ := New("alice", "bob", "carol")
	_, _ = r.Eliminate("bob")

	id, ok := r.FirstActiveOther("alice")
	if !ok || id != "carol" {
		t.Errorf("expected carol, got %q (%v)", id, ok)
	}
	_, _ = r.Eliminate("carol")
	if _, ok := r.FirstActiveOther("alice"); ok {
		t.Error("expected no other active player")
	}
}

func TestHandOperations(t *testing.T) {
	r, _ := New("alice")
	nope := deck.NewCard(catalog.KindNope)
	_ = r.AddCard("alice", nope)
	_ = r.AddCard("alice", deck.NewCard(catalog.KindNope))
	_ = r.AddCard("alice", deck.NewCard(catalog.KindSkip))

	if got := r.CountKind("alice", catalog.KindNope); got != 2 {
		t.Errorf("expected 2 nopes, got %d", got)
	}
	c, ok := r.RemoveKind("alice", catalog.KindNope)
	if !ok || c.Kind != catalog.KindNope {
		t.Fatalf("remove kind failed: %v %v", c, ok)
	}
	if got := r.CountKind("alice", catalog.KindNope); got != 1 {
		t.Errorf("expected 1 nope left, got %d", got)
	}
	if _, ok := r.RemoveKind("alice", catalog.KindAttegg); ok {
		t.Error("removing a kind not in hand should fail")
	}

	rng := rand.New(rand.NewPCG(7, 7))
	if _, ok := r.TakeRandom("alice", rng); !ok {
		t.Error("take random from a non-empty hand should succeed")
	}
	if r.HandSize("alice") != 1 {
		t.Errorf("expected 1 card left, got %d", r.HandSize("alice"))
	}
}
