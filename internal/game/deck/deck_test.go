package deck

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/iqnite/eggsplode/internal/game/catalog"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func kinds(ks ...catalog.Kind) []catalog.Kind { return ks }

func TestDrawOrder(t *testing.T) {
	d := New(kinds(catalog.KindSkip, catalog.KindNope, catalog.KindAttegg), testRand())

	// Last element is the top of the pile.
	c, err := d.Draw()
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if c.Kind != catalog.KindAttegg {
		t.Errorf("expected attegg on top, got %s", c.Kind)
	}
	if d.DrawSize() != 2 {
		t.Errorf("expected 2 cards left, got %d", d.DrawSize())
	}
}

func TestDrawBottom(t *testing.T) {
	d := New(kinds(catalog.KindSkip, catalog.KindNope), testRand())

	c, err := d.DrawBottom()
	if err != nil {
		t.Fatalf("draw from bottom failed: %v", err)
	}
	if c.Kind != catalog.KindSkip {
		t.Errorf("expected skip from the bottom, got %s", c.Kind)
	}
}

func TestDrawEmpty(t *testing.T) {
	d := New(nil, testRand())
	if _, err := d.Draw(); !errors.Is(err, ErrEmptyDeck) {
		t.Errorf("expected ErrEmptyDeck, got %v", err)
	}
}

func TestReshuffleFallback(t *testing.T) {
	d := New(nil, testRand())
	d.Discard(NewCard(catalog.KindSkip), NewCard(catalog.KindNope), NewCard(catalog.KindShuffle))

	// The top discard stays put; the two below become the new draw pile.
	c, err := d.Draw()
	if err != nil {
		t.Fatalf("draw with fallback failed: %v", err)
	}
	if c.Kind == catalog.KindShuffle {
		t.Error("active discard top must not re-enter the draw pile")
	}
	top, ok := d.DiscardTop()
	if !ok || top.Kind != catalog.KindShuffle {
		t.Error("discard top should be preserved by the reshuffle")
	}
	if d.DrawSize() != 1 || d.DiscardSize() != 1 {
		t.Errorf("unexpected pile sizes: draw=%d discard=%d", d.DrawSize(), d.DiscardSize())
	}
}

func TestReshuffleFallbackExhausted(t *testing.T) {
	d := New(nil, testRand())
	d.Discard(NewCard(catalog.KindSkip))
	if _, err := d.Draw(); !errors.Is(err, ErrEmptyDeck) {
		t.Errorf("expected ErrEmptyDeck with only the active discard left, got %v", err)
	}
}

func TestInsertAt(t *testing.T) {
	d := New(kinds(catalog.KindSkip, catalog.KindNope), testRand())

	bomb := NewCard(catalog.KindEggsplode)
	d.InsertAt(bomb, 0)
	c, _ := d.Draw()
	if c.ID != bomb.ID {
		t.Errorf("insert at offset 0 should be the next draw, got %s", c.Kind)
	}

	d.InsertAt(bomb, 99)
	bottom, _ := d.DrawBottom()
	if bottom.ID != bomb.ID {
		t.Errorf("clamped offset should insert at the bottom, got %s", bottom.Kind)
	}
}

func TestPeekTop(t *testing.T) {
	d := New(kinds(catalog.KindSkip, catalog.KindNope, catalog.KindAttegg), testRand())

	top, err := d.PeekTop(2)
	if err != nil {
		t.Fatalf("peek failed: %v", err)
	}
	if top[0].Kind != catalog.KindAttegg || top[1].Kind != catalog.KindNope {
		t.Errorf("unexpected peek order: %v, %v", top[0].Kind, top[1].Kind)
	}
	if d.DrawSize() != 3 {
		t.Error("peek must not remove cards")
	}
	if _, err := d.PeekTop(4); !errors.Is(err, ErrInsufficientCards) {
		t.Errorf("expected ErrInsufficientCards, got %v", err)
	}
}

func TestReorderTop(t *testing.T) {
	d := New(kinds(catalog.KindSkip, catalog.KindNope, catalog.KindAttegg), testRand())

	// Reverse the top three: attegg, nope, skip -> skip, nope, attegg.
	if err := d.ReorderTop([]int{2, 1, 0}); err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	top, _ := d.PeekTop(3)
	if top[0].Kind != catalog.KindSkip || top[2].Kind != catalog.KindAttegg {
		t.Errorf("unexpected order after reorder: %v", top)
	}

	if err := d.ReorderTop([]int{0, 0, 1}); err == nil {
		t.Error("non-permutation order should be rejected")
	}
	if err := d.ReorderTop([]int{0, 1, 2, 3}); !errors.Is(err, ErrInsufficientCards) {
		t.Errorf("expected ErrInsufficientCards, got %v", err)
	}
}

func TestShuffleConservesCards(t *testing.T) {
	base := catalog.Default().BaseDeck(4)
	d := New(base, testRand())
	d.Shuffle()
	if d.DrawSize() != len(base) {
		t.Errorf("shuffle changed pile size: %d vs %d", d.DrawSize(), len(base))
	}
}

func TestInstanceIDsAreStable(t *testing.T) {
	d := New(kinds(catalog.KindFood0, catalog.KindFood0), testRand())
	a, _ := d.Draw()
	b, _ := d.Draw()
	if a.ID == b.ID {
		t.Error("copies of one kind must have distinct instance IDs")
	}
	d.Discard(a)
	top, _ := d.DiscardTop()
	if top.ID != a.ID {
		t.Error("instance ID must survive the move to the discard pile")
	}
}
