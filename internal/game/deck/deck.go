// Package deck implements the draw and discard piles of one game table.
package deck

import (
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/iqnite/eggsplode/internal/game/catalog"
)

var (
	// ErrEmptyDeck is returned when a draw is requested and neither the draw
	// pile nor the reshuffle fallback can supply a card. Given the card
	// conservation invariant this is an internal consistency failure, never
	// a user-facing condition.
	ErrEmptyDeck = errors.New("draw pile empty")
	// ErrInsufficientCards is returned when a peek requests more cards than
	// the draw pile holds. Callers must handle partial peeks explicitly; the
	// deck never pads with placeholders.
	ErrInsufficientCards = errors.New("not enough cards in draw pile")
)

// Card is an immutable card value. ID distinguishes copies of the same kind
// while they move between piles and hands, so "take that specific card"
// actions stay well-defined.
type Card struct {
	ID   string
	Kind catalog.Kind
}

// NewCard mints a card of the given kind with a fresh instance ID.
func NewCard(kind catalog.Kind) Card {
	return Card{ID: uuid.NewString(), Kind: kind}
}

// Deck holds the two ordered piles of a session. The last element of each
// slice is the top: the next draw, respectively the most recent discard.
// Deck is not safe for concurrent use; the owning session serializes access.
type Deck struct {
	draw    []Card
	discard []Card
	rng     *rand.Rand
}

// New builds a deck from the given kinds, bottom first. The deck is not
// shuffled; callers shuffle explicitly.
func New(kinds []catalog.Kind, rng *rand.Rand) *Deck {
	d := &Deck{
		draw: make([]Card, 0, len(kinds)),
		rng:  rng,
	}
	for _, k := range kinds {
		d.draw = append(d.draw, NewCard(k))
	}
	return d
}

// Shuffle produces a uniformly random permutation of the draw pile.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
}

// Draw removes and returns the top card. If the draw pile is empty and the
// discard pile holds more than its top "active" card, the discard pile minus
// that top card is reshuffled into a fresh draw pile first.
func (d *Deck) Draw() (Card, error) {
	if err := d.ensureDrawable(); err != nil {
		return Card{}, err
	}
	idx := len(d.draw) - 1
	c := d.draw[idx]
	d.draw = d.draw[:idx]
	return c, nil
}

// DrawBottom removes and returns the bottom card of the draw pile.
func (d *Deck) DrawBottom() (Card, error) {
	if err := d.ensureDrawable(); err != nil {
		return Card{}, err
	}
	c := d.draw[0]
	d.draw = append(d.draw[:0], d.draw[1:]...)
	return c, nil
}

func (d *Deck) ensureDrawable() error {
	if len(d.draw) > 0 {
		return nil
	}
	if len(d.discard) < 2 {
		return ErrEmptyDeck
	}
	top := d.discard[len(d.discard)-1]
	d.draw = append(d.draw, d.discard[:len(d.discard)-1]...)
	d.discard = d.discard[:0]
	d.discard = append(d.discard, top)
	d.Shuffle()
	return nil
}

// InsertAt inserts a card at the given offset from the top of the draw pile.
// Offset 0 is the top; offsets are clamped to [0, size].
func (d *Deck) InsertAt(c Card, offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.draw) {
		offset = len(d.draw)
	}
	pos := len(d.draw) - offset
	d.draw = append(d.draw, Card{})
	copy(d.draw[pos+1:], d.draw[pos:])
	d.draw[pos] = c
}

// PeekTop returns the top n cards without removing them, topmost first.
func (d *Deck) PeekTop(n int) ([]Card, error) {
	if n > len(d.draw) {
		return nil, ErrInsufficientCards
	}
	out := make([]Card, 0, n)
	for i := len(d.draw) - 1; i >= len(d.draw)-n; i-- {
		out = append(out, d.draw[i])
	}
	return out, nil
}

// ReorderTop rearranges the top len(order) cards. order is given in top-first
// positions: order[i] = j means the card currently at top offset j ends up at
// top offset i. order must be a permutation of [0, len(order)).
func (d *Deck) ReorderTop(order []int) error {
	n := len(order)
	if n > len(d.draw) {
		return ErrInsufficientCards
	}
	seen := make([]bool, n)
	for _, j := range order {
		if j < 0 || j >= n || seen[j] {
			return errors.New("order is not a permutation")
		}
		seen[j] = true
	}
	top, _ := d.PeekTop(n)
	for i, j := range order {
		d.draw[len(d.draw)-1-i] = top[j]
	}
	return nil
}

// Discard places cards on top of the discard pile in the given sequence.
func (d *Deck) Discard(cards ...Card) {
	d.discard = append(d.discard, cards...)
}

// DiscardTop returns the top of the discard pile without removing it.
func (d *Deck) DiscardTop() (Card, bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	return d.discard[len(d.discard)-1], true
}

// DrawSize returns the number of cards in the draw pile.
func (d *Deck) DrawSize() int { return len(d.draw) }

// DiscardSize returns the number of cards in the discard pile.
func (d *Deck) DiscardSize() int { return len(d.discard) }
