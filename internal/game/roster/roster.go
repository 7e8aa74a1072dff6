// Package roster tracks the participants of one table: their hands, their
// seating order and their elimination status.
package roster

import (
	"errors"
	"iter"
	"math/rand/v2"

	"github.com/iqnite/eggsplode/internal/game/catalog"
	"github.com/iqnite/eggsplode/internal/game/deck"
)

var (
	// ErrSessionAlreadyStarted is returned when a player tries to join after
	// the deal.
	ErrSessionAlreadyStarted = errors.New("session already started")
	// ErrAlreadyEliminated guards the single elimination path: a player's
	// status flips to eliminated exactly once.
	ErrAlreadyEliminated = errors.New("player already eliminated")
	// ErrUnknownPlayer is returned for IDs that never joined the table.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrAlreadyJoined is returned when an ID joins the lobby twice.
	ErrAlreadyJoined = errors.New("player already joined")
)

// Status is a player's elimination state.
type Status int

const (
	StatusActive Status = iota
	StatusEliminated
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusEliminated:
		return "ELIMINATED"
	default:
		return "UNKNOWN"
	}
}

// Player is one participant. The hand is an unordered multiset owned
// exclusively by this player.
type Player struct {
	ID             string
	Hand           []deck.Card
	Status         Status
	TurnOrderIndex int
}

// Roster is the ordered set of participants of one table. Not safe for
// concurrent use; the owning session serializes access.
type Roster struct {
	players []*Player
	byID    map[string]*Player
	started bool
}

// New creates a roster with the given initial players, in join order.
func New(ids ...string) (*Roster, error) {
	r := &Roster{byID: make(map[string]*Player)}
	for _, id := range ids {
		if err := r.Join(id); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Join adds a player during the lobby phase.
func (r *Roster) Join(id string) error {
	if r.started {
		return ErrSessionAlreadyStarted
	}
	if _, ok := r.byID[id]; ok {
		return ErrAlreadyJoined
	}
	p := &Player{ID: id, TurnOrderIndex: len(r.players)}
	r.players = append(r.players, p)
	r.byID[id] = p
	return nil
}

// MarkStarted closes the lobby; joins fail afterwards.
func (r *Roster) MarkStarted() { r.started = true }

// Started reports whether the lobby has closed.
func (r *Roster) Started() bool { return r.started }

// Get returns the player with the given ID.
func (r *Roster) Get(id string) (*Player, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

// Len returns the total number of participants, eliminated included.
func (r *Roster) Len() int { return len(r.players) }

// Eliminate flips a player to eliminated and returns the forfeited hand.
// The caller moves the forfeited cards to the discard pile.
func (r *Roster) Eliminate(id string) ([]deck.Card, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if p.Status == StatusEliminated {
		return nil, ErrAlreadyEliminated
	}
	p.Status = StatusEliminated
	forfeited := p.Hand
	p.Hand = nil
	return forfeited, nil
}

// Active yields the active players in turn order. The sequence is lazy and
// restartable; it is the basis for turn advancement and for computing
// "all other players" targets.
func (r *Roster) Active() iter.Seq[*Player] {
	return func(yield func(*Player) bool) {
		for _, p := range r.players {
			if p.Status != StatusActive {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// ActiveCount returns the number of active players.
func (r *Roster) ActiveCount() int {
	n := 0
	for range r.Active() {
		n++
	}
	return n
}

// AllIDs returns every participant's ID in join order, eliminated included.
func (r *Roster) AllIDs() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.ID)
	}
	return ids
}

// ActiveIDs returns the IDs of active players in turn order.
func (r *Roster) ActiveIDs() []string {
	var ids []string
	for p := range r.Active() {
		ids = append(ids, p.ID)
	}
	return ids
}

// FirstActiveOther returns the first active player in turn order other than
// id. Used as the deterministic default target when a followup deadline
// expires.
func (r *Roster) FirstActiveOther(id string) (string, bool) {
	for p := range r.Active() {
		if p.ID != id {
			return p.ID, true
		}
	}
	return "", false
}

// AddCard places a card in a player's hand.
func (r *Roster) AddCard(id string, c deck.Card) error {
	p, err := r.Get(id)
	if err != nil {
		return err
	}
	p.Hand = append(p.Hand, c)
	return nil
}

// RemoveKind removes one card of the given kind from a player's hand and
// returns it. The second return is false when the hand holds no such card.
func (r *Roster) RemoveKind(id string, kind catalog.Kind) (deck.Card, bool) {
	p, ok := r.byID[id]
	if !ok {
		return deck.Card{}, false
	}
	for i, c := range p.Hand {
		if c.Kind == kind {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c, true
		}
	}
	return deck.Card{}, false
}

// CountKind returns how many cards of the given kind a player holds.
func (r *Roster) CountKind(id string, kind catalog.Kind) int {
	p, ok := r.byID[id]
	if !ok {
		return 0
	}
	n := 0
	for _, c := range p.Hand {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// HasKind reports whether a player holds at least one card of the kind.
func (r *Roster) HasKind(id string, kind catalog.Kind) bool {
	return r.CountKind(id, kind) > 0
}

// HandSize returns the size of a player's hand.
func (r *Roster) HandSize(id string) int {
	p, ok := r.byID[id]
	if !ok {
		return 0
	}
	return len(p.Hand)
}

// TakeRandom removes a uniformly chosen card from a player's hand.
func (r *Roster) TakeRandom(id string, rng *rand.Rand) (deck.Card, bool) {
	p, ok := r.byID[id]
	if !ok || len(p.Hand) == 0 {
		return deck.Card{}, false
	}
	i := rng.IntN(len(p.Hand))
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return c, true
}

// HandSizes returns the public hand-size view, keyed by player ID. Eliminated
// players are included with size zero.
func (r *Roster) HandSizes() map[string]int {
	out := make(map[string]int, len(r.players))
	for _, p := range r.players {
		out[p.ID] = len(p.Hand)
	}
	return out
}

// TotalCards returns the number of cards held across all hands. Used by the
// card conservation audit.
func (r *Roster) TotalCards() int {
	n := 0
	for _, p := range r.players {
		n += len(p.Hand)
	}
	return n
}
