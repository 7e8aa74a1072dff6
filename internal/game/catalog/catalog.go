// Package catalog holds the static registry of card kinds and their effect
// metadata. Counterability, targeting and combo eligibility are data here,
// not logic in the resolver.
package catalog

import "fmt"

// Kind identifies a card kind. Copies of the same kind are interchangeable
// for play purposes; individual copies carry instance IDs (see the deck
// package) so they stay trackable while moving between piles and hands.
type Kind string

const (
	KindEggsplode      Kind = "eggsplode"
	KindDefuse         Kind = "defuse"
	KindAttegg         Kind = "attegg"
	KindTargetedAttegg Kind = "targeted_attegg"
	KindSkip           Kind = "skip"
	KindSuperSkip      Kind = "super_skip"
	KindShuffle        Kind = "shuffle"
	KindSeeFuture      Kind = "see_future"
	KindAlterFuture    Kind = "alter_future"
	KindDrawFromBottom Kind = "draw_from_bottom"
	KindReverse        Kind = "reverse"
	KindNope           Kind = "nope"
	KindRadioeggtive   Kind = "radioeggtive"
	KindRadioeggtiveUp Kind = "radioeggtive_face_up"
	KindFood0          Kind = "food0"
	KindFood1          Kind = "food1"
	KindFood2          Kind = "food2"
	KindFood3          Kind = "food3"
	KindFood4          Kind = "food4"
)

// ComboKind identifies a multi-card combo effect.
type ComboKind string

const (
	// ComboNone means the submitted cards form no combo.
	ComboNone ComboKind = ""
	// ComboPairSteal is two matching cards: steal a random card from a target.
	ComboPairSteal ComboKind = "PAIR_STEAL"
	// ComboTrioDemand is three matching cards: demand a named kind from a target.
	ComboTrioDemand ComboKind = "TRIO_DEMAND"
)

// Spec describes one card kind.
type Spec struct {
	Kind        Kind
	Title       string
	Playable    bool // can be submitted as a standalone play action
	Counterable bool // opens an interrupt window before its effect commits
	NeedsTarget bool // effect requires a target player
	Combo       bool // eligible as combo fodder
	AttackTurns int  // draw obligations added to the recipient of an attack
	DeckCount   int  // copies in the base deck (before per-player scaling)
	DrawOnly    bool // never held in a hand; resolves the moment it is drawn
}

// Catalog is an immutable registry of card specs.
type Catalog struct {
	specs map[Kind]Spec
	order []Kind
}

// Default returns the base game catalog. The bomb count is derived from the
// player count at deal time and is not part of the base deck.
func Default() *Catalog {
	specs := []Spec{
		{Kind: KindEggsplode, Title: "Eggsplode", DrawOnly: true},
		{Kind: KindDefuse, Title: "Defuse"},
		{Kind: KindAttegg, Title: "Attegg", Playable: true, Counterable: true, AttackTurns: 2, DeckCount: 4},
		{Kind: KindTargetedAttegg, Title: "Targeted Attegg", Playable: true, Counterable: true, NeedsTarget: true, AttackTurns: 2, DeckCount: 3},
		{Kind: KindSkip, Title: "Skip", Playable: true, DeckCount: 4},
		{Kind: KindSuperSkip, Title: "Super Skip", Playable: true, DeckCount: 1},
		{Kind: KindShuffle, Title: "Shuffle", Playable: true, DeckCount: 4},
		{Kind: KindSeeFuture, Title: "See the Future", Playable: true, DeckCount: 5},
		{Kind: KindAlterFuture, Title: "Alter the Future", Playable: true, DeckCount: 3},
		{Kind: KindDrawFromBottom, Title: "Draw From the Bottom", Playable: true, DeckCount: 4},
		{Kind: KindReverse, Title: "Reverse", Playable: true, DeckCount: 4},
		{Kind: KindNope, Title: "Nope", DeckCount: 5},
		{Kind: KindRadioeggtive, Title: "Radioeggtive", DrawOnly: true},
		{Kind: KindRadioeggtiveUp, Title: "Radioeggtive (Face Up)", DrawOnly: true},
		{Kind: KindFood0, Title: "Bacon", Combo: true, DeckCount: 4},
		{Kind: KindFood1, Title: "Toast", Combo: true, DeckCount: 4},
		{Kind: KindFood2, Title: "Pancake", Combo: true, DeckCount: 4},
		{Kind: KindFood3, Title: "Waffle", Combo: true, DeckCount: 4},
		{Kind: KindFood4, Title: "Omelette", Combo: true, DeckCount: 4},
	}
	c := &Catalog{specs: make(map[Kind]Spec, len(specs))}
	for _, s := range specs {
		c.specs[s.Kind] = s
		c.order = append(c.order, s.Kind)
	}
	return c
}

// Get returns the spec for a kind.
func (c *Catalog) Get(kind Kind) (Spec, bool) {
	s, ok := c.specs[kind]
	return s, ok
}

// Kinds returns all kinds in stable registry order.
func (c *Catalog) Kinds() []Kind {
	out := make([]Kind, len(c.order))
	copy(out, c.order)
	return out
}

// Combo classifies a set of played cards. All cards must satisfy the matching
// predicate simultaneously: combo-eligible and of one kind, in a pair or trio.
func (c *Catalog) Combo(kinds []Kind) (ComboKind, error) {
	if len(kinds) < 2 || len(kinds) > 3 {
		return ComboNone, fmt.Errorf("combo requires 2 or 3 cards, got %d", len(kinds))
	}
	first := kinds[0]
	spec, ok := c.specs[first]
	if !ok || !spec.Combo {
		return ComboNone, fmt.Errorf("%s is not combo-eligible", first)
	}
	for _, k := range kinds[1:] {
		if k != first {
			return ComboNone, fmt.Errorf("combo cards must match: %s vs %s", first, k)
		}
	}
	if len(kinds) == 2 {
		return ComboPairSteal, nil
	}
	return ComboTrioDemand, nil
}

// DefaultDemandKind is the deterministic fallback when a trio demand deadline
// expires before a kind was named: the first demandable kind in registry order.
func (c *Catalog) DefaultDemandKind() Kind {
	for _, k := range c.order {
		if !c.specs[k].DrawOnly {
			return k
		}
	}
	return ""
}

// BaseDeck returns the bombless deck for the given player count, one entry
// per physical card. The base composition is repeated once per five players.
func (c *Catalog) BaseDeck(players int) []Kind {
	var kinds []Kind
	copies := 1 + players/5
	for i := 0; i < copies; i++ {
		for _, k := range c.order {
			for n := 0; n < c.specs[k].DeckCount; n++ {
				kinds = append(kinds, k)
			}
		}
	}
	return kinds
}

// Bombs returns how many eggsplode cards are shuffled in after the deal:
// one fewer than the number of players.
func (c *Catalog) Bombs(players int) int {
	if players < 2 {
		return 0
	}
	return players - 1
}
