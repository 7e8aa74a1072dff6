package game

import (
	"time"

	"github.com/iqnite/eggsplode/internal/game/catalog"
	"github.com/iqnite/eggsplode/internal/game/deck"
)

// ActionType selects what a player intends to do on their turn.
type ActionType string

const (
	// ActionDraw takes the top card of the draw pile, completing one draw
	// obligation.
	ActionDraw ActionType = "DRAW"
	// ActionPlay plays a single card from hand.
	ActionPlay ActionType = "PLAY"
	// ActionPlayCombo plays two or three matching cards as a combo.
	ActionPlayCombo ActionType = "PLAY_COMBO"
)

// Action describes a submitted intent.
type Action struct {
	Type  ActionType
	Cards []catalog.Kind // one kind for PLAY, two or three for PLAY_COMBO

	// Seq, when nonzero, pins the action to the session state it was decided
	// against. A submit whose Seq no longer matches is rejected as stale
	// instead of being applied to a state the player never saw.
	Seq uint64

	// Target optionally pre-selects the target player for targeted effects.
	// When absent the session prompts for it in a followup phase.
	Target string
	// DemandKind optionally pre-selects the demanded kind for trio combos.
	DemandKind catalog.Kind
	// Order is the permutation for alter_future, top-first: Order[i] = j
	// places the card currently at top offset j at top offset i.
	Order []int
}

// Target is the input of a followup prompt. Exactly one field applies,
// depending on what the pending action is waiting for.
type Target struct {
	Player   string
	Kind     catalog.Kind
	Position *int // draw-pile offset from the top, for bomb reinsertion
}

// OutcomeKind classifies the immediate result of an accepted submit.
type OutcomeKind string

const (
	OutcomeDrawn           OutcomeKind = "DRAWN"
	OutcomeDefusePrompt    OutcomeKind = "DEFUSE_PROMPT"
	OutcomeReinsertPrompt  OutcomeKind = "REINSERT_PROMPT"
	OutcomeEliminated      OutcomeKind = "ELIMINATED"
	OutcomeWindowOpened    OutcomeKind = "WINDOW_OPENED"
	OutcomeCounterAccepted OutcomeKind = "COUNTER_ACCEPTED"
	OutcomeAwaitingTarget  OutcomeKind = "AWAITING_TARGET"
	OutcomeCommitted       OutcomeKind = "COMMITTED"
	OutcomeCancelled       OutcomeKind = "CANCELLED"
	OutcomeGameFinished    OutcomeKind = "GAME_FINISHED"
)

// Outcome reports what an accepted submit did. Card contents in here are
// visible only to the submitting caller; public information travels on the
// event bus.
type Outcome struct {
	Kind     OutcomeKind
	Drawn    *deck.Card     // the drawn card, for DRAWN and DEFUSE_PROMPT
	Stolen   *deck.Card     // the transferred card, for committed steals and demands
	Peek     []catalog.Kind // top of the draw pile, for see_future
	Winner   string         // for GAME_FINISHED
	Deadline time.Time      // when the new awaiting phase expires, if any
}
