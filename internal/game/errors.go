package game

import (
	"errors"

	"github.com/iqnite/eggsplode/internal/game/deck"
	"github.com/iqnite/eggsplode/internal/game/roster"
	"github.com/iqnite/eggsplode/internal/game/rules"
)

// Validation errors: recoverable, reported to the caller, state unchanged.
var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrCardNotInHand = errors.New("card not in hand")
	ErrIllegalAction = errors.New("action not legal in current phase")
	ErrInvalidCombo  = errors.New("invalid combo")

	ErrNotEligibleToRespond   = rules.ErrNotEligibleToRespond
	ErrWindowAlreadyResponded = rules.ErrWindowAlreadyResponded
)

// Lifecycle errors: recoverable, reported, no mutation applied.
var (
	ErrSessionAlreadyStarted = roster.ErrSessionAlreadyStarted
	ErrSessionNotStarted     = errors.New("session not started")
	ErrSessionFinished       = errors.New("session finished")
	ErrAlreadyEliminated     = roster.ErrAlreadyEliminated
	ErrUnknownPlayer         = roster.ErrUnknownPlayer
	ErrUnknownSession        = errors.New("unknown session")
	ErrTooManySessions       = errors.New("session limit reached")
)

// ErrStaleAction is returned when a submit lost the race against a deadline
// that was serialized first. The submit is rejected, never silently dropped.
var ErrStaleAction = errors.New("state advanced; action is stale")

// ErrEmptyDeck surfaces a draw that failed even after the reshuffle
// fallback. Given the card conservation invariant it indicates internal
// corruption and is treated as fatal for the session, not as user error.
var ErrEmptyDeck = deck.ErrEmptyDeck
