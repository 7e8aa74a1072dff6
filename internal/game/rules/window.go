package rules

import "errors"

var (
	// ErrWindowAlreadyResponded is returned when a counter arrives for a
	// chain round that has already accepted one, or when the chain is full.
	ErrWindowAlreadyResponded = errors.New("interrupt window already responded")
	// ErrNotEligibleToRespond is returned when the submitting player may not
	// counter at the current chain parity.
	ErrNotEligibleToRespond = errors.New("not eligible to respond")
)

// Window is the time-boxed veto protocol guarding one pending action.
// Counters toggle net parity: after an odd number of accepted counters the
// pending action is cancelled, after an even number it commits. The chain is
// bounded by maxDepth to guarantee termination; deadlines are owned by the
// session. Not safe for concurrent use; the owning session serializes access.
type Window struct {
	initiator string
	vetoes    []string
	maxDepth  int
}

// NewWindow opens a window for an action proposed by initiator. maxDepth
// bounds the counter-the-counter chain; values below one are raised to one.
func NewWindow(initiator string, maxDepth int) *Window {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &Window{initiator: initiator, maxDepth: maxDepth}
}

// Initiator returns the player whose action is pending.
func (w *Window) Initiator() string { return w.initiator }

// Depth returns the number of accepted counters.
func (w *Window) Depth() int { return len(w.vetoes) }

// Vetoes returns the chain of responders in arrival order.
func (w *Window) Vetoes() []string {
	cpy := make([]string, len(w.vetoes))
	copy(cpy, w.vetoes)
	return cpy
}

// Countered reports the net effect: true when the pending action is
// cancelled at current parity.
func (w *Window) Countered() bool { return len(w.vetoes)%2 == 1 }

// Full reports whether the chain has reached its configured bound.
func (w *Window) Full() bool { return len(w.vetoes) >= w.maxDepth }

// CanRespond validates a counter from the given player against the chain.
// The previous responder cannot immediately counter their own counter, and
// the initiator cannot veto their own action while it is live (even parity).
func (w *Window) CanRespond(player string) error {
	if w.Full() {
		return ErrWindowAlreadyResponded
	}
	if n := len(w.vetoes); n > 0 && w.vetoes[n-1] == player {
		return ErrWindowAlreadyResponded
	}
	if !w.Countered() && player == w.initiator {
		return ErrNotEligibleToRespond
	}
	return nil
}

// AddVeto appends an accepted counter to the chain.
func (w *Window) AddVeto(player string) error {
	if err := w.CanRespond(player); err != nil {
		return err
	}
	w.vetoes = append(w.vetoes, player)
	return nil
}
