package rules

import "fmt"

// Phase represents what kind of input a session is waiting for.
type Phase int

const (
	PhaseAwaitingAction Phase = iota
	PhaseAwaitingInterrupt
	PhaseAwaitingFollowup
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseAwaitingAction:    "AWAITING_ACTION",
	PhaseAwaitingInterrupt: "AWAITING_INTERRUPT_RESPONSE",
	PhaseAwaitingFollowup:  "AWAITING_FOLLOWUP_TARGET",
	PhaseGameOver:          "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Controller tracks whose turn it is, how many draw obligations remain this
// turn and the extra-turn stacking from attacks. It owns the rotation order;
// eliminations are reported via Remove. Not safe for concurrent use; the
// owning session serializes access.
type Controller struct {
	order       []string
	current     int
	obligations int
	phase       Phase
}

// NewController creates a controller over the given turn order. The first
// player starts with a single draw obligation.
func NewController(order []string) *Controller {
	cpy := make([]string, len(order))
	copy(cpy, order)
	return &Controller{
		order:       cpy,
		obligations: 1,
		phase:       PhaseAwaitingAction,
	}
}

// CurrentPlayer returns the player who currently holds the turn.
func (c *Controller) CurrentPlayer() string {
	if len(c.order) == 0 {
		return ""
	}
	return c.order[c.current]
}

// NextPlayer returns the player after the current one in rotation.
func (c *Controller) NextPlayer() string {
	if len(c.order) == 0 {
		return ""
	}
	return c.order[(c.current+1)%len(c.order)]
}

// Obligations returns the draws still owed before the turn passes.
func (c *Controller) Obligations() int { return c.obligations }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// SetPhase sets the current phase.
func (c *Controller) SetPhase(p Phase) { c.phase = p }

// Order returns a copy of the rotation order.
func (c *Controller) Order() []string {
	cpy := make([]string, len(c.order))
	copy(cpy, c.order)
	return cpy
}

// FinishObligation completes one draw obligation. When no obligations remain
// the turn passes to the next player in rotation with a fresh obligation of
// one; the return value reports whether that happened.
func (c *Controller) FinishObligation() bool {
	c.obligations--
	if c.obligations > 0 {
		return false
	}
	c.advance()
	return true
}

// EndTurn passes the turn regardless of remaining obligations.
func (c *Controller) EndTurn() {
	c.advance()
}

func (c *Controller) advance() {
	if len(c.order) > 0 {
		c.current = (c.current + 1) % len(c.order)
	}
	c.obligations = 1
}

// Attack passes the turn to the next player in rotation, adding turns to the
// initiator's remaining obligation. Stacking is additive: an attack played
// before any draw carries the full accumulated obligation forward.
func (c *Controller) Attack(turns int) {
	c.attackIndex((c.current+1)%len(c.order), turns)
}

// AttackTarget is Attack aimed at an arbitrary player in the rotation.
func (c *Controller) AttackTarget(id string, turns int) error {
	for i, p := range c.order {
		if p == id {
			c.attackIndex(i, turns)
			return nil
		}
	}
	return fmt.Errorf("player %s not in rotation", id)
}

func (c *Controller) attackIndex(idx, turns int) {
	remaining := c.obligations
	c.current = idx
	c.obligations = remaining + turns
}

// Remove drops a player from the rotation. The current pointer stays on the
// same player, or moves to the removed player's successor when the removed
// player held the turn; the successor starts with a fresh single obligation.
func (c *Controller) Remove(id string) {
	for i, p := range c.order {
		if p != id {
			continue
		}
		c.order = append(c.order[:i], c.order[i+1:]...)
		switch {
		case len(c.order) == 0:
			c.current = 0
		case i < c.current:
			c.current--
		case i == c.current:
			c.current %= len(c.order)
			c.obligations = 1
		}
		return
	}
}

// Reverse flips the rotation direction while keeping the current player.
func (c *Controller) Reverse() {
	for i, j := 0, len(c.order)-1; i < j; i, j = i+1, j-1 {
		c.order[i], c.order[j] = c.order[j], c.order[i]
	}
	if len(c.order) > 0 {
		c.current = len(c.order) - 1 - c.current
	}
}
