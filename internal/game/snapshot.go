package game

import (
	"time"

	"github.com/iqnite/eggsplode/internal/game/catalog"
	"github.com/iqnite/eggsplode/internal/game/rules"
)

// PlayerView is the public slice of one player's state. Hand contents never
// appear here; only the owning player learns them, through the outcomes of
// their own submits.
type PlayerView struct {
	ID       string `json:"id"`
	HandSize int    `json:"hand_size"`
	Status   string `json:"status"`
}

// PublicState is the information every participant may see. It is a value
// snapshot; mutating it has no effect on the session.
type PublicState struct {
	SessionID   string       `json:"session_id"`
	Status      string       `json:"status"`
	Phase       string       `json:"phase"`
	Seq         uint64       `json:"seq"`
	Players     []PlayerView `json:"players"`
	TurnOrder   []string     `json:"turn_order,omitempty"`
	CurrentTurn string       `json:"current_turn,omitempty"`
	Obligations int          `json:"obligations,omitempty"`
	DrawSize    int          `json:"draw_size"`
	DiscardSize int          `json:"discard_size"`
	DiscardTop  catalog.Kind `json:"discard_top,omitempty"`
	WindowDepth int          `json:"window_depth,omitempty"`
	Deadline    time.Time    `json:"deadline,omitempty"`
	Winner      string       `json:"winner,omitempty"`
}

// PublicState captures the session's observable state under the lock.
func (s *Session) PublicState() PublicState {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps := PublicState{
		SessionID: s.id,
		Status:    s.status.String(),
		Seq:       s.seq,
		Winner:    s.winner,
	}
	for _, id := range s.roster.AllIDs() {
		p, _ := s.roster.Get(id)
		ps.Players = append(ps.Players, PlayerView{
			ID:       p.ID,
			HandSize: len(p.Hand),
			Status:   p.Status.String(),
		})
	}
	if s.status == StatusLobby {
		ps.Phase = "LOBBY"
		return ps
	}

	ps.Phase = s.turns.Phase().String()
	ps.TurnOrder = s.turns.Order()
	ps.CurrentTurn = s.turns.CurrentPlayer()
	ps.Obligations = s.turns.Obligations()
	ps.DrawSize = s.deck.DrawSize()
	ps.DiscardSize = s.deck.DiscardSize()
	if top, ok := s.deck.DiscardTop(); ok {
		ps.DiscardTop = top.Kind
	}
	if s.pending != nil && s.pending.window != nil {
		ps.WindowDepth = s.pending.window.Depth()
	}
	if s.status == StatusInProgress && s.turns.Phase() != rules.PhaseGameOver {
		ps.Deadline = s.deadline
	}
	return ps
}

// Hand returns a copy of one player's own hand. Only the owner may ask.
func (s *Session) Hand(playerID string) ([]catalog.Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.roster.Get(playerID)
	if err != nil {
		return nil, err
	}
	kinds := make([]catalog.Kind, 0, len(p.Hand))
	for _, c := range p.Hand {
		kinds = append(kinds, c.Kind)
	}
	return kinds, nil
}
