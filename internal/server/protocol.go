package server

import (
	"time"

	"github.com/iqnite/eggsplode/internal/game"
	"github.com/iqnite/eggsplode/internal/game/catalog"
)

// Request is the client-to-server message envelope.
type Request struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	PlayerID  string `json:"player_id,omitempty"`

	Players    []string       `json:"players,omitempty"`     // create_session
	Cards      []catalog.Kind `json:"cards,omitempty"`       // submit_action
	Action     string         `json:"action,omitempty"`      // submit_action: DRAW, PLAY, PLAY_COMBO
	Target     string         `json:"target,omitempty"`      // submit_action / submit_target
	DemandKind catalog.Kind   `json:"demand_kind,omitempty"` // trio demands
	Order      []int          `json:"order,omitempty"`       // alter_future
	Position   *int           `json:"position,omitempty"`    // bomb reinsertion
	Seq        uint64         `json:"seq,omitempty"`         // optional staleness guard
}

// Response is the server-to-client message envelope.
type Response struct {
	Type      string `json:"type"` // ok, error, event, state, hand
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`

	Outcome  string            `json:"outcome,omitempty"`
	Drawn    catalog.Kind      `json:"drawn,omitempty"`
	Stolen   catalog.Kind      `json:"stolen,omitempty"`
	Peek     []catalog.Kind    `json:"peek,omitempty"`
	Winner   string            `json:"winner,omitempty"`
	Deadline time.Time         `json:"deadline,omitempty"`
	State    *game.PublicState `json:"state,omitempty"`
	Hand     []catalog.Kind    `json:"hand,omitempty"`
	Event    *eventPayload     `json:"event,omitempty"`
}

type eventPayload struct {
	Type      string    `json:"type"`
	PlayerID  string    `json:"player_id,omitempty"`
	TargetID  string    `json:"target_id,omitempty"`
	CardKind  string    `json:"card_kind,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Deadline  time.Time `json:"deadline,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func okResponse(sessionID string, out game.Outcome) Response {
	resp := Response{
		Type:      "ok",
		SessionID: sessionID,
		Outcome:   string(out.Kind),
		Peek:      out.Peek,
		Winner:    out.Winner,
		Deadline:  out.Deadline,
	}
	if out.Drawn != nil {
		resp.Drawn = out.Drawn.Kind
	}
	if out.Stolen != nil {
		resp.Stolen = out.Stolen.Kind
	}
	return resp
}

func errResponse(sessionID string, err error) Response {
	return Response{Type: "error", SessionID: sessionID, Error: err.Error()}
}
