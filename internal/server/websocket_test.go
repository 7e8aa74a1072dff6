package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iqnite/eggsplode/internal/config"
	"github.com/iqnite/eggsplode/internal/game"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	cfg := config.Config{
		Server: config.ServerConfig{MaxSessions: 10, SessionTTL: time.Hour},
		Game: config.GameConfig{
			TurnTimeout:      time.Minute,
			InterruptTimeout: 10 * time.Second,
			MaxNopeChain:     6,
			MinPlayers:       2,
			MaxPlayers:       5,
		},
	}
	manager := game.NewManager(cfg, nil, zap.NewNop())
	return NewHub(manager, zap.NewNop())
}

func newTestClient() *Client {
	return &Client{send: make(chan []byte, 16)}
}

func TestDispatchSessionLifecycle(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient()

	resp := h.dispatch(c, Request{Type: "create_session", Players: []string{"ana"}})
	require.Equal(t, "ok", resp.Type, resp.Error)
	sessionID := resp.SessionID
	require.NotEmpty(t, sessionID)

	resp = h.dispatch(c, Request{Type: "join_session", SessionID: sessionID, PlayerID: "ben"})
	require.Equal(t, "ok", resp.Type, resp.Error)

	resp = h.dispatch(c, Request{Type: "start_session", SessionID: sessionID})
	require.Equal(t, "ok", resp.Type, resp.Error)

	resp = h.dispatch(c, Request{Type: "get_state", SessionID: sessionID})
	require.Equal(t, "state", resp.Type)
	require.NotNil(t, resp.State)
	assert.Equal(t, "IN_PROGRESS", resp.State.Status)
	assert.Equal(t, "ana", resp.State.CurrentTurn)

	resp = h.dispatch(c, Request{Type: "get_hand", SessionID: sessionID, PlayerID: "ana"})
	require.Equal(t, "hand", resp.Type)
	assert.Len(t, resp.Hand, 8)
}

func TestDispatchSubmitAction(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient()

	resp := h.dispatch(c, Request{Type: "create_session", Players: []string{"ana", "ben"}})
	require.Equal(t, "ok", resp.Type, resp.Error)
	sessionID := resp.SessionID
	resp = h.dispatch(c, Request{Type: "start_session", SessionID: sessionID})
	require.Equal(t, "ok", resp.Type, resp.Error)

	resp = h.dispatch(c, Request{
		Type:      "submit_action",
		SessionID: sessionID,
		PlayerID:  "ben",
		Action:    "DRAW",
	})
	require.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Error, "not your turn")

	resp = h.dispatch(c, Request{
		Type:      "submit_action",
		SessionID: sessionID,
		PlayerID:  "ana",
		Action:    "DRAW",
	})
	require.Equal(t, "ok", resp.Type, resp.Error)
	assert.NotEmpty(t, resp.Outcome)
}

func TestDispatchUnknownSession(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient()

	resp := h.dispatch(c, Request{Type: "get_state", SessionID: "nope"})
	assert.Equal(t, "error", resp.Type)
}

func TestDispatchUnknownType(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient()

	resp := h.dispatch(c, Request{Type: "frobnicate"})
	assert.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Error, "unknown request type")
}

func TestDropAfterStopDoesNotBlock(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient()

	go h.Run()
	h.register <- c
	h.Stop()

	done := make(chan struct{})
	go func() {
		h.drop(c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drop blocked after hub shutdown")
	}
}

func TestSubscribePushesEvents(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient()

	resp := h.dispatch(c, Request{Type: "create_session", Players: []string{"ana", "ben"}})
	require.Equal(t, "ok", resp.Type, resp.Error)
	sessionID := resp.SessionID

	resp = h.dispatch(c, Request{Type: "subscribe", SessionID: sessionID})
	require.Equal(t, "ok", resp.Type, resp.Error)

	resp = h.dispatch(c, Request{Type: "start_session", SessionID: sessionID})
	require.Equal(t, "ok", resp.Type, resp.Error)

	select {
	case raw := <-c.send:
		var pushed Response
		require.NoError(t, json.Unmarshal(raw, &pushed))
		assert.Equal(t, "event", pushed.Type)
		require.NotNil(t, pushed.Event)
		assert.Equal(t, "SESSION_STARTED", pushed.Event.Type)
	default:
		t.Fatal("no event pushed after session start")
	}
}
