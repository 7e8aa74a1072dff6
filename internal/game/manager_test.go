package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iqnite/eggsplode/internal/config"
	"github.com/iqnite/eggsplode/internal/game/catalog"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			MaxSessions: 10,
			SessionTTL:  time.Hour,
		},
		Game: config.GameConfig{
			TurnTimeout:      time.Minute,
			InterruptTimeout: 10 * time.Second,
			MaxNopeChain:     6,
			MinPlayers:       2,
			MaxPlayers:       5,
		},
	}
}

func TestManagerCreateAndLookup(t *testing.T) {
	m := NewManager(testConfig(), nil, zap.NewNop())

	id, err := m.CreateSession("ana", "ben")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s, err := m.Session(id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID())

	_, err = m.Session("no-such-id")
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = m.Events("no-such-id")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestManagerSessionLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxSessions = 1
	m := NewManager(cfg, nil, zap.NewNop())

	_, err := m.CreateSession("ana", "ben")
	require.NoError(t, err)
	_, err = m.CreateSession("cleo", "dan")
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := NewManager(testConfig(), nil, zap.NewNop())

	id1, err := m.CreateSession("ana", "ben")
	require.NoError(t, err)
	id2, err := m.CreateSession("cleo", "dan")
	require.NoError(t, err)

	s1, err := m.Session(id1)
	require.NoError(t, err)
	s2, err := m.Session(id2)
	require.NoError(t, err)
	require.NoError(t, s1.Start())
	require.NoError(t, s2.Start())

	before := s2.PublicState()
	give(t, s1, "ana", catalog.KindSkip)
	_, err = s1.SubmitAction("ana", Action{Type: ActionPlay, Cards: []catalog.Kind{catalog.KindSkip}})
	require.NoError(t, err)

	after := s2.PublicState()
	assert.Equal(t, before.Seq, after.Seq, "activity in one session must not leak into another")
	assert.Equal(t, before.CurrentTurn, after.CurrentTurn)
}

func TestManagerReapsFinishedSessions(t *testing.T) {
	cfg := testConfig()
	cfg.Server.SessionTTL = 0
	m := NewManager(cfg, nil, zap.NewNop())

	id, err := m.CreateSession("ana", "ben")
	require.NoError(t, err)
	s, err := m.Session(id)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	strip(s, "ana", catalog.KindDefuse)
	stackTop(s, catalog.KindEggsplode)
	out, err := s.SubmitAction("ana", Action{Type: ActionDraw})
	require.NoError(t, err)
	require.Equal(t, OutcomeGameFinished, out.Kind)

	assert.Equal(t, 1, m.CleanupFinished())
	_, err = m.Session(id)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestManagerCloseAll(t *testing.T) {
	m := NewManager(testConfig(), nil, zap.NewNop())
	_, err := m.CreateSession("ana", "ben")
	require.NoError(t, err)
	require.Equal(t, 1, m.SessionCount())

	m.CloseAll()
	assert.Equal(t, 0, m.SessionCount())
}
