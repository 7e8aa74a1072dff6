package game

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iqnite/eggsplode/internal/config"
	"github.com/iqnite/eggsplode/internal/game/rules"
)

// Manager owns the live sessions. It hands out session handles by ID and
// reaps finished sessions after their retention window. Safe for concurrent
// use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*managed

	cfg   config.Config
	clock Clock
	sink  ResultSink
	log   *zap.Logger
}

type managed struct {
	session    *Session
	bus        *rules.EventBus
	finishedAt time.Time
}

// NewManager creates a manager. sink may be nil to disable result
// persistence.
func NewManager(cfg config.Config, sink ResultSink, log *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*managed),
		cfg:      cfg,
		clock:    NewClock(),
		sink:     sink,
		log:      log,
	}
}

// CreateSession opens a new lobby with the given initial players and returns
// its ID.
func (m *Manager) CreateSession(players ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Server.MaxSessions > 0 && len(m.sessions) >= m.cfg.Server.MaxSessions {
		return "", ErrTooManySessions
	}

	id := uuid.NewString()
	bus := rules.NewEventBus()
	seed := rand.NewPCG(rand.Uint64(), rand.Uint64())
	s, err := newSession(id, players, m.cfg.Game, m.clock, rand.New(seed), bus, m.sink, m.log)
	if err != nil {
		return "", err
	}
	entry := &managed{session: s, bus: bus}
	bus.SubscribeTyped(rules.EventGameFinished, func(rules.Event) {
		m.markFinished(id)
	})
	m.sessions[id] = entry
	m.log.Info("session created", zap.String("session_id", id), zap.Int("players", len(players)))
	return id, nil
}

func (m *Manager) markFinished(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.sessions[id]; ok {
		entry.finishedAt = m.clock.Now()
	}
}

// Session returns the live session with the given ID.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return entry.session, nil
}

// Events returns the event bus of the given session.
func (m *Manager) Events(id string) (*rules.EventBus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return entry.bus, nil
}

// SessionCount returns the number of live sessions, finished included until
// they are reaped.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupFinished drops finished sessions older than the retention TTL and
// returns how many were removed. Sessions are closed outside the manager
// lock; a session publishing its finish event holds its own lock and may
// call back into the manager.
func (m *Manager) CleanupFinished() int {
	m.mu.Lock()
	now := m.clock.Now()
	var reaped []*Session
	for id, entry := range m.sessions {
		if entry.finishedAt.IsZero() {
			continue
		}
		if now.Sub(entry.finishedAt) >= m.cfg.Server.SessionTTL {
			reaped = append(reaped, entry.session)
			delete(m.sessions, id)
		}
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	for _, s := range reaped {
		s.close()
	}
	if len(reaped) > 0 {
		m.log.Info("reaped finished sessions", zap.Int("removed", len(reaped)), zap.Int("remaining", remaining))
	}
	return len(reaped)
}

// RunCleanup reaps finished sessions on the given interval until stop is
// closed.
func (m *Manager) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupFinished()
		case <-stop:
			return
		}
	}
}

// CloseAll stops every session's timers; used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	var all []*Session
	for id, entry := range m.sessions {
		all = append(all, entry.session)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
