package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iqnite/eggsplode/internal/config"
	"github.com/iqnite/eggsplode/internal/game/catalog"
	"github.com/iqnite/eggsplode/internal/game/deck"
	"github.com/iqnite/eggsplode/internal/game/roster"
	"github.com/iqnite/eggsplode/internal/game/rules"
)

// Status is the lifecycle state of one session.
type Status int

const (
	StatusLobby Status = iota
	StatusInProgress
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusLobby:
		return "LOBBY"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

const (
	dealtHandSize  = 7
	seeFutureDepth = 3
)

type followupKind int

const (
	followupNone followupKind = iota
	followupReinsert
	followupAttackTarget
	followupStealTarget
	followupDemandTarget
	followupDemandKind
)

// pendingAction is a proposed effect that has not committed yet. Its cards
// are already in the discard pile; they stay there even if the effect is
// cancelled.
type pendingAction struct {
	initiator string
	effect    catalog.Kind
	combo     catalog.ComboKind
	target    string
	demand    catalog.Kind
	window    *rules.Window
	followup  followupKind
	bomb      *deck.Card // drawn bomb awaiting reinsertion after a defuse
}

// Session is the state machine of one game table. All mutation is serialized
// through a single mutex; concurrent submits and deadline callbacks are
// applied in lock-acquisition order, and deadline callbacks that lost the
// race are discarded by sequence number rather than wall-clock comparison.
type Session struct {
	mu sync.Mutex

	id    string
	log   *zap.Logger
	cfg   config.GameConfig
	cat   *catalog.Catalog
	clock Clock
	rng   *rand.Rand
	bus   *rules.EventBus
	sink  ResultSink

	deck    *deck.Deck
	roster  *roster.Roster
	turns   *rules.Controller
	status  Status
	winner  string
	pending *pendingAction

	// seq increments on every accepted mutation; armed deadlines carry the
	// seq they were armed at and become stale when it moves.
	seq      uint64
	timer    Timer
	deadline time.Time

	missed     map[string]int // consecutive deadline expiries per player
	turnCount  int
	startedAt  time.Time
	finishedAt time.Time

	removed    []deck.Card // bombs taken out of circulation
	totalCards int         // fixed multiset size, set at deal time
}

func newSession(id string, players []string, cfg config.GameConfig, clock Clock, rng *rand.Rand, bus *rules.EventBus, sink ResultSink, log *zap.Logger) (*Session, error) {
	r, err := roster.New(players...)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:     id,
		log:    log.With(zap.String("session_id", id)),
		cfg:    cfg,
		cat:    catalog.Default(),
		clock:  clock,
		rng:    rng,
		bus:    bus,
		sink:   sink,
		roster: r,
		status: StatusLobby,
		missed: make(map[string]int),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Join adds a player during the lobby phase.
func (s *Session) Join(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusLobby {
		return ErrSessionAlreadyStarted
	}
	if s.roster.Len() >= s.cfg.MaxPlayers {
		return fmt.Errorf("%w: table is full", ErrIllegalAction)
	}
	return s.roster.Join(playerID)
}

// Start closes the lobby, builds and deals the deck and begins the first
// turn.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusLobby {
		return ErrSessionAlreadyStarted
	}
	players := s.roster.ActiveIDs()
	if len(players) < s.cfg.MinPlayers {
		return fmt.Errorf("%w: need at least %d players", ErrIllegalAction, s.cfg.MinPlayers)
	}

	d := deck.New(s.cat.BaseDeck(len(players)), s.rng)
	d.Shuffle()
	for _, id := range players {
		if err := s.roster.AddCard(id, deck.NewCard(catalog.KindDefuse)); err != nil {
			return err
		}
		for i := 0; i < dealtHandSize; i++ {
			c, err := d.Draw()
			if err != nil {
				return fmt.Errorf("dealing: %w", err)
			}
			if err := s.roster.AddCard(id, c); err != nil {
				return err
			}
		}
	}
	for i := 0; i < s.cat.Bombs(len(players)); i++ {
		d.InsertAt(deck.NewCard(catalog.KindEggsplode), 0)
	}
	if s.cfg.Radioeggtive {
		d.InsertAt(deck.NewCard(catalog.KindRadioeggtive), 0)
	}
	d.Shuffle()

	s.deck = d
	s.roster.MarkStarted()
	s.turns = rules.NewController(players)
	s.status = StatusInProgress
	s.startedAt = s.clock.Now()
	s.totalCards = d.DrawSize() + s.roster.TotalCards()

	s.publish(rules.Event{Type: rules.EventSessionStarted, PlayerID: s.turns.CurrentPlayer(), Amount: len(players)})
	s.bumpAndArm(s.cfg.TurnTimeout)
	s.emitTurn()
	return nil
}

// SubmitAction validates and applies a draw or play intent from the player
// currently holding authority. A rejected submit leaves the session
// unchanged.
func (s *Session) SubmitAction(playerID string, act Action) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return Outcome{}, err
	}
	if act.Seq != 0 && act.Seq != s.seq {
		return Outcome{}, ErrStaleAction
	}
	if s.turns.Phase() != rules.PhaseAwaitingAction {
		return Outcome{}, fmt.Errorf("%w: session is %s", ErrIllegalAction, s.turns.Phase())
	}
	if playerID != s.turns.CurrentPlayer() {
		return Outcome{}, ErrNotYourTurn
	}

	switch act.Type {
	case ActionDraw:
		s.missed[playerID] = 0
		return s.performDraw(playerID, false, false)
	case ActionPlay:
		return s.playCard(playerID, act)
	case ActionPlayCombo:
		return s.playCombo(playerID, act)
	default:
		return Outcome{}, fmt.Errorf("%w: unknown action type %q", ErrIllegalAction, act.Type)
	}
}

func (s *Session) playCard(playerID string, act Action) (Outcome, error) {
	if len(act.Cards) != 1 {
		return Outcome{}, fmt.Errorf("%w: play takes exactly one card", ErrIllegalAction)
	}
	kind := act.Cards[0]
	if !s.roster.HasKind(playerID, kind) {
		return Outcome{}, ErrCardNotInHand
	}
	spec, ok := s.cat.Get(kind)
	if !ok || !spec.Playable {
		return Outcome{}, fmt.Errorf("%w: %s cannot be played", ErrIllegalAction, kind)
	}
	if spec.NeedsTarget && act.Target != "" {
		if err := s.checkTarget(playerID, act.Target, false); err != nil {
			return Outcome{}, err
		}
	}
	if kind == catalog.KindAlterFuture {
		if err := s.checkReorder(act.Order); err != nil {
			return Outcome{}, err
		}
	}

	s.missed[playerID] = 0
	card, _ := s.roster.RemoveKind(playerID, kind)
	s.deck.Discard(card)
	s.publish(rules.Event{Type: rules.EventCardPlayed, PlayerID: playerID, CardKind: string(kind)})

	if spec.Counterable {
		return s.openWindow(&pendingAction{
			initiator: playerID,
			effect:    kind,
			target:    act.Target,
		}), nil
	}
	return s.applyImmediate(playerID, kind, act)
}

func (s *Session) playCombo(playerID string, act Action) (Outcome, error) {
	combo, err := s.cat.Combo(act.Cards)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidCombo, err)
	}
	kind := act.Cards[0]
	if s.roster.CountKind(playerID, kind) < len(act.Cards) {
		return Outcome{}, ErrCardNotInHand
	}
	if act.Target != "" {
		if err := s.checkTarget(playerID, act.Target, combo == catalog.ComboPairSteal); err != nil {
			return Outcome{}, err
		}
	}
	if act.DemandKind != "" {
		if spec, ok := s.cat.Get(act.DemandKind); !ok || spec.DrawOnly {
			return Outcome{}, fmt.Errorf("%w: %s cannot be demanded", ErrIllegalAction, act.DemandKind)
		}
	}

	s.missed[playerID] = 0
	for range act.Cards {
		card, _ := s.roster.RemoveKind(playerID, kind)
		s.deck.Discard(card)
	}
	s.publish(rules.Event{Type: rules.EventCardPlayed, PlayerID: playerID, CardKind: string(kind), Amount: len(act.Cards)})

	return s.openWindow(&pendingAction{
		initiator: playerID,
		effect:    kind,
		combo:     combo,
		target:    act.Target,
		demand:    act.DemandKind,
	}), nil
}

// applyImmediate commits non-counterable effects in place.
func (s *Session) applyImmediate(playerID string, kind catalog.Kind, act Action) (Outcome, error) {
	out := Outcome{Kind: OutcomeCommitted}
	switch kind {
	case catalog.KindSkip:
		s.finishObligation()
	case catalog.KindSuperSkip:
		s.turns.EndTurn()
	case catalog.KindReverse:
		s.turns.Reverse()
		s.finishObligation()
	case catalog.KindShuffle:
		s.deck.Shuffle()
	case catalog.KindSeeFuture:
		n := min(seeFutureDepth, s.deck.DrawSize())
		cards, err := s.deck.PeekTop(n)
		if err != nil {
			return Outcome{}, err
		}
		for _, c := range cards {
			out.Peek = append(out.Peek, c.Kind)
		}
	case catalog.KindAlterFuture:
		if err := s.deck.ReorderTop(act.Order); err != nil {
			return Outcome{}, err
		}
	case catalog.KindDrawFromBottom:
		return s.performDraw(playerID, true, false)
	default:
		return Outcome{}, fmt.Errorf("%w: no immediate effect for %s", ErrIllegalAction, kind)
	}
	s.bumpAndArm(s.cfg.TurnTimeout)
	s.emitTurn()
	out.Deadline = s.deadline
	return out, nil
}

// performDraw resolves one draw, from the top or the bottom of the pile.
func (s *Session) performDraw(playerID string, fromBottom, timedOut bool) (Outcome, error) {
	var card deck.Card
	var err error
	if fromBottom {
		card, err = s.deck.DrawBottom()
	} else {
		card, err = s.deck.Draw()
	}
	if err != nil {
		// Unreachable while card conservation holds.
		s.log.Error("draw failed after reshuffle fallback", zap.Error(err))
		return Outcome{}, err
	}

	switch card.Kind {
	case catalog.KindEggsplode:
		return s.resolveBombDraw(playerID, card, timedOut)
	case catalog.KindRadioeggtive:
		return s.resolveRadioeggtiveDraw(playerID, card, timedOut), nil
	case catalog.KindRadioeggtiveUp:
		// Face up, the radioactive card eliminates unconditionally; a defuse
		// does not help.
		s.removed = append(s.removed, card)
		if out, finished := s.eliminate(playerID); finished {
			return out, nil
		}
		s.bumpAndArm(s.cfg.TurnTimeout)
		s.emitTurn()
		return Outcome{Kind: OutcomeEliminated, Drawn: &card, Deadline: s.deadline}, nil
	}

	if err := s.roster.AddCard(playerID, card); err != nil {
		return Outcome{}, err
	}
	s.publish(rules.Event{Type: rules.EventCardDrawn, PlayerID: playerID})
	s.finishObligation()
	s.bumpAndArm(s.cfg.TurnTimeout)
	s.emitTurn()
	return Outcome{Kind: OutcomeDrawn, Drawn: &card, Deadline: s.deadline}, nil
}

func (s *Session) resolveBombDraw(playerID string, bomb deck.Card, timedOut bool) (Outcome, error) {
	if defuse, ok := s.roster.RemoveKind(playerID, catalog.KindDefuse); ok {
		s.deck.Discard(defuse)
		s.publish(rules.Event{Type: rules.EventCardDrawn, PlayerID: playerID, CardKind: string(catalog.KindEggsplode), Description: "defused"})
		if timedOut {
			// No prompt for an absent player: reinsert at the bottom.
			s.deck.InsertAt(bomb, s.deck.DrawSize())
			s.finishObligation()
			s.bumpAndArm(s.cfg.TurnTimeout)
			s.emitTurn()
			return Outcome{Kind: OutcomeDefusePrompt, Drawn: &bomb, Deadline: s.deadline}, nil
		}
		s.pending = &pendingAction{
			initiator: playerID,
			effect:    catalog.KindDefuse,
			followup:  followupReinsert,
			bomb:      &bomb,
		}
		s.turns.SetPhase(rules.PhaseAwaitingFollowup)
		s.bumpAndArm(s.cfg.TurnTimeout)
		return Outcome{Kind: OutcomeDefusePrompt, Drawn: &bomb, Deadline: s.deadline}, nil
	}

	s.removed = append(s.removed, bomb)
	if out, finished := s.eliminate(playerID); finished {
		return out, nil
	}
	s.bumpAndArm(s.cfg.TurnTimeout)
	s.emitTurn()
	return Outcome{Kind: OutcomeEliminated, Drawn: &bomb, Deadline: s.deadline}, nil
}

// resolveRadioeggtiveDraw handles the face-down radioactive card: it harms
// nobody on the first draw but goes back into the pile face up, where it
// eliminates the next player to draw it. No defuse is consumed; the drawer
// picks the reinsertion position.
func (s *Session) resolveRadioeggtiveDraw(playerID string, card deck.Card, timedOut bool) Outcome {
	faceUp := deck.Card{ID: card.ID, Kind: catalog.KindRadioeggtiveUp}
	s.publish(rules.Event{Type: rules.EventCardDrawn, PlayerID: playerID, CardKind: string(catalog.KindRadioeggtive)})
	if timedOut {
		s.deck.InsertAt(faceUp, s.deck.DrawSize())
		s.finishObligation()
		s.bumpAndArm(s.cfg.TurnTimeout)
		s.emitTurn()
		return Outcome{Kind: OutcomeReinsertPrompt, Drawn: &card, Deadline: s.deadline}
	}
	s.pending = &pendingAction{
		initiator: playerID,
		effect:    catalog.KindRadioeggtive,
		followup:  followupReinsert,
		bomb:      &faceUp,
	}
	s.turns.SetPhase(rules.PhaseAwaitingFollowup)
	s.bumpAndArm(s.cfg.TurnTimeout)
	return Outcome{Kind: OutcomeReinsertPrompt, Drawn: &card, Deadline: s.deadline}
}

// eliminate flips a player to eliminated, forfeits their hand to the discard
// pile and checks the win condition. Returns finished=true when the game
// ended.
func (s *Session) eliminate(playerID string) (Outcome, bool) {
	forfeited, err := s.roster.Eliminate(playerID)
	if err != nil {
		// Guarded by the callers; a double elimination here is a bug.
		s.log.Error("elimination failed", zap.String("player_id", playerID), zap.Error(err))
		return Outcome{}, false
	}
	s.deck.Discard(forfeited...)
	s.turns.Remove(playerID)
	delete(s.missed, playerID)
	s.publish(rules.Event{
		Type:     rules.EventPlayerEliminated,
		PlayerID: playerID,
		Amount:   s.roster.ActiveCount(),
	})

	if s.roster.ActiveCount() == 1 {
		winner := s.roster.ActiveIDs()[0]
		s.finish(winner)
		return Outcome{Kind: OutcomeGameFinished, Winner: winner}, true
	}
	return Outcome{}, false
}

// SubmitCounter plays a nope card against the pending action's current
// parity. Counters are serialized by arrival; the chain's previous responder
// and, at even parity, the initiator are not eligible.
func (s *Session) SubmitCounter(playerID string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return Outcome{}, err
	}
	if s.turns.Phase() != rules.PhaseAwaitingInterrupt || s.pending == nil || s.pending.window == nil {
		return Outcome{}, fmt.Errorf("%w: no interrupt window open", ErrIllegalAction)
	}
	p, err := s.roster.Get(playerID)
	if err != nil {
		return Outcome{}, err
	}
	if p.Status != roster.StatusActive {
		return Outcome{}, ErrNotEligibleToRespond
	}
	if err := s.pending.window.CanRespond(playerID); err != nil {
		return Outcome{}, err
	}
	if !s.roster.HasKind(playerID, catalog.KindNope) {
		return Outcome{}, ErrCardNotInHand
	}

	nope, _ := s.roster.RemoveKind(playerID, catalog.KindNope)
	s.deck.Discard(nope)
	_ = s.pending.window.AddVeto(playerID)
	s.missed[playerID] = 0
	s.publish(rules.Event{Type: rules.EventCardPlayed, PlayerID: playerID, CardKind: string(catalog.KindNope), Amount: s.pending.window.Depth()})

	if s.pending.window.Full() {
		return s.resolveWindow()
	}
	// Each accepted counter reopens a fresh sub-deadline for the
	// counter-the-counter.
	s.bumpAndArm(s.cfg.InterruptTimeout)
	s.publish(rules.Event{
		Type:     rules.EventInterruptWindowOpened,
		PlayerID: s.pending.initiator,
		CardKind: string(s.pending.effect),
		Amount:   s.pending.window.Depth(),
		Deadline: s.deadline,
	})
	return Outcome{Kind: OutcomeCounterAccepted, Deadline: s.deadline}, nil
}

// SubmitTarget supplies the followup input a pending action is waiting for.
func (s *Session) SubmitTarget(playerID string, tgt Target) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return Outcome{}, err
	}
	if s.turns.Phase() != rules.PhaseAwaitingFollowup || s.pending == nil {
		return Outcome{}, fmt.Errorf("%w: no followup pending", ErrIllegalAction)
	}
	if playerID != s.pending.initiator {
		return Outcome{}, ErrNotYourTurn
	}

	switch s.pending.followup {
	case followupReinsert:
		if tgt.Position == nil {
			return Outcome{}, fmt.Errorf("%w: reinsertion position required", ErrIllegalAction)
		}
		s.missed[playerID] = 0
		return s.applyReinsert(*tgt.Position), nil
	case followupAttackTarget, followupStealTarget, followupDemandTarget:
		if tgt.Player == "" {
			return Outcome{}, fmt.Errorf("%w: target player required", ErrIllegalAction)
		}
		needsCards := s.pending.followup == followupStealTarget
		if err := s.checkTarget(playerID, tgt.Player, needsCards); err != nil {
			return Outcome{}, err
		}
		s.missed[playerID] = 0
		s.pending.target = tgt.Player
		return s.continuePending(), nil
	case followupDemandKind:
		if tgt.Kind == "" {
			return Outcome{}, fmt.Errorf("%w: demanded kind required", ErrIllegalAction)
		}
		if spec, ok := s.cat.Get(tgt.Kind); !ok || spec.DrawOnly {
			return Outcome{}, fmt.Errorf("%w: %s cannot be demanded", ErrIllegalAction, tgt.Kind)
		}
		s.missed[playerID] = 0
		s.pending.demand = tgt.Kind
		return s.continuePending(), nil
	default:
		return Outcome{}, fmt.Errorf("%w: no followup pending", ErrIllegalAction)
	}
}

func (s *Session) applyReinsert(position int) Outcome {
	bomb := *s.pending.bomb
	s.deck.InsertAt(bomb, position)
	s.pending = nil
	s.turns.SetPhase(rules.PhaseAwaitingAction)
	s.finishObligation()
	s.bumpAndArm(s.cfg.TurnTimeout)
	s.emitTurn()
	return Outcome{Kind: OutcomeCommitted, Deadline: s.deadline}
}

// openWindow moves the session into the interrupt phase for the given
// pending action.
func (s *Session) openWindow(p *pendingAction) Outcome {
	p.window = rules.NewWindow(p.initiator, s.cfg.MaxNopeChain)
	s.pending = p
	s.turns.SetPhase(rules.PhaseAwaitingInterrupt)
	s.bumpAndArm(s.cfg.InterruptTimeout)
	s.publish(rules.Event{
		Type:     rules.EventInterruptWindowOpened,
		PlayerID: p.initiator,
		CardKind: string(p.effect),
		TargetID: p.target,
		Deadline: s.deadline,
	})
	return Outcome{Kind: OutcomeWindowOpened, Deadline: s.deadline}
}

// resolveWindow closes the interrupt window at current parity.
func (s *Session) resolveWindow() (Outcome, error) {
	p := s.pending
	if p.window.Countered() {
		// Cancelled: the cards stay discarded, no effect commits, the
		// initiator keeps their turn and remaining obligations.
		s.pending = nil
		s.turns.SetPhase(rules.PhaseAwaitingAction)
		s.publish(rules.Event{
			Type:     rules.EventActionCancelled,
			PlayerID: p.initiator,
			CardKind: string(p.effect),
			Amount:   p.window.Depth(),
		})
		s.bumpAndArm(s.cfg.TurnTimeout)
		s.emitTurn()
		return Outcome{Kind: OutcomeCancelled, Deadline: s.deadline}, nil
	}
	return s.continuePending(), nil
}

// continuePending advances a surviving pending action: prompts for missing
// followup input or commits the effect.
func (s *Session) continuePending() Outcome {
	p := s.pending
	if p.combo != catalog.ComboNone {
		switch {
		case p.target == "":
			return s.prompt(followupDemandOrStealTarget(p.combo))
		case p.combo == catalog.ComboTrioDemand && p.demand == "":
			return s.prompt(followupDemandKind)
		}
		return s.commitCombo()
	}

	switch p.effect {
	case catalog.KindAttegg:
		spec, _ := s.cat.Get(p.effect)
		s.turns.Attack(spec.AttackTurns)
		return s.commitDone(Outcome{Kind: OutcomeCommitted})
	case catalog.KindTargetedAttegg:
		if p.target == "" {
			return s.prompt(followupAttackTarget)
		}
		spec, _ := s.cat.Get(p.effect)
		if err := s.turns.AttackTarget(p.target, spec.AttackTurns); err != nil {
			// The target was eliminated while the window was open; fall back
			// to a plain attack.
			s.turns.Attack(spec.AttackTurns)
		}
		return s.commitDone(Outcome{Kind: OutcomeCommitted})
	default:
		s.log.Error("pending action with no commit path", zap.String("effect", string(p.effect)))
		s.pending = nil
		s.turns.SetPhase(rules.PhaseAwaitingAction)
		s.bumpAndArm(s.cfg.TurnTimeout)
		return Outcome{Kind: OutcomeCancelled, Deadline: s.deadline}
	}
}

func followupDemandOrStealTarget(combo catalog.ComboKind) followupKind {
	if combo == catalog.ComboTrioDemand {
		return followupDemandTarget
	}
	return followupStealTarget
}

func (s *Session) prompt(f followupKind) Outcome {
	s.pending.followup = f
	s.turns.SetPhase(rules.PhaseAwaitingFollowup)
	s.bumpAndArm(s.cfg.TurnTimeout)
	return Outcome{Kind: OutcomeAwaitingTarget, Deadline: s.deadline}
}

func (s *Session) commitCombo() Outcome {
	p := s.pending
	out := Outcome{Kind: OutcomeCommitted}
	switch p.combo {
	case catalog.ComboPairSteal:
		if c, ok := s.roster.TakeRandom(p.target, s.rng); ok {
			_ = s.roster.AddCard(p.initiator, c)
			out.Stolen = &c
		}
	case catalog.ComboTrioDemand:
		if c, ok := s.roster.RemoveKind(p.target, p.demand); ok {
			_ = s.roster.AddCard(p.initiator, c)
			out.Stolen = &c
		}
	}
	return s.commitDone(out)
}

// commitDone finalizes a committed pending action and returns the session to
// the action phase.
func (s *Session) commitDone(out Outcome) Outcome {
	p := s.pending
	s.pending = nil
	s.turns.SetPhase(rules.PhaseAwaitingAction)
	s.publish(rules.Event{
		Type:     rules.EventActionCommitted,
		PlayerID: p.initiator,
		CardKind: string(p.effect),
		TargetID: p.target,
	})
	s.bumpAndArm(s.cfg.TurnTimeout)
	s.emitTurn()
	out.Deadline = s.deadline
	return out
}

// onDeadline is the supervisor callback. armedSeq identifies the state the
// deadline was armed for; if the session moved on, the callback is stale and
// discarded (the competing submit won at serialization).
func (s *Session) onDeadline(armedSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress || armedSeq != s.seq {
		s.log.Debug("discarding stale deadline", zap.Uint64("armed_seq", armedSeq), zap.Uint64("seq", s.seq))
		return
	}

	switch s.turns.Phase() {
	case rules.PhaseAwaitingAction:
		player := s.turns.CurrentPlayer()
		s.missed[player]++
		if s.cfg.ForfeitAfterTimeouts > 0 && s.missed[player] >= s.cfg.ForfeitAfterTimeouts {
			s.log.Info("auto-eliminating inactive player", zap.String("player_id", player), zap.Int("missed", s.missed[player]))
			if _, finished := s.eliminate(player); finished {
				return
			}
			s.bumpAndArm(s.cfg.TurnTimeout)
			s.emitTurn()
			return
		}
		s.log.Info("turn deadline expired, forcing draw", zap.String("player_id", player))
		if _, err := s.performDraw(player, false, true); err != nil {
			s.log.Error("forced draw failed", zap.Error(err))
		}
	case rules.PhaseAwaitingInterrupt:
		if _, err := s.resolveWindow(); err != nil {
			s.log.Error("window resolution failed", zap.Error(err))
		}
	case rules.PhaseAwaitingFollowup:
		s.applyDefaultFollowup()
	}
}

// applyDefaultFollowup resolves an expired followup prompt with the
// deterministic defaults: bottom of the pile for a bomb reinsertion, the
// first eligible player in turn order for target prompts, the first
// demandable catalog kind for demand prompts.
func (s *Session) applyDefaultFollowup() {
	p := s.pending
	s.missed[p.initiator]++

	switch p.followup {
	case followupReinsert:
		s.applyReinsert(s.deck.DrawSize())
	case followupAttackTarget, followupDemandTarget:
		if target, ok := s.roster.FirstActiveOther(p.initiator); ok {
			p.target = target
			s.continuePending()
			return
		}
		s.cancelPendingUnresolvable()
	case followupStealTarget:
		target, ok := s.firstOtherWithCards(p.initiator)
		if !ok {
			s.cancelPendingUnresolvable()
			return
		}
		p.target = target
		s.continuePending()
	case followupDemandKind:
		p.demand = s.cat.DefaultDemandKind()
		s.continuePending()
	}
}

func (s *Session) cancelPendingUnresolvable() {
	p := s.pending
	s.pending = nil
	s.turns.SetPhase(rules.PhaseAwaitingAction)
	s.publish(rules.Event{Type: rules.EventActionCancelled, PlayerID: p.initiator, CardKind: string(p.effect)})
	s.bumpAndArm(s.cfg.TurnTimeout)
	s.emitTurn()
}

func (s *Session) firstOtherWithCards(id string) (string, bool) {
	for p := range s.roster.Active() {
		if p.ID != id && len(p.Hand) > 0 {
			return p.ID, true
		}
	}
	return "", false
}

func (s *Session) finishObligation() {
	s.turns.FinishObligation()
	s.turnCount++
}

func (s *Session) finish(winner string) {
	s.status = StatusFinished
	s.winner = winner
	s.finishedAt = s.clock.Now()
	s.turns.SetPhase(rules.PhaseGameOver)
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.publish(rules.Event{Type: rules.EventGameFinished, Winner: winner, Amount: s.turnCount})
	s.log.Info("game finished", zap.String("winner", winner), zap.Int("turns", s.turnCount))

	if s.sink != nil {
		result := Result{
			SessionID:  s.id,
			Winner:     winner,
			Players:    s.allPlayerIDs(),
			StartedAt:  s.startedAt,
			FinishedAt: s.finishedAt,
			Turns:      s.turnCount,
		}
		sink := s.sink
		log := s.log
		go func() {
			if err := sink.RecordResult(context.Background(), result); err != nil {
				log.Warn("recording game result failed", zap.Error(err))
			}
		}()
	}
}

func (s *Session) allPlayerIDs() []string {
	ids := make([]string, 0, s.roster.Len())
	for id := range s.roster.HandSizes() {
		ids = append(ids, id)
	}
	return ids
}

// close stops the session's timer; used on server shutdown.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) checkOpen() error {
	switch s.status {
	case StatusLobby:
		return ErrSessionNotStarted
	case StatusFinished:
		return ErrSessionFinished
	}
	return nil
}

// checkTarget validates a target player selection without mutating state.
func (s *Session) checkTarget(initiator, target string, needsCards bool) error {
	if target == initiator {
		return fmt.Errorf("%w: cannot target yourself", ErrIllegalAction)
	}
	p, err := s.roster.Get(target)
	if err != nil {
		return err
	}
	if p.Status != roster.StatusActive {
		return fmt.Errorf("%w: %s is eliminated", ErrIllegalAction, target)
	}
	if needsCards && len(p.Hand) == 0 {
		return fmt.Errorf("%w: %s has no cards", ErrIllegalAction, target)
	}
	return nil
}

// checkReorder validates an alter_future permutation without mutating state.
func (s *Session) checkReorder(order []int) error {
	n := len(order)
	if n < 1 || n > seeFutureDepth {
		return fmt.Errorf("%w: reorder takes 1 to %d positions", ErrIllegalAction, seeFutureDepth)
	}
	if n > s.deck.DrawSize() {
		return fmt.Errorf("%w: only %d cards left", ErrIllegalAction, s.deck.DrawSize())
	}
	seen := make([]bool, n)
	for _, j := range order {
		if j < 0 || j >= n || seen[j] {
			return fmt.Errorf("%w: order is not a permutation", ErrIllegalAction)
		}
		seen[j] = true
	}
	return nil
}

// bumpAndArm advances the mutation sequence and arms the phase deadline for
// the new state.
func (s *Session) bumpAndArm(d time.Duration) {
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.deadline = s.clock.Now().Add(d)
	armedSeq := s.seq
	s.timer = s.clock.AfterFunc(d, func() { s.onDeadline(armedSeq) })
}

func (s *Session) emitTurn() {
	s.publish(rules.Event{
		Type:     rules.EventTurnAdvanced,
		PlayerID: s.turns.CurrentPlayer(),
		Amount:   s.turns.Obligations(),
		Deadline: s.deadline,
	})
}

func (s *Session) publish(e rules.Event) {
	e.SessionID = s.id
	e.Timestamp = s.clock.Now()
	s.bus.Publish(e)
}
