package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a session event.
type EventType string

const (
	EventSessionStarted        EventType = "SESSION_STARTED"
	EventTurnAdvanced          EventType = "TURN_ADVANCED"
	EventCardPlayed            EventType = "CARD_PLAYED"
	EventCardDrawn             EventType = "CARD_DRAWN"
	EventInterruptWindowOpened EventType = "INTERRUPT_WINDOW_OPENED"
	EventActionCancelled       EventType = "ACTION_CANCELLED"
	EventActionCommitted       EventType = "ACTION_COMMITTED"
	EventPlayerEliminated      EventType = "PLAYER_ELIMINATED"
	EventGameFinished          EventType = "GAME_FINISHED"
)

// Event is a state change other subsystems may react to. It carries enough
// data to render a user-facing message; no rendering happens in the engine.
type Event struct {
	Type        EventType
	SessionID   string
	PlayerID    string // the acting player, where applicable
	TargetID    string // the targeted player, where applicable
	CardKind    string // the card or effect involved
	Amount      int    // obligations, chain depth, remaining players
	Winner      string
	Deadline    time.Time // when the awaiting phase expires
	Timestamp   time.Time
	Description string
}

// Listener reacts to incoming events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType EventType
	callback  func(Event)
}

// EventBus is a synchronous publish/subscribe hub with optional type
// filtering. Listeners run on the publisher's goroutine and must not block.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]typedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]typedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a single event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], typedListener{
		handle:    handle,
		eventType: eventType,
		callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.callback(event)
	}
}
