package game

import (
	"slices"
	"time"

	"github.com/lox/rummy/rummy"
)

// EventKind identifies the transition that produced a CompanionEvent
type EventKind string

const (
	EventRoundStarted  EventKind = "round_started"
	EventDrawPile      EventKind = "draw_pile"
	EventDrawDiscard   EventKind = "draw_discard"
	EventDiscard       EventKind = "discard"
	EventKnock         EventKind = "knock"
	EventStalemate     EventKind = "stalemate"
	EventRoundScored   EventKind = "round_scored"
	EventRoundComplete EventKind = "round_complete"
	EventMatchComplete EventKind = "match_complete"
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	return string(k)
}

// ParseEventKind validates an event kind name
func ParseEventKind(s string) (EventKind, bool) {
	k := EventKind(s)
	switch k {
	case EventRoundStarted, EventDrawPile, EventDrawDiscard, EventDiscard, EventKnock,
		EventStalemate, EventRoundScored, EventRoundComplete, EventMatchComplete:
		return k, true
	}
	return "", false
}

// Standing is one player's line in an event snapshot
type Standing struct {
	PlayerID    string
	Name        string
	Score       int
	RoundPoints int // only set on round_scored
	Deadwood    int // only set on round_scored
}

// Snapshot is the table state at the moment an event was produced
type Snapshot struct {
	Turn          int
	DiscardTop    rummy.Card
	HasDiscardTop bool
	DrawCount     int
	Standings     []Standing
	Outcome       string // round_scored, match_complete
	Summary       string // one-line human readable description
}

// CompanionEvent is an immutable notification of a state transition. It
// shares no memory with the engine and is safe to hand to other goroutines.
type CompanionEvent struct {
	ID         string
	RoundID    string
	Round      int
	Kind       EventKind
	PlayerID   string
	PlayerName string
	Cards      []rummy.Card
	Timestamp  time.Time
	Snapshot   Snapshot
}

// ClosesRound reports whether the event ends the conversation for its round
func (e CompanionEvent) ClosesRound() bool {
	return e.Kind == EventRoundComplete || e.Kind == EventMatchComplete
}

// Clone returns a deep copy of the event
func (e CompanionEvent) Clone() CompanionEvent {
	out := e
	out.Cards = slices.Clone(e.Cards)
	out.Snapshot.Standings = slices.Clone(e.Snapshot.Standings)
	return out
}

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event CompanionEvent)
}

// SubscriberFunc adapts a function to an EventSubscriber
type SubscriberFunc func(event CompanionEvent)

// OnEvent calls f
func (f SubscriberFunc) OnEvent(event CompanionEvent) { f(event) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Publish(event CompanionEvent)
}

// SimpleEventBus delivers events synchronously, in subscription order.
// Subscribers must not block.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Publish sends a private copy of the event to every subscriber
func (bus *SimpleEventBus) Publish(event CompanionEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event.Clone())
	}
}
