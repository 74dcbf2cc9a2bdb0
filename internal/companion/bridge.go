package companion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rummy/internal/game"
	"golang.org/x/sync/errgroup"
)

// matchScope holds commentary on the match result, which outlives the
// final round and is only cancelled by Close.
const matchScope = "match"

// DefaultKinds are the events companions comment on
var DefaultKinds = []game.EventKind{
	game.EventDiscard,
	game.EventDrawDiscard,
	game.EventKnock,
	game.EventRoundScored,
	game.EventMatchComplete,
}

// Seat binds a companion player to its persona
type Seat struct {
	PlayerID string
	Persona  Persona
}

// Message is a line of commentary, or a failure, tagged with the event that
// triggered it
type Message struct {
	EventID   string
	RoundID   string
	Kind      game.EventKind
	PlayerID  string
	Persona   string
	Text      string
	Err       error
	Timestamp time.Time
}

// Stats counts what happened to published events
type Stats struct {
	Published int64
	Ignored   int64 // kinds nobody comments on
	Overflow  int64 // dropped because a queue was full or the bridge was closed
	Delivered int64
	Failed    int64
	Stale     int64 // finished after their round closed
	Silent    int64 // empty replies
}

// Options configures a Bridge
type Options struct {
	Workers        int
	QueueSize      int
	Timeout        time.Duration
	Kinds          []game.EventKind
	TranscriptSize int
	Placeholder    string // shown for failed requests; empty delivers only the error
	Clock          quartz.Clock
	Logger         *log.Logger
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 16
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.Kinds == nil {
		o.Kinds = DefaultKinds
	}
	if o.TranscriptSize <= 0 {
		o.TranscriptSize = 12
	}
	if o.Clock == nil {
		o.Clock = quartz.NewReal()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// scope tracks the in-flight requests belonging to one round
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// Bridge carries game events to the chat model and commentary back. Publish
// never blocks the game; requests run on a worker pool and their results
// arrive on Messages, out of order and possibly never.
type Bridge struct {
	client ChatClient
	lib    *Library
	seats  []Seat
	opts   Options
	kinds  map[game.EventKind]bool
	logger *log.Logger

	queue chan game.CompanionEvent
	out   chan Message

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu         sync.Mutex
	scopes     map[string]*scope // open rounds only
	retired    []string          // most recently closed rounds, oldest first
	transcript []Line
	next       int
	closed     bool

	published, ignored, overflow, delivered, failed, stale, silent atomic.Int64
}

// NewBridge starts a bridge with its worker pool
func NewBridge(client ChatClient, lib *Library, seats []Seat, opts Options) (*Bridge, error) {
	if client == nil || lib == nil {
		return nil, errors.New("bridge needs a chat client and a persona library")
	}
	if len(seats) == 0 {
		return nil, errors.New("bridge needs at least one companion")
	}
	opts.applyDefaults()

	kinds := make(map[game.EventKind]bool, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kinds[k] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	b := &Bridge{
		client: client,
		lib:    lib,
		seats:  append([]Seat(nil), seats...),
		opts:   opts,
		kinds:  kinds,
		logger: opts.Logger,
		queue:  make(chan game.CompanionEvent, opts.QueueSize),
		out:    make(chan Message, opts.QueueSize),
		ctx:    gctx,
		cancel: cancel,
		group:  g,
		scopes: make(map[string]*scope),
	}

	for range opts.Workers {
		g.Go(func() error {
			b.work(gctx)
			return nil
		})
	}
	return b, nil
}

// OnEvent implements game.EventSubscriber
func (b *Bridge) OnEvent(ev game.CompanionEvent) {
	b.Publish(ev)
}

// Publish hands an event to the bridge and returns immediately. Events that
// close a round cancel that round's pending requests before returning.
func (b *Bridge) Publish(ev game.CompanionEvent) {
	b.published.Add(1)

	if ev.ClosesRound() {
		b.closeScope(ev.RoundID)
	}
	if !b.kinds[ev.Kind] {
		b.ignored.Add(1)
		return
	}

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		b.overflow.Add(1)
		return
	}

	select {
	case b.queue <- ev:
	default:
		b.overflow.Add(1)
		b.logger.Warn("Commentary queue full, dropping event", "kind", ev.Kind, "event", ev.ID)
	}
}

// Messages returns the channel commentary is delivered on. It is closed by
// Close.
func (b *Bridge) Messages() <-chan Message {
	return b.out
}

// Say records a line spoken by the human so companions can respond to it
func (b *Bridge) Say(speaker, text string) {
	b.appendLine(Line{Speaker: speaker, Text: text})
}

// Transcript returns a copy of the accepted conversation so far
func (b *Bridge) Transcript() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Line(nil), b.transcript...)
}

// Stats returns a snapshot of the counters
func (b *Bridge) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Ignored:   b.ignored.Load(),
		Overflow:  b.overflow.Load(),
		Delivered: b.delivered.Load(),
		Failed:    b.failed.Load(),
		Stale:     b.stale.Load(),
		Silent:    b.silent.Load(),
	}
}

// Close cancels every pending request, waits for the workers and closes the
// Messages channel.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, s := range b.scopes {
		s.cancel()
	}
	b.mu.Unlock()

	b.cancel()
	err := b.group.Wait()

	b.mu.Lock()
	close(b.out)
	b.mu.Unlock()
	return err
}

func (b *Bridge) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.queue:
			b.handle(ev)
		}
	}
}

func scopeKey(ev game.CompanionEvent) string {
	if ev.Kind == game.EventMatchComplete {
		return matchScope
	}
	return ev.RoundID
}

// retiredRounds is how many closed rounds are remembered so that late events
// for them are dropped instead of reopening the round
const retiredRounds = 8

// openScope returns the scope for requests in key's round, or false if the
// round has already closed
func (b *Bridge) openScope(key string) (*scope, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || slices.Contains(b.retired, key) {
		return nil, false
	}
	s, ok := b.scopes[key]
	if !ok {
		ctx, cancel := context.WithCancel(b.ctx)
		s = &scope{ctx: ctx, cancel: cancel}
		b.scopes[key] = s
	}
	return s, true
}

// closeScope cancels the round's requests and forgets its scope. Workers
// still holding the scope see it closed.
func (b *Bridge) closeScope(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slices.Contains(b.retired, key) {
		return
	}
	if s, ok := b.scopes[key]; ok {
		s.closed = true
		s.cancel()
		delete(b.scopes, key)
	}
	b.retired = append(b.retired, key)
	if len(b.retired) > retiredRounds {
		b.retired = slices.Delete(b.retired, 0, len(b.retired)-retiredRounds)
	}
	b.logger.Debug("Round closed for commentary", "round", key)
}

// responder picks the acting companion, or the next one in rotation
func (b *Bridge) responder(ev game.CompanionEvent) (Seat, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	seat := b.seats[b.next%len(b.seats)]
	found := false
	for _, s := range b.seats {
		if s.PlayerID == ev.PlayerID {
			seat, found = s, true
			break
		}
	}
	if !found {
		b.next++
	}

	var others []string
	for _, st := range ev.Snapshot.Standings {
		if st.PlayerID != seat.PlayerID {
			others = append(others, st.Name)
		}
	}
	return seat, others
}

func (b *Bridge) handle(ev game.CompanionEvent) {
	sc, ok := b.openScope(scopeKey(ev))
	if !ok {
		b.stale.Add(1)
		return
	}

	seat, others := b.responder(ev)
	msg := Message{
		EventID:  ev.ID,
		RoundID:  ev.RoundID,
		Kind:     ev.Kind,
		PlayerID: seat.PlayerID,
		Persona:  seat.Persona.Name,
	}

	messages, err := b.lib.Messages(seat.Persona, others, ev, b.Transcript())
	if err != nil {
		b.fail(sc, msg, &RequestFailedError{Failure: FailurePrompt, Err: err})
		return
	}

	reqCtx, cancel := context.WithCancel(sc.ctx)
	var timedOut atomic.Bool
	timer := b.opts.Clock.AfterFunc(b.opts.Timeout, func() {
		timedOut.Store(true)
		cancel()
	})
	text, err := b.client.Complete(reqCtx, messages)
	timer.Stop()
	cancel()

	if err != nil {
		rfe := asRequestFailed(err, FailureTransport)
		if timedOut.Load() {
			rfe.Failure = FailureTimeout
		}
		b.fail(sc, msg, rfe)
		return
	}

	text = CleanReply(text, seat.Persona.Name)
	if text == "" {
		b.silent.Add(1)
		return
	}
	msg.Text = text
	b.deliver(sc, msg, true)
}

func (b *Bridge) fail(sc *scope, msg Message, rfe *RequestFailedError) {
	rfe.Persona = msg.Persona
	rfe.EventID = msg.EventID
	msg.Err = rfe
	msg.Text = b.opts.Placeholder
	b.deliver(sc, msg, false)
}

// deliver sends msg unless its round has closed. The check and the send
// happen under the lock, so nothing is delivered after a round closes.
func (b *Bridge) deliver(sc *scope, msg Message, record bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || sc.closed {
		b.stale.Add(1)
		b.logger.Debug("Dropping stale commentary", "persona", msg.Persona, "event", msg.EventID)
		return
	}

	// only deliver sends on out, and it holds the lock, so a free slot
	// checked here is still free below
	if len(b.out) == cap(b.out) {
		b.overflow.Add(1)
		b.logger.Warn("Commentary channel full, dropping message", "persona", msg.Persona)
		return
	}

	if msg.Err != nil {
		b.failed.Add(1)
		b.logger.Warn("Companion request failed", "persona", msg.Persona, "error", msg.Err)
	} else {
		b.delivered.Add(1)
		if record {
			b.appendLocked(Line{Speaker: msg.Persona, Text: msg.Text})
		}
	}
	msg.Timestamp = b.opts.Clock.Now()
	b.out <- msg
}

func (b *Bridge) appendLine(l Line) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendLocked(l)
}

// appendLocked adds a line to the bounded transcript; b.mu must be held
func (b *Bridge) appendLocked(l Line) {
	b.transcript = append(b.transcript, l)
	if over := len(b.transcript) - b.opts.TranscriptSize; over > 0 {
		b.transcript = b.transcript[over:]
	}
}

// String describes the bridge for logs
func (b *Bridge) String() string {
	return fmt.Sprintf("bridge(%d companions, %d workers)", len(b.seats), b.opts.Workers)
}
