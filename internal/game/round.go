package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lox/rummy/rummy"
)

// HandSize is the number of cards each player holds between turns
const HandSize = 5

// Phase is the state of the current round
type Phase uint8

const (
	// PhaseWaiting is the state before the first round is dealt
	PhaseWaiting Phase = iota
	PhaseDealing
	PhaseAwaitDraw
	PhaseAwaitDiscardOrKnock
	PhaseRoundScoring
	PhaseRoundComplete
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseDealing:
		return "dealing"
	case PhaseAwaitDraw:
		return "await draw"
	case PhaseAwaitDiscardOrKnock:
		return "await discard or knock"
	case PhaseRoundScoring:
		return "round scoring"
	case PhaseRoundComplete:
		return "round complete"
	default:
		return "unknown"
	}
}

// Round is the state of a single deal
type Round struct {
	ID      string
	Number  int
	Dealer  int // seat index
	Active  int // seat index of the player to act
	Phase   Phase
	Turn    int // completed discards
	Knocker int // rummy.NoKnocker until someone knocks
	Result  *rummy.RoundScore

	deck *rummy.Deck

	// card taken from the discard pile this turn, which may not go straight back
	locked    rummy.Card
	hasLocked bool
}

// StartRound collects the cards, deals a new round and turns the first
// discard. The previous round, if any, must be complete.
func (g *Game) StartRound() error {
	if g.over {
		return illegal(ReasonMatchOver, "", g.Phase())
	}
	if g.round != nil && g.round.Phase != PhaseRoundComplete {
		return illegal(ReasonWrongPhase, "", g.round.Phase)
	}

	dealer := 0
	if n := len(g.history); n > 0 {
		dealer = g.history[n-1].Loser()
	}

	hands := make([]rummy.Hand, 0, len(g.players))
	for _, p := range g.players {
		hands = append(hands, p.Hand)
		p.Hand = nil
	}
	if g.deck == nil {
		g.deck = g.cfg.deck
		if g.deck == nil {
			g.deck = rummy.NewDeck(g.rng)
		}
	} else {
		g.deck.Collect(hands...)
	}

	g.rounds++
	r := &Round{
		ID:      uuid.NewString(),
		Number:  g.rounds,
		Dealer:  dealer,
		Phase:   PhaseDealing,
		Knocker: rummy.NoKnocker,
		deck:    g.deck,
	}
	g.round = r

	n := len(g.players)
	for range HandSize {
		for step := 1; step <= n; step++ {
			p := g.players[(dealer+step)%n]
			cards, err := g.deck.Deal(1)
			if err != nil {
				return fmt.Errorf("deal round %d: %w", r.Number, err)
			}
			p.Hand = append(p.Hand, cards[0])
		}
	}
	up, err := g.deck.Deal(1)
	if err != nil {
		return fmt.Errorf("turn first discard: %w", err)
	}
	g.deck.Discard(up[0])

	r.Active = (dealer + 1) % n
	r.Phase = PhaseAwaitDraw

	g.logger.Info("Round started", "round", r.Number, "id", r.ID, "dealer", g.players[dealer].Name, "upcard", up[0])
	g.emit(EventRoundStarted, g.players[r.Active], nil)
	g.checkStalemate()
	return nil
}

// DrawFromPile takes the top card of the draw pile
func (g *Game) DrawFromPile(playerID string) error {
	p, err := g.actor(playerID, PhaseAwaitDraw)
	if err != nil {
		return err
	}
	r := g.round

	c, err := r.deck.Draw()
	if err != nil {
		return fmt.Errorf("draw for %s: %w", p.Name, err)
	}
	p.Hand = p.Hand.With(c)
	r.Phase = PhaseAwaitDiscardOrKnock
	r.hasLocked = false

	g.logger.Debug("Drew from pile", "player", p.Name, "card", c)
	g.emit(EventDrawPile, p, nil)
	return nil
}

// DrawFromDiscard takes the top card of the discard pile
func (g *Game) DrawFromDiscard(playerID string) error {
	p, err := g.actor(playerID, PhaseAwaitDraw)
	if err != nil {
		return err
	}
	r := g.round

	if _, ok := r.deck.PeekDiscard(); !ok {
		return illegal(ReasonDiscardEmpty, playerID, r.Phase)
	}
	c, err := r.deck.TakeDiscard()
	if err != nil {
		return fmt.Errorf("take discard for %s: %w", p.Name, err)
	}
	p.Hand = p.Hand.With(c)
	r.Phase = PhaseAwaitDiscardOrKnock
	r.locked, r.hasLocked = c, true

	g.logger.Debug("Took discard", "player", p.Name, "card", c)
	g.emit(EventDrawDiscard, p, []rummy.Card{c})
	return nil
}

// Discard ends the turn by discarding a card face up
func (g *Game) Discard(playerID string, card rummy.Card) error {
	p, err := g.actor(playerID, PhaseAwaitDiscardOrKnock)
	if err != nil {
		return err
	}
	rest, err := g.release(p, card)
	if err != nil {
		return err
	}
	r := g.round

	p.Hand = rest
	r.deck.Discard(card)
	r.Turn++
	r.hasLocked = false

	g.logger.Debug("Discarded", "player", p.Name, "card", card, "turn", r.Turn)
	g.emit(EventDiscard, p, []rummy.Card{card})

	r.Active = (r.Active + 1) % len(g.players)
	r.Phase = PhaseAwaitDraw
	g.checkStalemate()
	return nil
}

// Knock discards a card and ends the round. The five retained cards must be
// a legal knock.
func (g *Game) Knock(playerID string, card rummy.Card) error {
	p, err := g.actor(playerID, PhaseAwaitDiscardOrKnock)
	if err != nil {
		return err
	}
	rest, err := g.release(p, card)
	if err != nil {
		return err
	}
	r := g.round
	if !rummy.IsLegalKnock(rest, g.cfg.knockThreshold) {
		return illegalCard(ReasonKnockNotLegal, playerID, r.Phase, card)
	}

	p.Hand = rest
	r.deck.Discard(card)
	r.Turn++
	r.hasLocked = false
	r.Knocker = r.Active

	g.logger.Info("Knocked", "player", p.Name, "card", card, "deadwood", rummy.Deadwood(rest))
	g.emit(EventKnock, p, []rummy.Card{card})
	g.score(r.Active)
	return nil
}

// FinishRound acknowledges a scored round and completes it. When the match
// is over a match_complete event follows.
func (g *Game) FinishRound() error {
	if g.round == nil || g.round.Phase != PhaseRoundScoring {
		return illegal(ReasonWrongPhase, "", g.Phase())
	}
	g.round.Phase = PhaseRoundComplete
	g.emit(EventRoundComplete, nil, nil)

	if g.over {
		winner := g.players[g.winner]
		g.logger.Info("Match complete", "winner", winner.Name, "score", winner.Score, "rounds", g.rounds)
		g.emit(EventMatchComplete, winner, nil)
	}
	return nil
}

// actor returns the player allowed to act, or the reason they are not
func (g *Game) actor(playerID string, want Phase) (*Player, error) {
	phase := g.Phase()
	p := g.player(playerID)
	if p == nil {
		return nil, illegal(ReasonUnknownPlayer, playerID, phase)
	}
	if phase != PhaseAwaitDraw && phase != PhaseAwaitDiscardOrKnock {
		return nil, illegal(ReasonWrongPhase, playerID, phase)
	}
	if g.players[g.round.Active] != p {
		return nil, illegal(ReasonWrongPlayer, playerID, phase)
	}
	if phase != want {
		return nil, illegal(ReasonWrongPhase, playerID, phase)
	}
	return p, nil
}

// release returns the hand without card, checking it may leave this turn
func (g *Game) release(p *Player, card rummy.Card) (rummy.Hand, error) {
	r := g.round
	rest, ok := p.Hand.Without(card)
	if !ok {
		return nil, illegalCard(ReasonCardNotInHand, p.ID, r.Phase, card)
	}
	if r.hasLocked && r.locked == card {
		return nil, illegalCard(ReasonDiscardJustDrawn, p.ID, r.Phase, card)
	}
	return rest, nil
}

// checkStalemate ends the round when the next draw is impossible or the turn
// limit has been reached.
func (g *Game) checkStalemate() bool {
	r := g.round
	var reason string
	switch {
	case !r.deck.CanDraw():
		reason = "deck exhausted"
	case g.cfg.maxTurns > 0 && r.Turn >= g.cfg.maxTurns:
		reason = "turn limit reached"
	default:
		return false
	}
	g.logger.Info("Stalemate", "round", r.Number, "reason", reason, "turn", r.Turn)
	g.emit(EventStalemate, nil, nil)
	g.score(rummy.NoKnocker)
	return true
}

// score evaluates every hand once and moves the round to RoundScoring
func (g *Game) score(knocker int) {
	r := g.round
	r.Phase = PhaseRoundScoring

	hands := make([]rummy.ScoredHand, len(g.players))
	for i, p := range g.players {
		hands[i] = rummy.ScoredHand{PlayerID: p.ID, Hand: p.Hand.Clone()}
	}
	result := rummy.ScoreRound(hands, knocker, g.cfg.rules)
	r.Result = &result
	g.history = append(g.history, result)

	scores := make([]int, len(g.players))
	for i, p := range g.players {
		p.Score += result.Hands[i].RoundScore
		scores[i] = p.Score
	}
	if w, ok := rummy.MatchWinner(scores, g.cfg.matchScoreLimit); ok {
		g.over, g.winner = true, w
	}

	var scorer *Player
	if result.Winner != rummy.NoKnocker {
		scorer = g.players[result.Winner]
		g.logger.Info("Round scored", "round", r.Number, "outcome", result.Outcome,
			"winner", scorer.Name, "points", result.Hands[result.Winner].RoundScore)
	} else {
		g.logger.Info("Round scored", "round", r.Number, "outcome", result.Outcome)
	}
	g.emit(EventRoundScored, scorer, nil)
}
