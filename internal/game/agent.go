package game

import (
	"fmt"
	"slices"

	"github.com/lox/rummy/rummy"
)

// Action is a move a player can make on their turn
type Action uint8

const (
	ActionDrawPile Action = iota
	ActionDrawDiscard
	ActionDiscard
	ActionKnock
	// ActionQuit is only produced by human agents leaving the table
	ActionQuit
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionDrawPile:
		return "draw"
	case ActionDrawDiscard:
		return "take"
	case ActionDiscard:
		return "discard"
	case ActionKnock:
		return "knock"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Decision represents a player's decision with reasoning
type Decision struct {
	Action    Action
	Card      rummy.Card // for discard and knock
	Reasoning string     // human-readable explanation
}

// ValidAction represents an action that a player can legally take
type ValidAction struct {
	Action Action
	Cards  []rummy.Card // the cards that may be discarded, for discard and knock
}

// Allows reports whether the action may be taken with the card
func (v ValidAction) Allows(c rummy.Card) bool {
	return slices.Contains(v.Cards, c)
}

// PlayerView is the public state of a seat. Hand is only populated for the
// viewer, or for everybody once the round is being scored.
type PlayerView struct {
	ID        string
	Name      string
	Seat      int
	Score     int
	CardCount int
	IsHuman   bool
	Persona   string
	Hand      rummy.Hand
}

// View is a read-only projection of the game from one player's seat. Agents
// and renderers receive views, never the Game itself.
type View struct {
	GameID          string
	RoundID         string
	Round           int
	Phase           Phase
	ActivePlayerID  string
	DealerID        string
	Turn            int
	DrawCount       int
	DiscardTop      rummy.Card
	HasDiscardTop   bool
	KnockThreshold  int
	MatchScoreLimit int

	ViewerID   string
	Hand       rummy.Hand // viewer's hand, sorted
	Evaluation rummy.Evaluation
	Locked     rummy.Card // taken from the discard pile this turn
	HasLocked  bool

	Players    []PlayerView
	LastResult *rummy.RoundScore
	MatchOver  bool
	WinnerID   string
}

// IsMyTurn reports whether the viewer is the active player
func (v View) IsMyTurn() bool {
	return v.ActivePlayerID != "" && v.ActivePlayerID == v.ViewerID
}

// Agent represents any entity (human or AI) that can make decisions for a player
// Agents receive immutable game state and return decisions - no state mutation allowed
type Agent interface {
	// MakeDecision analyzes the view and returns a decision
	MakeDecision(view View, validActions []ValidAction) Decision
}

// ValidActions lists the legal actions for a player. It is empty unless the
// player is the one to act.
func (g *Game) ValidActions(playerID string) []ValidAction {
	phase := g.Phase()
	p := g.player(playerID)
	if p == nil || (phase != PhaseAwaitDraw && phase != PhaseAwaitDiscardOrKnock) {
		return nil
	}
	r := g.round
	if g.players[r.Active] != p {
		return nil
	}

	var actions []ValidAction
	if phase == PhaseAwaitDraw {
		if r.deck.CanDraw() {
			actions = append(actions, ValidAction{Action: ActionDrawPile})
		}
		if _, ok := r.deck.PeekDiscard(); ok {
			actions = append(actions, ValidAction{Action: ActionDrawDiscard})
		}
		return actions
	}

	var discards []rummy.Card
	for _, c := range p.Hand.Sorted() {
		if r.hasLocked && c == r.locked {
			continue
		}
		if !slices.Contains(discards, c) {
			discards = append(discards, c)
		}
	}
	actions = append(actions, ValidAction{Action: ActionDiscard, Cards: discards})

	var knocks []rummy.Card
	for _, c := range rummy.KnockOptions(p.Hand, g.cfg.knockThreshold) {
		if r.hasLocked && c == r.locked {
			continue
		}
		knocks = append(knocks, c)
	}
	if len(knocks) > 0 {
		actions = append(actions, ValidAction{Action: ActionKnock, Cards: knocks})
	}
	return actions
}

// Apply performs a decision on behalf of a player
func (g *Game) Apply(playerID string, d Decision) error {
	switch d.Action {
	case ActionDrawPile:
		return g.DrawFromPile(playerID)
	case ActionDrawDiscard:
		return g.DrawFromDiscard(playerID)
	case ActionDiscard:
		return g.Discard(playerID, d.Card)
	case ActionKnock:
		return g.Knock(playerID, d.Card)
	default:
		return fmt.Errorf("cannot apply %s for %s", d.Action, playerID)
	}
}

// View builds the projection of the game seen by viewerID
func (g *Game) View(viewerID string) View {
	v := View{
		GameID:          g.ID,
		Phase:           g.Phase(),
		KnockThreshold:  g.cfg.knockThreshold,
		MatchScoreLimit: g.cfg.matchScoreLimit,
		ViewerID:        viewerID,
		MatchOver:       g.over,
	}
	if g.over {
		v.WinnerID = g.players[g.winner].ID
	}

	reveal := false
	if r := g.round; r != nil {
		v.RoundID = r.ID
		v.Round = r.Number
		v.Turn = r.Turn
		v.DealerID = g.players[r.Dealer].ID
		v.DrawCount = r.deck.DrawCount()
		v.DiscardTop, v.HasDiscardTop = r.deck.PeekDiscard()
		if r.Phase == PhaseAwaitDraw || r.Phase == PhaseAwaitDiscardOrKnock {
			v.ActivePlayerID = g.players[r.Active].ID
		}
		if r.Result != nil {
			res := r.Result.Clone()
			v.LastResult = &res
		}
		reveal = r.Phase == PhaseRoundScoring || r.Phase == PhaseRoundComplete
		if r.hasLocked && v.ActivePlayerID == viewerID {
			v.Locked, v.HasLocked = r.locked, true
		}
	}

	for _, p := range g.players {
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			Score:     p.Score,
			CardCount: len(p.Hand),
			IsHuman:   p.IsHuman,
			Persona:   p.Persona,
		}
		if reveal || p.ID == viewerID {
			pv.Hand = p.Hand.Sorted()
		}
		if p.ID == viewerID {
			v.Hand = p.Hand.Sorted()
			v.Evaluation = rummy.FindMelds(p.Hand)
		}
		v.Players = append(v.Players, pv)
	}
	return v
}
