package game

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/rummy/rummy"
)

// Style is a companion's playing temperament
type Style uint8

const (
	Balanced Style = iota
	Conservative
	Aggressive
)

// String returns the string representation of the style
func (s Style) String() string {
	switch s {
	case Conservative:
		return "conservative"
	case Aggressive:
		return "aggressive"
	default:
		return "balanced"
	}
}

// ParseStyle parses a style name, case-insensitively
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "balanced":
		return Balanced, nil
	case "conservative":
		return Conservative, nil
	case "aggressive":
		return Aggressive, nil
	default:
		return Balanced, fmt.Errorf("unknown style %q", s)
	}
}

// takeGain is the dead-wood improvement needed before taking the upcard
func (s Style) takeGain() int {
	switch s {
	case Conservative:
		return 4
	case Aggressive:
		return 1
	default:
		return 2
	}
}

// pileValue weighs the expected gain of a blind draw against a certain one.
// improves is the share of unseen cards that would lower dead-wood.
func (s Style) pileValue(gain, improves float64) float64 {
	switch s {
	case Conservative:
		return gain * 0.75
	case Aggressive:
		if improves > 0.2 {
			return gain * 1.3
		}
		return gain
	default:
		return gain
	}
}

// knockLimit is the highest dead-wood the style is willing to knock on
func (s Style) knockLimit(threshold int) int {
	switch s {
	case Conservative:
		return threshold / 3
	case Aggressive:
		return threshold
	default:
		return threshold * 2 / 3
	}
}

// AIAgent plays by minimising dead-wood. Its style decides how eagerly it
// takes the upcard and how low its dead-wood must be before it knocks.
type AIAgent struct {
	style  Style
	logger *log.Logger
}

// NewAIAgent creates a computer player with the given style
func NewAIAgent(style Style, logger *log.Logger) *AIAgent {
	return &AIAgent{
		style:  style,
		logger: logger,
	}
}

// MakeDecision implements Agent
func (ai *AIAgent) MakeDecision(view View, validActions []ValidAction) Decision {
	var d Decision
	if view.Phase == PhaseAwaitDraw {
		d = ai.chooseDraw(view, validActions)
	} else {
		d = ai.chooseDiscard(view, validActions)
	}
	if ai.logger != nil {
		ai.logger.Debug("AI decision", "style", ai.style, "action", d.Action, "card", d.Card, "reasoning", d.Reasoning)
	}
	return d
}

func (ai *AIAgent) chooseDraw(view View, valid []ValidAction) Decision {
	canPile := find(valid, ActionDrawPile) != nil
	canTake := find(valid, ActionDrawDiscard) != nil

	if canTake && view.HasDiscardTop {
		up := view.DiscardTop
		current := view.Evaluation.DeadwoodPoints
		_, after := rummy.BestDiscard(view.Hand.With(up), up)
		gain := current - after.DeadwoodPoints
		take := Decision{
			Action:    ActionDrawDiscard,
			Reasoning: fmt.Sprintf("%s cuts dead-wood from %d to %d", up, current, after.DeadwoodPoints),
		}
		if !canPile {
			return take
		}
		if gain >= ai.style.takeGain() {
			pile := estimatePile(view.Hand, current, unseenCards(view))
			expected := ai.style.pileValue(float64(current)-pile.mean, pile.improves)
			if float64(gain) >= expected {
				return take
			}
			return Decision{
				Action:    ActionDrawPile,
				Reasoning: fmt.Sprintf("pile expects %.1f dead-wood, %s only gives %d", pile.mean, up, after.DeadwoodPoints),
			}
		}
	}
	return Decision{Action: ActionDrawPile, Reasoning: "nothing worth taking"}
}

// pileOutlook summarises every card a blind draw could bring
type pileOutlook struct {
	mean     float64 // expected dead-wood after the best discard
	improves float64 // share of draws that lower dead-wood
}

// unseenCards is the full deck less the viewer's hand and the discard top.
// Cards in opponents' hands or buried in the discard pile are still counted.
func unseenCards(view View) []rummy.Card {
	unseen := make([]rummy.Card, 0, 52)
	for _, c := range rummy.FullSet() {
		if view.Hand.Contains(c) || (view.HasDiscardTop && c == view.DiscardTop) {
			continue
		}
		unseen = append(unseen, c)
	}
	return unseen
}

// estimatePile averages the best dead-wood reachable after drawing each
// unseen card, each equally likely
func estimatePile(hand rummy.Hand, current int, unseen []rummy.Card) pileOutlook {
	if len(unseen) == 0 {
		return pileOutlook{mean: float64(current)}
	}
	total, better := 0, 0
	for _, c := range unseen {
		_, eval := rummy.BestDiscard(hand.With(c))
		total += eval.DeadwoodPoints
		if eval.DeadwoodPoints < current {
			better++
		}
	}
	n := float64(len(unseen))
	return pileOutlook{mean: float64(total) / n, improves: float64(better) / n}
}

func (ai *AIAgent) chooseDiscard(view View, valid []ValidAction) Decision {
	var excluded []rummy.Card
	if view.HasLocked {
		excluded = append(excluded, view.Locked)
	}
	card, eval := rummy.BestDiscard(view.Hand, excluded...)

	if knock := find(valid, ActionKnock); knock != nil && knock.Allows(card) {
		if eval.GoingOut() {
			return Decision{Action: ActionKnock, Card: card, Reasoning: "going out"}
		}
		if eval.DeadwoodPoints <= ai.style.knockLimit(view.KnockThreshold) {
			return Decision{
				Action:    ActionKnock,
				Card:      card,
				Reasoning: fmt.Sprintf("knocking on %d", eval.DeadwoodPoints),
			}
		}
	}

	if discard := find(valid, ActionDiscard); discard != nil && !discard.Allows(card) && len(discard.Cards) > 0 {
		card = discard.Cards[len(discard.Cards)-1]
	}
	return Decision{
		Action:    ActionDiscard,
		Card:      card,
		Reasoning: fmt.Sprintf("keeps dead-wood at %d", eval.DeadwoodPoints),
	}
}

func find(valid []ValidAction, action Action) *ValidAction {
	for i := range valid {
		if valid[i].Action == action {
			return &valid[i]
		}
	}
	return nil
}
