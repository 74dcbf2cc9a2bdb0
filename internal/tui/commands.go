package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/rummy/internal/game"
	"github.com/lox/rummy/rummy"
)

// Verb is the first word of a typed command
type Verb string

const (
	VerbContinue Verb = "" // bare Enter
	VerbDraw     Verb = "draw"
	VerbTake     Verb = "take"
	VerbDiscard  Verb = "discard"
	VerbKnock    Verb = "knock"
	VerbHand     Verb = "hand"
	VerbRules    Verb = "rules"
	VerbSay      Verb = "say"
	VerbHelp     Verb = "help"
	VerbQuit     Verb = "quit"
)

var verbAliases = map[string]Verb{
	"draw":    VerbDraw,
	"d":       VerbDraw,
	"take":    VerbTake,
	"t":       VerbTake,
	"discard": VerbDiscard,
	"x":       VerbDiscard,
	"knock":   VerbKnock,
	"k":       VerbKnock,
	"hand":    VerbHand,
	"h":       VerbHand,
	"rules":   VerbRules,
	"say":     VerbSay,
	"help":    VerbHelp,
	"?":       VerbHelp,
	"quit":    VerbQuit,
	"q":       VerbQuit,
	"exit":    VerbQuit,
}

// Command is a parsed line of user input
type Command struct {
	Verb Verb
	Card rummy.Card // discard and knock
	Text string     // say
}

// ErrUnknownCommand is returned for input that names no known verb
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand parses one line of input. Verbs are case-insensitive; the text
// of a say command keeps its case.
func ParseCommand(input string) (Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{Verb: VerbContinue}, nil
	}

	head, rest, _ := strings.Cut(input, " ")
	verb, ok := verbAliases[strings.ToLower(head)]
	if !ok {
		return Command{}, fmt.Errorf("%w %q, type 'help' for commands", ErrUnknownCommand, head)
	}
	rest = strings.TrimSpace(rest)

	switch verb {
	case VerbDiscard, VerbKnock:
		if rest == "" {
			return Command{}, fmt.Errorf("%s needs a card, e.g. '%s 7h'", verb, verb)
		}
		card, err := rummy.ParseCard(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: verb, Card: card}, nil
	case VerbSay:
		if rest == "" {
			return Command{}, errors.New("say what?")
		}
		return Command{Verb: verb, Text: rest}, nil
	}
	return Command{Verb: verb}, nil
}

// IsMove reports whether the command is a turn action for the engine
func (c Command) IsMove() bool {
	switch c.Verb {
	case VerbDraw, VerbTake, VerbDiscard, VerbKnock, VerbQuit:
		return true
	}
	return false
}

// Decision converts a move into an engine decision
func (c Command) Decision() (game.Decision, bool) {
	switch c.Verb {
	case VerbDraw:
		return game.Decision{Action: game.ActionDrawPile, Reasoning: "human"}, true
	case VerbTake:
		return game.Decision{Action: game.ActionDrawDiscard, Reasoning: "human"}, true
	case VerbDiscard:
		return game.Decision{Action: game.ActionDiscard, Card: c.Card, Reasoning: "human"}, true
	case VerbKnock:
		return game.Decision{Action: game.ActionKnock, Card: c.Card, Reasoning: "human"}, true
	case VerbQuit:
		return game.Decision{Action: game.ActionQuit, Reasoning: "Player quit"}, true
	}
	return game.Decision{}, false
}

const helpText = `Commands:
  draw, d            draw from the pile
  take, t            take the top discard
  discard <card>, x  discard a card, e.g. 'discard 7h'
  knock <card>, k    discard a card and knock
  hand, h            show your hand and dead-wood
  say <text>         talk to the table
  rules              show the rules (any key closes)
  quit               leave the table`
