package game

import (
	"fmt"
	"strings"

	"github.com/lox/rummy/rummy"
)

// Describe renders an event as a one-line, human-readable description. The
// same text feeds the action log and the companions' prompts.
func Describe(ev CompanionEvent) string {
	name := ev.PlayerName
	snap := ev.Snapshot

	switch ev.Kind {
	case EventRoundStarted:
		text := fmt.Sprintf("*** ROUND %d *** %s to act", ev.Round, name)
		if snap.HasDiscardTop {
			text += fmt.Sprintf(", %s turned up", snap.DiscardTop)
		}
		return text
	case EventDrawPile:
		return fmt.Sprintf("%s: draws from the pile", name)
	case EventDrawDiscard:
		return fmt.Sprintf("%s: takes %s from the discard pile", name, formatCards(ev.Cards))
	case EventDiscard:
		return fmt.Sprintf("%s: discards %s", name, formatCards(ev.Cards))
	case EventKnock:
		return fmt.Sprintf("%s: knocks, discarding %s", name, formatCards(ev.Cards))
	case EventStalemate:
		return "*** STALEMATE *** nobody knocked"
	case EventRoundScored:
		return describeScore(ev)
	case EventRoundComplete:
		return fmt.Sprintf("Round %d over. Standings: %s", ev.Round, formatStandings(snap.Standings))
	case EventMatchComplete:
		return fmt.Sprintf("*** MATCH OVER *** %s wins. Final: %s", name, formatStandings(snap.Standings))
	default:
		return fmt.Sprintf("%s: %s", name, ev.Kind)
	}
}

func describeScore(ev CompanionEvent) string {
	var points int
	for _, s := range ev.Snapshot.Standings {
		if s.PlayerID == ev.PlayerID {
			points = s.RoundPoints
		}
	}
	switch ev.Snapshot.Outcome {
	case rummy.OutcomeGoingOut.String():
		return fmt.Sprintf("%s goes out and scores %d", ev.PlayerName, points)
	case rummy.OutcomeKnock.String():
		return fmt.Sprintf("%s wins the knock and scores %d", ev.PlayerName, points)
	case rummy.OutcomeUndercut.String():
		return fmt.Sprintf("%s undercuts the knocker and scores %d", ev.PlayerName, points)
	default:
		return "Stalemate, nobody scores"
	}
}

func formatStandings(standings []Standing) string {
	parts := make([]string, len(standings))
	for i, s := range standings {
		parts[i] = fmt.Sprintf("%s %d", s.Name, s.Score)
	}
	return strings.Join(parts, ", ")
}

// formatCards formats a slice of cards separated by spaces
func formatCards(cards []rummy.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// FormatRoundResult renders the scoring breakdown of a round, one line per
// player, with melds, layoffs and remaining dead-wood.
func FormatRoundResult(number int, players []Player, result rummy.RoundScore) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Round %d: %s ===\n", number, result.Outcome)
	for i, h := range result.Hands {
		name := h.PlayerID
		if i < len(players) {
			name = players[i].Name
		}
		marker := "  "
		if i == result.Knocker {
			marker = "K "
		}
		line := fmt.Sprintf("%s%-10s", marker, name)
		for _, m := range h.Melds {
			line += " " + m.String()
		}
		if len(h.LaidOff) > 0 {
			line += " laid off " + formatCards(h.LaidOff)
		}
		if len(h.Deadwood) > 0 {
			line += fmt.Sprintf(" dead-wood %s (%d)", formatCards(h.Deadwood), h.Points)
		}
		if h.RoundScore > 0 {
			line += fmt.Sprintf(" +%d", h.RoundScore)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
