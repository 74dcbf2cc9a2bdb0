package tui

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/rummy/internal/game"
)

// TUIAgent handles the human player's turns through the TUI
type TUIAgent struct {
	model      *TUIModel
	program    *tea.Program
	quit       bool
	uiLogger   *log.Logger
	mainLogger *log.Logger
}

// NewTUIAgent creates a TUI-backed agent. Start runs the program.
func NewTUIAgent(model *TUIModel, logger *log.Logger) *TUIAgent {
	return &TUIAgent{
		model:      model,
		uiLogger:   logger.WithPrefix("ui"),
		mainLogger: logger,
	}
}

// Start runs the Bubble Tea program in the background. done is closed when
// the program exits.
func (ti *TUIAgent) Start() (done <-chan struct{}) {
	ti.program = tea.NewProgram(ti.model, tea.WithAltScreen())
	ti.model.SetProgram(ti.program)

	ch := make(chan struct{})
	go func() {
		defer close(ch)
		if _, err := ti.program.Run(); err != nil {
			ti.mainLogger.Error("Error running TUI", "error", err)
		}
		// Unblock a pending decision once the window is gone
		ti.model.send(Command{Verb: VerbQuit})
	}()
	return ch
}

// Close closes the TUI interface
func (ti *TUIAgent) Close() error {
	if ti.program != nil {
		ti.model.SendQuitSignal()
		ti.program.Wait()
	}
	return nil
}

// MakeDecision implements the Agent interface for the human seat
func (ti *TUIAgent) MakeDecision(view game.View, valid []game.ValidAction) game.Decision {
	if ti.quit {
		return game.Decision{Action: game.ActionQuit, Reasoning: "Player quit"}
	}

	ti.model.post(promptMsg{view: view, valid: valid, awaiting: awaitMove})
	ti.mainLogger.Info("Waiting for user action", "round", view.Round, "turn", view.Turn, "hand", view.Hand.String())

	for {
		cmd := ti.model.WaitForAction()
		ti.mainLogger.Info("Received user action", "verb", cmd.Verb, "card", cmd.Card)

		decision, ok := cmd.Decision()
		if !ok {
			// Only moves reach the agent; anything else re-arms the prompt
			ti.model.post(promptMsg{view: view, valid: valid, awaiting: awaitMove})
			continue
		}
		if decision.Action == game.ActionQuit {
			ti.quit = true
		}
		return decision
	}
}

// Rejected explains an illegal move. The engine asks again afterwards.
func (ti *TUIAgent) Rejected(err error) {
	ti.AddLogEntry(ErrorStyle.Render(rejectionText(err)))
}

func rejectionText(err error) string {
	var ime *game.IllegalMoveError
	if !errors.As(err, &ime) {
		return err.Error()
	}
	switch ime.Reason {
	case game.ReasonWrongPhase:
		return fmt.Sprintf("You can't do that now (%s)", ime.Phase)
	case game.ReasonCardNotInHand:
		return fmt.Sprintf("You don't hold %s", ime.Card)
	case game.ReasonKnockNotLegal:
		return fmt.Sprintf("Too much dead-wood to knock after discarding %s", ime.Card)
	case game.ReasonDiscardJustDrawn:
		return fmt.Sprintf("You just took %s, discard something else", ime.Card)
	case game.ReasonDiscardEmpty:
		return "The discard pile is empty"
	default:
		return err.Error()
	}
}

// RoundScored shows the breakdown and waits for the human to continue
func (ti *TUIAgent) RoundScored(view game.View) {
	if view.LastResult == nil || ti.quit {
		return
	}
	players := make([]game.Player, len(view.Players))
	for i, p := range view.Players {
		players[i] = game.Player{ID: p.ID, Name: p.Name, Seat: p.Seat, Hand: p.Hand, Score: p.Score}
	}

	ti.AddLogEntry("")
	for _, line := range strings.Split(strings.TrimRight(game.FormatRoundResult(view.Round, players, *view.LastResult), "\n"), "\n") {
		ti.AddLogEntry(line)
	}
	ti.mainLogger.Info("Round scored", "round", view.Round, "outcome", view.LastResult.Outcome)

	ti.model.post(promptMsg{view: view, awaiting: awaitContinue})
	if cmd := ti.model.WaitForAction(); cmd.Verb == VerbQuit {
		ti.quit = true
	}
}

// stripANSI removes ANSI escape sequences from a string
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// AddLogEntry adds an entry to the game log
func (ti *TUIAgent) AddLogEntry(entry string) {
	ti.model.post(logMsg{lines: []string{entry}})
	// Also log to file for complete history (strip ANSI codes)
	if clean := stripANSI(entry); clean != "" {
		ti.uiLogger.Info(clean)
	}
}
