package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/rummy/internal/companion"
	"github.com/lox/rummy/internal/game"
	"github.com/lox/rummy/rummy"
)

// awaiting is what, if anything, the engine is blocked on
type awaiting uint8

const (
	awaitNothing awaiting = iota
	awaitMove
	awaitContinue
)

// chatLines is how many companion lines the chat pane keeps
const chatLines = 50

// TUIModel represents the Bubble Tea model for the rummy table
type TUIModel struct {
	logger  *log.Logger
	program *tea.Program

	// UI components
	logViewport   viewport.Model
	rulesViewport viewport.Model
	actionInput   textinput.Model
	spinner       spinner.Model

	// State
	gameLog      []string
	chatLog      []chatLine
	speakers     map[string]int
	actionResult chan Command
	quitSignal   chan bool
	quitting     bool
	focusedPane  int // 0 = log, 1 = input
	awaiting     awaiting

	// Display state, fed by game events and the human's view
	view         game.View
	hasView      bool
	validActions []game.ValidAction
	roundID      string
	humanName    string
	onSay        func(text string)

	rules      TableRules
	rulesStyle string
	showRules  bool

	// Dimensions
	width       int
	height      int
	initialized bool

	// Test mode. Updates arrive on the caller's goroutine, so mu serialises them.
	mu           sync.Mutex
	testMode     bool
	capturedLog  []string
	capturedChat []string
}

type chatLine struct {
	speaker string
	text    string
	failed  bool
}

// QuitMsg is a custom message to signal quit
type QuitMsg struct{}

type logMsg struct{ lines []string }

type eventMsg struct {
	event game.CompanionEvent
	view  game.View
}

type promptMsg struct {
	view     game.View
	valid    []game.ValidAction
	awaiting awaiting
}

type chatMsg struct{ message companion.Message }

// NewTUIModel creates the interactive table model
func NewTUIModel(logger *log.Logger, humanName string, rules TableRules) *TUIModel {
	return NewTUIModelWithOptions(logger, humanName, rules, false)
}

// NewTUIModelWithOptions creates a model with test mode option. In test mode
// updates are applied synchronously and log lines are captured unstyled.
func NewTUIModelWithOptions(logger *log.Logger, humanName string, rules TableRules, testMode bool) *TUIModel {
	// Sized properly when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter a command (draw, take, discard 7h, knock 7h, help)"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = InfoStyle

	rulesStyle := ""
	if testMode {
		rulesStyle = "notty"
	}

	return &TUIModel{
		logger:        logger.WithPrefix("tui"),
		logViewport:   vp,
		rulesViewport: viewport.New(10, 5),
		actionInput:   ti,
		spinner:       sp,
		speakers:      make(map[string]int),
		actionResult:  make(chan Command, 1),
		quitSignal:    make(chan bool, 1),
		focusedPane:   1,
		humanName:     humanName,
		rules:         rules,
		rulesStyle:    rulesStyle,
		testMode:      testMode,
	}
}

// SetProgram attaches the running program so updates from other goroutines
// are delivered through it
func (m *TUIModel) SetProgram(p *tea.Program) {
	m.program = p
}

// OnSay registers the handler for lines the human types with 'say'
func (m *TUIModel) OnSay(fn func(text string)) {
	m.onSay = fn
}

// post delivers a message to the model from outside the Bubble Tea loop
func (m *TUIModel) post(msg tea.Msg) {
	if m.testMode || m.program == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.apply(msg)
		return
	}
	m.program.Send(msg)
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.listenForQuit())
}

func (m *TUIModel) listenForQuit() tea.Cmd {
	return func() tea.Msg {
		<-m.quitSignal
		return QuitMsg{}
	}
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case QuitMsg:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)
		if m.showRules {
			m.renderRules()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			m.send(Command{Verb: VerbQuit})
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		}
		if m.showRules {
			return m, m.updateRules(msg)
		}
		switch msg.String() {
		case "esc":
			m.quitting = true
			m.send(Command{Verb: VerbQuit})
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				m.processAction(m.actionInput.Value())
				m.actionInput.SetValue("")
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}

	default:
		m.apply(msg)
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *TUIModel) updateRules(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k", "down", "j", "pgup", "pgdown":
		var cmd tea.Cmd
		m.rulesViewport, cmd = m.rulesViewport.Update(msg)
		return cmd
	}
	m.showRules = false
	return nil
}

// apply folds a state update into the model
func (m *TUIModel) apply(msg tea.Msg) {
	switch msg := msg.(type) {
	case logMsg:
		for _, line := range msg.lines {
			m.AddLogEntry(line)
		}

	case eventMsg:
		ev := msg.event
		if ev.Kind == game.EventRoundStarted {
			m.roundID = ev.RoundID
			m.AddLogEntry("")
			m.AddLogEntry(HeaderStyle.Render(ev.Snapshot.Summary))
		} else {
			m.AddLogEntry(ev.Snapshot.Summary)
		}
		m.view = msg.view
		m.hasView = true

	case promptMsg:
		m.view = msg.view
		m.hasView = true
		m.validActions = msg.valid
		m.awaiting = msg.awaiting

	case chatMsg:
		m.addChat(msg.message)
	}
}

// addChat appends a companion line. Lines tagged with an earlier round are
// stale and never shown.
func (m *TUIModel) addChat(msg companion.Message) {
	if m.roundID != "" && msg.RoundID != m.roundID {
		m.logger.Debug("Dropping stale chat", "persona", msg.Persona, "round", msg.RoundID)
		return
	}
	line := chatLine{speaker: msg.Persona, text: msg.Text}
	if msg.Err != nil {
		if msg.Text == "" {
			return
		}
		line.failed = true
	}
	if line.text == "" {
		return
	}
	m.appendChat(line)
}

func (m *TUIModel) appendChat(line chatLine) {
	if _, ok := m.speakers[line.speaker]; !ok {
		m.speakers[line.speaker] = len(m.speakers)
	}
	m.chatLog = append(m.chatLog, line)
	if len(m.chatLog) > chatLines {
		m.chatLog = m.chatLog[len(m.chatLog)-chatLines:]
	}
	if m.testMode {
		m.capturedChat = append(m.capturedChat, line.speaker+": "+line.text)
	}
}

// send hands a command to the waiting agent without blocking the UI
func (m *TUIModel) send(cmd Command) bool {
	select {
	case m.actionResult <- cmd:
		return true
	default:
		return false
	}
}

// processAction processes a line of user input
func (m *TUIModel) processAction(input string) {
	cmd, err := ParseCommand(input)
	if err != nil {
		m.AddLogEntry(ErrorStyle.Render(err.Error()))
		return
	}

	switch cmd.Verb {
	case VerbHelp:
		for _, line := range strings.Split(helpText, "\n") {
			m.AddLogEntry(InfoStyle.Render(line))
		}
	case VerbHand:
		m.AddLogEntry(m.renderHandInfo())
	case VerbRules:
		m.showRules = true
		m.renderRules()
	case VerbSay:
		m.appendChat(chatLine{speaker: m.humanName, text: cmd.Text})
		if m.onSay != nil {
			m.onSay(cmd.Text)
		}
	case VerbQuit:
		m.awaiting = awaitNothing
		if !m.send(cmd) {
			m.AddLogEntry(WarningStyle.Render("Leaving after this move..."))
		}
	case VerbContinue:
		if m.awaiting == awaitContinue {
			m.awaiting = awaitNothing
			m.send(cmd)
		}
	default:
		if m.awaiting != awaitMove {
			m.AddLogEntry(ErrorStyle.Render("Not your turn"))
			return
		}
		m.awaiting = awaitNothing
		m.send(cmd)
	}
}

func (m *TUIModel) renderRules() {
	width := m.width - 4
	if width <= 0 {
		width = 80
	}
	text, err := RenderRules(m.rules, width, m.rulesStyle)
	if err != nil {
		m.logger.Error("Failed to render rules", "error", err)
		text = RulesText(m.rules)
	}
	m.rulesViewport.Width = width
	m.rulesViewport.Height = max(m.height-4, 5)
	m.rulesViewport.SetContent(text)
	m.rulesViewport.GotoTop()
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showRules {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Width(max(m.width-2, 1)).
			Height(max(m.height-2, 1)).
			Render(m.rulesViewport.View() + "\n" + InfoStyle.Render("↑↓ scroll • any other key to close"))
	}

	// Action pane (bottom, full width)
	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	actionPane := actionStyle.Render(actionContent)

	topHeight := max(m.height-actionHeight-4, 2)

	// Right column: sidebar above the chat pane
	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 30)
	sidebarHeight := lipgloss.Height(sidebarContent)
	chatHeight := max(topHeight-sidebarHeight-2, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Render(sidebarContent)

	chatPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7D56F4")).
		Width(sidebarWidth).
		Height(chatHeight).
		Render(m.renderChatPane(sidebarWidth, chatHeight))

	rightColumn := lipgloss.JoinVertical(lipgloss.Left, sidebarPane, chatPane)

	// Log pane fills what is left
	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.Width = logWidth
	m.logViewport.Height = topHeight

	if !m.initialized && logWidth > 1 && topHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(topHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, rightColumn)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderSidebarPane shows the round, piles and standings
func (m *TUIModel) renderSidebarPane() string {
	var content strings.Builder
	if !m.hasView {
		content.WriteString(InfoStyle.Render("Shuffling..."))
		return content.String()
	}
	v := m.view

	content.WriteString(WarningStyle.Render(fmt.Sprintf("Round %d", v.Round)))
	content.WriteString(InfoStyle.Render(fmt.Sprintf("  turn %d", v.Turn)))
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("Draw pile: %d\n", v.DrawCount))
	if v.HasDiscardTop {
		content.WriteString("Discard:   " + m.formatCard(v.DiscardTop) + "\n")
	} else {
		content.WriteString("Discard:   -\n")
	}
	content.WriteString(InfoStyle.Render(fmt.Sprintf("Knock at %d or less", v.KnockThreshold)))
	content.WriteString("\n\n")

	content.WriteString(InfoStyle.Render(fmt.Sprintf("Scores (to %d):", v.MatchScoreLimit)))
	content.WriteString("\n")
	for _, p := range v.Players {
		marker := "  "
		if p.ID == v.ActivePlayerID {
			marker = "▸ "
		}
		name := p.Name
		if p.ID == v.DealerID {
			name += " (D)"
		}
		content.WriteString(fmt.Sprintf("%s%-14s %3d\n", marker, name, p.Score))
	}
	return strings.TrimRight(content.String(), "\n")
}

// renderChatPane shows the most recent companion lines that fit
func (m *TUIModel) renderChatPane(width, height int) string {
	var lines []string
	for _, l := range m.chatLog {
		speaker := SpeakerStyle(m.speakers[l.speaker]).Render(l.speaker + ":")
		text := ChatTextStyle.Render(l.text)
		if l.failed {
			text = InfoStyle.Render(l.text)
		}
		wrapped := lipgloss.NewStyle().Width(width).Render(speaker + " " + text)
		lines = append(lines, strings.Split(wrapped, "\n")...)
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

// renderActionPane renders the hand, available actions and input
func (m *TUIModel) renderActionPane() string {
	var content strings.Builder

	if m.hasView {
		content.WriteString(m.renderHandInfo())
		content.WriteString("\n")
	}

	switch m.awaiting {
	case awaitMove:
		content.WriteString(m.renderAvailableActions())
		m.actionInput.Placeholder = "Enter a command (draw, take, discard 7h, knock 7h, help)"
	case awaitContinue:
		content.WriteString(HandInfoStyle.Render("Round over. Press Enter to continue"))
		m.actionInput.Placeholder = "Enter to continue, 'quit' to exit"
	default:
		waiting := "Waiting..."
		if m.hasView && m.view.ActivePlayerID != "" {
			for _, p := range m.view.Players {
				if p.ID == m.view.ActivePlayerID {
					waiting = fmt.Sprintf("Waiting for %s...", p.Name)
				}
			}
		}
		content.WriteString(m.spinner.View() + " " + HandInfoStyle.Render(waiting))
		m.actionInput.Placeholder = "'say' something, 'hand', 'rules' or 'quit'"
	}
	content.WriteString("\n")
	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}
	return content.String()
}

// renderHandInfo renders the human's hand with melds grouped
func (m *TUIModel) renderHandInfo() string {
	if !m.hasView || len(m.view.Hand) == 0 {
		return HandInfoStyle.Render("Hand: -")
	}
	eval := m.view.Evaluation
	var parts []string
	for _, meld := range eval.Melds {
		parts = append(parts, "["+m.formatCards(meld.Cards)+"]")
	}
	if len(eval.Deadwood) > 0 {
		parts = append(parts, m.formatCards(eval.Deadwood))
	}
	info := HandInfoStyle.Render("Hand: ") + strings.Join(parts, "  ") +
		DeadwoodStyle.Render(fmt.Sprintf("  dead-wood %d", eval.DeadwoodPoints))
	if m.view.HasLocked {
		info += DeadwoodStyle.Render(fmt.Sprintf("  (took %s)", m.view.Locked))
	}
	return info
}

// renderAvailableActions renders the engine's valid actions
func (m *TUIModel) renderAvailableActions() string {
	var actions []string
	for _, va := range m.validActions {
		switch va.Action {
		case game.ActionDrawPile:
			actions = append(actions, SuccessStyle.Render("[draw]"))
		case game.ActionDrawDiscard:
			label := "[take]"
			if m.view.HasDiscardTop {
				label = fmt.Sprintf("[take %s]", m.view.DiscardTop)
			}
			actions = append(actions, SuccessStyle.Render(label))
		case game.ActionDiscard:
			actions = append(actions, WarningStyle.Render("[discard <card>]"))
		case game.ActionKnock:
			actions = append(actions, ErrorStyle.Render(fmt.Sprintf("[knock %s]", m.formatCards(va.Cards))))
		}
	}
	if len(actions) == 0 {
		actions = append(actions, ErrorStyle.Render("[no actions available]"))
	}
	return ActionsStyle.Render("Actions: ") + strings.Join(actions, " ")
}

func (m *TUIModel) formatCard(c rummy.Card) string {
	if c.IsRed() {
		return RedCardStyle.Render(c.String())
	}
	return BlackCardStyle.Render(c.String())
}

// formatCards formats cards with colors
func (m *TUIModel) formatCards(cards []rummy.Card) string {
	formatted := make([]string, len(cards))
	for i, c := range cards {
		formatted[i] = m.formatCard(c)
	}
	return strings.Join(formatted, " ")
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	if m.testMode {
		m.capturedLog = append(m.capturedLog, stripANSI(entry))
		return
	}

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// WaitForAction blocks until the human submits a command
func (m *TUIModel) WaitForAction() Command {
	return <-m.actionResult
}

// SendQuitSignal signals the TUI to quit gracefully
func (m *TUIModel) SendQuitSignal() {
	select {
	case m.quitSignal <- true:
	default:
		// Channel is full, quit signal already sent
	}
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *TUIModel) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.capturedLog...)
}

// GetCapturedChat returns the chat lines shown, as "speaker: text" (test mode only)
func (m *TUIModel) GetCapturedChat() []string {
	if !m.testMode {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.capturedChat...)
}

// InjectInput types a line as if the human pressed Enter (test mode only)
func (m *TUIModel) InjectInput(input string) error {
	if !m.testMode {
		return fmt.Errorf("input injection only available in test mode")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processAction(input)
	return nil
}

// isAwaiting reports what the engine is blocked on (test mode only)
func (m *TUIModel) isAwaiting(a awaiting) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awaiting == a
}

// IsTestMode returns whether the TUI is in test mode
func (m *TUIModel) IsTestMode() bool {
	return m.testMode
}
