package tui

import "github.com/charmbracelet/lipgloss"

// Table palette
const (
	felt   = lipgloss.Color("#1F6F4A")
	chalk  = lipgloss.Color("#F4F1E8")
	brass  = lipgloss.Color("#E0B44C")
	claret = lipgloss.Color("#E0525C")
	sage   = lipgloss.Color("#8FCB9B")
	smoke  = lipgloss.Color("#7A7A7A")
	wheat  = lipgloss.Color("#F3DFA2")
	ash    = lipgloss.Color("#D6D6D6")
)

var bold = lipgloss.NewStyle().Bold(true)

// Static styles for content elements
var (
	HeaderStyle    = bold.Foreground(chalk).Background(felt)
	HandInfoStyle  = bold.Foreground(sage)
	ActionsStyle   = bold.Foreground(brass)
	RedCardStyle   = bold.Foreground(claret)
	BlackCardStyle = bold.Foreground(chalk)
	DeadwoodStyle  = lipgloss.NewStyle().Foreground(smoke)
	SuccessStyle   = bold.Foreground(sage)
	ErrorStyle     = bold.Foreground(claret)
	WarningStyle   = bold.Foreground(wheat)
	InfoStyle      = lipgloss.NewStyle().Foreground(smoke)
	ChatTextStyle  = lipgloss.NewStyle().Foreground(ash).Italic(true)
)

// speakerColors cycle across companions so each keeps a stable colour
var speakerColors = []lipgloss.Color{
	"#C792EA",
	"#F78C6C",
	"#82AAFF",
	"#C3E88D",
	"#FFCB6B",
	"#89DDFF",
}

// SpeakerStyle returns the name style for the n-th speaker
func SpeakerStyle(n int) lipgloss.Style {
	return bold.Foreground(speakerColors[n%len(speakerColors)])
}
