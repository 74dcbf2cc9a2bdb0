package tui

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
)

//go:embed rules.md
var rulesMarkdown string

// TableRules are the numbers quoted on the rules screen
type TableRules struct {
	KnockThreshold  int
	MatchScoreLimit int
	UndercutBonus   int
	GinBonus        int
}

// RulesText returns the rules as markdown with the table's numbers filled in
func RulesText(r TableRules) string {
	gin := ""
	if r.GinBonus > 0 {
		gin = fmt.Sprintf(" plus a bonus of **%d**", r.GinBonus)
	}
	return strings.NewReplacer(
		"{knock}", strconv.Itoa(r.KnockThreshold),
		"{limit}", strconv.Itoa(r.MatchScoreLimit),
		"{undercut}", strconv.Itoa(r.UndercutBonus),
		"{gin}", gin,
	).Replace(rulesMarkdown)
}

// RenderRules renders the rules for a terminal of the given width. style is
// a glamour standard style name; empty picks one from the terminal background.
func RenderRules(r TableRules, width int, style string) (string, error) {
	if width < 20 {
		width = 20
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create rules renderer: %w", err)
	}
	return renderer.Render(RulesText(r))
}
