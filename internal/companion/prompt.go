package companion

import (
	"fmt"
	"strings"

	"github.com/lox/rummy/internal/game"
)

// Line is one accepted line of table talk
type Line struct {
	Speaker string
	Text    string
}

// PromptData is what the prompt templates can reference
type PromptData struct {
	Name         string
	Description  string
	Style        string
	Topic        string
	Others       []string
	Conversation []Line
	Event        string
	Standings    string
}

// Messages renders the system and user messages for persona reacting to ev
func (l *Library) Messages(p Persona, others []string, ev game.CompanionEvent, conversation []Line) ([]ChatMessage, error) {
	data := PromptData{
		Name:         p.Name,
		Description:  p.Description,
		Style:        p.Style,
		Topic:        l.Topic,
		Others:       others,
		Conversation: conversation,
		Event:        ev.Snapshot.Summary,
		Standings:    standings(ev.Snapshot.Standings),
	}
	if data.Event == "" {
		data.Event = game.Describe(ev)
	}
	if data.Style == "" {
		data.Style = game.Balanced.String()
	}

	var system, user strings.Builder
	if err := l.system.Execute(&system, data); err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}
	if err := l.user.Execute(&user, data); err != nil {
		return nil, fmt.Errorf("render user prompt: %w", err)
	}

	return []ChatMessage{
		{Role: "system", Content: strings.TrimSpace(system.String())},
		{Role: "user", Content: strings.TrimSpace(user.String())},
	}, nil
}

func standings(s []game.Standing) string {
	parts := make([]string, len(s))
	for i, st := range s {
		parts[i] = fmt.Sprintf("%s %d", st.Name, st.Score)
	}
	return strings.Join(parts, ", ")
}
