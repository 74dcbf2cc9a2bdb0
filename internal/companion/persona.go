package companion

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/lox/rummy/internal/game"
	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultPersonas []byte

// Persona is a companion character
type Persona struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Style       string `yaml:"style"`
}

// PlayStyle maps the persona's style onto an AI strategy
func (p Persona) PlayStyle() (game.Style, error) {
	return game.ParseStyle(p.Style)
}

// Library is a set of personas sharing a conversation topic and prompt
// templates
type Library struct {
	Topic        string    `yaml:"topic"`
	SystemPrompt string    `yaml:"system_prompt"`
	UserPrompt   string    `yaml:"user_prompt"`
	Personas     []Persona `yaml:"personas"`

	system *template.Template
	user   *template.Template
}

// DefaultLibrary returns the built-in personas
func DefaultLibrary() *Library {
	lib, err := ParseLibrary(defaultPersonas)
	if err != nil {
		panic(fmt.Sprintf("built-in personas: %v", err))
	}
	return lib
}

// LoadLibrary reads a persona file. A missing file yields the built-in
// personas.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultLibrary(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read personas: %w", err)
	}
	lib, err := ParseLibrary(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// ParseLibrary decodes and validates a YAML persona document
func ParseLibrary(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse personas: %w", err)
	}
	if len(lib.Personas) == 0 {
		return nil, errors.New("no personas defined")
	}

	seen := make(map[string]bool)
	for i, p := range lib.Personas {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("persona %d has no name", i)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate persona %q", p.Name)
		}
		seen[key] = true
		if _, err := p.PlayStyle(); err != nil {
			return nil, fmt.Errorf("persona %q: %w", p.Name, err)
		}
	}

	if lib.SystemPrompt == "" {
		lib.SystemPrompt = defaultSystemPrompt
	}
	if lib.UserPrompt == "" {
		lib.UserPrompt = defaultUserPrompt
	}

	var err error
	if lib.system, err = template.New("system").Funcs(funcs).Parse(lib.SystemPrompt); err != nil {
		return nil, fmt.Errorf("system prompt: %w", err)
	}
	if lib.user, err = template.New("user").Funcs(funcs).Parse(lib.UserPrompt); err != nil {
		return nil, fmt.Errorf("user prompt: %w", err)
	}
	return &lib, nil
}

// Persona looks a persona up by name, case-insensitively
func (l *Library) Persona(name string) (Persona, bool) {
	for _, p := range l.Personas {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Persona{}, false
}

// Pick returns the first n personas
func (l *Library) Pick(n int) ([]Persona, error) {
	if n > len(l.Personas) {
		return nil, fmt.Errorf("want %d companions, only %d personas defined", n, len(l.Personas))
	}
	out := make([]Persona, n)
	copy(out, l.Personas[:n])
	return out, nil
}

const defaultSystemPrompt = `You are {{.Name}}, {{.Description}}. You are playing Five Card Rummy with {{join .Others ", "}} while discussing {{.Topic}}.`

const defaultUserPrompt = `Here is the conversation about {{.Topic}}
{{- range .Conversation}}
{{.Speaker}}: {{.Text}}
{{- end}}

At the table: {{.Event}}

Please continue the roleplay by responding with a single sentence. You are playing the role of {{.Name}}.`
