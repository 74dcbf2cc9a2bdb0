package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/rummy/internal/companion"
	"github.com/lox/rummy/internal/tui"
)

// PersonasCmd lists the personas companions are drawn from
type PersonasCmd struct {
	File string `help:"Persona file, overriding the configured one" type:"path"`
}

func (c *PersonasCmd) Run(cli *CLI) error {
	path := c.File
	if path == "" {
		cfg, err := loadConfig(cli)
		if err != nil {
			return err
		}
		path = cfg.Companion.PersonaTemplatesPath
	}

	lib, err := companion.LoadLibrary(path)
	if err != nil {
		return err
	}

	fmt.Println(tui.HeaderStyle.Render(fmt.Sprintf(" Talking about %s ", lib.Topic)))
	for i, p := range lib.Personas {
		name := tui.SpeakerStyle(i).Render(p.Name)
		style := lipgloss.NewStyle().Faint(true).Render("(" + p.Style + ")")
		fmt.Printf("%s %s\n  %s\n", name, style, p.Description)
	}
	return nil
}
