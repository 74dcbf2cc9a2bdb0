package game

import "github.com/lox/rummy/rummy"

// Player is a seat at the table. Score accumulates across rounds.
type Player struct {
	ID      string
	Name    string
	Seat    int
	Hand    rummy.Hand
	Score   int
	IsHuman bool
	Persona string // companion persona name, empty for the human
	Style   Style
}

// NewPlayer creates a player with an empty hand
func NewPlayer(id, name string, human bool) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		IsHuman: human,
		Style:   Balanced,
	}
}

// NewCompanion creates a computer-controlled player bound to a persona
func NewCompanion(id, name, persona string, style Style) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		Persona: persona,
		Style:   style,
	}
}

// Deadwood returns the player's current minimum dead-wood
func (p *Player) Deadwood() int {
	return rummy.Deadwood(p.Hand)
}
