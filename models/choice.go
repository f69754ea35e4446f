package models

import "fmt"

// Choice is a player's move in a match. ChoiceNone means the player has
// not answered yet; it never beats and is never beaten.
type Choice int

const (
	ChoiceNone Choice = iota
	ChoiceRock
	ChoicePaper
	ChoiceScissors
)

func (c Choice) String() string {
	switch c {
	case ChoiceRock:
		return "Rock"
	case ChoicePaper:
		return "Paper"
	case ChoiceScissors:
		return "Scissors"
	default:
		return "None"
	}
}

// ParseChoice parses the wire value carried by a card submission. Only
// the three playable values are accepted; "None" is not a submittable
// choice.
func ParseChoice(s string) (Choice, error) {
	switch s {
	case "Rock":
		return ChoiceRock, nil
	case "Paper":
		return ChoicePaper, nil
	case "Scissors":
		return ChoiceScissors, nil
	default:
		return ChoiceNone, fmt.Errorf("unknown choice %q", s)
	}
}

// Beats reports whether c wins against other. The relation is cyclic:
// Paper beats Rock, Rock beats Scissors, Scissors beats Paper. Every
// other pair, including equal choices and anything involving
// ChoiceNone, is false.
func (c Choice) Beats(other Choice) bool {
	if c == ChoiceNone || other == ChoiceNone {
		return false
	}
	return (c == ChoicePaper && other == ChoiceRock) ||
		(c == ChoiceRock && other == ChoiceScissors) ||
		(c == ChoiceScissors && other == ChoicePaper)
}
