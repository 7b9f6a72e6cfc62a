package wizards

import (
	"encoding/json"
	"slices"

	"wizards-server/internal/board"
)

type EventKind string

const (
	EventNoise  EventKind = "noise"
	EventAttack EventKind = "attack"
	EventDead   EventKind = "dead"
)

// HistoryEntry is one turn in a player's trail. The zero value is a turn that
// revealed nothing and encodes as null.
type HistoryEntry struct {
	Kind EventKind
	Row  int
	Col  int
}

func (e HistoryEntry) IsEmpty() bool {
	return e.Kind == ""
}

func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	if e.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal([]any{e.Kind, e.Row, e.Col})
}

// History holds the last N turn events, newest first. Pushing drops the oldest.
type History []HistoryEntry

func NewHistory(length int) History {
	return make(History, length)
}

func (h History) Push(entry HistoryEntry) {
	if len(h) == 0 {
		return
	}
	copy(h[1:], h[:len(h)-1])
	h[0] = entry
}

type Player struct {
	Name      string  `json:"name"`
	ColourID  int     `json:"colourId"`
	IsWarlock bool    `json:"isWarlock"`
	Row       int     `json:"row"`
	Col       int     `json:"col"`
	BaseSpeed int     `json:"baseSpeed"`
	Sigils    []Sigil `json:"sigils"`
	History   History `json:"history"`
	Alive     bool    `json:"alive"`

	// Either bonus adds one to movement. Momentum lasts a turn; a warlock's
	// kill bonus lasts the rest of the game.
	MomentumBonus       bool `json:"momentumBonus"`
	KillBonus           bool `json:"killBonus"`
	DecoyChoiceRequired bool `json:"decoyChoiceRequired"`

	// Active sigils in activation order, cleared at the end of each turn.
	ActiveSigils []Sigil `json:"activeSigils"`

	MouseX float64 `json:"mouseX"`
	MouseY float64 `json:"mouseY"`
}

func NewPlayer(name string, colourID int, warlock bool, b *board.Board) *Player {
	p := &Player{
		Name:         name,
		ColourID:     colourID,
		IsWarlock:    warlock,
		Sigils:       make([]Sigil, 0),
		ActiveSigils: make([]Sigil, 0),
		History:      NewHistory(b.HistoryLength),
		Alive:        true,
		MouseX:       0.5,
		MouseY:       0.5,
	}
	if warlock {
		p.Row, p.Col = b.WarlockSpawn.Row, b.WarlockSpawn.Col
		p.BaseSpeed = 2
	} else {
		p.Row, p.Col = b.WizardSpawn.Row, b.WizardSpawn.Col
		p.BaseSpeed = 1
	}
	return p
}

func (p *Player) At(row, col int) bool {
	return p.Row == row && p.Col == col
}

func (p *Player) MovementSpeed() int {
	if p.MomentumBonus || p.KillBonus {
		return p.BaseSpeed + 1
	}
	return p.BaseSpeed
}

// HasSigilAt checks the inventory slot still holds the named sigil. Clients
// address sigils by index and name because names repeat.
func (p *Player) HasSigilAt(idx int, name Sigil) bool {
	return idx >= 0 && idx < len(p.Sigils) && p.Sigils[idx] == name
}

func (p *Player) RemoveSigilAt(idx int) {
	p.Sigils = slices.Delete(p.Sigils, idx, idx+1)
}

// ConsumeSigil removes the first copy of name and reports whether one was held.
func (p *Player) ConsumeSigil(name Sigil) bool {
	idx := slices.Index(p.Sigils, name)
	if idx == -1 {
		return false
	}
	p.RemoveSigilAt(idx)
	return true
}

func (p *Player) IsActive(name Sigil) bool {
	return slices.Contains(p.ActiveSigils, name)
}

func (p *Player) Activate(name Sigil) {
	if !p.IsActive(name) {
		p.ActiveSigils = append(p.ActiveSigils, name)
	}
}

func (p *Player) Deactivate(name Sigil) {
	p.ActiveSigils = slices.DeleteFunc(p.ActiveSigils, func(s Sigil) bool { return s == name })
}
