package wizards

import (
	"math/rand"
	"slices"
	"sort"
	"strings"

	"wizards-server/internal/board"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseStarting Phase = "starting"
	PhaseGame     Phase = "game"
)

const (
	maxLogLines = 6
	logPrompt   = ">>  "
)

// Log keeps the most recent lines, newest first.
type Log struct {
	lines []string
}

func (l *Log) Add(msg string) {
	l.lines = slices.Insert(l.lines, 0, msg)
	if len(l.lines) > maxLogLines {
		l.lines = l.lines[:maxLogLines]
	}
}

func (l *Log) Lines() []string {
	return slices.Clone(l.lines)
}

// Head is the newest line, or "" when the log is empty.
func (l *Log) Head() string {
	if len(l.lines) == 0 {
		return ""
	}
	return l.lines[0]
}

// Formatted is the log as the client renders it.
func (l *Log) Formatted() string {
	if len(l.lines) == 0 {
		return ""
	}
	return logPrompt + strings.Join(l.lines, "<br>"+logPrompt)
}

type Game struct {
	Phase         Phase
	Round         int
	Players       map[string]*Player
	Order         []string
	CurrentPlayer int
	MovedThisTurn bool
	Log           *Log
	MapName       string
	Colours       map[string]int
	Board         *board.Board

	Hazards *Deck[Hazard]
	Sigils  *Deck[Sigil]

	rng *rand.Rand
}

// NewGame creates the players from the lobby's colour claims and runs the
// lobby -> starting -> game transitions. The returned transitions are the
// init-state and animation messages, in that order.
func NewGame(mapName string, b *board.Board, colours map[string]int, rng *rand.Rand) (*Game, []Transition) {
	names := make([]string, 0, len(colours))
	for name := range colours {
		names = append(names, name)
	}
	sort.Strings(names)

	// Exactly ceil(n/2) warlocks, dealt at random.
	roles := make([]bool, len(names))
	for i := 0; i < (len(roles)+1)/2; i++ {
		roles[i] = true
	}
	rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	players := make(map[string]*Player, len(names))
	for i, name := range names {
		players[name] = NewPlayer(name, colours[name], roles[i], b)
	}

	order := slices.Clone(names)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	colourCopy := make(map[string]int, len(colours))
	for name, colour := range colours {
		colourCopy[name] = colour
	}

	g := &Game{
		Phase:         PhaseStarting,
		Round:         0,
		Players:       players,
		Order:         order,
		CurrentPlayer: 0,
		Log:           &Log{},
		MapName:       mapName,
		Colours:       colourCopy,
		Board:         b,
		Hazards:       NewHazardDeck(rng),
		Sigils:        NewSigilDeck(rng),
		rng:           rng,
	}
	g.Log.Add("The lights go out, the hunt begins...")

	transitions := []Transition{
		g.capture(TransitionStartInit, EventData{
			"map_name":         mapName,
			"player_order":     slices.Clone(g.Order),
			"player_to_colour": g.colourMap(),
		}, nil, ""),
	}

	// Clients get a window to animate the start before any move is accepted.
	g.Phase = PhaseGame
	transitions = append(transitions, g.capture(TransitionStartAnimation, EventData{}, nil, ""))

	return g, transitions
}

func (g *Game) colourMap() map[string]int {
	out := make(map[string]int, len(g.Colours))
	for name, colour := range g.Colours {
		out[name] = colour
	}
	return out
}

// Current returns the name of the player whose turn it is.
func (g *Game) Current() string {
	if len(g.Order) == 0 {
		return ""
	}
	return g.Order[g.CurrentPlayer]
}

func (g *Game) Player(name string) (*Player, bool) {
	p, ok := g.Players[name]
	return p, ok
}

// Warlocks counts the players dealt the warlock role.
func (g *Game) Warlocks() int {
	count := 0
	for _, p := range g.Players {
		if p.IsWarlock {
			count++
		}
	}
	return count
}

// advanceTurn moves the pointer to the next living player. Dead players keep
// their slot and are skipped; the round goes up each time the pointer wraps.
func (g *Game) advanceTurn() {
	n := len(g.Order)
	for range n {
		g.CurrentPlayer = (g.CurrentPlayer + 1) % n
		if g.CurrentPlayer == 0 {
			g.Round++
		}
		if g.Players[g.Order[g.CurrentPlayer]].Alive {
			return
		}
	}
}

// Rejoined builds the transition that lets a returning client rebuild its view.
func (g *Game) Rejoined(name string) Transition {
	return g.capture(TransitionPlayerRejoined, EventData{
		"player_name":      name,
		"player_order":     slices.Clone(g.Order),
		"player_to_colour": g.colourMap(),
	}, nil, "")
}

// SetPointer records where a player's cursor is. Pointers are cosmetic and
// are accepted outside of the turn order.
func (g *Game) SetPointer(name string, x, y float64) bool {
	p, ok := g.Players[name]
	if !ok {
		return false
	}
	p.MouseX = x
	p.MouseY = y
	return true
}

func (g *Game) Pointers() map[string][2]float64 {
	positions := make(map[string][2]float64, len(g.Players))
	for name, p := range g.Players {
		positions[name] = [2]float64{p.MouseX, p.MouseY}
	}
	return positions
}
