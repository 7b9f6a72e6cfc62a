package wizards

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// NumColours is how many player characters a client can pick from.
const NumColours = 6

const maxNameLength = 20

var (
	ErrNameTaken   = errors.New("NAME_TAKEN")
	ErrNameInvalid = errors.New("NAME_INVALID")
)

// JoinError is a join failure that is reported back to the client.
type JoinError struct {
	Code   error
	Reason string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("%v: %s", e.Code, e.Reason)
}

func (e *JoinError) Unwrap() error {
	return e.Code
}

// ColourClaims keeps the name <-> colour mapping one to one.
type ColourClaims struct {
	byName   map[string]int
	byColour map[int]string
}

func NewColourClaims() *ColourClaims {
	return &ColourClaims{
		byName:   make(map[string]int),
		byColour: make(map[int]string),
	}
}

// Claim gives colour to name, releasing whatever name held before. It fails
// if another name already holds the colour.
func (c *ColourClaims) Claim(name string, colour int) bool {
	if holder, taken := c.byColour[colour]; taken {
		return holder == name
	}
	c.Release(name)
	c.byName[name] = colour
	c.byColour[colour] = name
	return true
}

func (c *ColourClaims) Release(name string) {
	colour, ok := c.byName[name]
	if !ok {
		return
	}
	delete(c.byName, name)
	delete(c.byColour, colour)
}

func (c *ColourClaims) ColourOf(name string) (int, bool) {
	colour, ok := c.byName[name]
	return colour, ok
}

func (c *ColourClaims) Len() int {
	return len(c.byName)
}

// ByColour returns a copy of the colour -> name map.
func (c *ColourClaims) ByColour() map[int]string {
	out := make(map[int]string, len(c.byColour))
	for colour, name := range c.byColour {
		out[colour] = name
	}
	return out
}

// ByName returns a copy of the name -> colour map.
func (c *ColourClaims) ByName() map[string]int {
	out := make(map[string]int, len(c.byName))
	for name, colour := range c.byName {
		out[name] = colour
	}
	return out
}

// Lobby holds the players waiting for a game to start.
type Lobby struct {
	names   []string
	Colours *ColourClaims
}

func NewLobby() *Lobby {
	return &Lobby{
		names:   make([]string, 0),
		Colours: NewColourClaims(),
	}
}

type LobbyState struct {
	Players        []string       `json:"players"`
	ColourToPlayer map[int]string `json:"colour_to_player"`
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &JoinError{Code: ErrNameInvalid, Reason: "Name cannot be empty"}
	}
	if len(name) > maxNameLength {
		return &JoinError{Code: ErrNameInvalid, Reason: fmt.Sprintf("Name too long (max %d characters)", maxNameLength)}
	}
	return nil
}

func (l *Lobby) Join(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if l.Has(name) {
		return &JoinError{Code: ErrNameTaken, Reason: fmt.Sprintf("The name %q is already taken", name)}
	}
	l.names = append(l.names, name)
	return nil
}

// Leave forgets name and frees its colour.
func (l *Lobby) Leave(name string) bool {
	idx := slices.Index(l.names, name)
	if idx == -1 {
		return false
	}
	l.names = slices.Delete(l.names, idx, idx+1)
	l.Colours.Release(name)
	return true
}

func (l *Lobby) Has(name string) bool {
	return slices.Contains(l.names, name)
}

func (l *Lobby) Names() []string {
	return slices.Clone(l.names)
}

func (l *Lobby) ChooseColour(name string, colour int) bool {
	if !l.Has(name) {
		return false
	}
	if colour < 0 || colour >= NumColours {
		return false
	}
	return l.Colours.Claim(name, colour)
}

// Ready is true once every joined player has a colour.
func (l *Lobby) Ready() bool {
	if len(l.names) == 0 {
		return false
	}
	for _, name := range l.names {
		if _, ok := l.Colours.ColourOf(name); !ok {
			return false
		}
	}
	return true
}

func (l *Lobby) State() LobbyState {
	return LobbyState{
		Players:        l.Names(),
		ColourToPlayer: l.Colours.ByColour(),
	}
}
