package wizards

import (
	"maps"
	"slices"
)

type TransitionName string

const (
	TransitionStartInit      TransitionName = "start_game_init_state"
	TransitionStartAnimation TransitionName = "start_game_animation"
	TransitionPlayerRejoined TransitionName = "player_rejoined"
	TransitionMove           TransitionName = "move"
	TransitionChooseNoise    TransitionName = "choose_noise"
	TransitionAttack         TransitionName = "attack"
	TransitionDiscard        TransitionName = "discard"
	TransitionSigil          TransitionName = "sigil"
	TransitionRejectSigil    TransitionName = "reject_use_sigil"
	TransitionNextPlayer     TransitionName = "next_player"
)

type EventData map[string]any

// PublicPlayer is everything other players may know about a player.
type PublicPlayer struct {
	Alive     bool    `json:"alive"`
	NumSigils int     `json:"num_sigils"`
	History   History `json:"history"`
}

type PublicState struct {
	Phase         Phase                   `json:"phase"`
	CurrentPlayer int                     `json:"current_player"`
	Round         int                     `json:"round"`
	Players       map[string]PublicPlayer `json:"players"`
	MovedThisTurn bool                    `json:"moved_this_turn"`
	Log           string                  `json:"log"`
}

// PrivateOverlay is the part of the state only its owner sees.
type PrivateOverlay struct {
	Sigils              []Sigil `json:"sigils"`
	IsWarlock           bool    `json:"is_warlock"`
	PlayerRow           int     `json:"player_row"`
	PlayerCol           int     `json:"player_col"`
	DecoyChoiceRequired bool    `json:"decoy_choice_required"`
	ActiveSigils        []Sigil `json:"active_sigils"`
	MovementSpeed       int     `json:"movement_speed"`
}

// PlayerState is the full state one client receives.
type PlayerState struct {
	PublicState
	PrivateOverlay
}

type StateTransitionMessage struct {
	Name     TransitionName `json:"name"`
	Data     EventData      `json:"data"`
	NewState PlayerState    `json:"new_state"`
}

// Transition is a state change captured at the moment it happened: the
// public snapshot, every player's private overlay, and the event payloads.
type Transition struct {
	Name      TransitionName
	Data      EventData
	Private   map[string]EventData
	Recipient string
	State     PublicState
	Overlays  map[string]PrivateOverlay
	LogHead   string
}

func (g *Game) PublicState() PublicState {
	players := make(map[string]PublicPlayer, len(g.Players))
	for name, p := range g.Players {
		players[name] = PublicPlayer{
			Alive:     p.Alive,
			NumSigils: len(p.Sigils),
			History:   slices.Clone(p.History),
		}
	}
	return PublicState{
		Phase:         g.Phase,
		CurrentPlayer: g.CurrentPlayer,
		Round:         g.Round,
		Players:       players,
		MovedThisTurn: g.MovedThisTurn,
		Log:           g.Log.Formatted(),
	}
}

func (p *Player) Overlay() PrivateOverlay {
	return PrivateOverlay{
		Sigils:              slices.Clone(p.Sigils),
		IsWarlock:           p.IsWarlock,
		PlayerRow:           p.Row,
		PlayerCol:           p.Col,
		DecoyChoiceRequired: p.DecoyChoiceRequired,
		ActiveSigils:        slices.Clone(p.ActiveSigils),
		MovementSpeed:       p.MovementSpeed(),
	}
}

func (g *Game) capture(name TransitionName, data EventData, private map[string]EventData, recipient string) Transition {
	overlays := make(map[string]PrivateOverlay, len(g.Players))
	for playerName, p := range g.Players {
		overlays[playerName] = p.Overlay()
	}
	if data == nil {
		data = EventData{}
	}
	return Transition{
		Name:      name,
		Data:      data,
		Private:   private,
		Recipient: recipient,
		State:     g.PublicState(),
		Overlays:  overlays,
		LogHead:   g.Log.Head(),
	}
}

// Recipients lists the players this transition is addressed to, in turn order
// when it goes to everyone.
func (t Transition) Recipients(order []string) []string {
	if t.Recipient != "" {
		return []string{t.Recipient}
	}
	return order
}

// MessageFor builds the message for one recipient, or false when the
// transition is not addressed to them.
func (t Transition) MessageFor(name string) (StateTransitionMessage, bool) {
	if t.Recipient != "" && t.Recipient != name {
		return StateTransitionMessage{}, false
	}
	overlay, ok := t.Overlays[name]
	if !ok {
		return StateTransitionMessage{}, false
	}
	return BuildMessage(t.Name, t.State, overlay, t.Data, t.Private[name]), true
}

// BuildMessage joins the shared snapshot with one player's overlay. Private
// event data is merged into a fresh map so it never reaches another player.
func BuildMessage(name TransitionName, public PublicState, overlay PrivateOverlay, data, private EventData) StateTransitionMessage {
	merged := make(EventData, len(data)+len(private))
	maps.Copy(merged, private)
	maps.Copy(merged, data)

	return StateTransitionMessage{
		Name: name,
		Data: merged,
		NewState: PlayerState{
			PublicState:    public,
			PrivateOverlay: overlay,
		},
	}
}
