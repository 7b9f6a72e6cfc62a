package server

import (
	"encoding/json"

	"wizards-server/internal/wizards"
)

type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Inbound message types. The turn actions reuse the engine's action names.
const (
	MsgJoin         = "join"
	MsgChooseColour = "choose_colour"
	MsgStart        = "start"
	MsgMouseUpdate  = "mouse_update"
	MsgRequestMove  = string(wizards.ActionMove)
	MsgRequestNoise = string(wizards.ActionNoise)
	MsgAttack       = string(wizards.ActionAttack)
	MsgDiscard      = string(wizards.ActionDiscard)
	MsgUseSigil     = string(wizards.ActionSigil)
	MsgFinish       = string(wizards.ActionFinish)
)

// Outbound message types.
const (
	MsgJoinFail        = "join_fail"
	MsgJoinLobby       = "join_lobby"
	MsgLobbyState      = "lobby_state"
	MsgDoAnimation     = "do_animation"
	MsgStateTransition = "state_transition"
	MsgError           = "error"
)
