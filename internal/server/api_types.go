package server

import "wizards-server/internal/wizards"

// ============================================================================
// ERROR RESPONSES
// ============================================================================
// tygo:generate
type ErrorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ============================================================================
// LOBBY (join, choose_colour, start)
// ============================================================================
// tygo:generate
type JoinRequest struct {
	Name string `json:"name"`
}

// tygo:generate
type JoinFailResponse struct {
	Reason string `json:"reason"`
}

// tygo:generate
type JoinLobbyResponse struct {
	Name string `json:"name"`
}

// tygo:generate
type ChooseColourRequest struct {
	Colour int `json:"colour"`
}

// tygo:generate
type StartRequest struct {
	MapName string `json:"map_name"`
}

// tygo:generate
type AnimationNotification struct {
	Type           string `json:"type"`
	CharacterIndex int    `json:"character_index"`
}

const animationCharacterSelected = "character_selected"

// ============================================================================
// POINTERS (mouse_update)
// ============================================================================
// tygo:generate
type MouseUpdateRequest struct {
	Name   string  `json:"name"`
	MouseX float64 `json:"mouseX"`
	MouseY float64 `json:"mouseY"`
}

// MouseUpdateBroadcast maps each player to their [x, y] pointer.
type MouseUpdateBroadcast map[string][2]float64

// ============================================================================
// TURN ACTIONS (request_*)
// ============================================================================
// tygo:generate
type CellRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// tygo:generate
type SigilRequest struct {
	Idx  int           `json:"idx"`
	Name wizards.Sigil `json:"name"`
}

// ============================================================================
// HEALTH
// ============================================================================
// tygo:generate
type HealthResponse struct {
	Status      string        `json:"status"`
	Phase       wizards.Phase `json:"phase"`
	Players     []string      `json:"players"`
	Connections int           `json:"connections"`
}
