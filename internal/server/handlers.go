package server

import (
	"encoding/json"
	"errors"
	"log"

	"wizards-server/internal/wizards"
)

const (
	reasonUnknownName  = "Nobody by that name is part of the game"
	reasonNameOccupied = "Someone is already connected with that name"
)

func (s *Session) handleJoin(conn Conn, payload json.RawMessage) {
	var req JoinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(conn, "INVALID_PAYLOAD", "Invalid join payload")
		return
	}

	if bound := s.conns.NameOf(conn.ID()); bound != "" {
		log.Printf("Connection %s already plays as %s, ignoring join as %s", conn.ID(), bound, req.Name)
		return
	}

	switch s.phase() {
	case wizards.PhaseLobby:
		s.joinLobby(conn, req.Name)
	case wizards.PhaseGame:
		s.rejoinGame(conn, req.Name)
	default:
		log.Printf("Ignoring join from %s while the game is starting", conn.ID())
	}
}

func (s *Session) joinLobby(conn Conn, name string) {
	if err := s.lobby.Join(name); err != nil {
		var joinErr *wizards.JoinError
		if errors.As(err, &joinErr) {
			s.send(conn, ServerMessage{Type: MsgJoinFail, Payload: JoinFailResponse{Reason: joinErr.Reason}})
		}
		log.Printf("Join failed for %s: %v", conn.ID(), err)
		return
	}

	s.conns.Bind(name, conn)
	log.Printf("Player %s joined the lobby", name)
	s.send(conn, ServerMessage{Type: MsgJoinLobby, Payload: JoinLobbyResponse{Name: name}})
	s.broadcastLobby()
}

func (s *Session) rejoinGame(conn Conn, name string) {
	if !s.conns.HasSlot(name) {
		s.send(conn, ServerMessage{Type: MsgJoinFail, Payload: JoinFailResponse{Reason: reasonUnknownName}})
		return
	}
	if s.conns.Occupied(name) {
		s.send(conn, ServerMessage{Type: MsgJoinFail, Payload: JoinFailResponse{Reason: reasonNameOccupied}})
		return
	}

	s.conns.Bind(name, conn)
	log.Printf("Player %s rejoined game %s", name, s.gameID)
	s.deliver([]wizards.Transition{s.game.Rejoined(name)})
}

func (s *Session) handleChooseColour(conn Conn, payload json.RawMessage) {
	var req ChooseColourRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(conn, "INVALID_PAYLOAD", "Invalid choose_colour payload")
		return
	}

	name := s.conns.NameOf(conn.ID())
	if name == "" || s.game != nil {
		return
	}
	if !s.lobby.ChooseColour(name, req.Colour) {
		log.Printf("Player %s could not take colour %d", name, req.Colour)
		return
	}

	s.broadcastLobby()
	s.send(conn, ServerMessage{Type: MsgDoAnimation, Payload: AnimationNotification{
		Type:           animationCharacterSelected,
		CharacterIndex: req.Colour,
	}})
}

func (s *Session) handleStart(conn Conn, payload json.RawMessage) {
	var req StartRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			s.sendError(conn, "INVALID_PAYLOAD", "Invalid start payload")
			return
		}
	}

	if s.game != nil {
		return
	}
	if s.conns.NameOf(conn.ID()) == "" {
		log.Printf("Start from %s ignored, not in the lobby", conn.ID())
		return
	}
	if !s.lobby.Ready() {
		log.Printf("Start from %s ignored, lobby not ready", conn.ID())
		return
	}
	s.beginGame(req.MapName)
}

func (s *Session) handleMouseUpdate(conn Conn, payload json.RawMessage) {
	var req MouseUpdateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}

	name := s.conns.NameOf(conn.ID())
	if name == "" || s.game == nil {
		return
	}
	if req.Name != name {
		log.Printf("Player %s tried to move the pointer of %s", name, req.Name)
		return
	}
	s.game.SetPointer(name, req.MouseX, req.MouseY)
}

// handleAction runs a turn action. Rejections are logged and otherwise
// dropped; the engine reports the ones players need to see as transitions.
func (s *Session) handleAction(conn Conn, msgType string, payload json.RawMessage) {
	name := s.conns.NameOf(conn.ID())
	if name == "" || s.game == nil {
		log.Printf("Action %s from %s ignored outside of a game", msgType, conn.ID())
		return
	}

	var (
		transitions []wizards.Transition
		err         error
	)
	switch msgType {
	case MsgRequestMove, MsgRequestNoise, MsgAttack:
		var req CellRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.sendError(conn, "INVALID_PAYLOAD", "Invalid "+msgType+" payload")
			return
		}
		switch msgType {
		case MsgRequestMove:
			transitions, err = s.game.Move(name, req.Row, req.Col)
		case MsgRequestNoise:
			transitions, err = s.game.ChooseNoise(name, req.Row, req.Col)
		default:
			transitions, err = s.game.Attack(name, req.Row, req.Col)
		}
	case MsgDiscard, MsgUseSigil:
		var req SigilRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.sendError(conn, "INVALID_PAYLOAD", "Invalid "+msgType+" payload")
			return
		}
		if msgType == MsgDiscard {
			transitions, err = s.game.Discard(name, req.Idx, req.Name)
		} else {
			transitions, err = s.game.UseSigil(name, req.Idx, req.Name)
		}
	case MsgFinish:
		transitions, err = s.game.FinishActions(name)
	}

	if err != nil {
		log.Printf("Rejected %s from %s: %v", msgType, name, err)
		return
	}
	s.deliver(transitions)
}
