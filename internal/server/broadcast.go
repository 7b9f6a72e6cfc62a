package server

import (
	"log"
	"time"

	"wizards-server/internal/storage"
	"wizards-server/internal/wizards"
)

// send queues a message on one connection. A connection that cannot take it
// is closed; its reader then reports the disconnect.
func (s *Session) send(conn Conn, msg ServerMessage) {
	if err := conn.Send(msg); err != nil {
		log.Printf("Failed to send %s to %s: %v", msg.Type, conn.ID(), err)
		conn.Close()
	}
}

func (s *Session) sendError(conn Conn, code, message string) {
	s.send(conn, ServerMessage{
		Type: MsgError,
		Payload: ErrorMessage{
			Message: message,
			Code:    code,
		},
	})
}

// broadcast sends one message to every open connection, joined or not.
func (s *Session) broadcast(msg ServerMessage) {
	for _, conn := range s.conns.All() {
		s.send(conn, msg)
	}
}

func (s *Session) broadcastLobby() {
	s.broadcast(ServerMessage{Type: MsgLobbyState, Payload: s.lobby.State()})
}

func (s *Session) broadcastPointers() {
	if s.game == nil {
		return
	}
	s.broadcast(ServerMessage{Type: MsgMouseUpdate, Payload: MouseUpdateBroadcast(s.game.Pointers())})
}

// deliver sends each transition to its recipients, each with their own view,
// and journals it. Players without a live connection are skipped.
func (s *Session) deliver(transitions []wizards.Transition) {
	for _, t := range transitions {
		for _, name := range t.Recipients(s.game.Order) {
			conn := s.conns.ConnectionFor(name)
			if conn == nil {
				continue
			}
			msg, ok := t.MessageFor(name)
			if !ok {
				continue
			}
			s.send(conn, ServerMessage{Type: MsgStateTransition, Payload: msg})
		}
		s.record(t)
	}
}

func (s *Session) record(t wizards.Transition) {
	s.seq++

	current := ""
	if t.State.CurrentPlayer < len(s.game.Order) {
		current = s.game.Order[t.State.CurrentPlayer]
	}
	s.journal.Record(storage.Event{
		GameID:        s.gameID,
		Seq:           s.seq,
		Transition:    string(t.Name),
		Round:         t.State.Round,
		CurrentPlayer: current,
		LogHead:       t.LogHead,
		CreatedAt:     time.Now(),
	})
}
