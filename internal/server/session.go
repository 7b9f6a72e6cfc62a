package server

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"wizards-server/internal/board"
	"wizards-server/internal/storage"
	"wizards-server/internal/wizards"
)

var ErrSessionClosed = errors.New("SESSION_CLOSED: Session is no longer running")

// Commands accepted by the Session inbox.
type (
	connectCommand struct {
		Conn Conn
	}
	disconnectCommand struct {
		ConnectionID string
	}
	messageCommand struct {
		ConnectionID string
		Message      ClientMessage
	}
	statusCommand struct {
		Reply chan HealthResponse
	}
)

// Session owns the lobby, the game and the connection registry. Everything
// runs on the Run goroutine, one command at a time, so handlers never lock.
type Session struct {
	inbox chan any
	done  chan struct{}

	boards          *board.Registry
	defaultMap      string
	pointerInterval time.Duration
	journal         storage.Journal
	rng             *rand.Rand

	lobby  *wizards.Lobby
	game   *wizards.Game
	gameID string
	seq    int
	conns  *ConnectionRegistry
}

type SessionOptions struct {
	Boards          *board.Registry
	DefaultMap      string
	PointerInterval time.Duration
	Journal         storage.Journal
	Rand            *rand.Rand
}

func NewSession(opts SessionOptions) *Session {
	if opts.Journal == nil {
		opts.Journal = storage.NopJournal{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.DefaultMap == "" {
		opts.DefaultMap = board.DefaultMap
	}
	if opts.PointerInterval <= 0 {
		opts.PointerInterval = 100 * time.Millisecond
	}

	return &Session{
		inbox:           make(chan any, 256),
		done:            make(chan struct{}),
		boards:          opts.Boards,
		defaultMap:      opts.DefaultMap,
		pointerInterval: opts.PointerInterval,
		journal:         opts.Journal,
		rng:             opts.Rand,
		lobby:           wizards.NewLobby(),
		conns:           NewConnectionRegistry(),
	}
}

// Run processes commands until ctx is cancelled. Pointer broadcasts start
// with the game and share the loop with everything else.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	var ticker *time.Ticker
	var ticks <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			for _, conn := range s.conns.All() {
				conn.Close()
			}
			log.Printf("Session stopped")
			return
		case cmd := <-s.inbox:
			s.handleCommand(cmd)
			if s.game != nil && ticker == nil {
				ticker = time.NewTicker(s.pointerInterval)
				ticks = ticker.C
			}
		case <-ticks:
			s.broadcastPointers()
		}
	}
}

func (s *Session) submit(ctx context.Context, cmd any) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.inbox <- cmd:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Connect(ctx context.Context, conn Conn) error {
	return s.submit(ctx, connectCommand{Conn: conn})
}

func (s *Session) Disconnect(ctx context.Context, connectionID string) error {
	return s.submit(ctx, disconnectCommand{ConnectionID: connectionID})
}

func (s *Session) Dispatch(ctx context.Context, connectionID string, msg ClientMessage) error {
	return s.submit(ctx, messageCommand{ConnectionID: connectionID, Message: msg})
}

// Status asks the run loop for a snapshot of the session.
func (s *Session) Status(ctx context.Context) (HealthResponse, error) {
	reply := make(chan HealthResponse, 1)
	if err := s.submit(ctx, statusCommand{Reply: reply}); err != nil {
		return HealthResponse{}, err
	}
	select {
	case status := <-reply:
		return status, nil
	case <-s.done:
		return HealthResponse{}, ErrSessionClosed
	case <-ctx.Done():
		return HealthResponse{}, ctx.Err()
	}
}

func (s *Session) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case connectCommand:
		s.conns.AddConnection(c.Conn)
		log.Printf("New connection: %s", c.Conn.ID())
		if s.game == nil {
			s.send(c.Conn, ServerMessage{Type: MsgLobbyState, Payload: s.lobby.State()})
		}
	case disconnectCommand:
		s.handleDisconnect(c.ConnectionID)
	case messageCommand:
		conn := s.conns.GetConnection(c.ConnectionID)
		if conn == nil {
			return
		}
		s.route(conn, c.Message)
	case statusCommand:
		c.Reply <- s.status()
	default:
		log.Printf("Session ignored unknown command %T", cmd)
	}
}

func (s *Session) handleDisconnect(connectionID string) {
	name := s.conns.RemoveConnection(connectionID)
	log.Printf("Connection closed: %s", connectionID)
	if name == "" {
		return
	}

	if s.game == nil {
		s.lobby.Leave(name)
		log.Printf("Player %s left the lobby", name)
		s.broadcastLobby()
		return
	}
	log.Printf("Player %s disconnected, slot kept for rejoin", name)
}

func (s *Session) route(conn Conn, msg ClientMessage) {
	switch msg.Type {
	case MsgJoin:
		s.handleJoin(conn, msg.Payload)
	case MsgChooseColour:
		s.handleChooseColour(conn, msg.Payload)
	case MsgStart:
		s.handleStart(conn, msg.Payload)
	case MsgMouseUpdate:
		s.handleMouseUpdate(conn, msg.Payload)
	case MsgRequestMove, MsgRequestNoise, MsgAttack, MsgDiscard, MsgUseSigil, MsgFinish:
		s.handleAction(conn, msg.Type, msg.Payload)
	default:
		log.Printf("Unknown message type '%s' from %s", msg.Type, conn.ID())
		s.sendError(conn, "INVALID_MESSAGE_TYPE", "Unknown message type: "+msg.Type)
	}
}

func (s *Session) phase() wizards.Phase {
	if s.game == nil {
		return wizards.PhaseLobby
	}
	return s.game.Phase
}

func (s *Session) status() HealthResponse {
	var players []string
	if s.game == nil {
		players = s.lobby.Names()
	} else {
		players = append([]string(nil), s.game.Order...)
	}
	if players == nil {
		players = make([]string, 0)
	}
	return HealthResponse{
		Status:      "ok",
		Phase:       s.phase(),
		Players:     players,
		Connections: s.conns.Len(),
	}
}

// beginGame hands the ready lobby over to a new game.
func (s *Session) beginGame(mapName string) {
	if mapName == "" {
		mapName = s.defaultMap
	}
	b := s.boards.Resolve(mapName)

	game, transitions := wizards.NewGame(mapName, b, s.lobby.Colours.ByName(), s.rng)
	s.game = game
	s.gameID = uuid.NewString()
	s.seq = 0
	s.lobby = wizards.NewLobby()
	s.conns.EnterGame()

	log.Printf("Game %s started on %s (board %s) with %v", s.gameID, mapName, b.Name, game.Order)
	s.deliver(transitions)
}
