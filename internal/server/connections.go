package server

import "sort"

// ConnectionRegistry tracks every open connection and which player name, if
// any, each one speaks for. It belongs to the Session goroutine and is not
// safe for concurrent use.
//
// In lobby mode a disconnect forgets the name. In game mode the name keeps an
// empty slot so the player can rejoin.
type ConnectionRegistry struct {
	inGame      bool
	connections map[string]Conn   // connectionID → handle
	names       map[string]string // connectionID → player name
	slots       map[string]Conn   // player name → handle, nil while disconnected
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connections: make(map[string]Conn),
		names:       make(map[string]string),
		slots:       make(map[string]Conn),
	}
}

func (r *ConnectionRegistry) AddConnection(conn Conn) {
	r.connections[conn.ID()] = conn
}

// RemoveConnection drops the connection and returns the name it was bound to.
func (r *ConnectionRegistry) RemoveConnection(connectionID string) string {
	name := r.names[connectionID]
	delete(r.connections, connectionID)
	delete(r.names, connectionID)

	if name == "" {
		return ""
	}
	if r.inGame {
		r.slots[name] = nil
	} else {
		delete(r.slots, name)
	}
	return name
}

// Bind ties a connection to a player name.
func (r *ConnectionRegistry) Bind(name string, conn Conn) {
	r.connections[conn.ID()] = conn
	r.names[conn.ID()] = name
	r.slots[name] = conn
}

// EnterGame switches to game mode. Every bound name becomes a game slot.
func (r *ConnectionRegistry) EnterGame() {
	r.inGame = true
}

func (r *ConnectionRegistry) InGame() bool {
	return r.inGame
}

// NameOf returns the player name bound to a connection, or "".
func (r *ConnectionRegistry) NameOf(connectionID string) string {
	return r.names[connectionID]
}

// HasSlot reports whether name is known, connected or not.
func (r *ConnectionRegistry) HasSlot(name string) bool {
	_, ok := r.slots[name]
	return ok
}

// Occupied reports whether name currently has a live connection.
func (r *ConnectionRegistry) Occupied(name string) bool {
	return r.slots[name] != nil
}

// ConnectionFor returns the live handle for name, or nil for an empty slot.
func (r *ConnectionRegistry) ConnectionFor(name string) Conn {
	return r.slots[name]
}

func (r *ConnectionRegistry) GetConnection(connectionID string) Conn {
	return r.connections[connectionID]
}

// All returns every open connection, bound or not, in a stable order.
func (r *ConnectionRegistry) All() []Conn {
	ids := make([]string, 0, len(r.connections))
	for id := range r.connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	conns := make([]Conn, 0, len(ids))
	for _, id := range ids {
		conns = append(conns, r.connections[id])
	}
	return conns
}

func (r *ConnectionRegistry) Len() int {
	return len(r.connections)
}
