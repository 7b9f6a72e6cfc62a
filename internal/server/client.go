package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
)

var (
	ErrSendBufferFull = errors.New("SEND_BUFFER_FULL: Client is not keeping up")
	ErrClientClosed   = errors.New("CLIENT_CLOSED: Connection already closed")
)

const writeTimeout = 10 * time.Second

// Conn is an outbound handle to one client. Send must never block the caller.
type Conn interface {
	ID() string
	Send(msg ServerMessage) error
	Close()
}

// wsClient queues encoded messages for a dedicated writer goroutine so a slow
// socket only ever stalls itself.
type wsClient struct {
	id     string
	socket *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func newWSClient(id string, socket *websocket.Conn, buffer int) *wsClient {
	return &wsClient{
		id:     id,
		socket: socket,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *wsClient) ID() string {
	return c.id
}

func (c *wsClient) Send(msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("Marshal error: %w", err)
	}

	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *wsClient) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writeLoop drains the queue until the client is closed or a write fails.
func (c *wsClient) writeLoop(ctx context.Context) {
	defer c.socket.Close(websocket.StatusGoingAway, "Server closing")

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.socket.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Printf("Connection %s write error: %v", c.id, err)
				c.Close()
				return
			}
		}
	}
}
