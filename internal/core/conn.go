package core

import "github.com/google/uuid"

// defaultSendBuffer bounds the per-connection outbound queue. A peer
// that stops reading fills its own queue and starts losing frames
// without delaying anyone else in the room.
const defaultSendBuffer = 32

// Conn is one live room connection as seen by the registry: a single
// duplex channel bound to one participant identity. The transport layer
// owns the socket; the registry only ever enqueues onto Send.
type Conn struct {
	ID       string
	Username string
	Send     chan []byte
}

// NewConn builds a connection for the given display name.
func NewConn(username string) *Conn {
	return &Conn{
		ID:       uuid.NewString(),
		Username: username,
		Send:     make(chan []byte, defaultSendBuffer),
	}
}

// NewConnBuffered is NewConn with an explicit send-queue capacity.
func NewConnBuffered(username string, buffer int) *Conn {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &Conn{
		ID:       uuid.NewString(),
		Username: username,
		Send:     make(chan []byte, buffer),
	}
}
