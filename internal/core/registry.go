package core

import (
	"container/list"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/proto"
)

// Registry owns all live room state for one server instance. Rooms
// exist only while at least one connection is registered; durable room
// rows (codes, caps, status) live in the store and are never read here.
//
// Locking: the registry mutex guards only the room map. Each room
// carries its own mutex, so traffic in one room never contends with
// another. Mutation and the matching broadcast happen under the same
// room lock, which gives every member the same relative event order.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	log   *zerolog.Logger
}

type room struct {
	mu     sync.Mutex
	closed bool
	order  *list.List // of *Conn, join order
	conns  map[*Conn]*list.Element
	roster []proto.Player
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		log:   logger,
	}
}

func newRoom() *room {
	return &room{
		order: list.New(),
		conns: make(map[*Conn]*list.Element),
	}
}

// Connect registers c under roomCode, creating the room entry if
// absent. The first connection into an empty room becomes the host;
// the flag is never recomputed afterwards, even if the host leaves.
// Everyone in the room, the new connection included, receives a
// players_updated frame with the full roster.
func (r *Registry) Connect(roomCode string, c *Conn) {
	for {
		r.mu.Lock()
		rm, ok := r.rooms[roomCode]
		if !ok {
			rm = newRoom()
			r.rooms[roomCode] = rm
		}
		r.mu.Unlock()

		rm.mu.Lock()
		if rm.closed {
			// Lost a race with the last disconnect; the entry is
			// being torn down. Start over with a fresh room.
			rm.mu.Unlock()
			continue
		}

		isHost := rm.order.Len() == 0
		rm.conns[c] = rm.order.PushBack(c)
		rm.roster = append(rm.roster, proto.Player{Username: c.Username, IsHost: isHost})
		r.broadcastRosterLocked(roomCode, rm)
		rm.mu.Unlock()

		r.log.Debug().
			Str("room_code", roomCode).
			Str("username", c.Username).
			Bool("is_host", isHost).
			Msg("connection registered")
		return
	}
}

// Disconnect removes c from roomCode. The connection is matched by
// identity, the roster entry by first matching username. Removing the
// last connection deletes the whole room entry; a later Connect with
// the same code starts over with a fresh host. Calling Disconnect for
// an unknown room or an already-removed connection is a no-op.
func (r *Registry) Disconnect(roomCode string, c *Conn) {
	r.mu.RLock()
	rm := r.rooms[roomCode]
	r.mu.RUnlock()
	if rm == nil {
		return
	}

	rm.mu.Lock()
	elem, ok := rm.conns[c]
	if !ok {
		rm.mu.Unlock()
		return
	}
	rm.order.Remove(elem)
	delete(rm.conns, c)
	for i, p := range rm.roster {
		if p.Username == c.Username {
			rm.roster = append(rm.roster[:i], rm.roster[i+1:]...)
			break
		}
	}

	if rm.order.Len() == 0 {
		rm.closed = true
		rm.mu.Unlock()

		r.mu.Lock()
		if r.rooms[roomCode] == rm {
			delete(r.rooms, roomCode)
		}
		r.mu.Unlock()

		r.log.Debug().Str("room_code", roomCode).Msg("room emptied and dropped")
		return
	}

	r.broadcastRosterLocked(roomCode, rm)
	rm.mu.Unlock()

	r.log.Debug().
		Str("room_code", roomCode).
		Str("username", c.Username).
		Msg("connection removed")
}

// Broadcast delivers payload to every connection currently in the room,
// in join order. Unknown rooms are a no-op. A connection whose send
// queue is full loses the frame; delivery to the rest of the room is
// unaffected.
func (r *Registry) Broadcast(roomCode string, payload []byte) {
	r.mu.RLock()
	rm := r.rooms[roomCode]
	r.mu.RUnlock()
	if rm == nil {
		return
	}

	rm.mu.Lock()
	r.dispatchLocked(roomCode, rm, payload)
	rm.mu.Unlock()
}

// Players returns a copy of the current roster, or nil for an unknown
// room.
func (r *Registry) Players(roomCode string) []proto.Player {
	r.mu.RLock()
	rm := r.rooms[roomCode]
	r.mu.RUnlock()
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	players := make([]proto.Player, len(rm.roster))
	copy(players, rm.roster)
	return players
}

func (r *Registry) broadcastRosterLocked(roomCode string, rm *room) {
	players := make([]proto.Player, len(rm.roster))
	copy(players, rm.roster)

	payload, err := json.Marshal(proto.PlayersUpdated{
		Type:    proto.TypePlayersUpdated,
		Players: players,
	})
	if err != nil {
		r.log.Error().Err(err).Str("room_code", roomCode).Msg("marshal roster")
		return
	}
	r.dispatchLocked(roomCode, rm, payload)
}

func (r *Registry) dispatchLocked(roomCode string, rm *room, payload []byte) {
	for e := rm.order.Front(); e != nil; e = e.Next() {
		c := e.Value.(*Conn)
		select {
		case c.Send <- payload:
		default:
			r.log.Warn().
				Str("room_code", roomCode).
				Str("username", c.Username).
				Str("conn_id", c.ID).
				Msg("send queue full, frame dropped")
		}
	}
}
