package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/proto"
)

// ErrMalformedFrame reports an inbound frame that is not a JSON object.
// The read loop treats it exactly like a closed connection.
var ErrMalformedFrame = errors.New("malformed frame")

// defaultQuestionCount is used when a game_started frame carries no
// question count.
const defaultQuestionCount = 10

// EventKind classifies an inbound room frame.
type EventKind int

const (
	// EventGameStarted announces a new quiz round.
	EventGameStarted EventKind = iota
	// EventPlayerFinished reports one player's final result.
	EventPlayerFinished
	// EventGameEnded carries the final leaderboard.
	EventGameEnded
	// EventPassthrough is any unrecognized frame, relayed verbatim.
	EventPassthrough
)

// GameEvent is the decoded form of an inbound frame. Exactly one of
// the payload fields is meaningful for a given Kind; Raw always holds
// the original frame bytes.
type GameEvent struct {
	Kind          EventKind
	QuestionCount int
	Finished      proto.PlayerFinished
	Leaderboard   json.RawMessage
	Raw           json.RawMessage
}

// ParseFrame classifies a raw inbound frame. Frames that do not parse
// as a JSON object yield ErrMalformedFrame; frames with an unknown or
// missing type become EventPassthrough.
func ParseFrame(frame []byte) (GameEvent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return GameEvent{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	// A missing or non-string type leaves the envelope empty, which is
	// treated like an unknown one.
	var env proto.Envelope
	_ = json.Unmarshal(frame, &env)

	ev := GameEvent{Raw: frame}
	switch env.Type {
	case proto.TypeGameStarted:
		ev.Kind = EventGameStarted
		ev.QuestionCount = defaultQuestionCount
		var req proto.GameStartedRequest
		if err := json.Unmarshal(frame, &req); err == nil && req.QuestionCount != nil {
			ev.QuestionCount = *req.QuestionCount
		}
	case proto.TypePlayerFinished:
		ev.Kind = EventPlayerFinished
		ev.Finished = proto.PlayerFinished{
			Type:           proto.TypePlayerFinished,
			Username:       fields["username"],
			Score:          fields["score"],
			CorrectAnswers: fields["correctAnswers"],
			TimeTaken:      fields["timeTaken"],
		}
	case proto.TypeGameEnded:
		ev.Kind = EventGameEnded
		ev.Leaderboard = fields["leaderboard"]
	default:
		ev.Kind = EventPassthrough
	}
	return ev, nil
}

// Router turns inbound room frames into broadcasts. It holds no state
// between frames; all room-scoped state lives in the registry. Nothing
// here enforces game-phase ordering, that discipline belongs to clients.
type Router struct {
	registry *Registry
	log      *zerolog.Logger
	now      func() time.Time
}

// NewRouter builds a router on top of the given registry.
func NewRouter(registry *Registry, logger *zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		log:      logger,
		now:      time.Now,
	}
}

// Route classifies frame and broadcasts the shaped outbound payload to
// roomCode. The only error it can return is ErrMalformedFrame.
func (r *Router) Route(roomCode string, frame []byte) error {
	ev, err := ParseFrame(frame)
	if err != nil {
		return err
	}

	switch ev.Kind {
	case EventGameStarted:
		r.broadcast(roomCode, proto.GameStarted{
			Type:          proto.TypeGameStarted,
			RoomCode:      roomCode,
			QuestionCount: ev.QuestionCount,
			Timestamp:     r.now().UTC().Format(time.RFC3339),
		})
		r.log.Info().
			Str("room_code", roomCode).
			Int("question_count", ev.QuestionCount).
			Msg("game started")
	case EventPlayerFinished:
		r.broadcast(roomCode, ev.Finished)
	case EventGameEnded:
		r.broadcast(roomCode, proto.GameEnded{
			Type:        proto.TypeGameEnded,
			Leaderboard: ev.Leaderboard,
		})
		r.log.Info().Str("room_code", roomCode).Msg("game ended")
	case EventPassthrough:
		r.registry.Broadcast(roomCode, ev.Raw)
	}
	return nil
}

func (r *Router) broadcast(roomCode string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.log.Error().Err(err).Str("room_code", roomCode).Msg("marshal outbound frame")
		return
	}
	r.registry.Broadcast(roomCode, payload)
}
