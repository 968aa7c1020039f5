package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/quizroom/quizroom-server/internal/proto"
)

func newTestRoom(t *testing.T, reg *Registry, roomCode string, usernames ...string) []*Conn {
	t.Helper()

	conns := make([]*Conn, 0, len(usernames))
	for _, name := range usernames {
		c := NewConnBuffered(name, 16)
		reg.Connect(roomCode, c)
		conns = append(conns, c)
	}
	// Drain the join broadcasts so tests only see game frames.
	for i, c := range conns {
		for range conns[i:] {
			nextRoster(t, c)
		}
	}
	return conns
}

func TestRouteGameStartedShapesOutboundFrame(t *testing.T) {
	reg := NewRegistry(testLogger())
	router := NewRouter(reg, testLogger())
	router.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	conns := newTestRoom(t, reg, "ABC123", "alice", "bob")

	if err := router.Route("ABC123", []byte(`{"type":"game_started","questionCount":15}`)); err != nil {
		t.Fatalf("route: %v", err)
	}

	for _, c := range conns {
		var started proto.GameStarted
		if err := json.Unmarshal(nextFrame(t, c), &started); err != nil {
			t.Fatalf("unmarshal game_started: %v", err)
		}
		if started.Type != proto.TypeGameStarted || started.RoomCode != "ABC123" {
			t.Fatalf("unexpected frame: %+v", started)
		}
		if started.QuestionCount != 15 {
			t.Fatalf("expected questionCount 15, got %d", started.QuestionCount)
		}
		if started.Timestamp != "2025-03-14T09:26:53Z" {
			t.Fatalf("unexpected timestamp %q", started.Timestamp)
		}
	}
}

func TestRouteGameStartedDefaultsQuestionCount(t *testing.T) {
	reg := NewRegistry(testLogger())
	router := NewRouter(reg, testLogger())

	conns := newTestRoom(t, reg, "ABC123", "alice")

	for _, frame := range []string{
		`{"type":"game_started"}`,
		`{"type":"game_started","questionCount":null}`,
	} {
		if err := router.Route("ABC123", []byte(frame)); err != nil {
			t.Fatalf("route %s: %v", frame, err)
		}
		var started proto.GameStarted
		if err := json.Unmarshal(nextFrame(t, conns[0]), &started); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if started.QuestionCount != 10 {
			t.Fatalf("expected default question count 10 for %s, got %d", frame, started.QuestionCount)
		}
	}
}

func TestRoutePlayerFinishedPropagatesMissingFieldsAsNull(t *testing.T) {
	reg := NewRegistry(testLogger())
	router := NewRouter(reg, testLogger())

	conns := newTestRoom(t, reg, "ABC123", "alice")

	frame := []byte(`{"type":"player_finished","username":"bob","score":87}`)
	if err := router.Route("ABC123", frame); err != nil {
		t.Fatalf("route: %v", err)
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(nextFrame(t, conns[0]), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(out["username"]) != `"bob"` || string(out["score"]) != "87" {
		t.Fatalf("fields not passed through verbatim: %v", out)
	}
	if string(out["correctAnswers"]) != "null" || string(out["timeTaken"]) != "null" {
		t.Fatalf("expected absent fields to propagate as null, got %v", out)
	}
}

func TestRouteGameEndedForwardsOpaqueLeaderboard(t *testing.T) {
	reg := NewRegistry(testLogger())
	router := NewRouter(reg, testLogger())

	conns := newTestRoom(t, reg, "ABC123", "alice")

	leaderboard := `[{"username":"bob","score":87},{"username":"eve","score":42}]`
	if err := router.Route("ABC123", []byte(`{"type":"game_ended","leaderboard":`+leaderboard+`}`)); err != nil {
		t.Fatalf("route: %v", err)
	}

	var ended proto.GameEnded
	if err := json.Unmarshal(nextFrame(t, conns[0]), &ended); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(ended.Leaderboard) != leaderboard {
		t.Fatalf("expected leaderboard passed through, got %s", ended.Leaderboard)
	}
}

func TestRouteUnknownTypeEchoesOriginalBytes(t *testing.T) {
	reg := NewRegistry(testLogger())
	router := NewRouter(reg, testLogger())

	conns := newTestRoom(t, reg, "ABC123", "alice", "bob")

	frame := []byte(`{"type":"chat_message","text":"good luck!","from":"alice"}`)
	if err := router.Route("ABC123", frame); err != nil {
		t.Fatalf("route: %v", err)
	}
	for _, c := range conns {
		if got := nextFrame(t, c); !bytes.Equal(got, frame) {
			t.Fatalf("expected verbatim echo, got %s", got)
		}
	}

	// No type field at all still echoes.
	frame = []byte(`{"ping":1}`)
	if err := router.Route("ABC123", frame); err != nil {
		t.Fatalf("route: %v", err)
	}
	if got := nextFrame(t, conns[0]); !bytes.Equal(got, frame) {
		t.Fatalf("expected verbatim echo, got %s", got)
	}
}

func TestRouteRejectsMalformedFrame(t *testing.T) {
	reg := NewRegistry(testLogger())
	router := NewRouter(reg, testLogger())
	newTestRoom(t, reg, "ABC123", "alice")

	for _, frame := range []string{`not json`, `[1,2,3]`, `"just a string"`} {
		if err := router.Route("ABC123", []byte(frame)); !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("expected ErrMalformedFrame for %s, got %v", frame, err)
		}
	}
}

func TestParseFrameClassification(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		kind  EventKind
	}{
		{"game started", `{"type":"game_started"}`, EventGameStarted},
		{"player finished", `{"type":"player_finished","username":"a"}`, EventPlayerFinished},
		{"game ended", `{"type":"game_ended","leaderboard":[]}`, EventGameEnded},
		{"unknown type", `{"type":"emoji","value":"🎉"}`, EventPassthrough},
		{"non-string type", `{"type":42}`, EventPassthrough},
		{"missing type", `{"hello":"world"}`, EventPassthrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseFrame([]byte(tt.frame))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if ev.Kind != tt.kind {
				t.Fatalf("expected kind %v, got %v", tt.kind, ev.Kind)
			}
		})
	}
}
