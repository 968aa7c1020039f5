package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/proto"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

func nextFrame(t *testing.T, c *Conn) []byte {
	t.Helper()

	select {
	case payload := <-c.Send:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for frame on %s", c.Username)
		return nil
	}
}

func nextRoster(t *testing.T, c *Conn) []proto.Player {
	t.Helper()

	var update proto.PlayersUpdated
	if err := json.Unmarshal(nextFrame(t, c), &update); err != nil {
		t.Fatalf("unmarshal players_updated: %v", err)
	}
	if update.Type != proto.TypePlayersUpdated {
		t.Fatalf("expected players_updated frame, got %q", update.Type)
	}
	return update.Players
}

func wantRoster(t *testing.T, got, want []proto.Player) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("expected roster %+v, got %+v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected roster %+v, got %+v", want, got)
		}
	}
}
