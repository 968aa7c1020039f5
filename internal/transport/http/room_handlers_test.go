package http

import (
	stdhttp "net/http"
	"strings"
	"testing"
)

func TestCreateRoomDefaults(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "creator")

	var room RoomResponse
	status := doJSON(t, ts, stdhttp.MethodPost, "/api/rooms", token, nil, &room)
	if status != stdhttp.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if len(room.RoomCode) != 6 {
		t.Fatalf("expected 6-char room code, got %q", room.RoomCode)
	}
	if room.Status != "waiting" {
		t.Fatalf("expected waiting status, got %q", room.Status)
	}
	if room.MaxPlayers != 10 || room.CurrentPlayers != 1 {
		t.Fatalf("unexpected player counts: %+v", room)
	}

	// No token, no room.
	status = doJSON(t, ts, stdhttp.MethodPost, "/api/rooms", "", nil, nil)
	if status != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestCreateRoomCapsMaxPlayers(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "creator")

	var room RoomResponse
	status := doJSON(t, ts, stdhttp.MethodPost, "/api/rooms", token,
		CreateRoomRequest{MaxPlayers: 500}, &room)
	if status != stdhttp.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if room.MaxPlayers != maxRoomCapacity {
		t.Fatalf("expected max players capped at %d, got %d", maxRoomCapacity, room.MaxPlayers)
	}
}

func TestGetRoomIsCaseInsensitive(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "creator")

	var created RoomResponse
	if status := doJSON(t, ts, stdhttp.MethodPost, "/api/rooms", token, nil, &created); status != stdhttp.StatusCreated {
		t.Fatalf("create room failed: %d", status)
	}

	var fetched RoomResponse
	status := doJSON(t, ts, stdhttp.MethodGet, "/api/rooms/"+strings.ToLower(created.RoomCode), "", nil, &fetched)
	if status != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if fetched.RoomCode != created.RoomCode {
		t.Fatalf("expected room %q, got %q", created.RoomCode, fetched.RoomCode)
	}

	status = doJSON(t, ts, stdhttp.MethodGet, "/api/rooms/NOPE99", "", nil, nil)
	if status != stdhttp.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", status)
	}
}

func TestJoinRoomTracksPlayerCount(t *testing.T) {
	ts, _, _ := startTestServer(t)
	creator := registerTestUser(t, ts, "creator")
	joiner := registerTestUser(t, ts, "joiner")

	var room RoomResponse
	if status := doJSON(t, ts, stdhttp.MethodPost, "/api/rooms", creator, nil, &room); status != stdhttp.StatusCreated {
		t.Fatalf("create room failed: %d", status)
	}

	var joined struct {
		Room RoomResponse `json:"room"`
	}
	status := doJSON(t, ts, stdhttp.MethodPost, "/api/rooms/"+room.RoomCode+"/join", joiner, nil, &joined)
	if status != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if joined.Room.CurrentPlayers != 2 {
		t.Fatalf("expected 2 players after join, got %d", joined.Room.CurrentPlayers)
	}
}

func TestStartRoomCreatorOnly(t *testing.T) {
	ts, _, _ := startTestServer(t)
	creator := registerTestUser(t, ts, "creator")
	other := registerTestUser(t, ts, "other")

	var room RoomResponse
	if status := doJSON(t, ts, stdhttp.MethodPost, "/api/rooms", creator, nil, &room); status != stdhttp.StatusCreated {
		t.Fatalf("create room failed: %d", status)
	}

	status := doJSON(t, ts, stdhttp.MethodPost, "/api/rooms/"+room.RoomCode+"/start", other, nil, nil)
	if status != stdhttp.StatusForbidden {
		t.Fatalf("expected 403 for non-creator, got %d", status)
	}

	var started struct {
		Room RoomResponse `json:"room"`
	}
	status = doJSON(t, ts, stdhttp.MethodPost, "/api/rooms/"+room.RoomCode+"/start", creator, nil, &started)
	if status != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if started.Room.Status != "in_progress" {
		t.Fatalf("expected in_progress, got %q", started.Room.Status)
	}

	// Starting twice is rejected.
	status = doJSON(t, ts, stdhttp.MethodPost, "/api/rooms/"+room.RoomCode+"/start", creator, nil, nil)
	if status != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 on restart, got %d", status)
	}

	// In-progress rooms reject new joins.
	status = doJSON(t, ts, stdhttp.MethodPost, "/api/rooms/"+room.RoomCode+"/join", other, nil, nil)
	if status != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 joining started room, got %d", status)
	}
}

func TestCreateRoomRateLimited(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "spammer")

	var last int
	for i := 0; i < 15; i++ {
		last = doJSON(t, ts, stdhttp.MethodPost, "/api/rooms", token, nil, nil)
		if last == stdhttp.StatusTooManyRequests {
			return
		}
	}
	t.Fatalf("rate limit never hit, last status %d", last)
}
