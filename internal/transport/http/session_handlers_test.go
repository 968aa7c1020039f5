package http

import (
	stdhttp "net/http"
	"testing"
)

func TestCreateSessionSinglePlayerChargesAttempt(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "solo")

	timeTaken := 42.5
	var session SessionResponse
	status := doJSON(t, ts, stdhttp.MethodPost, "/api/game-sessions", token, CreateSessionRequest{
		Mode:           "single_player",
		Score:          80,
		CorrectAnswers: 8,
		TotalQuestions: 10,
		TimeTaken:      &timeTaken,
	}, &session)
	if status != stdhttp.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if session.Score != 80 || session.Mode != "single_player" {
		t.Fatalf("unexpected session: %+v", session)
	}

	var user UserResponse
	if status := doJSON(t, ts, stdhttp.MethodGet, "/api/users/me", token, nil, &user); status != stdhttp.StatusOK {
		t.Fatalf("me failed: %d", status)
	}
	if user.PlayAttempts != 4 {
		t.Fatalf("expected 4 attempts after solo game, got %d", user.PlayAttempts)
	}
	if user.TotalScore != 80 || user.GamesPlayed != 1 {
		t.Fatalf("totals not updated: %+v", user)
	}
}

func TestCreateSessionRejectsExhaustedAttempts(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "broke")

	zero := 0
	if status := doJSON(t, ts, stdhttp.MethodPatch, "/api/users/me/play-attempts", token,
		PlayAttemptsRequest{Attempts: &zero}, nil); status != stdhttp.StatusOK {
		t.Fatalf("set attempts failed: %d", status)
	}

	status := doJSON(t, ts, stdhttp.MethodPost, "/api/game-sessions", token, CreateSessionRequest{
		Mode:  "single_player",
		Score: 10,
	}, nil)
	if status != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 with no attempts, got %d", status)
	}
}

func TestCreateSessionMultiplayerKeepsAttempts(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "multi")

	status := doJSON(t, ts, stdhttp.MethodPost, "/api/game-sessions", token, CreateSessionRequest{
		Mode:           "multiplayer",
		Score:          50,
		CorrectAnswers: 5,
		TotalQuestions: 10,
	}, nil)
	if status != stdhttp.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	var user UserResponse
	if status := doJSON(t, ts, stdhttp.MethodGet, "/api/users/me", token, nil, &user); status != stdhttp.StatusOK {
		t.Fatalf("me failed: %d", status)
	}
	if user.PlayAttempts != 5 {
		t.Fatalf("multiplayer should not charge attempts, got %d", user.PlayAttempts)
	}
}

func TestCreateSessionRejectsUnknownMode(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "modeless")

	status := doJSON(t, ts, stdhttp.MethodPost, "/api/game-sessions", token, CreateSessionRequest{
		Mode:  "battle_royale",
		Score: 10,
	}, nil)
	if status != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", status)
	}
}

func TestMyHistoryNewestFirst(t *testing.T) {
	ts, _, _ := startTestServer(t)
	token := registerTestUser(t, ts, "veteran")

	for _, score := range []int{10, 20, 30} {
		status := doJSON(t, ts, stdhttp.MethodPost, "/api/game-sessions", token, CreateSessionRequest{
			Mode:  "multiplayer",
			Score: score,
		}, nil)
		if status != stdhttp.StatusCreated {
			t.Fatalf("create session failed: %d", status)
		}
	}

	var history []SessionResponse
	status := doJSON(t, ts, stdhttp.MethodGet, "/api/game-sessions/my-history", token, nil, &history)
	if status != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(history))
	}
	if history[0].Score != 30 {
		t.Fatalf("expected newest first, got scores %d, %d, %d",
			history[0].Score, history[1].Score, history[2].Score)
	}
}

func TestGlobalLeaderboardRanksPlayers(t *testing.T) {
	ts, _, _ := startTestServer(t)

	for _, tc := range []struct {
		username string
		score    int
	}{
		{"first", 90},
		{"second", 60},
	} {
		token := registerTestUser(t, ts, tc.username)
		status := doJSON(t, ts, stdhttp.MethodPost, "/api/game-sessions", token, CreateSessionRequest{
			Mode:  "multiplayer",
			Score: tc.score,
		}, nil)
		if status != stdhttp.StatusCreated {
			t.Fatalf("create session for %s failed: %d", tc.username, status)
		}
	}

	var board []LeaderboardEntryResponse
	status := doJSON(t, ts, stdhttp.MethodGet, "/api/leaderboard/global", "", nil, &board)
	if status != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].Username != "first" || board[0].Rank != 1 {
		t.Fatalf("unexpected top entry: %+v", board[0])
	}
	if board[1].Username != "second" || board[1].Rank != 2 {
		t.Fatalf("unexpected second entry: %+v", board[1])
	}
}
