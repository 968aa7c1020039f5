package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/quizroom/quizroom-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, username string) *store.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), username, username+"@example.com", "hash", "")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func TestCreateUserDefaults(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "alice")

	if user.PlayAttempts != 5 {
		t.Errorf("expected 5 starting play attempts, got %d", user.PlayAttempts)
	}
	if user.TotalScore != 0 || user.GamesPlayed != 0 {
		t.Errorf("expected zeroed totals, got %+v", user)
	}
	if !user.IsActive {
		t.Errorf("expected new user to be active")
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetUserByUsername(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordGameResultAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "alice")

	updated, err := s.RecordGameResult(ctx, user.ID, 80)
	if err != nil {
		t.Fatalf("record result: %v", err)
	}
	updated, err = s.RecordGameResult(ctx, updated.ID, 60)
	if err != nil {
		t.Fatalf("record result: %v", err)
	}

	if updated.TotalScore != 140 || updated.GamesPlayed != 2 {
		t.Fatalf("expected total 140 over 2 games, got %+v", updated)
	}
}

func TestRoomLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "creator")

	room, err := s.CreateRoom(ctx, "ABC123", user.ID, 10)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.Status != store.RoomStatusWaiting {
		t.Errorf("expected waiting status, got %s", room.Status)
	}
	if room.CurrentPlayers != 1 {
		t.Errorf("expected creator counted as first player, got %d", room.CurrentPlayers)
	}

	exists, err := s.RoomCodeExists(ctx, "ABC123")
	if err != nil || !exists {
		t.Fatalf("expected code to exist, got %v %v", exists, err)
	}

	room, err = s.AddPlayer(ctx, room.ID)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if room.CurrentPlayers != 2 {
		t.Errorf("expected 2 players, got %d", room.CurrentPlayers)
	}

	room, err = s.StartRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("start room: %v", err)
	}
	if room.Status != store.RoomStatusInProgress || room.StartedAt == nil {
		t.Errorf("expected in_progress with started_at set, got %+v", room)
	}
}

func TestRoomSessionsOrderedByScore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	creator := seedUser(t, s, "creator")
	room, err := s.CreateRoom(ctx, "XYZ999", creator.ID, 10)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	scores := []struct {
		username string
		score    int
		taken    float64
	}{
		{"bob", 60, 100},
		{"eve", 90, 80},
		{"mallory", 60, 50},
	}
	for _, sc := range scores {
		user := seedUser(t, s, sc.username)
		taken := sc.taken
		_, err := s.CreateSession(ctx, &store.GameSession{
			UserID:         user.ID,
			RoomID:         &room.ID,
			Mode:           store.GameModeMultiplayer,
			Score:          sc.score,
			CorrectAnswers: sc.score / 10,
			TotalQuestions: 10,
			TimeTaken:      &taken,
		})
		if err != nil {
			t.Fatalf("create session for %s: %v", sc.username, err)
		}
	}

	sessions, err := s.ListRoomSessions(ctx, room.ID)
	if err != nil {
		t.Fatalf("list room sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	// eve first on score, then mallory beats bob on time.
	if sessions[0].Score != 90 || sessions[1].Score != 60 || *sessions[1].TimeTaken != 50 {
		t.Fatalf("unexpected ordering: %+v", sessions)
	}
}

func TestLeaderboardUpsertKeepsBestTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "alice")

	first := 120.0
	if err := s.UpsertLeaderboard(ctx, user.ID, 80, 1, 80, &first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	worse := 200.0
	if err := s.UpsertLeaderboard(ctx, user.ID, 140, 2, 70, &worse); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	entries, err := s.GlobalLeaderboard(ctx, 10, 0)
	if err != nil {
		t.Fatalf("global leaderboard: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].TotalScore != 140 || entries[0].GamesPlayed != 2 {
		t.Fatalf("expected refreshed totals, got %+v", entries[0])
	}

	var bestTime float64
	row := s.db.QueryRow(`SELECT best_time FROM leaderboard WHERE user_id = ?`, user.ID)
	if err := row.Scan(&bestTime); err != nil {
		t.Fatalf("scan best_time: %v", err)
	}
	if bestTime != 120 {
		t.Fatalf("expected best_time to keep 120, got %f", bestTime)
	}
}

func TestGlobalLeaderboardRanksByScore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, u := range []struct {
		name  string
		score int
	}{{"bob", 50}, {"eve", 200}, {"alice", 120}} {
		user := seedUser(t, s, u.name)
		if err := s.UpsertLeaderboard(ctx, user.ID, u.score, 1, float64(u.score), nil); err != nil {
			t.Fatalf("upsert %s: %v", u.name, err)
		}
	}

	entries, err := s.GlobalLeaderboard(ctx, 10, 0)
	if err != nil {
		t.Fatalf("global leaderboard: %v", err)
	}

	want := []string{"eve", "alice", "bob"}
	for i, name := range want {
		if entries[i].Username != name || entries[i].Rank != i+1 {
			t.Fatalf("expected %s at rank %d, got %+v", name, i+1, entries[i])
		}
	}
}

func TestDocumentPatchAndViews(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	category := "history"
	doc, err := s.CreateDocument(ctx, &store.Document{
		Title:    "The First Quiz",
		Content:  "Long ago...",
		Category: &category,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if doc.Author != nil {
		t.Errorf("expected nil author, got %v", *doc.Author)
	}
	if !doc.IsPublished {
		t.Errorf("expected documents to default to published")
	}

	if err := s.IncrementViews(ctx, doc.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}

	newTitle := "The Second Quiz"
	unpublished := false
	doc, err = s.UpdateDocument(ctx, doc.ID, store.DocumentPatch{
		Title:       &newTitle,
		IsPublished: &unpublished,
	})
	if err != nil {
		t.Fatalf("update document: %v", err)
	}
	if doc.Title != newTitle || doc.IsPublished || doc.ViewsCount != 1 {
		t.Fatalf("unexpected document after patch: %+v", doc)
	}

	// Unpublished documents drop out of listings.
	docs, err := s.ListDocuments(ctx, nil, 20, 0)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no published documents, got %d", len(docs))
	}

	if err := s.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	if _, err := s.GetDocument(ctx, doc.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
