package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered player.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	PlayAttempts int
	TotalScore   int
	GamesPlayed  int
	IsActive     bool
	CreatedAt    time.Time
}

// RoomStatus is the durable lifecycle state of a room row. The live
// connection registry never reads or writes it.
type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"
	RoomStatusInProgress RoomStatus = "in_progress"
	RoomStatusFinished   RoomStatus = "finished"
)

// Room represents a multiplayer room row.
type Room struct {
	ID             int64
	RoomCode       string
	CreatorID      *int64
	Status         RoomStatus
	MaxPlayers     int
	CurrentPlayers int
	CreatedAt      time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
}

// GameMode distinguishes solo runs from multiplayer rounds.
type GameMode string

const (
	GameModeSinglePlayer GameMode = "single_player"
	GameModeMultiplayer  GameMode = "multiplayer"
)

// GameSession is one completed quiz run by one user.
type GameSession struct {
	ID             int64
	UserID         int64
	RoomID         *int64 // nil for single player
	Mode           GameMode
	Score          int
	CorrectAnswers int
	TotalQuestions int
	TimeTaken      *float64 // seconds
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// Document is reading material served alongside the quizzes.
type Document struct {
	ID           int64
	Title        string
	Content      string
	Author       *string
	Category     *string
	ThumbnailURL *string
	AudioURL     *string
	VideoURL     *string
	PDFURL       *string
	Tags         *string // comma-separated
	IsPublished  bool
	ViewsCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentPatch holds partial updates for a document. Nil fields are
// left untouched.
type DocumentPatch struct {
	Title        *string
	Content      *string
	Author       *string
	Category     *string
	ThumbnailURL *string
	AudioURL     *string
	VideoURL     *string
	PDFURL       *string
	Tags         *string
	IsPublished  *bool
}

// LeaderboardEntry is a user's cached aggregate standing.
type LeaderboardEntry struct {
	ID           int64
	UserID       int64
	TotalScore   int
	GamesPlayed  int
	AverageScore float64
	BestTime     *float64
	UpdatedAt    time.Time
}

// RankedEntry is one leaderboard row as served to clients.
type RankedEntry struct {
	Username     string
	TotalScore   int
	GamesPlayed  int
	AverageScore float64
	Rank         int
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash, fullName string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SetPlayAttempts overwrites a user's remaining play attempts.
	SetPlayAttempts(ctx context.Context, userID int64, attempts int) error

	// RecordGameResult adds score to the user's lifetime totals and
	// bumps games_played, returning the updated user.
	RecordGameResult(ctx context.Context, userID int64, score int) (*User, error)
}

// RoomStore handles durable room rows. Live membership is the
// registry's concern, not the store's.
type RoomStore interface {
	// CreateRoom creates a room in waiting status.
	CreateRoom(ctx context.Context, roomCode string, creatorID int64, maxPlayers int) (*Room, error)

	// GetRoomByCode retrieves a room by its join code.
	GetRoomByCode(ctx context.Context, roomCode string) (*Room, error)

	// RoomCodeExists reports whether a code is already taken.
	RoomCodeExists(ctx context.Context, roomCode string) (bool, error)

	// AddPlayer bumps the room's current player count.
	AddPlayer(ctx context.Context, roomID int64) (*Room, error)

	// StartRoom transitions a waiting room to in_progress.
	StartRoom(ctx context.Context, roomID int64) (*Room, error)
}

// SessionStore handles completed game sessions.
type SessionStore interface {
	// CreateSession records a completed game session.
	CreateSession(ctx context.Context, session *GameSession) (*GameSession, error)

	// ListUserSessions returns a user's sessions, newest first.
	ListUserSessions(ctx context.Context, userID int64, limit, offset int) ([]*GameSession, error)

	// ListRoomSessions returns a room's sessions ordered by score
	// descending, ties broken by time taken ascending.
	ListRoomSessions(ctx context.Context, roomID int64) ([]*GameSession, error)
}

// DocumentStore handles reading-material documents.
type DocumentStore interface {
	// CreateDocument stores a new document.
	CreateDocument(ctx context.Context, doc *Document) (*Document, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id int64) (*Document, error)

	// ListDocuments returns published documents, newest first,
	// optionally filtered by category.
	ListDocuments(ctx context.Context, category *string, limit, offset int) ([]*Document, error)

	// UpdateDocument applies a partial update and returns the result.
	UpdateDocument(ctx context.Context, id int64, patch DocumentPatch) (*Document, error)

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id int64) error

	// IncrementViews bumps a document's view counter.
	IncrementViews(ctx context.Context, id int64) error
}

// LeaderboardStore handles the cached global standings.
type LeaderboardStore interface {
	// UpsertLeaderboard refreshes a user's cached standing after a
	// game session. bestTime is only recorded when it improves on the
	// stored one.
	UpsertLeaderboard(ctx context.Context, userID int64, totalScore, gamesPlayed int, averageScore float64, bestTime *float64) error

	// GlobalLeaderboard returns ranked standings ordered by total
	// score descending, ties broken by best time ascending.
	GlobalLeaderboard(ctx context.Context, limit, offset int) ([]*RankedEntry, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	SessionStore
	DocumentStore
	LeaderboardStore

	// Close closes the underlying database connection.
	Close() error
}
