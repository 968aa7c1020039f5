package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quizroom/quizroom-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL DEFAULT '',
	play_attempts INTEGER NOT NULL DEFAULT 5,
	total_score   INTEGER NOT NULL DEFAULT 0,
	games_played  INTEGER NOT NULL DEFAULT 0,
	is_active     BOOLEAN NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	room_code       TEXT NOT NULL UNIQUE,
	creator_id      INTEGER,
	status          TEXT NOT NULL DEFAULT 'waiting',
	max_players     INTEGER NOT NULL DEFAULT 10,
	current_players INTEGER NOT NULL DEFAULT 1,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	started_at      DATETIME,
	finished_at     DATETIME,
	FOREIGN KEY (creator_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS game_sessions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id         INTEGER NOT NULL,
	room_id         INTEGER,
	mode            TEXT NOT NULL,
	score           INTEGER NOT NULL DEFAULT 0,
	correct_answers INTEGER NOT NULL DEFAULT 0,
	total_questions INTEGER NOT NULL DEFAULT 10,
	time_taken      REAL,
	started_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at    DATETIME,
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (room_id) REFERENCES rooms(id)
);

CREATE TABLE IF NOT EXISTS documents (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	title         TEXT NOT NULL,
	content       TEXT NOT NULL,
	author        TEXT,
	category      TEXT,
	thumbnail_url TEXT,
	audio_url     TEXT,
	video_url     TEXT,
	pdf_url       TEXT,
	tags          TEXT,
	is_published  BOOLEAN NOT NULL DEFAULT 1,
	views_count   INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS leaderboard (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       INTEGER NOT NULL UNIQUE,
	total_score   INTEGER NOT NULL DEFAULT 0,
	games_played  INTEGER NOT NULL DEFAULT 0,
	average_score REAL NOT NULL DEFAULT 0,
	best_time     REAL,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_sessions_user ON game_sessions(user_id, completed_at DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_room ON game_sessions(room_id, score DESC);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category, created_at DESC);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function
// after the schema is applied. Useful for tests to seed fixture rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}

	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

const userColumns = `id, username, email, password_hash, full_name, play_attempts, total_score, games_played, is_active, created_at`

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.PlayAttempts,
		&user.TotalScore,
		&user.GamesPlayed,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash, fullName string) (*store.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, full_name)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, email, passwordHash, fullName)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// SetPlayAttempts overwrites a user's remaining play attempts.
func (s *SQLiteStore) SetPlayAttempts(ctx context.Context, userID int64, attempts int) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET play_attempts = ? WHERE id = ?`, attempts, userID)
	if err != nil {
		return fmt.Errorf("update play attempts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RecordGameResult adds score to the user's lifetime totals.
func (s *SQLiteStore) RecordGameResult(ctx context.Context, userID int64, score int) (*store.User, error) {
	query := `
		UPDATE users
		SET total_score = total_score + ?, games_played = games_played + 1
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, score, userID)
	if err != nil {
		return nil, fmt.Errorf("update user totals: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUserByID(ctx, userID)
}

// ==== RoomStore implementation ====

const roomColumns = `id, room_code, creator_id, status, max_players, current_players, created_at, started_at, finished_at`

func (s *SQLiteStore) scanRoom(row *sql.Row) (*store.Room, error) {
	var (
		room       store.Room
		creatorID  sql.NullInt64
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)
	err := row.Scan(
		&room.ID,
		&room.RoomCode,
		&creatorID,
		&room.Status,
		&room.MaxPlayers,
		&room.CurrentPlayers,
		&room.CreatedAt,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan room: %w", err)
	}
	if creatorID.Valid {
		room.CreatorID = &creatorID.Int64
	}
	if startedAt.Valid {
		room.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		room.FinishedAt = &finishedAt.Time
	}
	return &room, nil
}

// CreateRoom creates a room in waiting status.
func (s *SQLiteStore) CreateRoom(ctx context.Context, roomCode string, creatorID int64, maxPlayers int) (*store.Room, error) {
	query := `
		INSERT INTO rooms (room_code, creator_id, status, max_players)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, roomCode, creatorID, store.RoomStatusWaiting, maxPlayers)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getRoomByID(ctx, id)
}

func (s *SQLiteStore) getRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	return s.scanRoom(s.db.QueryRowContext(ctx, query, id))
}

// GetRoomByCode retrieves a room by its join code.
func (s *SQLiteStore) GetRoomByCode(ctx context.Context, roomCode string) (*store.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE room_code = ?`
	return s.scanRoom(s.db.QueryRowContext(ctx, query, roomCode))
}

// RoomCodeExists reports whether a code is already taken.
func (s *SQLiteStore) RoomCodeExists(ctx context.Context, roomCode string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM rooms WHERE room_code = ?`, roomCode).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count room code: %w", err)
	}
	return count > 0, nil
}

// AddPlayer bumps the room's current player count.
func (s *SQLiteStore) AddPlayer(ctx context.Context, roomID int64) (*store.Room, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE rooms SET current_players = current_players + 1 WHERE id = ?`, roomID)
	if err != nil {
		return nil, fmt.Errorf("update player count: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.getRoomByID(ctx, roomID)
}

// StartRoom transitions a waiting room to in_progress.
func (s *SQLiteStore) StartRoom(ctx context.Context, roomID int64) (*store.Room, error) {
	query := `
		UPDATE rooms
		SET status = ?, started_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, store.RoomStatusInProgress, roomID)
	if err != nil {
		return nil, fmt.Errorf("update room status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.getRoomByID(ctx, roomID)
}
