package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/quizroom/quizroom-server/internal/store"
)

// ==== SessionStore implementation ====

const sessionColumns = `id, user_id, room_id, mode, score, correct_answers, total_questions, time_taken, started_at, completed_at`

func scanSession(scan func(dest ...any) error) (*store.GameSession, error) {
	var (
		session     store.GameSession
		roomID      sql.NullInt64
		timeTaken   sql.NullFloat64
		completedAt sql.NullTime
	)
	err := scan(
		&session.ID,
		&session.UserID,
		&roomID,
		&session.Mode,
		&session.Score,
		&session.CorrectAnswers,
		&session.TotalQuestions,
		&timeTaken,
		&session.StartedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if roomID.Valid {
		session.RoomID = &roomID.Int64
	}
	if timeTaken.Valid {
		session.TimeTaken = &timeTaken.Float64
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}
	return &session, nil
}

// CreateSession records a completed game session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *store.GameSession) (*store.GameSession, error) {
	query := `
		INSERT INTO game_sessions (user_id, room_id, mode, score, correct_answers, total_questions, time_taken, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	var roomID any
	if session.RoomID != nil {
		roomID = *session.RoomID
	}
	var timeTaken any
	if session.TimeTaken != nil {
		timeTaken = *session.TimeTaken
	}

	result, err := s.db.ExecContext(ctx, query,
		session.UserID,
		roomID,
		session.Mode,
		session.Score,
		session.CorrectAnswers,
		session.TotalQuestions,
		timeTaken,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = ?`, id)
	return scanSession(row.Scan)
}

// ListUserSessions returns a user's sessions, newest first.
func (s *SQLiteStore) ListUserSessions(ctx context.Context, userID int64, limit, offset int) ([]*store.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE user_id = ?
		ORDER BY completed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows)
}

// ListRoomSessions returns a room's sessions ordered by score descending.
func (s *SQLiteStore) ListRoomSessions(ctx context.Context, roomID int64) ([]*store.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE room_id = ?
		ORDER BY score DESC, time_taken ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query room sessions: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows)
}

func collectSessions(rows *sql.Rows) ([]*store.GameSession, error) {
	sessions := make([]*store.GameSession, 0)
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ==== DocumentStore implementation ====

const documentColumns = `id, title, content, author, category, thumbnail_url, audio_url, video_url, pdf_url, tags, is_published, views_count, created_at, updated_at`

func scanDocument(scan func(dest ...any) error) (*store.Document, error) {
	var (
		doc       store.Document
		author    sql.NullString
		category  sql.NullString
		thumbnail sql.NullString
		audio     sql.NullString
		video     sql.NullString
		pdf       sql.NullString
		tags      sql.NullString
	)
	err := scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&author,
		&category,
		&thumbnail,
		&audio,
		&video,
		&pdf,
		&tags,
		&doc.IsPublished,
		&doc.ViewsCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.Author = nullString(author)
	doc.Category = nullString(category)
	doc.ThumbnailURL = nullString(thumbnail)
	doc.AudioURL = nullString(audio)
	doc.VideoURL = nullString(video)
	doc.PDFURL = nullString(pdf)
	doc.Tags = nullString(tags)
	return &doc, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func stringArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// CreateDocument stores a new document.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *store.Document) (*store.Document, error) {
	query := `
		INSERT INTO documents (title, content, author, category, thumbnail_url, audio_url, video_url, pdf_url, tags, is_published)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		doc.Title,
		doc.Content,
		stringArg(doc.Author),
		stringArg(doc.Category),
		stringArg(doc.ThumbnailURL),
		stringArg(doc.AudioURL),
		stringArg(doc.VideoURL),
		stringArg(doc.PDFURL),
		stringArg(doc.Tags),
		doc.IsPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetDocument(ctx, id)
}

// GetDocument retrieves a document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, id int64) (*store.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row.Scan)
}

// ListDocuments returns published documents, newest first.
func (s *SQLiteStore) ListDocuments(ctx context.Context, category *string, limit, offset int) ([]*store.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE is_published = 1`
	args := []any{}
	if category != nil {
		query += ` AND category = ?`
		args = append(args, *category)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*store.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// UpdateDocument applies a partial update and returns the result.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, id int64, patch store.DocumentPatch) (*store.Document, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}

	addString := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *v)
		}
	}
	addString("title", patch.Title)
	addString("content", patch.Content)
	addString("author", patch.Author)
	addString("category", patch.Category)
	addString("thumbnail_url", patch.ThumbnailURL)
	addString("audio_url", patch.AudioURL)
	addString("video_url", patch.VideoURL)
	addString("pdf_url", patch.PDFURL)
	addString("tags", patch.Tags)
	if patch.IsPublished != nil {
		sets = append(sets, "is_published = ?")
		args = append(args, *patch.IsPublished)
	}

	query := `UPDATE documents SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetDocument(ctx, id)
}

// DeleteDocument removes a document.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
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

// IncrementViews bumps a document's view counter.
func (s *SQLiteStore) IncrementViews(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE documents SET views_count = views_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
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

// ==== LeaderboardStore implementation ====

// UpsertLeaderboard refreshes a user's cached standing.
func (s *SQLiteStore) UpsertLeaderboard(ctx context.Context, userID int64, totalScore, gamesPlayed int, averageScore float64, bestTime *float64) error {
	query := `
		INSERT INTO leaderboard (user_id, total_score, games_played, average_score, best_time, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			total_score   = excluded.total_score,
			games_played  = excluded.games_played,
			average_score = excluded.average_score,
			best_time     = CASE
				WHEN excluded.best_time IS NOT NULL
					AND (leaderboard.best_time IS NULL OR excluded.best_time < leaderboard.best_time)
				THEN excluded.best_time
				ELSE leaderboard.best_time
			END,
			updated_at    = CURRENT_TIMESTAMP
	`
	var best any
	if bestTime != nil {
		best = *bestTime
	}
	if _, err := s.db.ExecContext(ctx, query, userID, totalScore, gamesPlayed, averageScore, best); err != nil {
		return fmt.Errorf("upsert leaderboard: %w", err)
	}
	return nil
}

// GlobalLeaderboard returns ranked standings.
func (s *SQLiteStore) GlobalLeaderboard(ctx context.Context, limit, offset int) ([]*store.RankedEntry, error) {
	query := `
		SELECT u.username, l.total_score, l.games_played, l.average_score
		FROM leaderboard l
		JOIN users u ON u.id = l.user_id
		ORDER BY l.total_score DESC, l.best_time ASC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]*store.RankedEntry, 0)
	rank := offset
	for rows.Next() {
		var entry store.RankedEntry
		if err := rows.Scan(&entry.Username, &entry.TotalScore, &entry.GamesPlayed, &entry.AverageScore); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		rank++
		entry.Rank = rank
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}
