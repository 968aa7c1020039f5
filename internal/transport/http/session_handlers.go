package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/store"
)

// SessionHandlers provides HTTP handlers for game session endpoints.
type SessionHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewSessionHandlers creates a new session handlers instance.
func NewSessionHandlers(st store.Store, logger *zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{
		store: st,
		log:   logger,
	}
}

// CreateSessionRequest represents a completed game session submission.
type CreateSessionRequest struct {
	Mode           string   `json:"mode" binding:"required"`
	RoomID         *int64   `json:"room_id"`
	Score          int      `json:"score"`
	CorrectAnswers int      `json:"correct_answers"`
	TotalQuestions int      `json:"total_questions"`
	TimeTaken      *float64 `json:"time_taken"`
}

// SessionResponse represents a game session in API responses.
type SessionResponse struct {
	ID             int64    `json:"id"`
	Score          int      `json:"score"`
	CorrectAnswers int      `json:"correct_answers"`
	TotalQuestions int      `json:"total_questions"`
	Mode           string   `json:"mode"`
	TimeTaken      *float64 `json:"time_taken"`
	CompletedAt    *string  `json:"completed_at"`
}

func sessionResponse(session *store.GameSession) SessionResponse {
	resp := SessionResponse{
		ID:             session.ID,
		Score:          session.Score,
		CorrectAnswers: session.CorrectAnswers,
		TotalQuestions: session.TotalQuestions,
		Mode:           string(session.Mode),
		TimeTaken:      session.TimeTaken,
	}
	if session.CompletedAt != nil {
		completed := session.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	return resp
}

// CreateSession records a completed game session, charges a play
// attempt for solo games, and refreshes the user's leaderboard row.
// POST /api/game-sessions
func (h *SessionHandlers) CreateSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	mode := store.GameMode(req.Mode)
	if mode != store.GameModeSinglePlayer && mode != store.GameModeMultiplayer {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game mode"})
		return
	}

	ctx := c.Request.Context()

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// Solo runs consume a play attempt.
	if mode == store.GameModeSinglePlayer {
		if user.PlayAttempts <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no play attempts remaining"})
			return
		}
		if err := h.store.SetPlayAttempts(ctx, userID, user.PlayAttempts-1); err != nil {
			h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to charge play attempt")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
	}

	totalQuestions := req.TotalQuestions
	if totalQuestions <= 0 {
		totalQuestions = 10
	}

	session, err := h.store.CreateSession(ctx, &store.GameSession{
		UserID:         userID,
		RoomID:         req.RoomID,
		Mode:           mode,
		Score:          req.Score,
		CorrectAnswers: req.CorrectAnswers,
		TotalQuestions: totalQuestions,
		TimeTaken:      req.TimeTaken,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to create session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	user, err = h.store.RecordGameResult(ctx, userID, req.Score)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to update user totals")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	average := float64(user.TotalScore) / float64(user.GamesPlayed)
	if err := h.store.UpsertLeaderboard(ctx, userID, user.TotalScore, user.GamesPlayed, average, req.TimeTaken); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to refresh leaderboard")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(session))
}

// MyHistory returns the current user's sessions, newest first.
// GET /api/game-sessions/my-history
func (h *SessionHandlers) MyHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	skip := intQuery(c, "skip", 0)
	limit := intQuery(c, "limit", 20)

	sessions, err := h.store.ListUserSessions(c.Request.Context(), userID, limit, skip)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, sessionResponse(session))
	}
	c.JSON(http.StatusOK, response)
}

// GlobalLeaderboard returns the cached global standings.
// GET /api/leaderboard/global
func (h *SessionHandlers) GlobalLeaderboard(c *gin.Context) {
	skip := intQuery(c, "skip", 0)
	limit := intQuery(c, "limit", 100)

	entries, err := h.store.GlobalLeaderboard(c.Request.Context(), limit, skip)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load global leaderboard")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]LeaderboardEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, LeaderboardEntryResponse{
			Username:     entry.Username,
			TotalScore:   entry.TotalScore,
			GamesPlayed:  entry.GamesPlayed,
			AverageScore: entry.AverageScore,
			Rank:         entry.Rank,
		})
	}
	c.JSON(http.StatusOK, response)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
