package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/store"
	"github.com/quizroom/quizroom-server/internal/utils"
)

// maxRoomCapacity caps how many players a room may be created for.
const maxRoomCapacity = 50

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store   store.Store
	log     *zerolog.Logger
	limiter *userRateLimiter
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, logger *zerolog.Logger, limiter *userRateLimiter) *RoomHandlers {
	return &RoomHandlers{
		store:   st,
		log:     logger,
		limiter: limiter,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	MaxPlayers int `json:"max_players"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID             int64  `json:"id"`
	RoomCode       string `json:"room_code"`
	Status         string `json:"status"`
	CurrentPlayers int    `json:"current_players"`
	MaxPlayers     int    `json:"max_players"`
	CreatedAt      string `json:"created_at"`
}

func roomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		ID:             room.ID,
		RoomCode:       room.RoomCode,
		Status:         string(room.Status),
		CurrentPlayers: room.CurrentPlayers,
		MaxPlayers:     room.MaxPlayers,
		CreatedAt:      room.CreatedAt.Format(time.RFC3339),
	}
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	if !h.limiter.allow(userID) {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests, please try again later"})
		return
	}

	// An absent or malformed body falls back to defaults.
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = CreateRoomRequest{}
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = 10
	}
	if maxPlayers > maxRoomCapacity {
		maxPlayers = maxRoomCapacity
	}

	ctx := c.Request.Context()

	// Room codes are short, so retry until one is free.
	roomCode := utils.NewRoomCode()
	for {
		exists, err := h.store.RoomCodeExists(ctx, roomCode)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to check room code")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		if !exists {
			break
		}
		roomCode = utils.NewRoomCode()
	}

	room, err := h.store.CreateRoom(ctx, roomCode, userID, maxPlayers)
	if err != nil {
		h.log.Error().Err(err).Str("room_code", roomCode).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().
		Str("room_code", room.RoomCode).
		Int64("creator_id", userID).
		Int("max_players", room.MaxPlayers).
		Msg("room created")
	c.JSON(http.StatusCreated, roomResponse(room))
}

// GetRoom handles fetching room details by code.
// GET /api/rooms/:code
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	room, ok := h.loadRoom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, roomResponse(room))
}

// JoinRoom handles joining an existing room.
// POST /api/rooms/:code/join
func (h *RoomHandlers) JoinRoom(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	room, ok := h.loadRoom(c)
	if !ok {
		return
	}

	if room.Status != store.RoomStatusWaiting {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is not accepting new players"})
		return
	}
	if room.CurrentPlayers >= room.MaxPlayers {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is full"})
		return
	}

	updated, err := h.store.AddPlayer(c.Request.Context(), room.ID)
	if err != nil {
		h.log.Error().Err(err).Str("room_code", room.RoomCode).Msg("failed to join room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined room successfully", "room": roomResponse(updated)})
}

// StartRoom handles starting the game in a room (creator only).
// POST /api/rooms/:code/start
func (h *RoomHandlers) StartRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	room, ok := h.loadRoom(c)
	if !ok {
		return
	}

	if room.CreatorID == nil || *room.CreatorID != userID {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only room creator can start the game"})
		return
	}
	if room.Status != store.RoomStatusWaiting {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room already started or finished"})
		return
	}

	updated, err := h.store.StartRoom(c.Request.Context(), room.ID)
	if err != nil {
		h.log.Error().Err(err).Str("room_code", room.RoomCode).Msg("failed to start room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_code", updated.RoomCode).Msg("game started in room")
	c.JSON(http.StatusOK, gin.H{"message": "game started", "room": roomResponse(updated)})
}

// LeaderboardEntryResponse is one ranked row in leaderboard responses.
type LeaderboardEntryResponse struct {
	Username     string  `json:"username"`
	TotalScore   int     `json:"total_score"`
	GamesPlayed  int     `json:"games_played"`
	AverageScore float64 `json:"average_score"`
	Rank         int     `json:"rank"`
}

// RoomLeaderboard returns the per-room standings from recorded sessions.
// GET /api/rooms/:code/leaderboard
func (h *RoomHandlers) RoomLeaderboard(c *gin.Context) {
	room, ok := h.loadRoom(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sessions, err := h.store.ListRoomSessions(ctx, room.ID)
	if err != nil {
		h.log.Error().Err(err).Str("room_code", room.RoomCode).Msg("failed to list room sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	entries := make([]LeaderboardEntryResponse, 0, len(sessions))
	for rank, session := range sessions {
		user, err := h.store.GetUserByID(ctx, session.UserID)
		if err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntryResponse{
			Username:     user.Username,
			TotalScore:   session.Score,
			GamesPlayed:  1,
			AverageScore: float64(session.Score),
			Rank:         rank + 1,
		})
	}

	c.JSON(http.StatusOK, entries)
}

// loadRoom fetches the room named by the :code param, normalized to
// upper case, writing the error response itself on failure.
func (h *RoomHandlers) loadRoom(c *gin.Context) (*store.Room, bool) {
	roomCode := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	room, err := h.store.GetRoomByCode(c.Request.Context(), roomCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return nil, false
		}
		h.log.Error().Err(err).Str("room_code", roomCode).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return nil, false
	}
	return room, true
}
