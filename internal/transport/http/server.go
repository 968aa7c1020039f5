package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/auth"
	"github.com/quizroom/quizroom-server/internal/config"
	"github.com/quizroom/quizroom-server/internal/core"
	"github.com/quizroom/quizroom-server/internal/store"
)

// wsRoomPrefix is where the room socket lives on the plain mux.
const wsRoomPrefix = "/ws/room/"

// NewServer builds the HTTP server: the room socket on a plain mux,
// the REST API on a gin engine behind it. The socket cannot go through
// gin because websocket.Accept has to hijack the raw ResponseWriter,
// and gin's wrapper refuses to hijack once the handshake is written.
func NewServer(registry *core.Registry, router *core.Router, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, st, logger)
	rooms := NewRoomHandlers(st, logger, newUserRateLimiter(cfg.RoomCreatesPerMinute))
	sessions := NewSessionHandlers(st, logger)
	docs := NewDocumentHandlers(st, logger)

	engine.GET("/health", healthHandler)

	apiGroup := engine.Group("/api")
	{
		apiGroup.POST("/register", api.Register)
		apiGroup.POST("/login", api.Login)
		apiGroup.GET("/rooms/:code", rooms.GetRoom)
		apiGroup.GET("/rooms/:code/leaderboard", rooms.RoomLeaderboard)
		apiGroup.GET("/leaderboard/global", sessions.GlobalLeaderboard)
		apiGroup.GET("/documents", docs.List)
		apiGroup.GET("/documents/:id", docs.Get)

		authed := apiGroup.Group("")
		authed.Use(AuthMiddleware(authService, logger))
		{
			authed.GET("/users/me", api.Me)
			authed.PATCH("/users/me/play-attempts", api.UpdatePlayAttempts)
			authed.POST("/rooms", rooms.CreateRoom)
			authed.POST("/rooms/:code/join", rooms.JoinRoom)
			authed.POST("/rooms/:code/start", rooms.StartRoom)
			authed.POST("/game-sessions", sessions.CreateSession)
			authed.GET("/game-sessions/my-history", sessions.MyHistory)
			authed.POST("/documents", docs.Create)
			authed.PATCH("/documents/:id", docs.Update)
			authed.DELETE("/documents/:id", docs.Delete)
		}
	}

	mux := stdhttp.NewServeMux()
	mux.Handle(wsRoomPrefix, NewWSHandler(registry, router, cfg.SendBuffer, logger))
	mux.Handle("/", engine)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "healthy"})
}
