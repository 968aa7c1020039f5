package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/core"
)

// WSHandler upgrades HTTP connections and bridges them to the room
// registry: frames from the socket go through the event router, frames
// queued on the connection go back out. It is mounted on the plain
// net/http mux, not the gin engine, so Accept gets the raw
// ResponseWriter it needs to hijack the connection.
type WSHandler struct {
	registry   *core.Registry
	router     *core.Router
	sendBuffer int
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *core.Registry, router *core.Router, sendBuffer int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		registry:   registry,
		router:     router,
		sendBuffer: sendBuffer,
		log:        logger,
	}
}

// ServeHTTP serves GET /ws/room/{code}?username=<name>.
func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	roomCode := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(r.URL.Path, wsRoomPrefix)))
	if roomCode == "" || strings.Contains(roomCode, "/") {
		stdhttp.NotFound(w, r)
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		username = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("room_code", roomCode).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewConnBuffered(username, h.sendBuffer)
	h.registry.Connect(roomCode, client)
	defer h.registry.Disconnect(roomCode, client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, roomCode)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("room_code", roomCode).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Conn, roomCode string) error {
	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if err := h.router.Route(roomCode, frame); err != nil {
			h.log.Warn().Err(err).
				Str("room_code", roomCode).
				Str("conn_id", client.ID).
				Msg("dropping connection on bad frame")
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Conn) error {
	for {
		select {
		case payload, ok := <-client.Send:
			if !ok {
				return nil
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
