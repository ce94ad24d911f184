package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/branch-scheduler/internal/middleware"
	"github.com/iliyamo/branch-scheduler/internal/service"
)

// eventTimeout bounds the store calls made while handling one event.
const eventTimeout = 5 * time.Second

// Handler upgrades authenticated requests to websockets and dispatches
// their inbound events to the Router.
type Handler struct {
	auth     *Authenticator
	registry *Registry
	router   *Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler builds the /ws endpoint.  checkOrigin may be nil to accept
// every origin.
func NewHandler(auth *Authenticator, registry *Registry, router *Router, checkOrigin func(*http.Request) bool, logger *slog.Logger) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:     auth,
		registry: registry,
		router:   router,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      checkOrigin,
		},
		logger: logger.With("component", "ws"),
	}
}

// Serve authenticates the handshake and, only on success, upgrades the
// connection, joins its rooms and runs the read loop until the peer
// disconnects.  The token is read from `Authorization: Bearer` or the
// `token` query parameter.
func (h *Handler) Serve(c echo.Context) error {
	req := c.Request()
	token := middleware.BearerToken(req)
	if token == "" {
		token = c.QueryParam("token")
	}
	user, err := h.auth.Authenticate(req.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required", "code": "unauthenticated"})
		}
		h.logger.ErrorContext(req.Context(), "handshake failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		// The upgrader has already written an HTTP error.
		h.logger.WarnContext(req.Context(), "websocket upgrade failed", "error", err)
		return nil
	}
	conn := NewConnection(ws, user.ID, user.Role)
	rooms := h.registry.OnConnect(conn, user.ID, user.Role)
	logger := h.logger.With("conn_id", conn.ID(), "user_id", user.ID)
	logger.Info("connected", "rooms", rooms)
	defer func() {
		h.registry.OnDisconnect(conn)
		_ = conn.Close()
		logger.Info("disconnected")
	}()

	err = conn.readLoop(func(data []byte) { h.dispatch(conn, data) })
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		logger.Warn("read loop ended", "error", err)
	}
	return nil
}

// dispatch handles one inbound frame.  Failures are reported only to
// the originating connection.
func (h *Handler) dispatch(conn *Connection, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if err := h.handleEvent(ctx, conn, data); err != nil {
		if errorCode(err) == "internal" {
			h.logger.ErrorContext(ctx, "event failed", "conn_id", conn.ID(), "error", err)
		}
		h.sendError(conn, err)
	}
}

func (h *Handler) handleEvent(ctx context.Context, conn *Connection, data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errBadPayload
	}
	switch env.Event {
	case EventDirectMessage:
		var in DirectIn
		if err := json.Unmarshal(env.Data, &in); err != nil || in.ToUserID == 0 {
			return errBadPayload
		}
		_, err := h.router.SendDirect(ctx, conn.UserID(), in.ToUserID, in.Message)
		return err
	case EventBroadcast:
		var in BroadcastIn
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return errBadPayload
		}
		_, err := h.router.SendBroadcast(ctx, conn.UserID(), conn.Role(), in.Message)
		return err
	}
	return errUnknownEvent
}

func (h *Handler) sendError(conn *Connection, err error) {
	out := ErrorOut{Code: errorCode(err), Message: err.Error()}
	if out.Code == "internal" {
		out.Message = "internal error"
	}
	payload, encErr := encode(EventError, out)
	if encErr != nil {
		return
	}
	_ = conn.Send(payload)
}
