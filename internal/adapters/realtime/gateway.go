package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/domain"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteWait        = 10 * time.Second
	defaultPongWait         = 60 * time.Second
	maxFrameBytes           = 64 << 10
	getUsersLimit           = domain.MaxLimit
)

// Service is the slice of the application the gateway drives.
type Service interface {
	AuthenticateRealtime(ctx context.Context, token string) (application.RealtimeIdentity, error)
	PromoteToAdmin(ctx context.Context, actorID uuid.UUID, email string) (application.AccountView, error)
	ListAccounts(ctx context.Context, page domain.PageRequest) (domain.Page[application.AccountView], error)
}

type Config struct {
	// ClientURL restricts the Origin header when set.
	ClientURL        string
	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	PongWait         time.Duration
}

// Gateway is the admin realtime channel. Connections authenticate with their
// first frame, then join a room named after their account id.
type Gateway struct {
	service  Service
	presence *Presence
	rooms    *rooms
	upgrader websocket.Upgrader
	cfg      Config

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewGateway wires the gateway to service. presence is shared with the
// caller, which may inspect it.
func NewGateway(service Service, presence *Presence, cfg Config) *Gateway {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaultWriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaultPongWait
	}
	if presence == nil {
		presence = NewPresence()
	}
	g := &Gateway{
		service:  service,
		presence: presence,
		rooms:    newRooms(),
		cfg:      cfg,
	}
	g.upgrader = websocket.Upgrader{
		HandshakeTimeout: cfg.HandshakeTimeout,
		CheckOrigin:      g.checkOrigin,
	}
	return g
}

func (g *Gateway) Presence() *Presence {
	return g.presence
}

// Emit queues an event for every connection in room.
func (g *Gateway) Emit(room, event string, data any) int {
	return g.rooms.emit(room, encodeEvent(event, data))
}

// Wait blocks until every connection handler has returned.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

// track registers a connection handler unless Shutdown has started.
func (g *Gateway) track() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	return true
}

func (g *Gateway) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Shutdown refuses new connections, closes admitted ones and waits for
// their handlers, or for ctx.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.rooms.closeAll()
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	if g.cfg.ClientURL == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	want, err := url.Parse(g.cfg.ClientURL)
	if err != nil {
		return false
	}
	got, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(want.Scheme, got.Scheme) && strings.EqualFold(want.Host, got.Host)
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		realtimeLogger().WarnContext(r.Context(), "websocket upgrade failed",
			"operation", "ws_upgrade",
			"outcome", "failure",
			"error", err,
		)
		return
	}
	if !g.track() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(g.cfg.WriteWait))
		_ = conn.Close()
		return
	}
	defer g.wg.Done()

	conn.SetReadLimit(maxFrameBytes)
	identity, ok := g.handshake(r.Context(), conn)
	if !ok {
		return
	}
	g.serve(r.Context(), conn, identity)
}

// handshake reads the auth frame and admits or rejects the connection.
// On rejection the connection is already closed when it returns.
func (g *Gateway) handshake(ctx context.Context, conn *websocket.Conn) (application.RealtimeIdentity, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(g.cfg.HandshakeTimeout))

	var frame inboundFrame
	if err := conn.ReadJSON(&frame); err != nil || frame.Event != eventAuth {
		g.reject(ctx, conn, "", "missing auth frame")
		return application.RealtimeIdentity{}, false
	}
	var auth authData
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &auth); err != nil {
			g.reject(ctx, conn, "", "malformed auth frame")
			return application.RealtimeIdentity{}, false
		}
	}

	identity, err := g.service.AuthenticateRealtime(ctx, strings.TrimSpace(auth.Token))
	switch {
	case err == nil:
		return identity, true
	case errors.Is(err, domain.ErrTokenExpired):
		g.reject(ctx, conn, msgTokenExpired, "token expired")
	case errors.Is(err, domain.ErrForbidden):
		g.reject(ctx, conn, msgUnauthorized, "role not admitted")
	case errors.Is(err, domain.ErrNotFound):
		g.reject(ctx, conn, msgUserNotFound, "account not found")
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		g.reject(ctx, conn, "", "invalid token")
	default:
		realtimeLogger().ErrorContext(ctx, "realtime authentication failed",
			"operation", "ws_handshake",
			"outcome", "failure",
			"error", err,
		)
		g.reject(ctx, conn, "", "internal error")
	}
	return application.RealtimeIdentity{}, false
}

// reject emits an error event when message is set, then closes.
func (g *Gateway) reject(ctx context.Context, conn *websocket.Conn, message, reason string) {
	realtimeLogger().InfoContext(ctx, "realtime handshake rejected",
		"operation", "ws_handshake",
		"outcome", "rejected",
		"reason", reason,
	)
	deadline := time.Now().Add(g.cfg.WriteWait)
	_ = conn.SetWriteDeadline(deadline)
	if message != "" {
		_ = conn.WriteMessage(websocket.TextMessage, encodeEvent(eventError, message))
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	_ = conn.Close()
}

func (g *Gateway) serve(ctx context.Context, conn *websocket.Conn, identity application.RealtimeIdentity) {
	c := newClient(conn, identity.AccountID, identity.Username)
	g.rooms.join(c.room(), c)
	if g.isClosed() {
		g.rooms.leave(c.room(), c)
		_ = conn.Close()
		return
	}
	g.presence.Add(c.accountID, c.id)

	go c.writePump(g.cfg.WriteWait, g.cfg.PongWait*9/10)

	logger := realtimeLogger().With("user_id", c.accountID, "conn_id", c.id)
	logger.InfoContext(ctx, "realtime connection admitted",
		"operation", "ws_handshake",
		"outcome", "success",
		"username", c.username,
	)

	defer func() {
		g.rooms.leave(c.room(), c)
		g.presence.Remove(c.accountID, c.id)
		close(c.send)
		<-c.done
		logger.InfoContext(ctx, "realtime connection closed",
			"operation", "ws_disconnect",
			"outcome", "success",
		)
	}()

	c.reply(encodeEvent(eventAuthenticated, map[string]any{
		"_id":      c.accountID,
		"username": c.username,
	}))

	_ = conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	})

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnContext(ctx, "realtime read failed",
					"operation", "ws_read",
					"outcome", "failure",
					"error", err,
				)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
		if !c.reply(g.dispatch(ctx, c, frame)) {
			return
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, c *client, frame inboundFrame) []byte {
	switch frame.Event {
	case eventUpgradeUser:
		return g.upgradeUser(ctx, c, frame)
	case eventGetUsers:
		return g.getUsers(ctx, frame)
	default:
		return encodeAck(frame.ID, msgAckUnknown, nil)
	}
}

func (g *Gateway) upgradeUser(ctx context.Context, c *client, frame inboundFrame) []byte {
	var data upgradeUserData
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return encodeAck(frame.ID, msgAckNotFound, nil)
		}
	}

	promoted, err := g.service.PromoteToAdmin(ctx, c.accountID, data.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return encodeAck(frame.ID, msgAckNotFound, nil)
		}
		realtimeLogger().ErrorContext(ctx, "upgrade user failed",
			"operation", "ws_upgrade_user",
			"outcome", "failure",
			"actor_id", c.accountID,
			"error", err,
		)
		return encodeAck(frame.ID, msgAckInternal, nil)
	}

	g.Emit(promoted.ID.String(), eventRoleUpdated, map[string]any{
		"_id":      promoted.ID,
		"userRole": promoted.Role,
	})
	return encodeAck(frame.ID, "", msgUserUpgraded)
}

func (g *Gateway) getUsers(ctx context.Context, frame inboundFrame) []byte {
	page, err := domain.NewPageRequest(domain.DefaultPage, getUsersLimit)
	if err != nil {
		return encodeAck(frame.ID, msgAckInternal, nil)
	}
	accounts, err := g.service.ListAccounts(ctx, page)
	if err != nil {
		realtimeLogger().ErrorContext(ctx, "get users failed",
			"operation", "ws_get_users",
			"outcome", "failure",
			"error", err,
		)
		return encodeAck(frame.ID, msgAckInternal, nil)
	}
	return encodeAck(frame.ID, "", accounts.Docs)
}
