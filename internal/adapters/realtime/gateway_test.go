package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkrest1/content-management-system-api/internal/adapters/memory"
	"github.com/dkrest1/content-management-system-api/internal/adapters/security"
	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

const sessionSecret = "session-secret"

type gatewayEnv struct {
	service  *application.Service
	repos    memory.Repositories
	presence *Presence
	gateway  *Gateway
	url      string
}

func newGatewayEnv(t *testing.T) *gatewayEnv {
	t.Helper()
	repos := memory.NewRepositories(memory.NewStore())
	tokens, err := security.NewJWTService(
		security.TokenKeyConfig{Secret: sessionSecret, TTL: time.Hour},
		security.TokenKeyConfig{Secret: "reset-secret", TTL: 10 * time.Minute},
	)
	require.NoError(t, err)
	svc, err := application.NewService(application.Dependencies{
		Accounts:   repos.Accounts,
		Categories: repos.Categories,
		Posts:      repos.Posts,
		Outbox:     repos.Outbox,
		Lockouts:   memory.NewLockoutStore(),
		Hasher:     security.NewBcryptHasher(bcrypt.MinCost),
		Tokens:     tokens,
	})
	require.NoError(t, err)

	presence := NewPresence()
	gateway := NewGateway(svc, presence, Config{HandshakeTimeout: 2 * time.Second})
	srv := httptest.NewServer(gateway)
	t.Cleanup(func() {
		srv.Close()
		gateway.Wait()
	})

	return &gatewayEnv{
		service:  svc,
		repos:    repos,
		presence: presence,
		gateway:  gateway,
		url:      "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (e *gatewayEnv) account(t *testing.T, username, email string, admin bool) application.AccountView {
	t.Helper()
	ctx := context.Background()
	view, err := e.service.SignUp(ctx, application.SignUpRequest{Username: username, Email: email, Password: "pw123456"})
	require.NoError(t, err)
	if admin {
		view, err = e.service.PromoteToAdmin(ctx, view.ID, email)
		require.NoError(t, err)
	}
	return view
}

func tokenFor(t *testing.T, view application.AccountView, ttl time.Duration) string {
	t.Helper()
	token, _, err := security.IssueToken(ports.TokenKindSession, ports.TokenClaims{
		Subject: view.ID,
		Email:   view.Email,
		Role:    domain.Role(view.Role),
	}, sessionSecret, ttl)
	require.NoError(t, err)
	return token
}

func (e *gatewayEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": "auth",
		"data":  map[string]string{"token": token},
	}))
	return conn
}

type received struct {
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Error *string         `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame received
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func requireClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "unexpected error: %v", err)
}

func requireErrorEvent(t *testing.T, conn *websocket.Conn, message string) {
	t.Helper()
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Event)
	var got string
	require.NoError(t, json.Unmarshal(frame.Data, &got))
	assert.Equal(t, message, got)
	requireClosed(t, conn)
}

func TestHandshakeRejections(t *testing.T) {
	t.Parallel()

	env := newGatewayEnv(t)
	admin := env.account(t, "rooted", "root@x.com", true)
	user := env.account(t, "alice", "a@x.com", false)

	t.Run("expired token", func(t *testing.T) {
		conn := env.dial(t, tokenFor(t, admin, -time.Minute))
		requireErrorEvent(t, conn, "Token expired")
	})

	t.Run("non admin", func(t *testing.T) {
		conn := env.dial(t, tokenFor(t, user, time.Hour))
		requireErrorEvent(t, conn, "Unauthorized")
	})

	t.Run("garbage token closes without event", func(t *testing.T) {
		conn := env.dial(t, "not-a-token")
		requireClosed(t, conn)
	})

	t.Run("deleted admin", func(t *testing.T) {
		ghost := env.account(t, "ghosty", "ghost@x.com", true)
		token := tokenFor(t, ghost, time.Hour)
		require.NoError(t, env.service.DeleteAccount(context.Background(), ghost.ID))
		conn := env.dial(t, token)
		requireErrorEvent(t, conn, "User not found")
	})

	assert.Zero(t, env.presence.Len())
}

func TestNonAdminRejectedBeforeLookup(t *testing.T) {
	t.Parallel()

	env := newGatewayEnv(t)
	user := env.account(t, "alice", "a@x.com", false)
	token := tokenFor(t, user, time.Hour)
	// The account is gone, yet the role check answers first.
	require.NoError(t, env.service.DeleteAccount(context.Background(), user.ID))

	conn := env.dial(t, token)
	requireErrorEvent(t, conn, "Unauthorized")
}

func TestAdminCommands(t *testing.T) {
	t.Parallel()

	env := newGatewayEnv(t)
	admin := env.account(t, "rooted", "root@x.com", true)
	other := env.account(t, "second", "second@x.com", true)
	env.account(t, "alice", "a@x.com", false)

	conn := env.dial(t, tokenFor(t, admin, time.Hour))
	hello := readFrame(t, conn)
	require.Equal(t, "authenticated", hello.Event)

	connID, ok := env.presence.Lookup(admin.ID)
	require.True(t, ok)
	assert.NotEmpty(t, connID)

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "get-users", "id": "1"}))
	ack := readFrame(t, conn)
	require.Equal(t, "ack", ack.Event)
	assert.Equal(t, "1", ack.ID)
	assert.Nil(t, ack.Error)
	var users []application.AccountView
	require.NoError(t, json.Unmarshal(ack.Data, &users))
	assert.Len(t, users, 3)
	assert.NotContains(t, string(ack.Data), "password")

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "upgrade-user", "id": "2", "data": map[string]string{"email": "a@x.com"}}))
	ack = readFrame(t, conn)
	require.Nil(t, ack.Error)
	var msg string
	require.NoError(t, json.Unmarshal(ack.Data, &msg))
	assert.Equal(t, "User upgraded to admin", msg)

	promoted, err := env.repos.Accounts.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "upgrade-user", "id": "3", "data": map[string]string{"email": "nobody@x.com"}}))
	ack = readFrame(t, conn)
	require.NotNil(t, ack.Error)
	assert.Equal(t, "user not found", *ack.Error)
	assert.Equal(t, "null", string(ack.Data))

	// role-updated goes to the promoted account's room only.
	peer := env.dial(t, tokenFor(t, other, time.Hour))
	require.Equal(t, "authenticated", readFrame(t, peer).Event)
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "upgrade-user", "id": "4", "data": map[string]string{"email": "second@x.com"}}))
	assert.Equal(t, "ack", readFrame(t, conn).Event)
	assert.Equal(t, "role-updated", readFrame(t, peer).Event)
}

func TestCommandBurstIsFullyAcknowledged(t *testing.T) {
	t.Parallel()

	env := newGatewayEnv(t)
	admin := env.account(t, "rooted", "root@x.com", true)
	for i := 0; i < 5; i++ {
		env.account(t, fmt.Sprintf("member%d", i), fmt.Sprintf("m%d@x.com", i), false)
	}

	conn := env.dial(t, tokenFor(t, admin, time.Hour))
	require.Equal(t, "authenticated", readFrame(t, conn).Event)

	const burst = 200
	for i := 0; i < burst; i++ {
		require.NoError(t, conn.WriteJSON(map[string]any{"event": "get-users", "id": strconv.Itoa(i)}))
	}

	seen := make(map[string]bool, burst)
	for len(seen) < burst {
		frame := readFrame(t, conn)
		require.Equal(t, "ack", frame.Event)
		require.Nil(t, frame.Error)
		require.False(t, seen[frame.ID], "duplicate ack %s", frame.ID)
		seen[frame.ID] = true
	}
	for i := 0; i < burst; i++ {
		assert.True(t, seen[strconv.Itoa(i)], "missing ack %d", i)
	}
}

func TestPresenceClearedOnDisconnect(t *testing.T) {
	t.Parallel()

	env := newGatewayEnv(t)
	admin := env.account(t, "rooted", "root@x.com", true)

	conn := env.dial(t, tokenFor(t, admin, time.Hour))
	require.Equal(t, "authenticated", readFrame(t, conn).Event)
	require.Equal(t, 1, env.presence.Len())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return env.presence.Len() == 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestShutdownDropsConnections(t *testing.T) {
	t.Parallel()

	env := newGatewayEnv(t)
	admin := env.account(t, "closer", "closer@x.com", true)

	conn := env.dial(t, tokenFor(t, admin, time.Hour))
	require.Equal(t, "authenticated", readFrame(t, conn).Event)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, env.gateway.Shutdown(ctx))
	assert.Zero(t, env.presence.Len())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	late, _, err := websocket.DefaultDialer.Dial(env.url, nil)
	require.NoError(t, err)
	defer late.Close()
	require.NoError(t, late.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}

func TestPresenceRemoveKeepsNewerConnection(t *testing.T) {
	t.Parallel()

	p := NewPresence()
	id := uuid.New()
	p.Add(id, "old")
	p.Add(id, "new")
	p.Remove(id, "old")

	got, ok := p.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestCheckOrigin(t *testing.T) {
	t.Parallel()

	g := NewGateway(nil, nil, Config{ClientURL: "https://blog.example.com"})
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	assert.True(t, g.checkOrigin(req))
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, g.checkOrigin(req))
}
