package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dkrest1/content-management-system-api/internal/adapters/memory"
	"github.com/dkrest1/content-management-system-api/internal/adapters/security"
	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

type grpcEnv struct {
	conn    *grpc.ClientConn
	service *application.Service
}

func newGRPCEnv(t *testing.T) *grpcEnv {
	t.Helper()
	env := &grpcEnv{}
	repos := memory.NewRepositories(memory.NewStore())
	tokens, err := security.NewJWTService(
		security.TokenKeyConfig{Secret: "session-secret", TTL: time.Hour},
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
	env.service = svc

	listener := bufconn.Listen(1 << 20)
	server, _ := NewServer(svc)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	env.conn = conn
	return env
}

func (e *grpcEnv) call(t *testing.T, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	out := &structpb.Struct{}
	err = e.conn.Invoke(context.Background(), method, in, out)
	return out, err
}

func (e *grpcEnv) login(t *testing.T, username, email string) application.LoginResponse {
	t.Helper()
	ctx := context.Background()
	_, err := e.service.SignUp(ctx, application.SignUpRequest{Username: username, Email: email, Password: "pw123456"})
	require.NoError(t, err)
	res, err := e.service.Login(ctx, application.LoginRequest{Email: email, Password: "pw123456"})
	require.NoError(t, err)
	return res
}

func TestVerifySessionToken(t *testing.T) {
	t.Parallel()

	env := newGRPCEnv(t)
	login := env.login(t, "alice", "a@x.com")

	resp, err := env.call(t, methodVerifySession, map[string]any{"token": login.Token})
	require.NoError(t, err)
	fields := resp.GetFields()
	assert.True(t, fields["valid"].GetBoolValue())
	assert.Equal(t, login.User.ID.String(), fields["sub"].GetStringValue())
	assert.Equal(t, "a@x.com", fields["email"].GetStringValue())
	assert.Equal(t, "user", fields["role"].GetStringValue())

	_, err = env.call(t, methodVerifySession, map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = env.call(t, methodVerifySession, map[string]any{"token": "garbage"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "invalid token", status.Convert(err).Message())

	expired, _, err := security.IssueToken(ports.TokenKindSession, ports.TokenClaims{
		Subject: login.User.ID,
		Email:   login.User.Email,
	}, "session-secret", -time.Minute)
	require.NoError(t, err)
	_, err = env.call(t, methodVerifySession, map[string]any{"token": expired})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "token expired", status.Convert(err).Message())
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	env := newGRPCEnv(t)
	login := env.login(t, "alice", "a@x.com")

	resp, err := env.call(t, methodAuthorizeToken, map[string]any{"token": login.Token, "roles": []any{"admin", "user"}})
	require.NoError(t, err)
	assert.Equal(t, "allow", resp.GetFields()["outcome"].GetStringValue())

	_, err = env.call(t, methodAuthorizeToken, map[string]any{"token": login.Token, "roles": []any{"admin"}})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = env.call(t, methodAuthorizeToken, map[string]any{"token": login.Token, "roles": []any{"root"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newGRPCEnv(t)
	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: serviceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
