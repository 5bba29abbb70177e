package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

const (
	serviceName          = "content.auth.v1.TokenIntrospection"
	methodVerifySession  = "/" + serviceName + "/VerifySessionToken"
	methodAuthorizeToken = "/" + serviceName + "/Authorize"
)

// TokenIntrospection is the internal contract other services call to check
// a bearer token without sharing the signing secret.
type TokenIntrospection interface {
	VerifySessionToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Authorize(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Authenticator is the application surface the server needs.
type Authenticator interface {
	VerifySessionToken(ctx context.Context, token string) (ports.TokenClaims, error)
	Authorize(ctx context.Context, token string, allowed []domain.Role) (application.AuthorizationDecision, error)
}

type TokenIntrospectionServer struct {
	service Authenticator
}

func NewTokenIntrospectionServer(service Authenticator) *TokenIntrospectionServer {
	return &TokenIntrospectionServer{service: service}
}

// NewServer builds a gRPC server with the introspection and health services.
func NewServer(service Authenticator) (*grpc.Server, *health.Server) {
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor))
	Register(server, NewTokenIntrospectionServer(service))
	healthServer := health.NewServer()
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	return server, healthServer
}

func Register(server grpc.ServiceRegistrar, svc TokenIntrospection) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*TokenIntrospection)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "VerifySessionToken",
				Handler:    unaryHandler(methodVerifySession, svc.VerifySessionToken),
			},
			{
				MethodName: "Authorize",
				Handler:    unaryHandler(methodAuthorizeToken, svc.Authorize),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "content/auth/v1/token_introspection.proto",
	}, svc)
}

func (s *TokenIntrospectionServer) VerifySessionToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := tokenField(req)
	if err != nil {
		return nil, err
	}
	claims, err := s.service.VerifySessionToken(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":      true,
		"sub":        claims.Subject.String(),
		"email":      claims.Email,
		"role":       claims.Role.String(),
		"expires_at": claims.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

// Authorize runs the route-guard decision for token against the "roles" list.
func (s *TokenIntrospectionServer) Authorize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := tokenField(req)
	if err != nil {
		return nil, err
	}
	var allowed []domain.Role
	for _, v := range req.GetFields()["roles"].GetListValue().GetValues() {
		role, err := domain.ParseRole(v.GetStringValue())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "unknown role %q", v.GetStringValue())
		}
		allowed = append(allowed, role)
	}

	decision, err := s.service.Authorize(ctx, token, allowed)
	if err != nil {
		return nil, toStatus(err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"outcome": string(decision.Outcome),
		"user_id": decision.Account.AccountID.String(),
		"role":    decision.Role.String(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func tokenField(req *structpb.Struct) (string, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return "", status.Error(codes.InvalidArgument, "missing token")
	}
	return token, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, domain.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, "access forbidden")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func unaryHandler(
	fullMethod string,
	call func(context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		code := status.Code(err)
		level := slog.LevelWarn
		if code == codes.Internal {
			level = slog.LevelError
		}
		slog.Default().Log(ctx, level, "grpc call failed",
			"module", "grpc",
			"layer", "adapter",
			"operation", info.FullMethod,
			"outcome", "failure",
			"code", code.String(),
		)
	}
	return resp, err
}
