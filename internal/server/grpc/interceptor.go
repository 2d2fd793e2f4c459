package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/atolye/internal/authpb"
	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/dmitrijs2005/atolye/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userKey ctxKey = "user"

// protectedMethods require a valid access token in the access_token metadata.
var protectedMethods = map[string]struct{}{
	authpb.AuthService_WhoAmI_FullMethodName: {},
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if _, ok := protectedMethods[info.FullMethod]; ok {

		accessToken := firstMetadata(ctx, common.AccessTokenHeaderName)
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		user, err := s.users.Authenticate(ctx, accessToken)
		if err != nil {
			return nil, statusFromError(err)
		}

		ctx = context.WithValue(ctx, userKey, user)

	}

	return handler(ctx, req)
}

func (s *GRPCServer) requestLogInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "request",
		"method", info.FullMethod,
		"request_id", firstMetadata(ctx, common.RequestIDHeaderName),
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

func firstMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}
