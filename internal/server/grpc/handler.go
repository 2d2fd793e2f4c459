package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/atolye/internal/authpb"
	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/dmitrijs2005/atolye/internal/server/models"
	"github.com/dmitrijs2005/atolye/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	username := authpb.String(req, authpb.FieldUsername)
	res, err := s.users.Login(ctx, username, []byte(authpb.String(req, authpb.FieldPassword)))
	if err != nil {
		s.logger.Info(ctx, "login failed", "username", username, "error", err)
		return nil, statusFromError(err)
	}

	s.logger.Info(ctx, "logged in", "username", username)
	return structpb.NewStruct(map[string]any{
		authpb.FieldAccessToken:  res.AccessToken,
		authpb.FieldRefreshToken: res.RefreshToken,
		authpb.FieldUser:         profileFields(res.User),
	})

}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	user, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	return structpb.NewStruct(profileFields(user))

}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	pair, err := s.users.RefreshToken(ctx, authpb.String(req, authpb.FieldRefreshToken))
	if err != nil {
		s.logger.Info(ctx, "refresh rejected", "error", err)
		return nil, statusFromError(err)
	}

	out := map[string]any{authpb.FieldAccessToken: pair.AccessToken}
	if pair.RefreshToken != "" {
		out[authpb.FieldRefreshToken] = pair.RefreshToken
	}
	return structpb.NewStruct(out)

}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	return structpb.NewStruct(map[string]any{authpb.FieldStatus: authpb.StatusOK})

}

func profileFields(u *models.User) map[string]any {
	return map[string]any{
		authpb.FieldID:           u.ID,
		authpb.FieldUsername:     u.UserName,
		authpb.FieldName:         u.Name,
		authpb.FieldWorkshopName: u.WorkshopName,
	}
}

// statusFromError maps service errors to gRPC status codes. Auth failures
// carry the sentinel text so clients can tell expiry from rejection.
func statusFromError(err error) error {
	switch {
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
