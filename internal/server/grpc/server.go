package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/atolye/internal/authpb"
	"github.com/dmitrijs2005/atolye/internal/logging"
	"github.com/dmitrijs2005/atolye/internal/server/models"
	"github.com/dmitrijs2005/atolye/internal/server/services"
	"google.golang.org/grpc"
)

// UserService is the part of services.UserService the gRPC front end uses.
type UserService interface {
	Login(ctx context.Context, username string, password []byte) (*services.LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type GRPCServer struct {
	authpb.UnimplementedAuthServiceServer
	address string
	users   UserService
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us UserService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestLogInterceptor, s.accessTokenInterceptor))

	// registers service
	authpb.RegisterAuthServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
