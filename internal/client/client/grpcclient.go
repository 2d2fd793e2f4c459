package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atolye/internal/authpb"
	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      authpb.AuthServiceClient
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// requestIDInterceptor tags every call with a fresh request id unless the
// caller already set one.
func requestIDInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	if len(md.Get(common.RequestIDHeaderName)) == 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, common.RequestIDHeaderName, uuid.NewString())
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// WithRequestTimeout bounds every unary call to d unless the caller's
// context ends sooner. A non-positive d leaves calls unbounded.
func WithRequestTimeout(d time.Duration) grpc.DialOption {
	return grpc.WithChainUnaryInterceptor(timeoutInterceptor(d))
}

func timeoutInterceptor(d time.Duration) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	err := c.InitGRPCClient(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// InitGRPCClient dials the endpoint. Extra options are appended to the
// defaults (insecure transport, request id interceptor).
func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	}

	conn, err := grpc.NewClient(s.endpointURL, append(base, opts...)...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = authpb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Login(ctx context.Context, userName string, password []byte) (*LoginResult, error) {

	req, err := structpb.NewStruct(map[string]any{
		authpb.FieldUsername: userName,
		authpb.FieldPassword: string(password),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	res := &LoginResult{
		AccessToken:  authpb.String(resp, authpb.FieldAccessToken),
		RefreshToken: authpb.String(resp, authpb.FieldRefreshToken),
		User:         profileFromStruct(authpb.Sub(resp, authpb.FieldUser)),
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		return nil, fmt.Errorf("%w: login response without tokens", ErrBadResponse)
	}
	return res, nil
}

func (s *GRPCClient) WhoAmI(ctx context.Context, accessToken string) (*models.Profile, error) {

	resp, err := s.client.WhoAmI(withAccessToken(ctx, accessToken), &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}

	p := profileFromStruct(resp)
	return &p, nil
}

func (s *GRPCClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {

	req, err := structpb.NewStruct(map[string]any{authpb.FieldRefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := s.client.RefreshToken(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	pair := &TokenPair{
		AccessToken:  authpb.String(resp, authpb.FieldAccessToken),
		RefreshToken: authpb.String(resp, authpb.FieldRefreshToken),
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response without access token", ErrBadResponse)
	}
	return pair, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}

	if authpb.String(resp, authpb.FieldStatus) != authpb.StatusOK {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func profileFromStruct(s *structpb.Struct) models.Profile {
	return models.Profile{
		ID:           authpb.Int(s, authpb.FieldID),
		Username:     authpb.String(s, authpb.FieldUsername),
		Name:         authpb.String(s, authpb.FieldName),
		WorkshopName: authpb.String(s, authpb.FieldWorkshopName),
	}
}
