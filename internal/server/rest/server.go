package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/atolye/internal/logging"
)

type HTTPServer struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

// NewHTTPServer builds the server. loginsPerMinute <= 0 disables login
// throttling.
func NewHTTPServer(a string, l logging.Logger, us UserService, loginsPerMinute int) *HTTPServer {
	l = l.With("module", "http_server")

	var limiter *LoginLimiter
	if loginsPerMinute > 0 {
		limiter = NewLoginLimiter(loginsPerMinute)
	}
	return &HTTPServer{address: a, handler: NewHandler(us, l, limiter), logger: l}
}

// Run listens on the configured address and serves until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then shuts down
// gracefully.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
