// Package server initializes and runs the development auth server: an
// in-memory user store behind a gRPC and a JSON/HTTP front end.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/atolye/internal/logging"
	"github.com/dmitrijs2005/atolye/internal/server/config"
	"github.com/dmitrijs2005/atolye/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/atolye/internal/server/repositories/users"
	"github.com/dmitrijs2005/atolye/internal/server/rest"
	"github.com/dmitrijs2005/atolye/internal/server/services"

	gs "github.com/dmitrijs2005/atolye/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *services.UserService
}

// NewApp builds the user service and registers the seed user.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	us := services.NewUserService(users.NewMemoryRepository(), refreshtokens.NewMemoryRepository(), c)

	if c.SeedUsername != "" {
		u, err := us.Register(ctx, c.SeedUsername, c.SeedPassword, c.SeedName, c.SeedWorkshopName)
		if err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
		logger.Info(ctx, "seed user registered", "username", u.UserName, "id", u.ID)
	}

	return &App{config: c, logger: logger, userService: us}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

type runner interface {
	Run(ctx context.Context) error
}

func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, r runner) {
	if err := r.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves the enabled front ends until a signal arrives, ctx is done, or
// one of them fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"access_ttl", app.config.AccessTokenValidityDuration,
		"refresh_ttl", app.config.RefreshTokenValidityDuration,
		"rotate", app.config.RotateRefreshTokens,
	)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.start(ctx, cancelFunc, "grpc", gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService))
		}()
	}

	if app.config.EndpointAddrHTTP != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.start(ctx, cancelFunc, "http", rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.config.LoginAttemptsPerMinute))
		}()
	}

	wg.Wait()

}
