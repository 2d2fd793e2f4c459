package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/atolye/internal/client/client"
	"github.com/dmitrijs2005/atolye/internal/client/config"
	"github.com/dmitrijs2005/atolye/internal/client/guard"
	"github.com/dmitrijs2005/atolye/internal/client/refresh"
	"github.com/dmitrijs2005/atolye/internal/client/services"
	"github.com/dmitrijs2005/atolye/internal/client/tokenstore"
	"github.com/dmitrijs2005/atolye/internal/logging"
	"github.com/dmitrijs2005/atolye/internal/metrics"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	guard       *guard.Guard
	log         logging.Logger
	reader      *bufio.Reader
	db          *sql.DB

	mu       sync.Mutex
	Mode     Mode
	path     string
	decision guard.Decision
	redirect string
}

// NewApp wires the local database, the selected transport, the session
// coordinator, the route guard and the auth service.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, m metrics.SessionCollector) (*App, error) {

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient, err := newTransport(c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := tokenstore.NewSQLiteStore(db)
	coord := refresh.New(store, apiClient,
		refresh.WithLogger(log.With("component", "refresh")),
		refresh.WithMetrics(m),
		refresh.WithRemoteVerification(c.VerifyRemote),
	)
	as := services.NewAuthService(apiClient, store, store, coord)

	a := newApp(c, as, log)
	a.db = db
	a.guard = guard.New(coord, a, guardConfig(c),
		guard.WithDemoSessions(store),
		guard.WithLogger(log.With("component", "guard")),
		guard.WithMetrics(m),
		guard.WithObserver(a.onDecision),
	)
	return a, nil
}

func newApp(c *config.Config, as services.AuthService, log logging.Logger) *App {
	return &App{config: c, authService: as, log: log, reader: bufio.NewReader(os.Stdin)}
}

func newTransport(c *config.Config) (client.Client, error) {
	switch c.Transport {
	case config.TransportGRPC:
		return client.NewGRPCClient(c.GRPCAddr, client.WithRequestTimeout(c.RequestTimeout))
	case config.TransportHTTP:
		return client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout)
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Transport)
	}
}

func guardConfig(c *config.Config) guard.Config {
	return guard.Config{
		LoginPath:     c.LoginPath,
		DemoPrefix:    c.DemoPrefix,
		DemoLoginPath: c.DemoLoginPath,
		PublicPaths:   c.PublicPaths,
	}
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "switched mode", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run opens the landing route and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)
	a.Root(ctx)
}

func (a *App) close(ctx context.Context) {
	if err := a.authService.Close(ctx); err != nil {
		a.log.Warn(ctx, "closing api client", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(ctx, "closing database", "error", err)
		}
	}
}

// StartOnlineStatusWatcher pings the server every interval and flips Mode.
// It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(pctx)
	cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}
