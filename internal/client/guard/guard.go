// Package guard decides what a route transition shows: the route itself, a
// loading placeholder while the session is checked, or nothing plus a single
// redirect to the login route.
//
// Routes fall into three areas:
//   - public: the login route and configured public paths, never checked;
//   - demo: the demo prefix, gated only by the demo slots and redirecting to
//     the demo login route;
//   - protected: everything else, gated by the refresh coordinator.
package guard

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"

	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/client/refresh"
	"github.com/dmitrijs2005/atolye/internal/logging"
	"github.com/dmitrijs2005/atolye/internal/metrics"
)

type State int

const (
	StateInit State = iota
	StateChecking
	StateAuthenticated
	StateRedirecting
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateRedirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

type View int

const (
	ViewNone View = iota
	ViewLoading
	ViewLoginForm
	ViewPublic
	ViewProtected
)

func (v View) String() string {
	switch v {
	case ViewNone:
		return "none"
	case ViewLoading:
		return "loading"
	case ViewLoginForm:
		return "login"
	case ViewPublic:
		return "public"
	case ViewProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Path        string
	State       State
	View        View
	RedirectTo  string
	DisplayName string
}

// Navigator performs route transitions requested by the guard.
type Navigator interface {
	Redirect(path string)
}

// SessionChecker is satisfied by *refresh.Coordinator.
type SessionChecker interface {
	EnsureValidSession(ctx context.Context) (*refresh.Session, error)
}

// DemoSessions is the read side of tokenstore.DemoStore.
type DemoSessions interface {
	GetDemo(ctx context.Context) (*models.DemoSession, error)
}

type Config struct {
	LoginPath     string
	DemoPrefix    string
	DemoLoginPath string
	PublicPaths   []string
}

func DefaultConfig() Config {
	return Config{
		LoginPath:     "/login",
		DemoPrefix:    "/workshop",
		DemoLoginPath: "/workshop/login",
	}
}

type Guard struct {
	sessions SessionChecker
	demo     DemoSessions
	nav      Navigator
	cfg      Config
	public   map[string]struct{}
	log      logging.Logger
	metrics  metrics.SessionCollector
	observe  func(Decision)

	mu      sync.Mutex
	seq     uint64
	current Decision

	// redirectedTo is the target of the open redirect episode, if any.
	redirectedTo string
}

type Option func(*Guard)

func WithLogger(l logging.Logger) Option {
	return func(g *Guard) { g.log = l }
}

func WithMetrics(m metrics.SessionCollector) Option {
	return func(g *Guard) { g.metrics = m }
}

// WithObserver registers fn to be called with every new decision, including
// the Loading decision published while a check runs.
func WithObserver(fn func(Decision)) Option {
	return func(g *Guard) { g.observe = fn }
}

// WithDemoSessions enables the demo area. Without it demo routes always
// redirect to the demo login route.
func WithDemoSessions(d DemoSessions) Option {
	return func(g *Guard) { g.demo = d }
}

func New(sessions SessionChecker, nav Navigator, cfg Config, opts ...Option) *Guard {
	g := &Guard{
		sessions: sessions,
		nav:      nav,
		cfg:      cfg,
		public:   make(map[string]struct{}),
		log:      logging.Nop(),
		metrics:  metrics.Nop{},
	}
	for _, p := range cfg.PublicPaths {
		g.public[clean(p)] = struct{}{}
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Current returns the latest published decision.
func (g *Guard) Current() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Navigate runs the guard for a transition to p and returns the resulting
// decision. A navigation overtaken by a newer one returns the newer decision
// without changing state, unless it ended in a sign-out.
func (g *Guard) Navigate(ctx context.Context, p string) Decision {
	p = clean(p)

	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	switch {
	case p == clean(g.cfg.LoginPath), p == clean(g.cfg.DemoLoginPath):
		return g.publish(seq, Decision{Path: p, State: StateInit, View: ViewLoginForm})
	case g.isPublic(p):
		return g.publish(seq, Decision{Path: p, State: StateInit, View: ViewPublic})
	case g.inDemoArea(p):
		return g.navigateDemo(ctx, seq, p)
	default:
		return g.navigateProtected(ctx, seq, p)
	}
}

func (g *Guard) navigateProtected(ctx context.Context, seq uint64, p string) Decision {
	g.publish(seq, Decision{Path: p, State: StateChecking, View: ViewLoading})
	g.log.Debug(ctx, "checking session", "path", p)

	s, err := g.sessions.EnsureValidSession(ctx)
	switch {
	case err == nil:
		return g.publish(seq, Decision{
			Path:        p,
			State:       StateAuthenticated,
			View:        ViewProtected,
			DisplayName: s.DisplayName(),
		})
	case errors.Is(err, refresh.ErrSignedOut):
		return g.redirect(ctx, p, g.cfg.LoginPath)
	default:
		// The caller gave up; a newer navigation or a later retry decides.
		g.log.Debug(ctx, "session check abandoned", "path", p, "error", err)
		return g.Current()
	}
}

func (g *Guard) navigateDemo(ctx context.Context, seq uint64, p string) Decision {
	if g.demo != nil {
		d, err := g.demo.GetDemo(ctx)
		if err != nil {
			g.log.Warn(ctx, "failed to read demo session", "error", err)
		}
		if d != nil {
			return g.publish(seq, Decision{
				Path:        p,
				State:       StateAuthenticated,
				View:        ViewProtected,
				DisplayName: d.Name,
			})
		}
	}
	return g.redirect(ctx, p, g.cfg.DemoLoginPath)
}

// publish stores d when seq is still the latest navigation.
func (g *Guard) publish(seq uint64, d Decision) Decision {
	g.mu.Lock()
	if seq != g.seq {
		cur := g.current
		g.mu.Unlock()
		return cur
	}
	if d.State != StateRedirecting {
		g.redirectedTo = ""
	}
	g.current = d
	g.mu.Unlock()

	g.notify(d)
	return d
}

// redirect enters the Redirecting state regardless of newer navigations and
// emits at most one redirect per episode and target. An episode ends when any
// later navigation publishes a non-redirect decision or redirects elsewhere.
func (g *Guard) redirect(ctx context.Context, from, target string) Decision {
	d := Decision{Path: from, State: StateRedirecting, View: ViewNone, RedirectTo: target}

	g.mu.Lock()
	if g.redirectedTo == clean(target) || g.current.Path == clean(target) {
		cur := g.current
		g.mu.Unlock()
		g.log.Debug(ctx, "redirect already emitted", "path", from, "target", target)
		return cur
	}
	g.redirectedTo = clean(target)
	g.current = d
	g.mu.Unlock()

	g.notify(d)
	g.log.Info(ctx, "redirecting to login", "path", from, "target", target)
	g.metrics.RecordRedirect(target)
	g.nav.Redirect(target)
	return d
}

func (g *Guard) notify(d Decision) {
	if g.observe != nil {
		g.observe(d)
	}
}

func (g *Guard) isPublic(p string) bool {
	_, ok := g.public[p]
	return ok
}

func (g *Guard) inDemoArea(p string) bool {
	prefix := clean(g.cfg.DemoPrefix)
	if g.cfg.DemoPrefix == "" || prefix == "/" {
		return false
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// clean normalizes a route path: leading slash, no trailing slash, no query.
func clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Clean("/" + p)
}
