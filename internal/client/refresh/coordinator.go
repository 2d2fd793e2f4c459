// Package refresh owns the session lifecycle: it decides whether the stored
// credential is usable, runs the single refresh exchange when it is not, and
// clears the store when the session cannot be recovered.
//
// All passes that overlap in time share one execution. The Token Store is the
// only shared mutable state; every step re-reads it after a network call.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atolye/internal/client/client"
	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/client/session"
	"github.com/dmitrijs2005/atolye/internal/client/token"
	"github.com/dmitrijs2005/atolye/internal/client/tokenstore"
	"github.com/dmitrijs2005/atolye/internal/logging"
	"github.com/dmitrijs2005/atolye/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrSignedOut is the terminal outcome of a session check. The store has been
// cleared by the time it is returned.
var ErrSignedOut = errors.New("signed out")

// errSuperseded means the refresh token used by an exchange is no longer the
// stored one.
var errSuperseded = errors.New("credential superseded")

const sessionKey = "session"

// Sign-out reasons, used in logs and as metric labels.
const (
	reasonAbsent         = "absent"
	reasonStoreError     = "store_error"
	reasonWhoAmIFailed   = "whoami_failed"
	reasonRefreshFailed  = "refresh_failed"
	reasonUnusableToken  = "refreshed_token_unusable"
	reasonConfirmFailed  = "confirm_failed"
	reasonLogout         = "logout"
	reasonRetryExhausted = "retry_unauthorized"
)

// API is the part of the auth backend the coordinator calls.
type API interface {
	WhoAmI(ctx context.Context, accessToken string) (*models.Profile, error)
	RefreshToken(ctx context.Context, refreshToken string) (*client.TokenPair, error)
}

// Session is an accepted credential.
type Session struct {
	AccessToken string
	User        models.Profile
	Claims      token.Claims
}

func (s *Session) DisplayName() string {
	return s.User.DisplayName()
}

type Coordinator struct {
	store        tokenstore.Store
	api          API
	now          func() time.Time
	log          logging.Logger
	metrics      metrics.SessionCollector
	verifyRemote bool

	group singleflight.Group
}

type Option func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

func WithMetrics(m metrics.SessionCollector) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithRemoteVerification controls whether a locally valid token is confirmed
// with the who-am-I call. It is on by default.
func WithRemoteVerification(on bool) Option {
	return func(c *Coordinator) { c.verifyRemote = on }
}

func New(store tokenstore.Store, api API, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:        store,
		api:          api,
		now:          time.Now,
		log:          logging.Nop(),
		metrics:      metrics.Nop{},
		verifyRemote: true,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// EnsureValidSession returns the accepted session or an error wrapping
// ErrSignedOut. Concurrent callers share one pass. A caller whose ctx ends
// gets ctx.Err() while the shared pass runs to completion.
func (c *Coordinator) EnsureValidSession(ctx context.Context) (*Session, error) {
	ch := c.group.DoChan(sessionKey, func() (any, error) {
		return c.check(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		c.metrics.RecordCheck(metrics.OutcomeCanceled)
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	}
}

// check is one verification pass. It makes at most one refresh exchange.
func (c *Coordinator) check(ctx context.Context) (*Session, error) {
	log := c.log.With("check_id", uuid.NewString())

	cred, err := c.store.Get(ctx)
	if err != nil {
		return c.fail(ctx, log, reasonStoreError, err)
	}

	st, claims, derr := session.Verify(cred, c.now())
	log.Debug(ctx, "credential classified", "status", st.String())

	switch st {
	case session.StatusAbsent:
		return c.fail(ctx, log, reasonAbsent, nil)

	case session.StatusValid:
		if !c.verifyRemote {
			return c.accept(ctx, log, cred, claims, nil), nil
		}
		profile, err := c.api.WhoAmI(ctx, cred.AccessToken)
		if err == nil {
			return c.accept(ctx, log, cred, claims, profile), nil
		}
		if !errors.Is(err, client.ErrUnauthorized) {
			return c.failFor(ctx, log, cred, reasonWhoAmIFailed, err, true)
		}
		log.Info(ctx, "server rejected a locally valid token")

	case session.StatusInvalid:
		log.Warn(ctx, "stored access token is malformed", "error", derr)
	}

	return c.refreshAndConfirm(ctx, log, cred)
}

func (c *Coordinator) refreshAndConfirm(ctx context.Context, log logging.Logger, cred *models.Credential) (*Session, error) {
	err := c.exchange(ctx, log, cred.RefreshToken)
	if err != nil && !errors.Is(err, errSuperseded) {
		return c.failFor(ctx, log, cred, reasonRefreshFailed, err, true)
	}

	fresh, err := c.store.Get(ctx)
	if err != nil {
		return c.fail(ctx, log, reasonStoreError, err)
	}
	return c.confirm(ctx, log, fresh, true)
}

// confirm accepts a credential produced after an exchange or a login. It
// never refreshes. With retry set, a failure caused by a credential that was
// replaced meanwhile confirms the replacement once.
func (c *Coordinator) confirm(ctx context.Context, log logging.Logger, cred *models.Credential, retry bool) (*Session, error) {
	st, claims, _ := session.Verify(cred, c.now())
	if st == session.StatusAbsent {
		return c.fail(ctx, log, reasonAbsent, nil)
	}
	if st != session.StatusValid {
		return c.failFor(ctx, log, cred, reasonUnusableToken, fmt.Errorf("new access token is %s", st), retry)
	}
	if !c.verifyRemote {
		return c.accept(ctx, log, cred, claims, nil), nil
	}

	profile, err := c.api.WhoAmI(ctx, cred.AccessToken)
	if err != nil {
		return c.failFor(ctx, log, cred, reasonConfirmFailed, err, retry)
	}
	return c.accept(ctx, log, cred, claims, profile), nil
}

// exchange runs the refresh call for refreshToken, shared with any exchange
// already in flight for the same token, and stores the result with a
// compare-and-set. It returns errSuperseded when the CAS found another
// refresh token in the store.
func (c *Coordinator) exchange(ctx context.Context, log logging.Logger, refreshToken string) error {
	ch := c.group.DoChan("refresh:"+refreshToken, func() (any, error) {
		return nil, c.doExchange(context.WithoutCancel(ctx), log, refreshToken)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			log.Debug(ctx, "joined in-flight refresh")
		}
		return res.Err
	}
}

func (c *Coordinator) doExchange(ctx context.Context, log logging.Logger, refreshToken string) error {
	start := time.Now()
	log.Info(ctx, "refreshing access token")

	pair, err := c.api.RefreshToken(ctx, refreshToken)
	if err != nil {
		result := metrics.RefreshFailed
		if errors.Is(err, client.ErrUnauthorized) {
			result = metrics.RefreshRejected
		}
		c.metrics.RecordRefresh(result, time.Since(start))
		log.Warn(ctx, "refresh exchange failed", "error", err)
		return err
	}

	ok, err := c.store.UpdateAccess(ctx, refreshToken, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		c.metrics.RecordRefresh(metrics.RefreshFailed, time.Since(start))
		return fmt.Errorf("store refreshed token: %w", err)
	}
	if !ok {
		c.metrics.RecordRefresh(metrics.RefreshStale, time.Since(start))
		log.Info(ctx, "discarding refresh result for a replaced credential")
		return errSuperseded
	}

	c.metrics.RecordRefresh(metrics.RefreshSuccess, time.Since(start))
	log.Info(ctx, "access token refreshed", "rotated", pair.RefreshToken != "")
	return nil
}

// superseded reports whether the store now holds a complete credential with a
// refresh token other than used, and returns it.
func (c *Coordinator) superseded(ctx context.Context, used string) (*models.Credential, bool) {
	cur, err := c.store.Get(ctx)
	if err != nil || !cur.Complete() || cur.RefreshToken == used {
		return nil, false
	}
	return cur, true
}

func (c *Coordinator) accept(ctx context.Context, log logging.Logger, cred *models.Credential, claims token.Claims, remote *models.Profile) *Session {
	s := &Session{AccessToken: cred.AccessToken, User: cred.User, Claims: claims}
	if remote != nil && *remote != (models.Profile{}) {
		s.User = *remote
	}
	c.metrics.RecordCheck(metrics.OutcomeAuthenticated)
	log.Debug(ctx, "session accepted", "user_id", claims.UserID)
	return s
}

// fail clears the store unconditionally and reports the sign-out.
func (c *Coordinator) fail(ctx context.Context, log logging.Logger, reason string, cause error) (*Session, error) {
	if err := c.store.Clear(ctx); err != nil {
		log.Error(ctx, "failed to clear credential", "error", err)
	}
	return c.signedOut(ctx, log, reason, cause)
}

// failFor signs out a pass that judged cred. The store is cleared only while
// it still holds cred; a credential written meanwhile is kept and, with retry
// set, confirmed in place of the failed one.
func (c *Coordinator) failFor(ctx context.Context, log logging.Logger, cred *models.Credential, reason string, cause error, retry bool) (*Session, error) {
	cleared, err := c.store.ClearIf(ctx, cred.AccessToken, cred.RefreshToken)
	if err != nil {
		log.Error(ctx, "failed to clear credential", "error", err)
		return c.signedOut(ctx, log, reason, cause)
	}
	if cleared {
		return c.signedOut(ctx, log, reason, cause)
	}

	log.Info(ctx, "check lost to a newer credential", "reason", reason)
	if retry {
		if cur, err := c.store.Get(ctx); err == nil && cur.Complete() {
			return c.confirm(ctx, log, cur, false)
		}
	}
	return c.signedOut(ctx, log, reason, cause)
}

func (c *Coordinator) signedOut(ctx context.Context, log logging.Logger, reason string, cause error) (*Session, error) {
	c.metrics.RecordCheck(metrics.OutcomeSignedOut)
	c.metrics.RecordSignOut(reason)

	if cause == nil {
		log.Info(ctx, "signed out", "reason", reason)
		return nil, fmt.Errorf("%w: %s", ErrSignedOut, reason)
	}
	log.Info(ctx, "signed out", "reason", reason, "error", cause)
	return nil, fmt.Errorf("%w: %s: %w", ErrSignedOut, reason, cause)
}

// HandleUnauthorized is called after an authenticated request carrying
// staleAccess was rejected. It returns the access token to retry with. When
// the stored access token already differs from staleAccess no exchange is
// made. A failed exchange clears the store and returns ErrSignedOut.
func (c *Coordinator) HandleUnauthorized(ctx context.Context, staleAccess string) (string, error) {
	log := c.log.With("check_id", uuid.NewString())

	cred, err := c.store.Get(ctx)
	if err != nil {
		_, err = c.fail(ctx, log, reasonStoreError, err)
		return "", err
	}
	if !cred.Complete() {
		return "", fmt.Errorf("%w: %s", ErrSignedOut, reasonAbsent)
	}
	if cred.AccessToken != staleAccess {
		log.Debug(ctx, "access token already replaced")
		return cred.AccessToken, nil
	}

	err = c.exchange(ctx, log, cred.RefreshToken)
	switch {
	case err == nil, errors.Is(err, errSuperseded):
	case ctx.Err() != nil:
		return "", err
	default:
		if cur, ok := c.superseded(ctx, cred.RefreshToken); ok {
			return cur.AccessToken, nil
		}
		_, err = c.failFor(ctx, log, cred, reasonRefreshFailed, err, false)
		return "", err
	}

	fresh, err := c.store.Get(ctx)
	if err != nil {
		_, err = c.fail(ctx, log, reasonStoreError, err)
		return "", err
	}
	if !fresh.Complete() {
		return "", fmt.Errorf("%w: %s", ErrSignedOut, reasonAbsent)
	}
	return fresh.AccessToken, nil
}

// Authorized runs fn with the stored access token. An expired token is
// refreshed before the call; a call failing with client.ErrUnauthorized is
// retried once with the token returned by HandleUnauthorized. A second
// rejection signs the user out.
func (c *Coordinator) Authorized(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	cred, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}
	if !cred.Complete() {
		return fmt.Errorf("%w: %s", ErrSignedOut, reasonAbsent)
	}

	access := cred.AccessToken
	if st, _, _ := session.Verify(cred, c.now()); st != session.StatusValid {
		if access, err = c.HandleUnauthorized(ctx, access); err != nil {
			return err
		}
	}

	err = fn(ctx, access)
	if !errors.Is(err, client.ErrUnauthorized) {
		return err
	}

	retry, herr := c.HandleUnauthorized(ctx, access)
	if herr != nil {
		return herr
	}

	err = fn(ctx, retry)
	if errors.Is(err, client.ErrUnauthorized) {
		_, ferr := c.fail(ctx, c.log, reasonRetryExhausted, err)
		return ferr
	}
	return err
}

// SignOut clears the credential unconditionally.
func (c *Coordinator) SignOut(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	c.metrics.RecordSignOut(reasonLogout)
	c.log.Info(ctx, "signed out", "reason", reasonLogout)
	return nil
}
