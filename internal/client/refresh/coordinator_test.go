package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/atolye/internal/client/client"
	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/client/token/tokentest"
	"github.com/dmitrijs2005/atolye/internal/client/tokenstore"
	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Unix(1_700_000_000, 0)

func clock() time.Time { return now }

type fakeAPI struct {
	mu           sync.Mutex
	whoAmICalls  []string
	refreshCalls []string

	whoAmI  func(access string) (*models.Profile, error)
	refresh func(refresh string) (*client.TokenPair, error)
}

func (f *fakeAPI) WhoAmI(_ context.Context, access string) (*models.Profile, error) {
	f.mu.Lock()
	f.whoAmICalls = append(f.whoAmICalls, access)
	fn := f.whoAmI
	f.mu.Unlock()
	if fn == nil {
		return &models.Profile{}, nil
	}
	return fn(access)
}

func (f *fakeAPI) RefreshToken(_ context.Context, refresh string) (*client.TokenPair, error) {
	f.mu.Lock()
	f.refreshCalls = append(f.refreshCalls, refresh)
	fn := f.refresh
	f.mu.Unlock()
	if fn == nil {
		return nil, client.ErrUnauthorized
	}
	return fn(refresh)
}

func (f *fakeAPI) counts() (whoAmI, refresh int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.whoAmICalls), len(f.refreshCalls)
}

type fakeMetrics struct {
	mu       sync.Mutex
	checks   []string
	refresh  []string
	signOuts []string
}

func (m *fakeMetrics) RecordCheck(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, o)
}
func (m *fakeMetrics) RecordRefresh(r string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh = append(m.refresh, r)
}
func (m *fakeMetrics) RecordSignOut(r string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOuts = append(m.signOuts, r)
}
func (m *fakeMetrics) RecordRedirect(string) {}

func validToken(t *testing.T) string {
	return tokentest.Mint(t, 1, now.Add(time.Hour))
}

func expiredToken(t *testing.T) string {
	return tokentest.Mint(t, 1, now.Add(-time.Minute))
}

func seed(t *testing.T, store *tokenstore.MemoryStore, access, refresh string) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), models.Credential{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         models.Profile{ID: 1, Username: "usta"},
	}))
}

func newCoordinator(store tokenstore.Store, api API, opts ...Option) *Coordinator {
	return New(store, api, append([]Option{WithClock(clock)}, opts...)...)
}

func requireCleared(t *testing.T, store *tokenstore.MemoryStore) {
	t.Helper()
	cred, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Nil(t, cred)
	require.Empty(t, store.Slot(common.SlotAccess))
	require.Empty(t, store.Slot(common.SlotRefresh))
	require.Empty(t, store.Slot(common.SlotUser))
}

func TestEnsureValidSession_Absent(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	api := &fakeAPI{}
	c := newCoordinator(store, api)

	s, err := c.EnsureValidSession(context.Background())
	require.ErrorIs(t, err, ErrSignedOut)
	require.Nil(t, s)

	w, r := api.counts()
	assert.Zero(t, w)
	assert.Zero(t, r)
}

func TestEnsureValidSession_PartialCredentialIsAbsent(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	store.SetSlot(common.SlotAccess, []byte(validToken(t)))
	api := &fakeAPI{}

	_, err := newCoordinator(store, api).EnsureValidSession(context.Background())
	require.ErrorIs(t, err, ErrSignedOut)
	requireCleared(t, store)

	w, r := api.counts()
	assert.Zero(t, w)
	assert.Zero(t, r)
}

func TestEnsureValidSession_ValidConfirmedByServer(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	access := validToken(t)
	seed(t, store, access, "R1")
	api := &fakeAPI{whoAmI: func(string) (*models.Profile, error) {
		return &models.Profile{ID: 1, Username: "usta", WorkshopName: "Zargar"}, nil
	}}

	s, err := newCoordinator(store, api).EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, access, s.AccessToken)
	assert.Equal(t, "Zargar", s.DisplayName())
	assert.EqualValues(t, 1, s.Claims.UserID)

	w, r := api.counts()
	assert.Equal(t, 1, w)
	assert.Zero(t, r)
}

func TestEnsureValidSession_LocalOnly(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, validToken(t), "R1")
	api := &fakeAPI{}

	s, err := newCoordinator(store, api, WithRemoteVerification(false)).EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "usta", s.DisplayName())

	w, r := api.counts()
	assert.Zero(t, w)
	assert.Zero(t, r)
}

func TestEnsureValidSession_ServerRejectsValidToken(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	old := validToken(t)
	fresh := tokentest.Mint(t, 1, now.Add(2*time.Hour))
	seed(t, store, old, "R1")

	api := &fakeAPI{
		whoAmI: func(access string) (*models.Profile, error) {
			if access == old {
				return nil, client.ErrUnauthorized
			}
			return &models.Profile{}, nil
		},
		refresh: func(string) (*client.TokenPair, error) {
			return &client.TokenPair{AccessToken: fresh}, nil
		},
	}

	s, err := newCoordinator(store, api).EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, s.AccessToken)
	assert.Equal(t, "usta", s.DisplayName(), "stored profile kept when the server sends an empty one")

	cred, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, cred.AccessToken)
	assert.Equal(t, "R1", cred.RefreshToken)
	assert.Equal(t, "usta", cred.User.Username)

	assert.Equal(t, []string{old, fresh}, api.whoAmICalls)
	assert.Equal(t, []string{"R1"}, api.refreshCalls)
}

func TestEnsureValidSession_ExpiredRefreshes(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")
	fresh := validToken(t)
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		return &client.TokenPair{AccessToken: fresh, RefreshToken: "R2"}, nil
	}}
	m := &fakeMetrics{}

	s, err := newCoordinator(store, api, WithMetrics(m)).EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, s.AccessToken)

	cred, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, cred.AccessToken)
	assert.Equal(t, "R2", cred.RefreshToken)

	assert.Equal(t, []string{fresh}, api.whoAmICalls, "who-am-I only with the new token")
	assert.Equal(t, []string{"success"}, m.refresh)
	assert.Equal(t, []string{"authenticated"}, m.checks)
}

func TestEnsureValidSession_ExpiredRefreshRejected(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")
	api := &fakeAPI{}
	m := &fakeMetrics{}

	_, err := newCoordinator(store, api, WithMetrics(m)).EnsureValidSession(context.Background())
	require.ErrorIs(t, err, ErrSignedOut)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	requireCleared(t, store)

	w, r := api.counts()
	assert.Zero(t, w)
	assert.Equal(t, 1, r)
	assert.Equal(t, []string{"rejected"}, m.refresh)
	assert.Equal(t, []string{reasonRefreshFailed}, m.signOuts)
}

func TestEnsureValidSession_RefreshedTokenStillExpired(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		return &client.TokenPair{AccessToken: tokentest.Mint(t, 1, now.Add(-time.Second))}, nil
	}}

	_, err := newCoordinator(store, api).EnsureValidSession(context.Background())
	require.ErrorIs(t, err, ErrSignedOut)
	requireCleared(t, store)

	w, r := api.counts()
	assert.Zero(t, w)
	assert.Equal(t, 1, r, "never a second exchange in one pass")
}

func TestEnsureValidSession_ConfirmRejectedAfterRefresh(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")
	api := &fakeAPI{
		refresh: func(string) (*client.TokenPair, error) {
			return &client.TokenPair{AccessToken: tokentest.Mint(t, 1, now.Add(time.Hour))}, nil
		},
		whoAmI: func(string) (*models.Profile, error) { return nil, client.ErrUnauthorized },
	}

	_, err := newCoordinator(store, api).EnsureValidSession(context.Background())
	require.ErrorIs(t, err, ErrSignedOut)
	requireCleared(t, store)

	w, r := api.counts()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, r)
}

func TestEnsureValidSession_InvalidTokenTriesRefresh(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, "garbage", "R1")
	fresh := validToken(t)
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		return &client.TokenPair{AccessToken: fresh}, nil
	}}

	s, err := newCoordinator(store, api).EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, s.AccessToken)
	assert.Equal(t, []string{"R1"}, api.refreshCalls)
}

func TestEnsureValidSession_WhoAmITransportErrorIsTerminal(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, validToken(t), "R1")
	api := &fakeAPI{whoAmI: func(string) (*models.Profile, error) {
		return nil, client.ErrUnavailable
	}}

	_, err := newCoordinator(store, api).EnsureValidSession(context.Background())
	require.ErrorIs(t, err, ErrSignedOut)
	require.ErrorIs(t, err, client.ErrUnavailable)
	requireCleared(t, store)

	_, r := api.counts()
	assert.Zero(t, r)
}

func TestEnsureValidSession_CorruptStoreSignsOut(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	store.SetSlot(common.SlotAccess, []byte(validToken(t)))
	store.SetSlot(common.SlotRefresh, []byte("R1"))
	store.SetSlot(common.SlotUser, []byte("{"))
	api := &fakeAPI{}

	_, err := newCoordinator(store, api).EnsureValidSession(context.Background())
	require.ErrorIs(t, err, ErrSignedOut)
	require.ErrorIs(t, err, tokenstore.ErrCorruptProfile)
	requireCleared(t, store)
}

func TestEnsureValidSession_ConcurrentCallsShareOneRefresh(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")
	fresh := validToken(t)

	release := make(chan struct{})
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		<-release
		return &client.TokenPair{AccessToken: fresh, RefreshToken: "R2"}, nil
	}}
	c := newCoordinator(store, api)

	const n = 10
	var wg sync.WaitGroup
	results := make([]*Session, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.EnsureValidSession(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool {
		_, r := api.counts()
		return r == 1
	}, time.Second, time.Millisecond)
	// Give late goroutines a chance to join the pass before it ends.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	_, r := api.counts()
	assert.Equal(t, 1, r)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fresh, results[i].AccessToken)
	}
}

func TestEnsureValidSession_CanceledCallerStopsWaiting(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")

	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		close(started)
		<-release
		return nil, client.ErrUnauthorized
	}}
	c := newCoordinator(store, api)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.EnsureValidSession(ctx)
		done <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// The shared pass still completes and its sign-out applies.
	close(release)
	require.Eventually(t, func() bool {
		cred, err := store.Get(context.Background())
		return err == nil && cred == nil
	}, time.Second, time.Millisecond)
}

func TestEnsureValidSession_StaleRefreshKeepsNewerLogin(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")
	newer := validToken(t)

	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		close(started)
		<-release
		return &client.TokenPair{AccessToken: tokentest.Mint(t, 1, now.Add(3*time.Hour)), RefreshToken: "R1b"}, nil
	}}
	m := &fakeMetrics{}
	c := newCoordinator(store, api, WithMetrics(m))

	done := make(chan error, 1)
	var s *Session
	go func() {
		var err error
		s, err = c.EnsureValidSession(context.Background())
		done <- err
	}()

	<-started
	seed(t, store, newer, "R9")
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, newer, s.AccessToken)

	cred, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, newer, cred.AccessToken)
	assert.Equal(t, "R9", cred.RefreshToken)
	assert.Equal(t, []string{"stale"}, m.refresh)
}

func TestEnsureValidSession_FailedWhoAmIKeepsNewerLogin(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	old := validToken(t)
	seed(t, store, old, "R1")
	newer := tokentest.Mint(t, 2, now.Add(4*time.Hour))

	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{whoAmI: func(access string) (*models.Profile, error) {
		if access == old {
			close(started)
			<-release
			return nil, client.ErrUnavailable
		}
		return &models.Profile{ID: 2, Username: "ali"}, nil
	}}
	m := &fakeMetrics{}
	c := newCoordinator(store, api, WithMetrics(m))

	done := make(chan error, 1)
	var s *Session
	go func() {
		var err error
		s, err = c.EnsureValidSession(context.Background())
		done <- err
	}()

	<-started
	seed(t, store, newer, "R9")
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, newer, s.AccessToken)
	assert.Equal(t, "ali", s.User.Username)

	cred, err := store.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, newer, cred.AccessToken)
	assert.Equal(t, "R9", cred.RefreshToken)

	assert.Equal(t, []string{old, newer}, api.whoAmICalls)
	assert.Empty(t, api.refreshCalls)
	assert.Empty(t, m.signOuts)
}

func TestEnsureValidSession_FailedConfirmKeepsNewerLogin(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")
	refreshed := validToken(t)
	newer := tokentest.Mint(t, 2, now.Add(4*time.Hour))

	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{
		refresh: func(string) (*client.TokenPair, error) {
			return &client.TokenPair{AccessToken: refreshed, RefreshToken: "R2"}, nil
		},
		whoAmI: func(access string) (*models.Profile, error) {
			if access == refreshed {
				close(started)
				<-release
				return nil, client.ErrUnauthorized
			}
			return &models.Profile{}, nil
		},
	}
	c := newCoordinator(store, api)

	done := make(chan error, 1)
	var s *Session
	go func() {
		var err error
		s, err = c.EnsureValidSession(context.Background())
		done <- err
	}()

	<-started
	seed(t, store, newer, "R9")
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, newer, s.AccessToken)

	cred, err := store.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "R9", cred.RefreshToken)
	assert.Equal(t, []string{"R1"}, api.refreshCalls)
}

func TestEnsureValidSession_NewerLoginAlsoRejectedSignsOut(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	old := validToken(t)
	seed(t, store, old, "R1")
	newer := tokentest.Mint(t, 2, now.Add(4*time.Hour))

	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{whoAmI: func(access string) (*models.Profile, error) {
		if access == old {
			close(started)
			<-release
		}
		return nil, client.ErrUnavailable
	}}
	c := newCoordinator(store, api)

	done := make(chan error, 1)
	go func() {
		_, err := c.EnsureValidSession(context.Background())
		done <- err
	}()

	<-started
	seed(t, store, newer, "R9")
	close(release)

	err := <-done
	require.ErrorIs(t, err, ErrSignedOut)
	require.ErrorIs(t, err, client.ErrUnavailable)
	requireCleared(t, store)
	assert.Equal(t, []string{old, newer}, api.whoAmICalls, "the newer credential is checked once")
}

func TestEnsureValidSession_ConcurrentRejectedValidTokenRefreshesOnce(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	old := validToken(t)
	seed(t, store, old, "R1")
	fresh := tokentest.Mint(t, 1, now.Add(2*time.Hour))

	release := make(chan struct{})
	api := &fakeAPI{
		whoAmI: func(access string) (*models.Profile, error) {
			if access == old {
				<-release
				return nil, client.ErrUnauthorized
			}
			return &models.Profile{}, nil
		},
		refresh: func(string) (*client.TokenPair, error) {
			return &client.TokenPair{AccessToken: fresh, RefreshToken: "R2"}, nil
		},
	}
	c := newCoordinator(store, api)

	const n = 2
	var wg sync.WaitGroup
	results := make([]*Session, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.EnsureValidSession(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool {
		w, _ := api.counts()
		return w == 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fresh, results[i].AccessToken)
	}
	_, r := api.counts()
	assert.Equal(t, 1, r)
	assert.Equal(t, old, api.whoAmICalls[0])
}

func TestHandleUnauthorized_AlreadyReplaced(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	current := validToken(t)
	seed(t, store, current, "R1")
	api := &fakeAPI{}

	got, err := newCoordinator(store, api).HandleUnauthorized(context.Background(), "older-token")
	require.NoError(t, err)
	assert.Equal(t, current, got)

	_, r := api.counts()
	assert.Zero(t, r)
}

func TestHandleUnauthorized_Refreshes(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	stale := validToken(t)
	seed(t, store, stale, "R1")
	fresh := tokentest.Mint(t, 1, now.Add(2*time.Hour))
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		return &client.TokenPair{AccessToken: fresh}, nil
	}}

	got, err := newCoordinator(store, api).HandleUnauthorized(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
}

func TestHandleUnauthorized_RejectedSignsOut(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	stale := validToken(t)
	seed(t, store, stale, "R1")
	api := &fakeAPI{}

	_, err := newCoordinator(store, api).HandleUnauthorized(context.Background(), stale)
	require.ErrorIs(t, err, ErrSignedOut)
	requireCleared(t, store)
}

func TestHandleUnauthorized_Absent(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	api := &fakeAPI{}

	_, err := newCoordinator(store, api).HandleUnauthorized(context.Background(), "x")
	require.ErrorIs(t, err, ErrSignedOut)

	_, r := api.counts()
	assert.Zero(t, r)
}

func TestHandleUnauthorized_ConcurrentShareOneExchange(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	stale := validToken(t)
	seed(t, store, stale, "R1")
	fresh := tokentest.Mint(t, 1, now.Add(2*time.Hour))

	release := make(chan struct{})
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		<-release
		return &client.TokenPair{AccessToken: fresh, RefreshToken: "R2"}, nil
	}}
	c := newCoordinator(store, api)

	const n = 5
	var wg sync.WaitGroup
	got := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = c.HandleUnauthorized(context.Background(), stale)
		}(i)
	}

	require.Eventually(t, func() bool {
		_, r := api.counts()
		return r == 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	_, r := api.counts()
	assert.Equal(t, 1, r)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fresh, got[i])
	}
}

func TestAuthorized_RetriesOnceAfterRefresh(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	stale := validToken(t)
	seed(t, store, stale, "R1")
	fresh := tokentest.Mint(t, 1, now.Add(2*time.Hour))
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		return &client.TokenPair{AccessToken: fresh}, nil
	}}
	c := newCoordinator(store, api)

	var seen []string
	err := c.Authorized(context.Background(), func(_ context.Context, access string) error {
		seen = append(seen, access)
		if access == stale {
			return client.ErrUnauthorized
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{stale, fresh}, seen)
}

func TestAuthorized_RefreshesExpiredBeforeCall(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, expiredToken(t), "R1")
	fresh := validToken(t)
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		return &client.TokenPair{AccessToken: fresh}, nil
	}}

	var seen []string
	err := newCoordinator(store, api).Authorized(context.Background(), func(_ context.Context, access string) error {
		seen = append(seen, access)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, seen)
}

func TestAuthorized_SecondRejectionSignsOut(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, validToken(t), "R1")
	api := &fakeAPI{refresh: func(string) (*client.TokenPair, error) {
		return &client.TokenPair{AccessToken: tokentest.Mint(t, 1, now.Add(2*time.Hour))}, nil
	}}

	calls := 0
	err := newCoordinator(store, api).Authorized(context.Background(), func(context.Context, string) error {
		calls++
		return client.ErrUnauthorized
	})
	require.ErrorIs(t, err, ErrSignedOut)
	assert.Equal(t, 2, calls)
	requireCleared(t, store)
}

func TestAuthorized_PassesOtherErrors(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, validToken(t), "R1")
	api := &fakeAPI{}
	boom := errors.New("boom")

	err := newCoordinator(store, api).Authorized(context.Background(), func(context.Context, string) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, r := api.counts()
	assert.Zero(t, r)
}

func TestSignOut(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	seed(t, store, validToken(t), "R1")
	m := &fakeMetrics{}

	require.NoError(t, newCoordinator(store, &fakeAPI{}, WithMetrics(m)).SignOut(context.Background()))
	requireCleared(t, store)
	assert.Equal(t, []string{reasonLogout}, m.signOuts)
}
