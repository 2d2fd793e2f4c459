package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/dmitrijs2005/atolye/internal/client/client"
	"github.com/dmitrijs2005/atolye/internal/client/guard"
	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/client/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubInputs(t *testing.T, text string, textErr error, pass string, passErr error) {
	t.Helper()
	origText, origPass := getSimpleText, getPassword
	getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) { return text, textErr }
	getPassword = func(*bufio.Reader, string, io.Writer) ([]byte, error) { return []byte(pass), passErr }
	t.Cleanup(func() { getSimpleText, getPassword = origText, origPass })
}

func signedIn(name string) *fakeSessions {
	return &fakeSessions{session: &refresh.Session{AccessToken: "A", User: models.Profile{ID: 7, Username: name}}}
}

func TestLogin_Success(t *testing.T) {
	lines := capturePrintln(t)
	stubInputs(t, "usta", nil, "pw", nil)

	auth := &fakeAuth{loginRet: &models.Profile{ID: 7, Username: "usta"}}
	a := newTestApp(t, auth, signedIn("usta"), &fakeDemo{})

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "usta", auth.loginUser)
	assert.Equal(t, []byte("pw"), auth.loginPass)
	assert.Contains(t, *lines, "Welcome, usta!")
	assert.Equal(t, ModeOnline, a.mode())
	assert.Equal(t, "/", a.path)
	assert.True(t, a.isLoggedIn())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	lines := capturePrintln(t)
	stubInputs(t, "usta", nil, "bad", nil)

	auth := &fakeAuth{loginErr: fmt.Errorf("login error: %w", client.ErrUnauthorized)}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{})

	require.NoError(t, a.Login(context.Background()))
	assert.Contains(t, *lines, "Invalid username or password")
	assert.Empty(t, a.path)
	assert.False(t, a.isLoggedIn())
}

func TestLogin_ServerUnavailable(t *testing.T) {
	capturePrintln(t)
	stubInputs(t, "usta", nil, "pw", nil)

	auth := &fakeAuth{loginErr: fmt.Errorf("login error: %w", client.ErrUnavailable)}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{})

	err := a.Login(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, ModeOffline, a.mode())
}

func TestLogin_InputErrors(t *testing.T) {
	capturePrintln(t)
	boom := errors.New("boom")

	stubInputs(t, "", boom, "pw", nil)
	a := newTestApp(t, &fakeAuth{}, &fakeSessions{}, &fakeDemo{})
	require.ErrorIs(t, a.Login(context.Background()), boom)

	stubInputs(t, "usta", nil, "", boom)
	require.ErrorIs(t, a.Login(context.Background()), boom)
}

func TestDemoLogin_OpensDemoHome(t *testing.T) {
	lines := capturePrintln(t)
	stubInputs(t, "Zargar", nil, "x", nil)

	auth := &fakeAuth{}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{demo: &models.DemoSession{Token: "demo-token", Name: "Zargar"}})

	require.NoError(t, a.DemoLogin(context.Background()))
	assert.Equal(t, "Zargar", auth.demoName)
	assert.Equal(t, "/workshop", a.path)
	assert.Equal(t, "Zargar", a.decision.DisplayName)
	assert.Contains(t, *lines, "== Bosh sahifa ==\nZargar\n(no content)")
}

func TestDemoLogin_Error(t *testing.T) {
	capturePrintln(t)
	stubInputs(t, "", nil, "", nil)

	auth := &fakeAuth{demoErr: errors.New("username and password are required")}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{})

	require.Error(t, a.DemoLogin(context.Background()))
	assert.Empty(t, a.path)
}

func TestLogout_ShowsLoginForm(t *testing.T) {
	lines := capturePrintln(t)

	auth := &fakeAuth{}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{})

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, auth.logoutCalled)
	assert.Equal(t, "/login", a.path)
	assert.Equal(t, guard.ViewLoginForm, a.decision.View)
	assert.Contains(t, *lines, "== Login ==\nType 'login' to sign in.")
}

func TestDemoLogout_ShowsDemoLoginForm(t *testing.T) {
	lines := capturePrintln(t)

	auth := &fakeAuth{}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{})

	require.NoError(t, a.DemoLogout(context.Background()))
	assert.True(t, auth.demoLogoutCalled)
	assert.Equal(t, "/workshop/login", a.path)
	assert.Contains(t, *lines, "== Workshop login ==\nType 'demologin' to open the demo workshop.")
}

func TestWhoAmI(t *testing.T) {
	lines := capturePrintln(t)

	auth := &fakeAuth{whoAmIRet: &models.Profile{ID: 7, Name: "Ali", WorkshopName: "Zargar"}}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{})

	require.NoError(t, a.WhoAmI(context.Background()))
	assert.Equal(t, []string{"#7 Zargar"}, *lines)
}

func TestWhoAmI_SignedOut(t *testing.T) {
	lines := capturePrintln(t)

	auth := &fakeAuth{whoAmIErr: fmt.Errorf("%w: refresh_rejected", refresh.ErrSignedOut)}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{})

	require.NoError(t, a.WhoAmI(context.Background()))
	assert.Contains(t, *lines, "Not signed in")
	assert.Equal(t, "/login", a.path)
}

func TestWhoAmI_OtherError(t *testing.T) {
	capturePrintln(t)

	auth := &fakeAuth{whoAmIErr: client.ErrUnavailable}
	a := newTestApp(t, auth, &fakeSessions{}, &fakeDemo{})

	require.ErrorIs(t, a.WhoAmI(context.Background()), client.ErrUnavailable)
	assert.Empty(t, a.path)
}
