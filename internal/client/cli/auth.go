package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/atolye/internal/client/client"
	"github.com/dmitrijs2005/atolye/internal/client/refresh"
	"github.com/dmitrijs2005/atolye/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials, signs in and opens the home route.
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.authService.Login(ctx, userName, password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			printlnFn("Invalid username or password")
			return nil
		}
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ctx, ModeOffline)
		}
		return err
	}

	a.setMode(ctx, ModeOnline)
	printlnFn(fmt.Sprintf("Welcome, %s!", p.DisplayName()))
	return a.Open(ctx, "/")
}

// DemoLogin opens a demo session and the demo home route. Any non-empty
// username and password are accepted.
func (a *App) DemoLogin(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter workshop name", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.DemoLogin(ctx, name, password); err != nil {
		return err
	}
	return a.Open(ctx, a.config.DemoPrefix)
}

// Logout clears the credential and shows the login route.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	return a.Open(ctx, a.config.LoginPath)
}

// DemoLogout clears the demo slots and shows the demo login route.
func (a *App) DemoLogout(ctx context.Context) error {
	if err := a.authService.DemoLogout(ctx); err != nil {
		return err
	}
	return a.Open(ctx, a.config.DemoLoginPath)
}

// WhoAmI prints the profile the server associates with the session.
func (a *App) WhoAmI(ctx context.Context) error {
	p, err := a.authService.WhoAmI(ctx)
	if err != nil {
		if errors.Is(err, refresh.ErrSignedOut) {
			printlnFn("Not signed in")
			return a.Open(ctx, a.config.LoginPath)
		}
		return err
	}
	printlnFn(fmt.Sprintf("#%d %s", p.ID, p.DisplayName()))
	return nil
}
