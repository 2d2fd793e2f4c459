package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/atolye/internal/client/guard"
)

// maxRedirects bounds how many guard redirects one Open follows.
const maxRedirects = 3

type page struct {
	Path  string
	Title string
}

// workshopPages is the demo area navigation menu.
var workshopPages = []page{
	{Path: "/workshop", Title: "Bosh sahifa"},
	{Path: "/workshop/notifications", Title: "Bildirishnomalar"},
	{Path: "/workshop/send", Title: "Yuborish"},
	{Path: "/workshop/history", Title: "Tarix"},
	{Path: "/workshop/account", Title: "Akkaunt"},
}

// pageTitle returns the title of the most specific menu entry containing p.
func pageTitle(p string) string {
	if p == "/" {
		return "Dashboard"
	}
	best := ""
	title := p
	for _, pg := range workshopPages {
		if (p == pg.Path || strings.HasPrefix(p, pg.Path+"/")) && len(pg.Path) > len(best) {
			best, title = pg.Path, pg.Title
		}
	}
	return title
}

// Redirect implements guard.Navigator. The transition is performed by Open
// once the current navigation returns.
func (a *App) Redirect(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.redirect = path
}

func (a *App) takeRedirect() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.redirect
	a.redirect = ""
	return r
}

// onDecision is the guard observer; it shows the loading placeholder while
// the session is being checked.
func (a *App) onDecision(d guard.Decision) {
	if d.View == guard.ViewLoading {
		printlnFn("Loading...")
	}
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.decision.View == guard.ViewProtected
}

// Open navigates to path through the guard, following redirects.
func (a *App) Open(ctx context.Context, path string) error {
	target := path
	for i := 0; i <= maxRedirects; i++ {
		d := a.guard.Navigate(ctx, target)

		a.mu.Lock()
		a.decision = d
		if d.State != guard.StateRedirecting {
			a.path = d.Path
		}
		a.mu.Unlock()

		a.render(d)

		target = a.takeRedirect()
		if target == "" {
			return ctx.Err()
		}
	}
	return fmt.Errorf("too many redirects opening %s", path)
}

func (a *App) render(d guard.Decision) {
	switch d.View {
	case guard.ViewLoginForm:
		if d.Path == a.config.DemoLoginPath {
			printlnFn("== Workshop login ==\nType 'demologin' to open the demo workshop.")
		} else {
			printlnFn("== Login ==\nType 'login' to sign in.")
		}
	case guard.ViewPublic:
		printlnFn(fmt.Sprintf("== %s ==", d.Path))
	case guard.ViewProtected:
		printlnFn(fmt.Sprintf("== %s ==\n%s\n(no content)", pageTitle(d.Path), d.DisplayName))
	case guard.ViewLoading:
		printlnFn("Still checking the session...")
	case guard.ViewNone:
		if d.RedirectTo != "" {
			printlnFn(fmt.Sprintf("Session is not valid, redirecting to %s", d.RedirectTo))
		}
	}
}

// Menu lists the workshop pages, marking the current one.
func (a *App) Menu(ctx context.Context) error {
	a.mu.Lock()
	current := a.path
	a.mu.Unlock()

	for _, pg := range workshopPages {
		mark := " "
		if pageTitle(current) == pg.Title {
			mark = "*"
		}
		printlnFn(fmt.Sprintf("%s %-17s %s", mark, pg.Title, pg.Path))
	}
	return nil
}
