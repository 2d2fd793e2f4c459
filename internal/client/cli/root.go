package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := ""
	if a.decision.DisplayName != "" {
		s = a.decision.DisplayName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	if a.path != "" {
		s = fmt.Sprintf("%s %s", s, a.path)
	}
	return s
}

// Root greets the user, opens the landing route, starts the connectivity
// watcher and runs the REPL on stdin.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the atolye client (type 'help' for commands)")

	a.probe(ctx)
	_ = a.Open(ctx, "/")

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(wctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
