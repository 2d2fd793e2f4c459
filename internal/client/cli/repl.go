package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	DemoLogin(ctx context.Context) error
	Logout(ctx context.Context) error
	DemoLogout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Open(ctx context.Context, path string) error
	Menu(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the atolye client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	help             show available commands
//	login            sign in with username and password
//	demologin        open a demo workshop session
//	logout           sign out
//	demologout       close the demo workshop session
//	whoami           ask the server who is signed in
//	open <path>      navigate to a route, e.g. "open /workshop/send"
//	menu             list the workshop pages
//	exit | quit      leave the program
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("atolye %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: open <path>, menu, whoami, logout, demologout, exit")
			} else {
				printlnFn("Available commands: login, demologin, open <path>, menu, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "demologin":
			err = a.DemoLogin(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "demologout":
			err = a.DemoLogout(ctx)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "open", "o":
			if len(args) == 0 {
				printlnFn("Usage: open <path>")
				continue
			}
			err = a.Open(ctx, args[0])

		case "menu", "m":
			err = a.Menu(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
