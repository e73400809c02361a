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
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Me(ctx context.Context) error
	Passwd(ctx context.Context) error
	Profile(ctx context.Context) error
	Avatar(ctx context.Context, path string) error
	Users(ctx context.Context, args []string) error
	User(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	DeleteUser(ctx context.Context, id string) error
	Logout(ctx context.Context) error
}

var usage = map[string]string{
	"avatar":     "<file>",
	"user":       "<id>",
	"activate":   "<id>",
	"deactivate": "<id>",
	"delete":     "<id>",
}

// runREPL starts a simple read–eval–print loop for the userhub CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                  show available commands
//	  - register              create an account
//	  - login                 authenticate
//	  - exit | quit           leave the program
//
//	Logged in:
//	  - me                    show the current account
//	  - passwd                change password
//	  - profile               edit names and avatar URL
//	  - avatar <file>         upload a new avatar image
//	  - users [page] [text]   list accounts (admin)
//	  - user <id>             show one account (admin)
//	  - activate <id>         activate an account (admin)
//	  - deactivate <id>       deactivate an account (admin)
//	  - delete <id>           delete an account (admin)
//	  - logout                log out
//	  - exit | quit           leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("uh %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		withArg := func(fn func(arg string) error) {
			if len(args) == 0 {
				printlnFn("Usage:", cmd, usage[cmd])
				return
			}
			_ = fn(args[0])
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, passwd, profile, avatar, users, user, activate, deactivate, delete, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "me":
			_ = a.Me(ctx)

		case "passwd":
			_ = a.Passwd(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "users":
			_ = a.Users(ctx, args)

		case "avatar":
			withArg(func(path string) error { return a.Avatar(ctx, path) })

		case "user":
			withArg(func(id string) error { return a.User(ctx, id) })

		case "activate":
			withArg(func(id string) error { return a.SetActive(ctx, id, true) })

		case "deactivate":
			withArg(func(id string) error { return a.SetActive(ctx, id, false) })

		case "delete":
			withArg(func(id string) error { return a.DeleteUser(ctx, id) })

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
