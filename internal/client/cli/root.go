package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := ""
	if a.user != nil {
		s = a.user.Email + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root restores a saved session, starts the connectivity watcher and runs
// the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to userhub CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	a.restoreSession(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) restoreSession(ctx context.Context) {
	ok, err := a.authService.LoggedIn(ctx)
	if err != nil || !ok {
		return
	}
	u, err := a.authService.Me(ctx)
	if err != nil {
		return
	}
	a.setUser(u)
	log.Printf("Restored session for %s", u.Email)
}
