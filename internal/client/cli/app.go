package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/userhub/internal/client/client"
	"github.com/dmitrijs2005/userhub/internal/client/config"
	"github.com/dmitrijs2005/userhub/internal/client/models"
	"github.com/dmitrijs2005/userhub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/userhub/internal/client/services"
	"github.com/jmoiron/sqlx"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	db          *sqlx.DB
	authService services.AuthService
	userService services.UserService
	reader      *bufio.Reader
	out         io.Writer

	mu   sync.Mutex
	user *models.User
	Mode Mode
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	a := &App{config: c, db: db, reader: bufio.NewReader(os.Stdin), out: os.Stdout}

	store := client.NewMetadataTokenStore(metadata.NewSQLiteRepository(db))
	apiClient := client.NewHTTPClient(client.Options{
		BaseURL:  c.ServerURL,
		Timeout:  c.RequestTimeout,
		Store:    store,
		Notifier: client.NotifierFunc(a.notify),
		OnLogout: a.sessionExpired,
	})

	a.authService = services.NewAuthService(apiClient, store)
	a.userService = services.NewUserService(apiClient)
	return a, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) notify(message string) {
	fmt.Fprintln(a.out, "Error:", message)
}

// sessionExpired runs when a token refresh was rejected and the stored
// tokens are gone.
func (a *App) sessionExpired() {
	a.setUser(nil)
	fmt.Fprintln(a.out, "Session expired, please log in again")
}

func (a *App) setUser(u *models.User) {
	a.mu.Lock()
	a.user = u
	a.mu.Unlock()
}

func (a *App) currentUser() *models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *App) isLoggedIn() bool {
	return a.currentUser() != nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()
	if changed {
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
