package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userhub/internal/client/client"
	"github.com/dmitrijs2005/userhub/internal/client/models"
	"github.com/dmitrijs2005/userhub/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errPasswordMismatch = errors.New("passwords do not match")

// report prints err unless the HTTP client already surfaced it through the
// notifier. 401 answers are never notified, so their message is shown here.
func (a *App) report(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnauthorized) && errors.As(err, &apiErr):
		fmt.Fprintln(a.out, "Error:", apiErr.Message)
	case errors.As(err, &apiErr), errors.Is(err, client.ErrUnavailable):
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "Please log in first")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
	return err
}

// readNewPassword prompts twice and returns the password when both entries
// match. The caller wipes the result.
func (a *App) readNewPassword(prompt string) ([]byte, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// Register prompts for the account details and creates the account. The
// server starts a session immediately, so the user ends up logged in.
func (a *App) Register(ctx context.Context) error {
	var in client.RegisterInput
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"Enter email", &in.Email},
		{"First name", &in.FirstName},
		{"Last name", &in.LastName},
	} {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return a.report(err)
		}
		*f.dst = v
	}

	password, err := a.readNewPassword("Enter password")
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)
	in.Password = string(password)
	in.ConfirmPassword = in.Password

	u, err := a.authService.Register(ctx, in)
	if err != nil {
		return a.report(err)
	}

	a.setUser(u)
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", u.Email)
	return nil
}

// Login prompts the user for credentials and starts a session. The password
// is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return a.report(err)
	}

	a.setUser(u)
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", u.Email, u.Role)
	return nil
}

// Logout ends the server session and drops the local tokens.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	a.setUser(nil)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.authService.Me(ctx)
	if err != nil {
		return a.report(err)
	}
	a.setUser(u)
	printUser(a, u)
	return nil
}

// Passwd changes the password. Other sessions are invalidated by the server;
// this one continues with the pair returned alongside the change.
func (a *App) Passwd(ctx context.Context) error {
	current, err := getPassword(a.out, "Current password")
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(current)

	next, err := a.readNewPassword("New password")
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(next)

	if err := a.authService.UpdatePassword(ctx, current, next); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Password updated")
	return nil
}

func printUser(a *App, u *models.User) {
	fmt.Fprintf(a.out, "ID:        %s\n", u.ID)
	fmt.Fprintf(a.out, "Email:     %s\n", u.Email)
	fmt.Fprintf(a.out, "Name:      %s\n", u.FullName)
	fmt.Fprintf(a.out, "Role:      %s\n", u.Role)
	fmt.Fprintf(a.out, "Active:    %t\n", u.IsActive)
	fmt.Fprintf(a.out, "Verified:  %t\n", u.IsEmailVerified)
	if u.Avatar != nil {
		fmt.Fprintf(a.out, "Avatar:    %s\n", *u.Avatar)
	}
	if u.LastLogin != nil {
		fmt.Fprintf(a.out, "Last login: %s\n", u.LastLogin.Local().Format("2006-01-02 15:04"))
	}
}
