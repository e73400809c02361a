package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/userhub/internal/client/client"
	"github.com/dmitrijs2005/userhub/internal/client/models"
)

// Profile edits the caller's names and avatar URL. Empty answers keep the
// current value.
func (a *App) Profile(ctx context.Context) error {
	var in client.ProfileInput
	for _, f := range []struct {
		prompt string
		dst    **string
	}{
		{"First name (empty to keep)", &in.FirstName},
		{"Last name (empty to keep)", &in.LastName},
		{"Avatar URL (empty to keep)", &in.Avatar},
	} {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return a.report(err)
		}
		if v != "" {
			*f.dst = &v
		}
	}

	u, err := a.userService.UpdateProfile(ctx, in)
	if err != nil {
		return a.report(err)
	}
	a.setUser(u)
	printUser(a, u)
	return nil
}

// Avatar uploads the image at path and makes it the profile avatar.
func (a *App) Avatar(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return a.report(err)
	}

	u, err := a.userService.SetAvatar(ctx, data)
	if err != nil {
		return a.report(err)
	}
	a.setUser(u)
	fmt.Fprintln(a.out, "Avatar updated:", *u.Avatar)
	return nil
}

// Users lists accounts. The optional first argument is the page number;
// anything after it is a search string.
func (a *App) Users(ctx context.Context, args []string) error {
	var q models.ListQuery
	if len(args) > 0 {
		if p, err := strconv.Atoi(args[0]); err == nil {
			q.Page = p
			args = args[1:]
		}
	}
	q.Search = strings.Join(args, " ")

	page, err := a.userService.List(ctx, q)
	if err != nil {
		return a.report(err)
	}

	if len(page.Users) == 0 {
		fmt.Fprintln(a.out, "No users found")
	}
	for _, u := range page.Users {
		fmt.Fprintln(a.out, u.String())
	}
	p := page.Pagination
	fmt.Fprintf(a.out, "Page %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
	return nil
}

func (a *App) User(ctx context.Context, id string) error {
	u, err := a.userService.Get(ctx, id)
	if err != nil {
		return a.report(err)
	}
	printUser(a, u)
	return nil
}

func (a *App) SetActive(ctx context.Context, id string, active bool) error {
	u, err := a.userService.SetActive(ctx, id, active)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, u.String())
	return nil
}

func (a *App) DeleteUser(ctx context.Context, id string) error {
	if err := a.userService.Delete(ctx, id); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Deleted", id)
	return nil
}
