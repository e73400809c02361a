package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) record(s string) error { f.calls = append(f.calls, s); return nil }

func (f *fakeExec) isLoggedIn() bool                     { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error        { return f.record("register") }
func (f *fakeExec) Login(context.Context) error           { f.loggedIn = true; return f.record("login") }
func (f *fakeExec) Me(context.Context) error              { return f.record("me") }
func (f *fakeExec) Passwd(context.Context) error          { return f.record("passwd") }
func (f *fakeExec) Profile(context.Context) error         { return f.record("profile") }
func (f *fakeExec) Avatar(_ context.Context, p string) error { return f.record("avatar " + p) }
func (f *fakeExec) Logout(context.Context) error          { f.loggedIn = false; return f.record("logout") }
func (f *fakeExec) User(_ context.Context, id string) error { return f.record("user " + id) }
func (f *fakeExec) DeleteUser(_ context.Context, id string) error {
	return f.record("delete " + id)
}
func (f *fakeExec) Users(_ context.Context, args []string) error {
	return f.record(strings.TrimSpace("users " + strings.Join(args, " ")))
}
func (f *fakeExec) SetActive(_ context.Context, id string, active bool) error {
	return f.record(fmt.Sprintf("active %s %t", id, active))
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"me",
		"passwd",
		"profile",
		"avatar me.png",
		"users 2 ada",
		"user 42",
		"deactivate 42",
		"activate 42",
		"delete 42",
		"",
		"foobar",
		"logout",
		"exit",
		"me",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login", "me", "passwd", "profile", "avatar me.png", "users 2 ada", "user 42",
		"active 42 false", "active 42 true", "delete 42", "logout",
	}, exec.calls)
	assert.Contains(t, *out, "Available commands: register, login, exit")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_UsageWithoutID(t *testing.T) {
	out := captureOutput(t)

	input := strings.NewReader("user\ndelete\navatar\nquit\n")
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(input))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Usage: user <id>")
	assert.Contains(t, *out, "Usage: delete <id>")
	assert.Contains(t, *out, "Usage: avatar <file>")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	captureOutput(t)
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("register")))
	assert.Equal(t, []string{"register"}, exec.calls)
}
