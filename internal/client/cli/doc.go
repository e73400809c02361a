// Package cli provides the interactive userhub command-line client.
//
// It wires configuration, the local session database, the HTTP API client
// and an interactive REPL. A saved session is restored on start, and a
// background watcher tracks whether the server is reachable.
//
// Key features:
//   - Register / Login / Logout with tokens persisted between runs
//   - Me / Passwd / Profile for the current account
//   - Users / User / Activate / Deactivate / Delete for administrators
//
// Expired access tokens are refreshed transparently by the client package;
// when a refresh is rejected the session is dropped and the user is asked to
// log in again.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
