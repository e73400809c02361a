// Package client is the HTTP side of the userhub CLI.
//
// HTTPClient implements Client over the REST API. Its requests pass through
// a Transport that sets "Authorization: Bearer <access token>" from a
// TokenStore. When the server answers 401 the Transport asks the client's
// Refresher for a newer token and replays the request once; a second 401 is
// returned to the caller unchanged.
//
// The Refresher is built on golang.org/x/sync/singleflight. All callers that
// observed the same stale token share one refresh exchange and receive the
// same new token. A caller whose context ends stops waiting but does not
// cancel the exchange. When the exchange is rejected the stored tokens are
// cleared and the OnLogout hook runs.
//
// Tokens are kept in the local SQLite database (see InitDatabase and
// MetadataTokenStore) under common.AccessTokenKey and common.RefreshTokenKey.
//
// Errors: non-2xx responses come back as *APIError, which matches
// ErrUnauthorized for 401. Network failures wrap ErrUnavailable.
package client
