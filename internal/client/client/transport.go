package client

import (
	"io"
	"net/http"
	"strings"
)

// Transport attaches the stored access token to outgoing requests. A 401
// answer triggers one refresh through the Refresher and one replay of the
// request; the replay's response is returned whatever its status.
type Transport struct {
	// Base performs the actual requests. http.DefaultTransport when nil.
	Base      http.RoundTripper
	Store     TokenStore
	Refresher *Refresher
	// SkipPaths are never refreshed on 401, e.g. the refresh endpoint.
	SkipPaths []string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	access, _, err := t.Store.Tokens(req.Context())
	if err != nil {
		return nil, err
	}

	resp, err := t.base().RoundTrip(authorize(req, access))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if access == "" || t.Refresher == nil || t.skip(req) {
		return resp, nil
	}

	replay, ok := rewind(req)
	if !ok {
		return resp, nil
	}

	fresh, err := t.Refresher.Refresh(req.Context(), access)
	if err != nil {
		if replay.Body != nil {
			_ = replay.Body.Close()
		}
		return resp, nil
	}

	drain(resp)
	return t.base().RoundTrip(authorize(replay, fresh))
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) skip(req *http.Request) bool {
	for _, p := range t.SkipPaths {
		if strings.HasSuffix(req.URL.Path, p) {
			return true
		}
	}
	return false
}

func authorize(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// rewind returns a copy of req with a fresh body. It fails when the body
// cannot be re-read.
func rewind(req *http.Request) (*http.Request, bool) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	r.Body = body
	return r, true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
