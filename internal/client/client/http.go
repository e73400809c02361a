package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/userhub/internal/client/models"
	"github.com/dmitrijs2005/userhub/internal/netx"
)

const refreshPath = "/api/auth/refresh-token"

// Notifier receives user-visible error messages. 401 responses are not
// reported: they end in a refresh or a forced logout.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

type envelope struct {
	Status     string              `json:"status"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Pagination *models.Pagination  `json:"pagination"`
	Errors     []models.FieldError `json:"errors"`
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Store   TokenStore
	// Notifier is optional.
	Notifier Notifier
	// OnLogout runs after a failed refresh cleared the stored tokens.
	OnLogout func()
	// Base is the underlying round tripper, http.DefaultTransport when nil.
	Base http.RoundTripper
}

// HTTPClient talks to the REST API. Every request goes through a Transport
// that refreshes expired access tokens.
type HTTPClient struct {
	baseURL   string
	http      *http.Client
	plain     *http.Client
	store     TokenStore
	refresher *Refresher
	notifier  Notifier
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(opts Options) *HTTPClient {
	c := &HTTPClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		store:    opts.Store,
		notifier: opts.Notifier,
		plain:    &http.Client{Timeout: opts.Timeout, Transport: opts.Base},
	}
	c.refresher = NewRefresher(opts.Store, c.exchange, opts.OnLogout)
	c.http = &http.Client{
		Timeout: opts.Timeout,
		Transport: &Transport{
			Base:      opts.Base,
			Store:     opts.Store,
			Refresher: c.refresher,
			SkipPaths: []string{refreshPath},
		},
	}
	return c
}

// Refresher exposes the coordinator shared by all requests of this client.
func (c *HTTPClient) Refresher() *Refresher { return c.refresher }

// exchange posts the refresh token without the Transport so that a 401 here
// never recurses into another refresh.
func (c *HTTPClient) exchange(ctx context.Context, refreshToken string) (string, string, error) {
	var pair models.TokenPair
	_, err := c.send(ctx, c.plain, http.MethodPost, refreshPath, nil, map[string]string{"refreshToken": refreshToken}, &pair)
	if err != nil {
		return "", "", err
	}
	return pair.AccessToken, pair.RefreshToken, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any) (*envelope, error) {
	env, err := c.send(ctx, c.http, method, path, query, in, out)
	if err != nil && c.notifier != nil && !errors.Is(err, ErrUnauthorized) {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.notifier.Notify(apiErr.Error())
		} else {
			c.notifier.Notify(err.Error())
		}
	}
	return env, err
}

func (c *HTTPClient) send(ctx context.Context, hc *http.Client, method, path string, query url.Values, in, out any) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
			if resp.StatusCode >= http.StatusBadRequest {
				return nil, newAPIError(resp.StatusCode, nil)
			}
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newAPIError(resp.StatusCode, &env)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return &env, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.send(ctx, c.plain, http.MethodGet, "/api/health/live", nil, nil, nil)
	return err
}

func (c *HTTPClient) Register(ctx context.Context, in RegisterInput) (*models.Session, error) {
	var s models.Session
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Session, error) {
	var s models.Session
	in := map[string]string{"email": email, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	return err
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

func (c *HTTPClient) user(ctx context.Context, method, path string, in any) (*models.User, error) {
	var out userEnvelope
	if _, err := c.do(ctx, method, path, nil, in, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	return c.user(ctx, http.MethodGet, "/api/auth/me", nil)
}

func (c *HTTPClient) UpdatePassword(ctx context.Context, current, next string) (*models.TokenPair, error) {
	in := map[string]string{"currentPassword": current, "newPassword": next, "confirmNewPassword": next}
	var pair models.TokenPair
	if _, err := c.do(ctx, http.MethodPatch, "/api/auth/update-password", nil, in, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, in ProfileInput) (*models.User, error) {
	return c.user(ctx, http.MethodPatch, "/api/users/profile", in)
}

func (c *HTTPClient) AvatarUploadURL(ctx context.Context, contentType string) (*models.AvatarUpload, error) {
	var up models.AvatarUpload
	in := map[string]string{"contentType": contentType}
	if _, err := c.do(ctx, http.MethodPost, "/api/users/profile/avatar", nil, in, &up); err != nil {
		return nil, err
	}
	return &up, nil
}

// UploadAvatar PUTs the image straight to object storage. The presigned URL
// carries its own credentials, so the request skips the token transport.
func (c *HTTPClient) UploadAvatar(ctx context.Context, upload *models.AvatarUpload, contentType string, data []byte) error {
	if err := netx.UploadToPresignedURL(ctx, c.plain, upload.UploadURL, contentType, data); err != nil {
		err = fmt.Errorf("avatar upload: %w", err)
		if c.notifier != nil {
			c.notifier.Notify(err.Error())
		}
		return err
	}
	return nil
}

func (c *HTTPClient) ListUsers(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	var users []*models.User
	env, err := c.do(ctx, http.MethodGet, "/api/users", q.Values(), nil, &users)
	if err != nil {
		return nil, err
	}
	page := &models.Page{Users: users}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	}
	return page, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	return c.user(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil)
}

func (c *HTTPClient) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	action := "deactivate"
	if active {
		action = "activate"
	}
	return c.user(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(id)+"/"+action, nil)
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil, nil)
	return err
}
