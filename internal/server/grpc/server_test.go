package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/auth"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/userhub/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fixture struct {
	server *GRPCServer
	auth   *services.AuthService
	repo   *accounts.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := accounts.NewMemoryRepository()
	issuer := auth.NewTokenIssuer(auth.IssuerConfig{
		AccessSecret: []byte("a"), RefreshSecret: []byte("r"), AccessTTL: time.Hour, RefreshTTL: time.Hour,
	})
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	as := services.NewAuthService(repo, issuer, hasher, nopLogger{})
	us := services.NewUsersService(repo, nil, nopLogger{})
	return &fixture{server: NewGRPCServer("", nopLogger{}, as, us), auth: as, repo: repo}
}

func (f *fixture) register(t *testing.T, email string, role models.Role) *services.AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), services.RegisterInput{Email: email, Password: "Abcd1234"})
	require.NoError(t, err)
	if role != models.RoleUser {
		_, err = f.repo.UpdateAdmin(context.Background(), res.Account.ID, models.AdminUpdate{Role: &role})
		require.NoError(t, err)
	}
	return res
}

// dial serves the fixture over an in-memory listener.
func (f *fixture) dial(t *testing.T) *IdentityClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		require.NoError(t, <-done)
	})
	return NewIdentityClient(conn)
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

func TestIntrospect(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "a@x.com", models.RoleUser)
	client := f.dial(t)

	st, err := client.Introspect(context.Background(), res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, st.Fields["id"].GetStringValue())
	assert.Equal(t, "a@x.com", st.Fields["email"].GetStringValue())
	assert.Equal(t, "user", st.Fields["role"].GetStringValue())
	assert.True(t, st.Fields["isActive"].GetBoolValue())

	_, err = client.Introspect(context.Background(), "garbage")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, services.MsgInvalidToken, status.Convert(err).Message())

	_, err = client.Introspect(context.Background(), "")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = f.repo.SetActive(context.Background(), res.Account.ID, false)
	require.NoError(t, err)
	_, err = client.Introspect(context.Background(), res.Tokens.AccessToken)
	assert.Equal(t, services.MsgUserDeactivated, status.Convert(err).Message())
}

func TestGetAccount_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "user@x.com", models.RoleUser)
	admin := f.register(t, "admin@x.com", models.RoleAdmin)
	client := f.dial(t)

	_, err := client.GetAccount(context.Background(), user.Account.ID)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, services.MsgNoToken, status.Convert(err).Message())

	_, err = client.GetAccount(withToken(user.Tokens.AccessToken), user.Account.ID)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	st, err := client.GetAccount(withToken(admin.Tokens.AccessToken), user.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "user@x.com", st.Fields["email"].GetStringValue())

	_, err = client.GetAccount(withToken(admin.Tokens.AccessToken), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetAccount(withToken(admin.Tokens.AccessToken), "bad")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
