package grpc

import (
	"context"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/server/auth"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const AccountKey ctxKey = "account"

// protectedMethods lists the roles allowed to call each guarded method.
var protectedMethods = map[string]models.RoleSet{
	MethodGetAccount: models.AdminOnly,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	allowed, ok := protectedMethods[info.FullMethod]
	if !ok {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, services.MsgNoToken)
	}

	account, _, err := s.auth.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if !auth.Authorize(account.Role, allowed) {
		return nil, status.Error(codes.PermissionDenied, services.MsgPermissionDenied)
	}

	return handler(context.WithValue(ctx, AccountKey, account), req)
}
