// Package grpc exposes the internal identity service used by other backends
// to verify access tokens and look up accounts.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type GRPCServer struct {
	address string
	auth    *services.AuthService
	users   *services.UsersService
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, as *services.AuthService, us *services.UsersService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		users:   us,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	RegisterIdentityServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *GRPCServer) Introspect(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.Unauthenticated, services.MsgNoToken)
	}
	account, _, err := s.auth.Authenticate(ctx, in.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return accountStruct(account)
}

func (s *GRPCServer) GetAccount(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	account, err := s.users.Get(ctx, in.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return accountStruct(account)
}

func accountStruct(a *models.Account) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":              a.ID,
		"email":           a.Email,
		"firstName":       a.FirstName,
		"lastName":        a.LastName,
		"role":            string(a.Role),
		"isActive":        a.IsActive,
		"isEmailVerified": a.IsEmailVerified,
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, common.GenericInternalMessage)
	}
	return st, nil
}

var kindCodes = []struct {
	kind error
	code codes.Code
}{
	{common.ErrorValidation, codes.InvalidArgument},
	{common.ErrorUnauthorized, codes.Unauthenticated},
	{common.ErrorForbidden, codes.PermissionDenied},
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrorAlreadyExists, codes.AlreadyExists},
}

// toStatus maps classified errors to gRPC codes; anything else is logged and
// reported as Internal without detail.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	for _, kc := range kindCodes {
		if errors.Is(err, kc.kind) {
			msg := common.MessageOf(err)
			if msg == "" {
				msg = kc.kind.Error()
			}
			return status.Error(kc.code, msg)
		}
	}
	s.logger.Error(ctx, "grpc request failed", "error", err)
	return status.Error(codes.Internal, common.GenericInternalMessage)
}
