package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "userhub.identity.v1.IdentityService"

	MethodIntrospect = "/" + ServiceName + "/Introspect"
	MethodGetAccount = "/" + ServiceName + "/GetAccount"
)

// IdentityServer lets other services verify access tokens and look up
// accounts. Requests and responses use well-known protobuf types, so no
// generated code is needed on either side.
type IdentityServer interface {
	// Introspect runs the session guard on an access token and returns the
	// account it belongs to.
	Introspect(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// GetAccount returns an account by id. The caller must present an
	// administrator access token in the access_token metadata key.
	GetAccount(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&identityServiceDesc, srv)
}

var identityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Introspect", Handler: introspectHandler},
		{MethodName: "GetAccount", Handler: getAccountHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "userhub/identity/v1/identity.proto",
}

func introspectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServer).Introspect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodIntrospect}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServer).Introspect(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getAccountHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServer).GetAccount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetAccount}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServer).GetAccount(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// IdentityClient calls IdentityService over an existing connection.
type IdentityClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityClient(cc grpc.ClientConnInterface) *IdentityClient {
	return &IdentityClient{cc: cc}
}

func (c *IdentityClient) Introspect(ctx context.Context, token string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodIntrospect, wrapperspb.String(token), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IdentityClient) GetAccount(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetAccount, wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
