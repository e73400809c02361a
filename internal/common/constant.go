// Package common contains shared constants and sentinel errors used across
// userhub components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on inbound identity calls.
const AccessTokenHeaderName = "access_token"

// Keys under which the client persists its token pair.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// GenericInternalMessage replaces internal error details outside development.
const GenericInternalMessage = "Something went wrong"
