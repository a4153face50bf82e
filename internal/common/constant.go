// Package common contains shared constants and sentinel errors used across
// contactbook components.
package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer
// credential on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the optional scheme prefix stripped from bearer credentials
// before decoding.
const BearerPrefix = "Bearer "
