package common

// AuthorizationHeaderName carries the admin session token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// BearerPrefix prefixes the admin session token in the authorization header.
const BearerPrefix = "Bearer "
