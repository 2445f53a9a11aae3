// Package authserver is an in-process implementation of auth.AuthService.
//
// It issues single-use challenges, verifies ed25519 signatures over
// "{identity}-{challenge}", and mints HS256 access and refresh tokens. Its
// interceptors guard other services with the resulting bearer tokens. The
// package backs the fake-auth-server command and the end-to-end tests of the
// client packages; it is not a production block engine.
package authserver
