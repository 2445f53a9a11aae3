// Package auth keeps bearer credentials for a block engine connection fresh
// and injects them into every outbound gRPC call.
//
// # Handshake
//
// A client proves ownership of its key with a challenge-response handshake:
//
//  1. Request a challenge for a role, presenting the public key.
//  2. Sign the message "{identity}-{challenge}", where identity is the base58
//     public key.
//  3. Exchange the signed message for an access token and a refresh token.
//
// When the access token expires the refresh token mints a new one. When both
// have expired the handshake runs again.
//
// # Components
//
//   - Credential: a token and its absolute expiry.
//   - TokenStore: the current access and refresh credentials.
//   - Signer: Ed25519Signer, SSHSigner, or any custom implementation.
//   - Coordinator: decides between handshake, refresh, and no-op. Calls to
//     EnsureFresh are serialized, so concurrent callers share one round trip.
//   - Interceptor: unary and streaming client interceptors that call
//     EnsureFresh and set "authorization: Bearer <token>".
//
// # Usage
//
//	coord := auth.NewCoordinator(authpb.NewAuthServiceClient(authConn), signer, auth.Config{Role: authpb.RoleSearcher}, logger)
//	icpt := auth.NewInterceptor(coord, logger)
//	conn, err := grpc.NewClient(addr, append(icpt.DialOptions(), creds)...)
//
// # Errors
//
// Handshake failures wrap ErrAuthenticationFailed and refresh failures wrap
// ErrRefreshFailed. Both also wrap the transport cause, so status.Code and
// errors.Is(err, context.DeadlineExceeded) keep working. A failed attempt
// never changes the TokenStore. A caller whose context ends while queued
// behind another caller's attempt gets ErrGateAbandoned wrapping ctx.Err().
package auth
