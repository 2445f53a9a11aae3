// Package client dials block engine connections that authenticate
// transparently.
//
//	signer, err := auth.LoadSigner("~/.config/solana/id.json")
//	conn, err := client.Dial(ctx, client.Config{
//		Addr:  "mainnet.block-engine.jito.wtf:443",
//		Eager: true,
//	}, signer, logger)
//	defer conn.Close()
//
// conn is a *grpc.ClientConn for any generated service client; each call
// gets an "authorization: Bearer <token>" header from an auth.Coordinator
// that performs the challenge handshake and refreshes as needed.
package client
