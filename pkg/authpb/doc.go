// Package authpb implements the wire side of the block engine's auth.AuthService.
//
// # Messages
//
// The request/response types mirror auth.proto field for field. They are
// encoded with google.golang.org/protobuf/encoding/protowire rather than
// generated code, and expiry timestamps use timestamppb.
//
// # Transport
//
// AuthServiceClient issues calls with grpc.ForceCodec(Codec{}). The codec's name
// is "proto", so on the wire these calls are indistinguishable from calls made
// through protoc-generated stubs:
//
//	c := authpb.NewAuthServiceClient(conn)
//	resp, err := c.GenerateAuthChallenge(ctx, &authpb.GenerateAuthChallengeRequest{
//	    Role:   authpb.RoleSearcher,
//	    Pubkey: pubkey,
//	})
//
// Servers register with RegisterAuthServiceServer and must be created with
// ServerOption.
package authpb
