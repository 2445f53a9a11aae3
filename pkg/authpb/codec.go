// ABOUTME: gRPC codec for auth messages, registered under the "proto" content subtype
// ABOUTME: Falls back to the protobuf runtime for generated messages on the same server

package authpb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// Codec marshals Message values with protowire and proto.Message values with
// the protobuf runtime. Its name is "proto", so calls made with it carry
// application/grpc+proto and interoperate with generated stubs.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case Message:
		return m.MarshalWire()
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("authpb: cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case Message:
		return m.UnmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("authpb: cannot unmarshal into %T", v)
	}
}
