// ABOUTME: protowire helpers shared by the auth messages
// ABOUTME: Proto3 semantics: zero scalars are omitted and unknown fields skipped

package authpb

import (
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// fieldFunc consumes the value of one field. It reports handled=false for
// fields it does not know so the caller can skip them.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (n int, handled bool)

func decodeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("authpb: %w", protowire.ParseError(n))
		}
		b = b[n:]

		n, handled := fn(num, typ, b)
		if !handled {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("authpb: field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

// checkUTF8 enforces proto3's rule that string fields hold valid UTF-8.
func checkUTF8(field, v string) error {
	if !utf8.ValidString(v) {
		return fmt.Errorf("authpb: %s: string field contains invalid UTF-8", field)
	}
	return nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// appendEmbedded writes a sub-message even when it is empty, so presence survives.
func appendEmbedded(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendToken(b []byte, num protowire.Number, t *Token) ([]byte, error) {
	if t == nil {
		return b, nil
	}
	raw, err := t.MarshalWire()
	if err != nil {
		return nil, err
	}
	return appendEmbedded(b, num, raw), nil
}

func consumeToken(b []byte) (*Token, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, n, nil
	}
	tok := new(Token)
	if err := tok.UnmarshalWire(v); err != nil {
		return nil, n, err
	}
	return tok, n, nil
}
