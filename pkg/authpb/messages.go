// ABOUTME: Wire messages for the auth.AuthService challenge and token exchange
// ABOUTME: Encoded with protowire; field numbers match the block engine's auth.proto

package authpb

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Role scopes the challenge a client asks for.
type Role int32

const (
	RoleUser                  Role = 0
	RoleRelayer               Role = 1
	RoleSearcher              Role = 2
	RoleValidator             Role = 3
	RoleShredstreamSubscriber Role = 4
)

var roleNames = map[Role]string{
	RoleUser:                  "user",
	RoleRelayer:               "relayer",
	RoleSearcher:              "searcher",
	RoleValidator:             "validator",
	RoleShredstreamSubscriber: "shredstream_subscriber",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int32(r))
}

// ParseRole converts a role name (case-insensitive) into a Role.
func ParseRole(s string) (Role, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == want {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Message is implemented by every type in this package that travels over the wire.
type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire(b []byte) error
}

// GenerateAuthChallengeRequest asks the server for a challenge bound to pubkey.
type GenerateAuthChallengeRequest struct {
	Role   Role
	Pubkey []byte
}

func (m *GenerateAuthChallengeRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(m.Role))
	b = appendBytes(b, 2, m.Pubkey)
	return b, nil
}

func (m *GenerateAuthChallengeRequest) UnmarshalWire(b []byte) error {
	*m = GenerateAuthChallengeRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Role = Role(v)
			return n, true
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Pubkey = append([]byte(nil), v...)
			return n, true
		}
		return 0, false
	})
}

// GenerateAuthChallengeResponse carries the server-issued challenge.
type GenerateAuthChallengeResponse struct {
	Challenge string
}

func (m *GenerateAuthChallengeResponse) MarshalWire() ([]byte, error) {
	if err := checkUTF8("challenge", m.Challenge); err != nil {
		return nil, err
	}
	return appendString(nil, 1, m.Challenge), nil
}

func (m *GenerateAuthChallengeResponse) UnmarshalWire(b []byte) error {
	*m = GenerateAuthChallengeResponse{}
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			m.Challenge = v
			return n, true
		}
		return 0, false
	})
	if err != nil {
		return err
	}
	return checkUTF8("challenge", m.Challenge)
}

// GenerateAuthTokensRequest exchanges a signed challenge for a token pair.
// Challenge holds the exact message that SignedChallenge covers.
type GenerateAuthTokensRequest struct {
	Challenge       string
	ClientPubkey    []byte
	SignedChallenge []byte
}

func (m *GenerateAuthTokensRequest) MarshalWire() ([]byte, error) {
	if err := checkUTF8("challenge", m.Challenge); err != nil {
		return nil, err
	}
	var b []byte
	b = appendString(b, 1, m.Challenge)
	b = appendBytes(b, 2, m.ClientPubkey)
	b = appendBytes(b, 3, m.SignedChallenge)
	return b, nil
}

func (m *GenerateAuthTokensRequest) UnmarshalWire(b []byte) error {
	*m = GenerateAuthTokensRequest{}
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if typ != protowire.BytesType {
			return 0, false
		}
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.Challenge = v
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.ClientPubkey = append([]byte(nil), v...)
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(b)
			m.SignedChallenge = append([]byte(nil), v...)
			return n, true
		}
		return 0, false
	})
	if err != nil {
		return err
	}
	return checkUTF8("challenge", m.Challenge)
}

// Token is a bearer value with its absolute expiry.
type Token struct {
	Value        string
	ExpiresAtUtc *timestamppb.Timestamp
}

func (m *Token) MarshalWire() ([]byte, error) {
	if err := checkUTF8("value", m.Value); err != nil {
		return nil, err
	}
	b := appendString(nil, 1, m.Value)
	if m.ExpiresAtUtc != nil {
		ts, err := proto.Marshal(m.ExpiresAtUtc)
		if err != nil {
			return nil, fmt.Errorf("marshaling expires_at_utc: %w", err)
		}
		b = appendEmbedded(b, 2, ts)
	}
	return b, nil
}

func (m *Token) UnmarshalWire(b []byte) error {
	*m = Token{}
	var tsErr error
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if typ != protowire.BytesType {
			return 0, false
		}
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.Value = v
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, true
			}
			ts := new(timestamppb.Timestamp)
			if err := proto.Unmarshal(v, ts); err != nil {
				tsErr = err
			}
			m.ExpiresAtUtc = ts
			return n, true
		}
		return 0, false
	})
	if err != nil {
		return err
	}
	if tsErr != nil {
		return fmt.Errorf("parsing expires_at_utc: %w", tsErr)
	}
	return checkUTF8("value", m.Value)
}

// GenerateAuthTokensResponse returns the access and refresh tokens of a handshake.
type GenerateAuthTokensResponse struct {
	AccessToken  *Token
	RefreshToken *Token
}

func (m *GenerateAuthTokensResponse) MarshalWire() ([]byte, error) {
	var b []byte
	var err error
	if b, err = appendToken(b, 1, m.AccessToken); err != nil {
		return nil, err
	}
	if b, err = appendToken(b, 2, m.RefreshToken); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *GenerateAuthTokensResponse) UnmarshalWire(b []byte) error {
	*m = GenerateAuthTokensResponse{}
	var tokErr error
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if typ != protowire.BytesType || (num != 1 && num != 2) {
			return 0, false
		}
		tok, n, err := consumeToken(b)
		if err != nil && tokErr == nil {
			tokErr = err
		}
		if num == 1 {
			m.AccessToken = tok
		} else {
			m.RefreshToken = tok
		}
		return n, true
	})
	if err != nil {
		return err
	}
	return tokErr
}

// RefreshAccessTokenRequest presents a refresh token for a new access token.
type RefreshAccessTokenRequest struct {
	RefreshToken string
}

func (m *RefreshAccessTokenRequest) MarshalWire() ([]byte, error) {
	if err := checkUTF8("refresh_token", m.RefreshToken); err != nil {
		return nil, err
	}
	return appendString(nil, 1, m.RefreshToken), nil
}

func (m *RefreshAccessTokenRequest) UnmarshalWire(b []byte) error {
	*m = RefreshAccessTokenRequest{}
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			m.RefreshToken = v
			return n, true
		}
		return 0, false
	})
	if err != nil {
		return err
	}
	return checkUTF8("refresh_token", m.RefreshToken)
}

// RefreshAccessTokenResponse carries the freshly minted access token.
type RefreshAccessTokenResponse struct {
	AccessToken *Token
}

func (m *RefreshAccessTokenResponse) MarshalWire() ([]byte, error) {
	return appendToken(nil, 1, m.AccessToken)
}

func (m *RefreshAccessTokenResponse) UnmarshalWire(b []byte) error {
	*m = RefreshAccessTokenResponse{}
	var tokErr error
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num != 1 || typ != protowire.BytesType {
			return 0, false
		}
		tok, n, err := consumeToken(b)
		tokErr = err
		m.AccessToken = tok
		return n, true
	})
	if err != nil {
		return err
	}
	return tokErr
}
