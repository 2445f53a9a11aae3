// ABOUTME: Signing capability used to answer server challenges
// ABOUTME: Ed25519 keypairs (Solana keypair files, base58 secrets) and OpenSSH ed25519 keys

package auth

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ssh"
)

// Signer holds a keypair. PublicKey is the raw key sent to the server,
// Identity its canonical string form used in the signed message.
type Signer interface {
	PublicKey() []byte
	Identity() string
	Sign(message []byte) ([]byte, error)
}

// ChallengeMessage builds the message a Signer signs to answer challenge.
func ChallengeMessage(identity, challenge string) string {
	return identity + "-" + challenge
}

// Ed25519Signer signs with an in-memory ed25519 private key.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

var _ Signer = (*Ed25519Signer)(nil)

// NewEd25519Signer wraps key, which must be a full 64-byte private key.
func NewEd25519Signer(key ed25519.PrivateKey) (*Ed25519Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: ed25519 private key must be %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(key))
	}
	derived := ed25519.NewKeyFromSeed(key.Seed())
	if !bytes.Equal(derived, key) {
		return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
	}
	return &Ed25519Signer{key: key}, nil
}

// GenerateEd25519Signer creates a signer with a fresh random keypair.
func GenerateEd25519Signer() (*Ed25519Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ed25519 key: %w", err)
	}
	return &Ed25519Signer{key: priv}, nil
}

func (s *Ed25519Signer) PublicKey() []byte {
	pub, _ := s.key.Public().(ed25519.PublicKey)
	return bytes.Clone(pub)
}

// Identity returns the base58 encoding of the public key.
func (s *Ed25519Signer) Identity() string {
	return base58.Encode(s.PublicKey())
}

func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.key, message), nil
}

// WriteKeypairFile stores the key as a JSON array of 64 bytes, the format
// produced by solana-keygen.
func (s *Ed25519Signer) WriteKeypairFile(path string) error {
	ints := make([]int, len(s.key))
	for i, b := range s.key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("encoding keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing keypair file: %w", err)
	}
	return nil
}

// SSHSigner signs through an ssh.Signer holding an ed25519 key, such as one
// parsed from an OpenSSH private key file or served by an agent.
type SSHSigner struct {
	signer ssh.Signer
	pub    ed25519.PublicKey
}

var _ Signer = (*SSHSigner)(nil)

// NewSSHSigner wraps signer. Only ssh-ed25519 keys are accepted.
func NewSSHSigner(signer ssh.Signer) (*SSHSigner, error) {
	sshPub := signer.PublicKey()
	if sshPub.Type() != ssh.KeyAlgoED25519 {
		return nil, fmt.Errorf("%w: unsupported ssh key type %s", ErrInvalidKey, sshPub.Type())
	}
	cpk, ok := sshPub.(ssh.CryptoPublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: ssh key does not expose its public key", ErrInvalidKey)
	}
	pub, ok := cpk.CryptoPublicKey().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: ssh key is not ed25519", ErrInvalidKey)
	}
	return &SSHSigner{signer: signer, pub: pub}, nil
}

func (s *SSHSigner) PublicKey() []byte {
	return bytes.Clone(s.pub)
}

func (s *SSHSigner) Identity() string {
	return base58.Encode(s.pub)
}

// Sign returns the raw 64-byte ed25519 signature from the SSH signature blob.
func (s *SSHSigner) Sign(message []byte) ([]byte, error) {
	sig, err := s.signer.Sign(rand.Reader, message)
	if err != nil {
		return nil, fmt.Errorf("ssh sign: %w", err)
	}
	return sig.Blob, nil
}

// LoadSigner reads a key file. It accepts a solana-keygen JSON keypair, a
// base58-encoded 64-byte secret key, or an unencrypted OpenSSH ed25519 key.
func LoadSigner(path string) (Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return ParseSigner(data)
}

// ParseSigner is LoadSigner for in-memory key material.
func ParseSigner(data []byte) (Signer, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, fmt.Errorf("%w: empty key file", ErrInvalidKey)
	case trimmed[0] == '[':
		return parseKeypairJSON(trimmed)
	case bytes.HasPrefix(trimmed, []byte("-----BEGIN")):
		sshSigner, err := ssh.ParsePrivateKey(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return NewSSHSigner(sshSigner)
	default:
		raw, err := base58.Decode(string(trimmed))
		if err != nil {
			return nil, fmt.Errorf("%w: not a keypair file, base58 secret, or OpenSSH key", ErrInvalidKey)
		}
		return NewEd25519Signer(ed25519.PrivateKey(raw))
	}
}

func parseKeypairJSON(data []byte) (Signer, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("%w: parsing keypair json: %v", ErrInvalidKey, err)
	}
	raw := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: keypair byte %d out of range", ErrInvalidKey, i)
		}
		raw[i] = byte(v)
	}
	return NewEd25519Signer(ed25519.PrivateKey(raw))
}
