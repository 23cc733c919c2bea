// Package identity owns this node's durable Ed25519 signing keypair.
//
// The keypair is generated exactly once, on the node's first ever startup,
// and persisted before any request is served. Regenerating it would change
// the node's trust identity within the validator network, so every later
// startup must load the persisted keypair or fail.
package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"verinode/internal/sentinel"
)

// Store persists the node keypair. Load returns sentinel.ErrNotFound when no
// keypair has ever been persisted.
type Store interface {
	Load(ctx context.Context) (ed25519.PrivateKey, error)
	Save(ctx context.Context, key ed25519.PrivateKey) error
}

// Service exposes the node identity and signing primitives. It is immutable
// after Load and safe for concurrent use.
type Service struct {
	nodeName string
	pub      ed25519.PublicKey
	priv     ed25519.PrivateKey
}

// Load returns the node identity, generating and durably persisting a fresh
// keypair on first startup. Any failure here is fatal for the caller: the
// node must not serve requests without a stable identity.
func Load(ctx context.Context, nodeName string, store Store) (*Service, error) {
	priv, err := store.Load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		_, priv, err = ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate keypair: %w", err)
		}
		// Persist both halves before serving anything.
		if err := store.Save(ctx, priv); err != nil {
			return nil, fmt.Errorf("persist keypair: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}

	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type")
	}

	return &Service{
		nodeName: nodeName,
		pub:      pub,
		priv:     priv,
	}, nil
}

// NodeName returns the configured identity label for this node.
func (s *Service) NodeName() string {
	return s.nodeName
}

// PublicKey returns the node's public signing key.
func (s *Service) PublicKey() ed25519.PublicKey {
	return s.pub
}

// PublicKeyEncoded returns the public key in the wire encoding.
func (s *Service) PublicKeyEncoded() string {
	return EncodeKey(s.pub)
}

// Sign signs the message with the node's private key.
func (s *Service) Sign(msg []byte) []byte {
	return ed25519.Sign(s.priv, msg)
}

// Verify reports whether sig is a valid signature of msg under pub.
func (s *Service) Verify(msg, sig []byte, pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// EncodeKey renders raw key bytes in the wire encoding (standard base64).
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey reverses EncodeKey without any structural checks, for callers
// handling signatures rather than keys.
func DecodeKey(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

// ParsePublicKey decodes an encoded public key and checks its structure.
// A requester key that fails here is malformed, not merely unknown.
func ParsePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
