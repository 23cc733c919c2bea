package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"verinode/internal/sentinel"
)

const keyFileName = "identity.json"

// keyFile is the on-disk shape of the persisted keypair.
type keyFile struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// FileStore persists the keypair as a JSON file under the node's data
// directory. Writes go through an atomic rename so a crash can never leave a
// half-written key file behind.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed key store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, keyFileName)}, nil
}

func (s *FileStore) Load(_ context.Context) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}

	priv, err := base64.StdEncoding.DecodeString(kf.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}

	key := ed25519.PrivateKey(priv)

	// Cross-check the stored public half so a corrupted file fails loudly
	// instead of silently changing the node's identity.
	pub, err := ParsePublicKey(kf.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if !pub.Equal(key.Public()) {
		return nil, fmt.Errorf("key file public half does not match private key")
	}

	return key, nil
}

func (s *FileStore) Save(_ context.Context, key ed25519.PrivateKey) error {
	kf := keyFile{
		PublicKey:  EncodeKey(key.Public().(ed25519.PublicKey)),
		PrivateKey: base64.StdEncoding.EncodeToString(key),
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}
