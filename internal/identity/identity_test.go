package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_GeneratesOnFirstStartup(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	svc, err := Load(ctx, "node-a", store)
	require.NoError(t, err)

	assert.Equal(t, "node-a", svc.NodeName())
	assert.Len(t, svc.PublicKey(), ed25519.PublicKeySize)

	// The keypair must be durably persisted before the service is returned.
	_, err = store.Load(ctx)
	require.NoError(t, err)
}

func TestLoad_ReloadsSameKeypair(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store1, err := NewFileStore(dir)
	require.NoError(t, err)
	first, err := Load(ctx, "node-a", store1)
	require.NoError(t, err)

	// Simulate a restart with a fresh store over the same directory.
	store2, err := NewFileStore(dir)
	require.NoError(t, err)
	second, err := Load(ctx, "node-a", store2)
	require.NoError(t, err)

	assert.Equal(t, first.PublicKey(), second.PublicKey(),
		"restart must never regenerate the node identity")
}

func TestLoad_CorruptedKeyFileFails(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	_, err = Load(ctx, "node-a", store)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("{not json"), 0o600))

	_, err = Load(ctx, "node-a", store)
	require.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc, err := Load(ctx, "node-a", store)
	require.NoError(t, err)

	msg := []byte("requester public key bytes")
	sig := svc.Sign(msg)

	assert.True(t, svc.Verify(msg, sig, svc.PublicKey()))
	assert.False(t, svc.Verify([]byte("tampered"), sig, svc.PublicKey()))

	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	assert.False(t, svc.Verify(msg, sig, otherPub))
}

func TestParsePublicKey(t *testing.T) {
	t.Run("roundtrips an encoded key", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		parsed, err := ParsePublicKey(EncodeKey(pub))
		require.NoError(t, err)
		assert.True(t, pub.Equal(parsed))
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		_, err := ParsePublicKey("%%%not-base64%%%")
		require.Error(t, err)
	})

	t.Run("rejects wrong key size", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("too short"))
		_, err := ParsePublicKey(short)
		require.Error(t, err)
	})
}
