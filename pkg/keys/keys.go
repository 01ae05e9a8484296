// Package keys loads or generates the long-lived signing keys the
// validator and scheduler binaries need, grounded on the teacher's
// loadOrGenerateEd25519Key (main.go): generate on first run, persist
// hex-encoded with owner-only permissions, and load thereafter.
package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// LoadOrGenerateEd25519 loads the hex-encoded Ed25519 private key at path,
// generating and persisting a new one if none exists.
func LoadOrGenerateEd25519(path string) (ed25519.PrivateKey, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("keys: create key directory for %s: %w", path, err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("keys: generate ed25519 key: %w", err)
		}
		if err := os.WriteFile(path, []byte(hex.EncodeToString(priv)), 0o600); err != nil {
			return nil, fmt.Errorf("keys: save ed25519 key to %s: %w", path, err)
		}
		return priv, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read ed25519 key from %s: %w", path, err)
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("keys: decode ed25519 key from %s: %w", path, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keys: invalid ed25519 key size in %s: expected %d, got %d", path, ed25519.PrivateKeySize, len(raw))
	}
	return ed25519.PrivateKey(raw), nil
}

// LoadOrGenerateECDSA loads the hex-encoded secp256k1 private key at path,
// generating and persisting a new one if none exists, using go-ethereum's
// crypto package the same way the teacher's strategy registry does for its
// EthPrivateKey.
func LoadOrGenerateECDSA(path string) (*ecdsa.PrivateKey, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("keys: create key directory for %s: %w", path, err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		priv, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("keys: generate ecdsa key: %w", err)
		}
		keyHex := hex.EncodeToString(crypto.FromECDSA(priv))
		if err := os.WriteFile(path, []byte(keyHex), 0o600); err != nil {
			return nil, fmt.Errorf("keys: save ecdsa key to %s: %w", path, err)
		}
		return priv, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read ecdsa key from %s: %w", path, err)
	}
	priv, err := crypto.HexToECDSA(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("keys: decode ecdsa key from %s: %w", path, err)
	}
	return priv, nil
}
