package keys

import (
	"path/filepath"
	"testing"
)

func TestLoadOrGenerateEd25519PersistsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ed25519_key.hex")

	first, err := LoadOrGenerateEd25519(path)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := LoadOrGenerateEd25519(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected the persisted key to be reloaded unchanged")
	}
}

func TestLoadOrGenerateECDSAPersistsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecdsa_key.hex")

	first, err := LoadOrGenerateECDSA(path)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := LoadOrGenerateECDSA(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first.D.Cmp(second.D) != 0 {
		t.Fatalf("expected the persisted key to be reloaded unchanged")
	}
}
