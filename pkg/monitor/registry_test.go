package monitor

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRegistryFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "solvers.yaml")
	content := `
solvers:
  - mvm_address: "0xsolver1"
    addresses:
      connected-evm: "0xevmaddr1"
      connected-svm: "svmaddr1"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadSolverRegistryResolvesConnectedChainAddress(t *testing.T) {
	reg, err := LoadSolverRegistry(writeRegistryFixture(t))
	if err != nil {
		t.Fatalf("load solver registry: %v", err)
	}

	addr, err := reg.ResolveConnectedChainAddress("0xsolver1", "connected-evm")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if addr != "0xevmaddr1" {
		t.Fatalf("expected 0xevmaddr1, got %s", addr)
	}
}

func TestLoadSolverRegistryMVMPassesThrough(t *testing.T) {
	reg, err := LoadSolverRegistry(writeRegistryFixture(t))
	if err != nil {
		t.Fatalf("load solver registry: %v", err)
	}
	addr, err := reg.ResolveConnectedChainAddress("0xsolver1", "connected-mvm")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if addr != "0xsolver1" {
		t.Fatalf("expected passthrough address, got %s", addr)
	}
}

func TestLoadSolverRegistryUnknownSolverErrors(t *testing.T) {
	reg, err := LoadSolverRegistry(writeRegistryFixture(t))
	if err != nil {
		t.Fatalf("load solver registry: %v", err)
	}
	if _, err := reg.ResolveConnectedChainAddress("0xunknown", "connected-evm"); err == nil {
		t.Fatalf("expected error for unknown solver")
	}
}
