package monitor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticSolverRegistry implements SolverRegistry from a YAML file mapping
// each solver's MVM address to its address on every other chain family it
// also operates on, the same static-table pattern as
// pkg/scheduler.RateTable rather than a live hub view call — a reference
// implementation's hub has no real on-chain solver_registry to query.
type StaticSolverRegistry struct {
	// byMVMAddr[mvmAddr][chainFamily] -> connected-chain address.
	byMVMAddr map[string]map[string]string
}

type solverRegistryFile struct {
	Solvers []struct {
		MVMAddress string            `yaml:"mvm_address"`
		Addresses  map[string]string `yaml:"addresses"`
	} `yaml:"solvers"`
}

// LoadSolverRegistry reads a YAML solver registry from path, shaped:
//
//	solvers:
//	  - mvm_address: "0xsolver1"
//	    addresses:
//	      connected-evm: "0xabc..."
//	      connected-svm: "Fg6P..."
func LoadSolverRegistry(path string) (*StaticSolverRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("monitor: read solver registry %s: %w", path, err)
	}
	var file solverRegistryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("monitor: parse solver registry %s: %w", path, err)
	}

	reg := &StaticSolverRegistry{byMVMAddr: make(map[string]map[string]string, len(file.Solvers))}
	for _, s := range file.Solvers {
		addrs := make(map[string]string, len(s.Addresses))
		for family, addr := range s.Addresses {
			addrs[family] = addr
		}
		reg.byMVMAddr[s.MVMAddress] = addrs
	}
	return reg, nil
}

// ResolveConnectedChainAddress implements SolverRegistry. MVM<->MVM
// resolution returns mvmSolverAddr unchanged since the hub and connected-MVM
// chains share the same address space.
func (r *StaticSolverRegistry) ResolveConnectedChainAddress(mvmSolverAddr string, chainFamily string) (string, error) {
	if chainFamily == "hub-mvm" || chainFamily == "connected-mvm" {
		return mvmSolverAddr, nil
	}
	addrs, ok := r.byMVMAddr[mvmSolverAddr]
	if !ok {
		return "", fmt.Errorf("monitor: no registry entry for solver %s", mvmSolverAddr)
	}
	addr, ok := addrs[chainFamily]
	if !ok {
		return "", fmt.Errorf("monitor: solver %s has no registered %s address", mvmSolverAddr, chainFamily)
	}
	return addr, nil
}
