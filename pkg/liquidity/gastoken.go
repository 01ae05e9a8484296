package liquidity

import (
	"fmt"

	"github.com/intentmesh/fabric/pkg/chainadapter"
)

// systemProgramSVM is the canonical identifier the SVM family uses for its
// native gas token (the System Program address, 32 zero bytes, written as
// hex since this reference implementation has no base58 codec dependency).
const systemProgramSVM = "0x0000000000000000000000000000000000000000000000000000000000000000"

// zeroAddressEVM is the EVM family's native-gas-token identifier
// convention (the well-known zero address used by most EVM token
// standards to denote "native coin, not an ERC-20").
const zeroAddressEVM = "0x0000000000000000000000000000000000000000000000000000000000000000"

// GasTokenForChain implements spec §4.7's gas_token_for_chain(chain_id):
// resolves to the native gas token's canonical identifier per chain
// family (MVM: MOVE metadata address, EVM: zero address, SVM: system
// program).
func GasTokenForChain(family chainadapter.Family, moveMetadataAddr string) (string, error) {
	switch family {
	case chainadapter.FamilyHubMVM, chainadapter.FamilyConnectedMVM:
		if moveMetadataAddr == "" {
			return "", fmt.Errorf("liquidity: MOVE gas metadata address not configured")
		}
		return moveMetadataAddr, nil
	case chainadapter.FamilyConnectedEVM:
		return zeroAddressEVM, nil
	case chainadapter.FamilyConnectedSVM:
		return systemProgramSVM, nil
	default:
		return "", fmt.Errorf("liquidity: unknown chain family %s", family)
	}
}
