package validatorsvc

import (
	"crypto/ed25519"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/intentmesh/fabric/pkg/chainadapter"
)

func newMultiSignerForTest(t *testing.T) *MultiSigner {
	t.Helper()
	_, edPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	ecdsaPriv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate ecdsa key: %v", err)
	}
	return NewMultiSigner(NewEd25519Signer(edPriv), NewECDSASigner(ecdsaPriv))
}

// TestApproveInflowDispatchesSignatureSchemeByFamily covers the bug where
// ApproveInflow fell through to SignHubApproval for every family except
// connected-svm, including connected-evm.
func TestApproveInflowDispatchesSignatureSchemeByFamily(t *testing.T) {
	intentEv, escrowEv := validIntentAndEscrow()
	registry := &fakeRegistry{resolved: map[string]string{
		"0xsolver-mvm|connected-evm": "0xsolver-evm",
		"0xsolver-mvm|connected-svm": "0xsolver-evm",
		"0xsolver-mvm|hub-mvm":       "0xsolver-evm",
	}}
	checker := NewChecker(registry)

	var intentID [32]byte
	intentID[0] = 0x01

	cases := []struct {
		family      string
		wantPubKey  bool
		description string
	}{
		{chainadapter.FamilyConnectedEVM.String(), false, "EVM uses SignEVMRelease, which returns no public key"},
		{chainadapter.FamilyConnectedSVM.String(), true, "SVM uses SignSVMRelease"},
		{chainadapter.FamilyHubMVM.String(), true, "hub-mvm uses SignHubApproval"},
	}
	for _, tc := range cases {
		t.Run(tc.family, func(t *testing.T) {
			svc := NewService(checker, newMultiSignerForTest(t), nil)
			approval, err := svc.ApproveInflow(intentEv, escrowEv, tc.family, intentID)
			if err != nil {
				t.Fatalf("approve inflow (%s): %v", tc.description, err)
			}
			if approval.Signature == "" {
				t.Fatalf("expected a non-empty signature for family %s", tc.family)
			}
			if hasPubKey := approval.PublicKey != ""; hasPubKey != tc.wantPubKey {
				t.Fatalf("family %s: expected public key present=%v, got %v", tc.family, tc.wantPubKey, hasPubKey)
			}
		})
	}
}

// TestApproveInflowEVMFailsWithEd25519OnlySigner guards against the
// regression this was fixed from: an Ed25519Signer alone cannot produce an
// EVM release signature, so routing connected-evm through it must fail
// rather than silently succeed with the wrong scheme.
func TestApproveInflowEVMFailsWithEd25519OnlySigner(t *testing.T) {
	intentEv, escrowEv := validIntentAndEscrow()
	registry := &fakeRegistry{resolved: map[string]string{"0xsolver-mvm|connected-evm": "0xsolver-evm"}}
	checker := NewChecker(registry)

	_, edPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	svc := NewService(checker, NewEd25519Signer(edPriv), nil)

	var intentID [32]byte
	intentID[0] = 0x01
	if _, err := svc.ApproveInflow(intentEv, escrowEv, chainadapter.FamilyConnectedEVM.String(), intentID); err == nil {
		t.Fatalf("expected an error routing connected-evm through an Ed25519-only signer")
	}
}

// TestValidateOutflowFulfillmentAlwaysUsesHubScheme covers the bug where
// ValidateOutflowFulfillment hardcoded SignEVMRelease and "connected-evm"
// regardless of which connected chain the fulfillment transaction landed
// on. The hub, not the connected chain, verifies this signature, so it
// must always use the hub's Ed25519 scheme and report chain_family as
// hub-mvm.
func TestValidateOutflowFulfillmentAlwaysUsesHubScheme(t *testing.T) {
	registry := &fakeRegistry{resolved: map[string]string{
		"0xsolver-mvm|connected-svm": "0xsolver-svm",
	}}
	checker := NewChecker(registry)
	svc := NewService(checker, newMultiSignerForTest(t), nil)

	in := OutflowCheckInput{
		TxConfirmed:       true,
		TxSuccessful:      true,
		TxIntentID:        "0xintent",
		TxRecipient:       "0xrequester",
		TxAmount:          500,
		TxSolver:          "0xsolver-svm",
		ExpectedIntentID:  "0xintent",
		RequesterAddrConn: "0xrequester",
		DesiredAmount:     500,
		ReservedSolverMVM: "0xsolver-mvm",
		ConnectedChainFam: chainadapter.FamilyConnectedSVM.String(),
	}
	var intentID [32]byte
	intentID[0] = 0x02

	valid, _, approval := svc.ValidateOutflowFulfillment(in, intentID)
	if !valid {
		t.Fatalf("expected fulfillment to validate")
	}
	if approval == nil {
		t.Fatalf("expected an approval")
	}
	if approval.ChainFamily != chainadapter.FamilyHubMVM.String() {
		t.Fatalf("expected chain_family hub-mvm, got %s", approval.ChainFamily)
	}
	if approval.PublicKey == "" {
		t.Fatalf("expected a public key from the hub's Ed25519 scheme")
	}
}

func TestListApprovalsIncludesBothApproveInflowAndValidateOutflow(t *testing.T) {
	intentEv, escrowEv := validIntentAndEscrow()
	registry := &fakeRegistry{resolved: map[string]string{
		"0xsolver-mvm|connected-evm": "0xsolver-evm",
		"0xsolver-mvm|connected-svm": "0xsolver-svm",
	}}
	checker := NewChecker(registry)
	svc := NewService(checker, newMultiSignerForTest(t), nil)

	var intentID1 [32]byte
	intentID1[0] = 0x01
	if _, err := svc.ApproveInflow(intentEv, escrowEv, chainadapter.FamilyConnectedEVM.String(), intentID1); err != nil {
		t.Fatalf("approve inflow: %v", err)
	}

	in := OutflowCheckInput{
		TxConfirmed:       true,
		TxSuccessful:      true,
		TxIntentID:        "0xintent2",
		TxRecipient:       "0xrequester",
		TxAmount:          500,
		TxSolver:          "0xsolver-svm",
		ExpectedIntentID:  "0xintent2",
		RequesterAddrConn: "0xrequester",
		DesiredAmount:     500,
		ReservedSolverMVM: "0xsolver-mvm",
		ConnectedChainFam: chainadapter.FamilyConnectedSVM.String(),
	}
	var intentID2 [32]byte
	intentID2[0] = 0x02
	if valid, _, _ := svc.ValidateOutflowFulfillment(in, intentID2); !valid {
		t.Fatalf("expected fulfillment to validate")
	}

	approvals := svc.ListApprovals()
	if len(approvals) != 2 {
		t.Fatalf("expected 2 cached approvals, got %d", len(approvals))
	}
}
