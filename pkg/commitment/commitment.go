// Package commitment provides the canonical hashing and address/amount
// normalization helpers shared by every component that needs to agree on a
// byte-identical representation of the same on-chain fact: the monitor when
// it keys caches by intent_id, the validator when it signs approvals, and
// the scheduler when it computes an intent hash for a solver signature.
package commitment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CanonicalizeJSON re-encodes arbitrary JSON with map keys sorted so two
// logically identical objects serialize to the same bytes. Arrays keep their
// original order since position is meaningful there.
func CanonicalizeJSON(raw []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal for canonicalization: %w", err)
	}
	return json.Marshal(canonicalizeValue(v))
}

func canonicalizeValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(map[string]interface{}, len(vv))
		for _, k := range keys {
			ordered[k] = canonicalizeValue(vv[k])
		}
		return ordered
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, e := range vv {
			out[i] = canonicalizeValue(e)
		}
		return out
	default:
		return vv
	}
}

// HashConcat returns SHA-256 of the concatenation of parts, with no
// delimiter — callers are responsible for fixed-width fields so this can't
// be ambiguous (see pkg/gmp/payload.go for the wire format that relies on
// this property).
func HashConcat(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// NormalizeAddress left-pads an address to 32 bytes and returns lowercase hex
// with a 0x prefix, per spec §4.4. Accepts input with or without 0x prefix,
// with or without leading zeros already stripped.
func NormalizeAddress(addr string) (string, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(addr)), "0x")
	if len(trimmed)%2 != 0 {
		trimmed = "0" + trimmed
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("decode address %q: %w", addr, err)
	}
	if len(raw) > 32 {
		return "", fmt.Errorf("address %q exceeds 32 bytes", addr)
	}
	padded := make([]byte, 32)
	copy(padded[32-len(raw):], raw)
	return "0x" + hex.EncodeToString(padded), nil
}

// NormalizeIntentID returns the 64-hex-char, 0x-prefixed form of a 32-byte
// intent id. Idempotent: NormalizeIntentID(NormalizeIntentID(x)) == NormalizeIntentID(x).
func NormalizeIntentID(id string) (string, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("decode intent id %q: %w", id, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("intent id %q must decode to 32 bytes, got %d", id, len(raw))
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// NormalizeMetadata wraps a raw token/metadata address into the hub's native
// object representation, `{"inner":"0x..."}`, per spec §4.4.
func NormalizeMetadata(addr string) (string, error) {
	norm, err := NormalizeAddress(addr)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(map[string]string{"inner": norm})
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	canon, err := CanonicalizeJSON(data)
	if err != nil {
		return "", err
	}
	return string(canon), nil
}
