package commitment

import "testing"

func TestNormalizeIntentIDRoundTrip(t *testing.T) {
	id := "0xAA000000000000000000000000000000000000000000000000000000000000aa"
	first, err := NormalizeIntentID(id)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	second, err := NormalizeIntentID(first)
	if err != nil {
		t.Fatalf("renormalize: %v", err)
	}
	if first != second {
		t.Fatalf("normalize not idempotent: %q != %q", first, second)
	}
	if len(first) != 66 { // "0x" + 64 hex chars
		t.Fatalf("expected 64 hex chars with 0x prefix, got %q (len %d)", first, len(first))
	}
}

func TestNormalizeAddressStripsLeadingZerosAndCase(t *testing.T) {
	a, err := NormalizeAddress("0x" + "0123456789abcdef")
	if err != nil {
		t.Fatalf("normalize a: %v", err)
	}
	b, err := NormalizeAddress("0123456789ABCDEF")
	if err != nil {
		t.Fatalf("normalize b: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal normalization, got %q vs %q", a, b)
	}
}

func TestNormalizeAddressRejectsOversize(t *testing.T) {
	big := make([]byte, 66)
	for i := range big {
		big[i] = 'f'
	}
	if _, err := NormalizeAddress(string(big)); err == nil {
		t.Fatalf("expected error for oversize address")
	}
}

func TestCanonicalizeJSONSortsKeys(t *testing.T) {
	a, err := CanonicalizeJSON([]byte(`{"b":1,"a":2}`))
	if err != nil {
		t.Fatalf("canonicalize a: %v", err)
	}
	b, err := CanonicalizeJSON([]byte(`{"a":2,"b":1}`))
	if err != nil {
		t.Fatalf("canonicalize b: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected identical canonical form, got %q vs %q", a, b)
	}
}
