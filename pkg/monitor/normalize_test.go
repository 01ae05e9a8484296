package monitor

import "testing"

func TestNormalizeAmountAcceptsU64Range(t *testing.T) {
	amount, err := NormalizeAmount("1000000")
	if err != nil {
		t.Fatalf("normalize amount: %v", err)
	}
	if amount != 1000000 {
		t.Fatalf("expected 1000000, got %d", amount)
	}
}

func TestNormalizeAmountRejectsAboveU64Max(t *testing.T) {
	// 2^64, one past u64::MAX.
	_, err := NormalizeAmount("18446744073709551616")
	if err == nil {
		t.Fatalf("expected error for amount exceeding u64::MAX")
	}
}

func TestNormalizeAmountRejectsNegative(t *testing.T) {
	if _, err := NormalizeAmount("-1"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestNormalizeAmountRejectsGarbage(t *testing.T) {
	if _, err := NormalizeAmount("not-a-number"); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}
