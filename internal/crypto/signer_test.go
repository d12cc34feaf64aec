package crypto

import (
	"strings"
	"testing"
)

// Well-known test vector: the private key 0x...01 maps to this address.
const (
	testKey     = "0x0000000000000000000000000000000000000000000000000000000000000001"
	testAddress = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testKey, 137)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestNewSignerAddress(t *testing.T) {
	s := testSigner(t)
	if got := s.Address().Hex(); got != testAddress {
		t.Fatalf("address = %s, want %s", got, testAddress)
	}
}

func TestNewSignerAcceptsBareHex(t *testing.T) {
	s, err := NewSigner(strings.TrimPrefix(testKey, "0x"), 137)
	if err != nil {
		t.Fatalf("NewSigner without 0x prefix: %v", err)
	}
	if s.Address().Hex() != testAddress {
		t.Fatal("prefix handling changed the derived address")
	}
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	if _, err := NewSigner("not-a-key", 137); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestSignAuthMessage(t *testing.T) {
	s := testSigner(t)

	sig, err := s.SignAuthMessage(testAddress, 1700000000, 0)
	if err != nil {
		t.Fatalf("SignAuthMessage: %v", err)
	}
	// 0x + 65 bytes hex.
	if len(sig) != 132 || !strings.HasPrefix(sig, "0x") {
		t.Fatalf("signature shape = %q (len %d)", sig, len(sig))
	}

	again, _ := s.SignAuthMessage(testAddress, 1700000000, 0)
	if sig != again {
		t.Fatal("signing is not deterministic for identical input")
	}

	other, _ := s.SignAuthMessage(testAddress, 1700000001, 0)
	if sig == other {
		t.Fatal("different timestamp must change the signature")
	}
}

func TestSignOrder(t *testing.T) {
	s := testSigner(t)

	order := OrderPayload{
		Salt:          "12345",
		Maker:         testAddress,
		Signer:        testAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "111222333",
		MakerAmount:   "22500000",
		TakerAmount:   "50000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0,
		SignatureType: 0,
	}

	sig, err := s.SignOrder(order)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	if len(sig) != 132 || !strings.HasPrefix(sig, "0x") {
		t.Fatalf("signature shape = %q", sig)
	}

	order.MakerAmount = "22500001"
	changed, err := s.SignOrder(order)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	if sig == changed {
		t.Fatal("amount change must change the signature")
	}
}

func TestSignOrderRejectsBadNumbers(t *testing.T) {
	s := testSigner(t)

	order := OrderPayload{
		Salt: "not-a-number", TokenID: "1", MakerAmount: "1", TakerAmount: "1",
		Expiration: "0", Nonce: "0", FeeRateBps: "0",
	}
	if _, err := s.SignOrder(order); err == nil {
		t.Fatal("expected error for non-numeric salt")
	}
}
